package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func keyEchoApp(guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/", guard, func(c *fiber.Ctx) error {
		key, _ := StudentKeyFromContext(c)
		return c.SendString(key)
	})
	return app
}

func TestGenerateStudentKeyIsUnique(t *testing.T) {
	a, err := GenerateStudentKey()
	require.NoError(t, err)
	b, err := GenerateStudentKey()
	require.NoError(t, err)

	require.Len(t, a, 64)
	require.NotEqual(t, a, b)
}

func TestStudentKeyRequiredRejectsMissingHeader(t *testing.T) {
	app := keyEchoApp(StudentKeyRequired())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestStudentKeyRequiredForbidsBearerOnlyCaller(t *testing.T) {
	app := keyEchoApp(StudentKeyRequired())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer some-admin-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestStudentKeyRequiredPassesKeyThrough(t *testing.T) {
	app := keyEchoApp(StudentKeyRequired())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(StudentKeyHeader, "key-a")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestStudentKeyRequiredRejectsOversizedKey(t *testing.T) {
	app := keyEchoApp(StudentKeyRequired())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(StudentKeyHeader, strings.Repeat("x", 200))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestStudentKeyOptionalMintsKey(t *testing.T) {
	app := keyEchoApp(StudentKeyOptional())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	minted := resp.Header.Get(StudentKeyHeader)
	require.Len(t, minted, 64)
}

func TestStudentKeyOptionalKeepsExistingKey(t *testing.T) {
	app := keyEchoApp(StudentKeyOptional())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(StudentKeyHeader, "key-a")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Empty(t, resp.Header.Get(StudentKeyHeader), "existing keys are not echoed back")
}
