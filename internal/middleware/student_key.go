package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/suggestbox-go-api/internal/utils"
)

// StudentKeyHeader carries the opaque capability a student holds over their
// own suggestions. The server never lists or enumerates keys.
const StudentKeyHeader = "X-Student-Key"

const studentKeyLocal = "student_key"

const (
	studentKeyBytes  = 32
	maxStudentKeyLen = 128
)

// GenerateStudentKey returns a fresh random capability key.
func GenerateStudentKey() (string, error) {
	buf := make([]byte, studentKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate student key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// StudentKeyRequired rejects requests that do not present a student key.
// The key is treated as opaque; only its length is bounded. Bearer-only
// callers are refused outright: admin credentials carry no capability over
// student resources.
func StudentKeyRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(StudentKeyHeader)
		if key == "" {
			if c.Get(fiber.HeaderAuthorization) != "" {
				return utils.SendError(c, fiber.StatusForbidden, utils.CodeForbidden, "Bearer credentials cannot access student resources")
			}
			return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Missing "+StudentKeyHeader+" header")
		}
		if len(key) > maxStudentKeyLen {
			return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Invalid "+StudentKeyHeader+" header")
		}

		c.Locals(studentKeyLocal, key)
		return c.Next()
	}
}

// StudentKeyOptional accepts an existing key or mints a new one for first-time
// submitters. A freshly minted key is echoed back in the response header so
// the client can store it.
func StudentKeyOptional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(StudentKeyHeader)
		if len(key) > maxStudentKeyLen {
			return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Invalid "+StudentKeyHeader+" header")
		}
		if key == "" {
			generated, err := GenerateStudentKey()
			if err != nil {
				return utils.SendError(c, fiber.StatusInternalServerError, utils.CodeInternal, "Failed to issue student key")
			}
			key = generated
			c.Set(StudentKeyHeader, key)
		}

		c.Locals(studentKeyLocal, key)
		return c.Next()
	}
}

// StudentKeyFromContext returns the student key set by the key middlewares.
func StudentKeyFromContext(c *fiber.Ctx) (string, bool) {
	key, ok := c.Locals(studentKeyLocal).(string)
	return key, ok && key != ""
}
