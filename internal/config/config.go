package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the suggestion box API.
type Config struct {
	AppName       string
	AppEnv        string
	AppPort       string
	DatabaseURL   string
	RedisURL      string
	NATSURL       string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	PublicBaseURL string
	AutoMigrate   bool

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string

	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromEmail string
	SMTPFromName  string
	SMTPReplyTo   string
	SMTPUseTLS    bool
	SMTPUseSSL    bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// PushConfigured reports whether VAPID signing material is present.
func (c Config) PushConfigured() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// EmailConfigured reports whether outbound mail can be attempted.
func (c Config) EmailConfigured() bool {
	return c.SMTPHost != "" && c.SMTPFromEmail != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SBOX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "SuggestBox API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("jwt.ttl_minutes", 720)
	v.SetDefault("auto_migrate", true)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.use_tls", true)
	v.SetDefault("smtp.use_ssl", false)
	v.SetDefault("smtp.from_name", "Student Council Suggestion Box")
	v.SetDefault("vapid.subscriber", "admin@school.local")

	ttlMinutes := v.GetInt("jwt.ttl_minutes")
	if ttlMinutes <= 0 {
		ttlMinutes = 720
	}

	cfg := Config{
		AppName:       v.GetString("app.name"),
		AppEnv:        v.GetString("app.env"),
		AppPort:       v.GetString("app.port"),
		DatabaseURL:   v.GetString("database.url"),
		RedisURL:      v.GetString("redis.url"),
		NATSURL:       v.GetString("nats.url"),
		JWTSecret:     v.GetString("jwt.secret"),
		TokenTTL:      time.Duration(ttlMinutes) * time.Minute,
		CORSOrigins:   splitOrigins(v.GetString("cors.origins")),
		PublicBaseURL: strings.TrimRight(v.GetString("public_base_url"), "/"),
		AutoMigrate:   v.GetBool("auto_migrate"),

		VAPIDPublicKey:  v.GetString("vapid.public_key"),
		VAPIDPrivateKey: v.GetString("vapid.private_key"),
		VAPIDSubscriber: v.GetString("vapid.subscriber"),

		SMTPHost:      v.GetString("smtp.host"),
		SMTPPort:      v.GetInt("smtp.port"),
		SMTPUsername:  v.GetString("smtp.username"),
		SMTPPassword:  v.GetString("smtp.password"),
		SMTPFromEmail: v.GetString("smtp.from_email"),
		SMTPFromName:  v.GetString("smtp.from_name"),
		SMTPReplyTo:   v.GetString("smtp.reply_to"),
		SMTPUseTLS:    v.GetBool("smtp.use_tls"),
		SMTPUseSSL:    v.GetBool("smtp.use_ssl"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	return cfg, nil
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, strings.TrimRight(trimmed, "/"))
		}
	}
	return origins
}
