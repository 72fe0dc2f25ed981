package config

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"carenest/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Addr               string
	SessionSecret      []byte
	SessionTTL         time.Duration
	RecaptchaSiteKey   string
	RecaptchaSecretKey string
	GalleryRoot        string
	UploadRoot         string
	UsersFile          string
	DatabaseURL        string
	LogLevel           string
	LogDev             bool
	CORSOrigin         string
}

// New returns a viper instance reading the process environment, with a
// .env file loaded first when one exists.
func New() *viper.Viper {
	if err := godotenv.Load(); err != nil {
		logger.Sugar.Debug("No .env file found, using environment variables from OS")
	}

	v := viper.New()
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("SESSION_TTL", 12*time.Hour)
	v.SetDefault("GALLERY_ROOT", "static/customer_images")
	v.SetDefault("UPLOAD_ROOT", "uploads")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEV", false)
	v.SetDefault("CORS_ORIGIN", "")
	for _, key := range []string{"SESSION_SECRET", "RECAPTCHA_SITE_KEY", "RECAPTCHA_SECRET_KEY", "USERS_FILE", "DATABASE_URL"} {
		v.SetDefault(key, "")
	}
	v.AutomaticEnv()
	return v
}

// Load reads the configuration from v. A missing SESSION_SECRET is replaced
// by a random one, which invalidates sessions on every restart.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Addr:               strings.TrimSpace(v.GetString("ADDR")),
		SessionTTL:         v.GetDuration("SESSION_TTL"),
		RecaptchaSiteKey:   strings.TrimSpace(v.GetString("RECAPTCHA_SITE_KEY")),
		RecaptchaSecretKey: strings.TrimSpace(v.GetString("RECAPTCHA_SECRET_KEY")),
		GalleryRoot:        v.GetString("GALLERY_ROOT"),
		UploadRoot:         v.GetString("UPLOAD_ROOT"),
		UsersFile:          v.GetString("USERS_FILE"),
		DatabaseURL:        strings.TrimSpace(v.GetString("DATABASE_URL")),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogDev:             v.GetBool("LOG_DEV"),
		CORSOrigin:         v.GetString("CORS_ORIGIN"),
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}

	secret := v.GetString("SESSION_SECRET")
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return Config{}, fmt.Errorf("generate session secret: %w", err)
		}
		logger.Sugar.Warn("SESSION_SECRET is not set, using a random secret; sessions will not survive a restart")
		cfg.SessionSecret = buf
	} else {
		cfg.SessionSecret = []byte(secret)
	}
	return cfg, nil
}
