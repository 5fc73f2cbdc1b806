package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration.
type Config struct {
	AppEnv  string `validate:"oneof=development production test"`
	Server  ServerConfig
	Auth    AuthConfig
	Log     LogConfig
	Extract ExtractConfig
	DESADV  DESADVConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port             string `validate:"required,numeric"`
	AllowedOrigins   string
	MaxUploadBytes   int64         `validate:"gt=0"`
	UploadRatePerSec float64       `validate:"gt=0"`
	UploadRateBurst  int           `validate:"gte=1"`
	SessionTTL       time.Duration `validate:"gt=0"`
}

// AuthConfig holds the cookie signing key and the credential table location.
type AuthConfig struct {
	JWTSecret string
	// UsersFile is a JSON credential table; empty means the demo users.
	UsersFile string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `validate:"oneof=json text"`
}

// ExtractConfig tunes the document heuristics.
type ExtractConfig struct {
	BareOrderNumbers  bool
	ForbiddenPrefixes []string `validate:"dive,numeric"`
}

// DESADVConfig holds the portal check settings.
type DESADVConfig struct {
	Mode      string        `validate:"oneof=live simulated"`
	Username  string        `validate:"required_if=Mode live"`
	Password  string        `validate:"required_if=Mode live"`
	Timeout   time.Duration `validate:"gt=0"`
	Threshold float64       `validate:"gt=0"`
	AuchanURL string        `validate:"required,url"`
	Edi1URL   string        `validate:"required,url"`
}

// Load reads configuration from environment variables and validates it.
// Callers load .env themselves before calling.
func Load() (*Config, error) {
	var errs []string
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:             getEnv("SERVER_PORT", "8080"),
			AllowedOrigins:   os.Getenv("ALLOWED_ORIGINS"),
			MaxUploadBytes:   getEnvInt64("MAX_UPLOAD_BYTES", 50<<20, &errs),
			UploadRatePerSec: getEnvFloat("UPLOAD_RATE_PER_SEC", 2, &errs),
			UploadRateBurst:  int(getEnvInt64("UPLOAD_RATE_BURST", 5, &errs)),
			SessionTTL:       getEnvDuration("SESSION_TTL", 8*time.Hour, &errs),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			UsersFile: os.Getenv("USERS_FILE"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		Extract: ExtractConfig{
			BareOrderNumbers:  EnvBool("EXTRACT_BARE_ORDER_NUMBERS"),
			ForbiddenPrefixes: splitList(getEnv("EXTRACT_FORBIDDEN_PREFIXES", "302,376")),
		},
		DESADV: DESADVConfig{
			Mode:      strings.ToLower(getEnv("DESADV_MODE", "simulated")),
			Username:  os.Getenv("DESADV_USERNAME"),
			Password:  os.Getenv("DESADV_PASSWORD"),
			Timeout:   getEnvDuration("DESADV_TIMEOUT", 10*time.Second, &errs),
			Threshold: getEnvFloat("DESADV_THRESHOLD", 850, &errs),
			AuchanURL: getEnv("AUCHAN_URL", "https://auchan.atgped.net"),
			Edi1URL:   getEnv("EDI1_URL", "https://edi1.atgpedi.net"),
		},
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET is required and must be at least 16 characters")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64, errs *[]string) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64, errs *[]string) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration, errs *[]string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
