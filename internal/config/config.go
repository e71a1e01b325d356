package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode   `yaml:"mode"`
	HTTPAddr string `yaml:"http_addr"`
	LogMode  string `yaml:"log_mode"` // dev|prod

	UpstreamURL     string        `yaml:"upstream_url"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	AuthHMACSecret  string        `yaml:"auth_hmac_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	EnableLocalAuth bool          `yaml:"enable_local_auth"`
	AdminUser       string        `yaml:"admin_user"`
	AdminPassHash   string        `yaml:"admin_pass_hash"` // bcrypt

	CORSOriginsOnline  []string `yaml:"cors_origins_online"`
	CORSOriginsOffline []string `yaml:"cors_origins_offline"`

	SessionDriver string        `yaml:"session_driver"` // memory|sqlite|postgres
	SessionDSN    string        `yaml:"session_dsn"`
	SessionTTL    time.Duration `yaml:"session_ttl"` // idle sessions older than this are pruned

	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	FreeTextMin    int   `yaml:"freetext_min"`
	FreeTextMax    int   `yaml:"freetext_max"`
}

// Defaults returns the offline development configuration.
func Defaults() Config {
	return Config{
		Mode:               ModeOffline,
		HTTPAddr:           ":8090",
		LogMode:            "dev",
		UpstreamURL:        "http://localhost:8080",
		UpstreamTimeout:    120 * time.Second,
		AuthHMACSecret:     "supersecret-dev-key",
		TokenTTL:           8 * time.Hour,
		EnableLocalAuth:    true,
		AdminUser:          "admin",
		AdminPassHash:      "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji",
		CORSOriginsOnline:  []string{"https://quiz.mindengage.ai"},
		CORSOriginsOffline: []string{"http://localhost:3000", "http://localhost:8100", "capacitor://localhost"},
		SessionDriver:      "memory",
		SessionTTL:         24 * time.Hour,
		MaxUploadBytes:     20 << 20,
		FreeTextMin:        5,
		FreeTextMax:        10,
	}
}

// Load layers defaults, the YAML file named by QUIZD_CONFIG (if any) and
// environment variables, in that order.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("QUIZD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = ParseYAML(data, cfg); err != nil {
			return Config{}, err
		}
	}
	cfg = overlayEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv is Load without a config file.
func FromEnv() Config {
	return overlayEnv(Defaults())
}

// ParseYAML decodes a single YAML document over base. Unknown keys are
// rejected.
func ParseYAML(data []byte, base Config) (Config, error) {
	cfg := base
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return Config{}, fmt.Errorf("parse config: multiple YAML documents are not supported")
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	switch c.SessionDriver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown session driver %q", c.SessionDriver)
	}
	if c.FreeTextMin < 1 || c.FreeTextMax < c.FreeTextMin {
		return fmt.Errorf("config: freetext range %d..%d is invalid", c.FreeTextMin, c.FreeTextMax)
	}
	if c.Mode == ModeOnline && c.AuthHMACSecret == Defaults().AuthHMACSecret {
		return fmt.Errorf("config: AUTH_HMAC_SECRET must be set in online mode")
	}
	if c.Mode == ModeOnline && c.EnableLocalAuth && c.AdminPassHash == Defaults().AdminPassHash {
		return fmt.Errorf("config: ADMIN_PASS_HASH must be set when local auth is enabled in online mode")
	}
	return nil
}

func overlayEnv(c Config) Config {
	c.Mode = Mode(envOr("MODE", string(c.Mode)))
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.LogMode = envOr("LOG_MODE", c.LogMode)
	c.UpstreamURL = strings.TrimSuffix(envOr("UPSTREAM_URL", c.UpstreamURL), "/")
	c.UpstreamTimeout = envDuration("UPSTREAM_TIMEOUT", c.UpstreamTimeout)
	c.AuthHMACSecret = envOr("AUTH_HMAC_SECRET", c.AuthHMACSecret)
	c.TokenTTL = envDuration("TOKEN_TTL", c.TokenTTL)
	c.EnableLocalAuth = envBool("ENABLE_LOCAL_AUTH", c.EnableLocalAuth)
	c.AdminUser = envOr("ADMIN_USER", c.AdminUser)
	c.AdminPassHash = envOr("ADMIN_PASS_HASH", c.AdminPassHash)
	c.CORSOriginsOnline = csvOr("CORS_ORIGINS_ONLINE", c.CORSOriginsOnline)
	c.CORSOriginsOffline = csvOr("CORS_ORIGINS_OFFLINE", c.CORSOriginsOffline)
	c.SessionDriver = envOr("SESSION_DRIVER", c.SessionDriver)
	c.SessionDSN = envOr("SESSION_DSN", c.SessionDSN)
	c.SessionTTL = envDuration("SESSION_TTL", c.SessionTTL)
	c.MaxUploadBytes = int64(envInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.FreeTextMin = envInt("FREETEXT_MIN", c.FreeTextMin)
	c.FreeTextMax = envInt("FREETEXT_MAX", c.FreeTextMax)
	return c
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}
func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return d
}
func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
