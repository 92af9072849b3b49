package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/authstate"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	AllowOrigins []string

	// Token endpoint attempts allowed per client IP.
	LoginRatePerMinute int
	LoginRateBurst     int
	TrustedProxies     []string

	SeedDemoUsers bool
	DemoPassword  string

	// Region used to parse phone numbers written without a country code.
	DefaultPhoneRegion string
}

// ClientConfig configures the dashctl terminal client.
type ClientConfig struct {
	APIURL       string
	SessionFile  string
	Demo         bool
	DemoPassword string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:        getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),

		AllowOrigins: getList("CORS_ALLOW_ORIGINS", []string{"*"}),

		LoginRatePerMinute: getInt("LOGIN_RATE_PER_MINUTE", 10),
		LoginRateBurst:     getInt("LOGIN_RATE_BURST", 5),
		TrustedProxies:     getList("TRUSTED_PROXIES", nil),

		SeedDemoUsers: getBool("SEED_DEMO_USERS", false),
		DemoPassword:  getEnv("DEMO_PASSWORD", "demo123"),

		DefaultPhoneRegion: strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "US")),
	}, nil
}

func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	sessionFile := getEnv("AIDEN_SESSION_FILE", "")
	if sessionFile == "" {
		path, err := authstate.DefaultSessionPath()
		if err != nil {
			return nil, err
		}
		sessionFile = path
	}

	return &ClientConfig{
		APIURL:       strings.TrimRight(getEnv("AIDEN_API_URL", "http://localhost:8080"), "/"),
		SessionFile:  sessionFile,
		Demo:         getBool("AIDEN_DEMO", false),
		DemoPassword: getEnv("DEMO_PASSWORD", "demo123"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
