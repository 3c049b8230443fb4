package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once in main and handed to every component that needs it.
type Config struct {
	Env  string
	Port string

	DatabaseURL string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	AdminEmail  string
	FrontendURL string
	CORSOrigins []string

	Google GoogleOAuthConfig

	StorageDriver      string
	UploadDir          string
	PublicUploadPrefix string
	R2                 R2Config
	MaxImageBytes      int64
	MaxPDFBytes        int64

	Redis     RedisConfig
	RateLimit RateLimitConfig

	RabbitMQURL string

	TrustedProxies []string
}

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether Google sign-in can be offered.
func (g GoogleOAuthConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	Region          string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	Prefix         string
}

// Load reads the environment (and .env when present) into a Config.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Env:         getenv("APP_ENV", "development"),
		Port:        getenv("PORT", "8080"),
		DatabaseURL: databaseURL(),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		AdminEmail:  strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		FrontendURL: strings.TrimRight(getenv("FRONTEND_URL", "http://localhost:5173"), "/"),
		Google: GoogleOAuthConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},
		StorageDriver:      strings.ToLower(getenv("STORAGE_DRIVER", "local")),
		UploadDir:          getenv("UPLOAD_DIR", "uploads"),
		PublicUploadPrefix: "/" + strings.Trim(getenv("PUBLIC_UPLOAD_PREFIX", "/uploads"), "/"),
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("CLOUDFLARE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("CLOUDFLARE_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("CLOUDFLARE_BUCKET_NAME"),
			PublicURL:       strings.TrimRight(os.Getenv("CLOUDFLARE_PUBLIC_URL"), "/"),
			Region:          "auto",
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
	}

	var err error
	if cfg.JWTTTL, err = parseDuration("JWT_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = parseInt("BCRYPT_COST", "10"); err != nil {
		return nil, err
	}
	maxImageMB, err := parseInt("MAX_IMAGE_SIZE_MB", "5")
	if err != nil {
		return nil, err
	}
	maxPDFMB, err := parseInt("MAX_PDF_SIZE_MB", "10")
	if err != nil {
		return nil, err
	}
	cfg.MaxImageBytes = int64(maxImageMB) << 20
	cfg.MaxPDFBytes = int64(maxPDFMB) << 20

	if cfg.Redis.DB, err = parseInt("REDIS_DB", "0"); err != nil {
		return nil, err
	}
	cfg.RateLimit.Prefix = getenv("RATE_LIMIT_PREFIX", "ratelimit")
	if cfg.RateLimit.Capacity, err = parseInt("RATE_LIMIT_CAPACITY", "10"); err != nil {
		return nil, err
	}
	if cfg.RateLimit.RefillTokens, err = parseInt("RATE_LIMIT_REFILL", "1"); err != nil {
		return nil, err
	}
	if cfg.RateLimit.RefillInterval, err = parseDuration("RATE_LIMIT_INTERVAL", "6s"); err != nil {
		return nil, err
	}

	if origins := splitList(os.Getenv("CORS_ORIGINS")); len(origins) > 0 {
		cfg.CORSOrigins = origins
	} else {
		cfg.CORSOrigins = []string{cfg.FrontendURL}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("missing required env var: JWT_SECRET")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing database configuration: set DATABASE_URL or DB_HOST/DB_USER/DB_NAME")
	}
	switch c.StorageDriver {
	case "local":
	case "r2":
		if c.R2.AccountID == "" || c.R2.BucketName == "" || c.R2.PublicURL == "" {
			return fmt.Errorf("STORAGE_DRIVER=r2 requires CLOUDFLARE_ACCOUNT_ID, CLOUDFLARE_BUCKET_NAME and CLOUDFLARE_PUBLIC_URL")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.Google.Enabled() && c.AdminEmail == "" {
		return fmt.Errorf("ADMIN_EMAIL is required when Google sign-in is configured")
	}
	return nil
}

func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_NAME")
	if host == "" || user == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, os.Getenv("DB_PASSWORD"), name, getenv("DB_PORT", "5432"), getenv("DB_SSLMODE", "disable"))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(key, def string) (int, error) {
	s := getenv(key, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, s)
	}
	return n, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	s := getenv(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, s)
	}
	return d, nil
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
