package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server      ServerConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Google      GoogleConfig
	JWT         JWTConfig
	Storage     StorageConfig
	SMTP        SMTPConfig
	Certificate CertificateConfig
	RateLimit   RateLimitConfig
	Mail        MailConfig
	Posts       PostsConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// FrontendURL is used to build links in emails and notifications.
	FrontendURL string
	CORSOrigins []string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Issuer       string

	// AllowInsecure accepts unsigned ID tokens. Ignored outside development.
	AllowInsecure bool
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type StorageConfig struct {
	Driver     string // s3 | minio
	Endpoint   string
	Region     string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PublicURL  string
	PresignTTL time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type CertificateConfig struct {
	BackgroundURL string
	SignatureURL  string
	VerifyBaseURL string
	FetchTimeout  time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type MailConfig struct {
	QueueDriver string // redis | memory
	QueueKey    string
	Workers     int
	MaxAttempts int
	RetryBase   time.Duration
}

type PostsConfig struct {
	CategoryPageSize int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("FRONTEND_URL", "https://zedemy.vercel.app")
	viper.SetDefault("CORS_ORIGINS", "*")
	viper.SetDefault("MONGODB_DATABASE", "zedemy")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("GOOGLE_ISSUER", "https://accounts.google.com")
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 60)
	viper.SetDefault("JWT_REFRESH_TOKEN_TTL", 10080)
	viper.SetDefault("STORAGE_DRIVER", "s3")
	viper.SetDefault("STORAGE_REGION", "ap-south-1")
	viper.SetDefault("STORAGE_BUCKET", "zedemy-certificates")
	viper.SetDefault("STORAGE_PRESIGN_TTL", 3600)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM", "Zedemy <no-reply@zedemy.com>")
	viper.SetDefault("CERT_VERIFY_BASE_URL", "https://zedemy.vercel.app/verify")
	viper.SetDefault("CERT_FETCH_TIMEOUT", 10)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("MAIL_QUEUE_DRIVER", "memory")
	viper.SetDefault("MAIL_QUEUE_KEY", "zedemy:mail:queue")
	viper.SetDefault("MAIL_WORKERS", 2)
	viper.SetDefault("MAIL_MAX_ATTEMPTS", 5)
	viper.SetDefault("MAIL_RETRY_BASE_MS", 500)
	viper.SetDefault("POSTS_CATEGORY_PAGE_SIZE", 100)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			FrontendURL:  strings.TrimRight(viper.GetString("FRONTEND_URL"), "/"),
			CORSOrigins:  splitList(viper.GetString("CORS_ORIGINS")),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Google: GoogleConfig{
			ClientID:      viper.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret:  viper.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:   viper.GetString("GOOGLE_REDIRECT_URL"),
			Issuer:        viper.GetString("GOOGLE_ISSUER"),
			AllowInsecure: viper.GetBool("GOOGLE_INSECURE_ID_TOKENS"),
		},
		JWT: JWTConfig{
			Secret:          viper.GetString("JWT_SECRET"),
			AccessTokenTTL:  time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(viper.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(viper.GetString("STORAGE_DRIVER")),
			Endpoint:   viper.GetString("STORAGE_ENDPOINT"),
			Region:     viper.GetString("STORAGE_REGION"),
			AccessKey:  viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:  viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:     viper.GetString("STORAGE_BUCKET"),
			UseSSL:     viper.GetBool("STORAGE_USE_SSL"),
			PublicURL:  strings.TrimRight(viper.GetString("STORAGE_PUBLIC_URL"), "/"),
			PresignTTL: time.Duration(viper.GetInt("STORAGE_PRESIGN_TTL")) * time.Second,
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			Username: viper.GetString("SMTP_USERNAME"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
		},
		Certificate: CertificateConfig{
			BackgroundURL: viper.GetString("CERT_BACKGROUND_URL"),
			SignatureURL:  viper.GetString("CERT_SIGNATURE_URL"),
			VerifyBaseURL: strings.TrimRight(viper.GetString("CERT_VERIFY_BASE_URL"), "/"),
			FetchTimeout:  time.Duration(viper.GetInt("CERT_FETCH_TIMEOUT")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Mail: MailConfig{
			QueueDriver: strings.ToLower(viper.GetString("MAIL_QUEUE_DRIVER")),
			QueueKey:    viper.GetString("MAIL_QUEUE_KEY"),
			Workers:     viper.GetInt("MAIL_WORKERS"),
			MaxAttempts: viper.GetInt("MAIL_MAX_ATTEMPTS"),
			RetryBase:   time.Duration(viper.GetInt("MAIL_RETRY_BASE_MS")) * time.Millisecond,
		},
		Posts: PostsConfig{
			CategoryPageSize: viper.GetInt("POSTS_CATEGORY_PAGE_SIZE"),
		},
	}

	// Basic validation
	if cfg.JWT.Secret == "" {
		logger.Warn("JWT_SECRET is not set; set a secure value in production")
	}
	if cfg.MongoDB.URI == "" {
		logger.Warn("MONGODB_URI is not set; falling back to in-memory stores")
	}

	return cfg, nil
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
