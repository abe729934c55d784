package initializers

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is read from the environment. Each field names its variable in the
// env tag; unset variables keep the value from the default tag.
type Config struct {
	Port        string `env:"PORT" default:"8080" validate:"required"`
	Environment string `env:"ENVIRONMENT" default:"development" validate:"oneof=development production test"`
	DatabaseURL string `env:"DB_URL" validate:"required"`

	JWTSecret string        `env:"JWT_SECRET" validate:"required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" default:"168h" validate:"gt=0"`
	OTPTTL    time.Duration `env:"OTP_TTL" default:"2m" validate:"gt=0"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" default:"[\"http://localhost:3000\"]" validate:"min=1,dive,required"`
	ShareBaseURL   string   `env:"SHARE_BASE_URL" default:"https://skyboxshare.vercel.app/download" validate:"url"`
	MaxUploadBytes int64    `env:"MAX_UPLOAD_BYTES" default:"5242880" validate:"gt=0"`

	StorageDriver    string `env:"STORAGE_DRIVER" default:"s3" validate:"oneof=s3 minio memory"`
	StorageFolder    string `env:"STORAGE_FOLDER" default:"file-sharing" validate:"required"`
	StoragePublicURL string `env:"STORAGE_PUBLIC_URL"`
	AWSRegion        string `env:"AWS_REGION" validate:"required_if=StorageDriver s3"`
	Bucket           string `env:"AWS_BUCKET_NAME" validate:"required_unless=StorageDriver memory"`
	S3Endpoint       string `env:"S3_ENDPOINT" validate:"required_if=StorageDriver minio"`
	S3AccessKey      string `env:"S3_ACCESS_KEY"`
	S3SecretKey      string `env:"S3_SECRET_KEY"`
	S3UseSSL         bool   `env:"S3_USE_SSL" default:"true"`

	MailDriver string `env:"MAIL_DRIVER" default:"smtp" validate:"oneof=smtp log"`
	SMTPHost   string `env:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort   int    `env:"SMTP_PORT" default:"587" validate:"gt=0"`
	EmailUser  string `env:"EMAIL_USER" validate:"required_if=MailDriver smtp"`
	EmailPass  string `env:"EMAIL_PASS" validate:"required_if=MailDriver smtp"`
	EmailFrom  string `env:"EMAIL_FROM"`

	LogLevel    string `env:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogEncoding string `env:"LOG_ENCODING" default:"json" validate:"oneof=json console"`

	RateLimitRPS      float64 `env:"RATE_LIMIT_RPS" default:"1" validate:"gt=0"`
	RateLimitBurst    int     `env:"RATE_LIMIT_BURST" default:"5" validate:"gt=0"`
	OTPRateLimitRPS   float64 `env:"OTP_RATE_LIMIT_RPS" default:"0.2" validate:"gt=0"`
	OTPRateLimitBurst int     `env:"OTP_RATE_LIMIT_BURST" default:"3" validate:"gt=0"`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" default:"1h" validate:"gt=0"`
	ReconcileGrace    time.Duration `env:"RECONCILE_GRACE" default:"15m" validate:"gt=0"`
}

// LoadConfig reads .env (outside Render) and the process environment.
func LoadConfig() (*Config, error) {
	if os.Getenv("RENDER") == "" {
		_ = godotenv.Load()
	}
	return loadConfig(env.Options{})
}

// loadConfig applies defaults, then every variable set in opts' environment
// (the process environment when opts.Environment is nil), then validates.
func loadConfig(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.AllowedOrigins = trimAll(cfg.AllowedOrigins)
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = cfg.EmailUser
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return nil, describeValidation(err)
	}
	return cfg, nil
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func describeValidation(err error) error {
	errs, ok := err.(validator.ValidationErrors) //nolint:errorlint // validator returns the slice type directly
	if !ok {
		return fmt.Errorf("invalid config: %w", err)
	}

	failed := make([]string, 0, len(errs))
	for _, e := range errs {
		tag := e.Tag()
		if e.Param() != "" {
			tag += "=" + e.Param()
		}
		failed = append(failed, e.Field()+": "+tag)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(failed, ", "))
}

func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }
