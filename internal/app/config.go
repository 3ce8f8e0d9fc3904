package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	LogMode string `env:"LOG_MODE" envDefault:"development"`
	Port    string `env:"PORT" envDefault:"8080"`

	JWTSecretKey    string        `env:"JWT_SECRET_KEY" envDefault:"defaultsecret"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"24h"`
	CookieSecure    bool          `env:"COOKIE_SECURE"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	DB       DBConfig       `envPrefix:""`
	Login    LoginConfig    `envPrefix:"LOGIN_"`
	Clinic   ClinicConfig   `envPrefix:""`
	Storage  StorageConfig  `envPrefix:""`
	SendGrid SendGridConfig `envPrefix:"SENDGRID_"`
	Otel     OtelConfig     `envPrefix:"OTEL_"`

	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	MetricsEnabled bool   `env:"METRICS_ENABLED"`
}

type DBConfig struct {
	Driver           string `env:"DB_DRIVER" envDefault:"postgres"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresName     string `env:"POSTGRES_NAME" envDefault:"pawclinic"`
	SQLitePath       string `env:"SQLITE_PATH" envDefault:"pawclinic.db"`
}

type LoginConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	Window      time.Duration `env:"WINDOW" envDefault:"15m"`
}

type ClinicConfig struct {
	TimeZone    string `env:"CLINIC_TZ" envDefault:"UTC"`
	OpenHour    int    `env:"CLINIC_OPEN_HOUR" envDefault:"9"`
	CloseHour   int    `env:"CLINIC_CLOSE_HOUR" envDefault:"17"`
	SlotMinutes int    `env:"SLOT_MINUTES" envDefault:"30"`
}

type StorageConfig struct {
	Mode            string `env:"STORAGE_MODE" envDefault:"local"`
	LocalDir        string `env:"STORAGE_LOCAL_DIR" envDefault:"./media"`
	PublicBaseURL   string `env:"STORAGE_PUBLIC_BASE_URL" envDefault:"/media"`
	BucketName      string `env:"GCS_BUCKET_NAME"`
	CDNDomain       string `env:"GCS_CDN_DOMAIN"`
	CredentialsJSON string `env:"GOOGLE_APPLICATION_CREDENTIALS_JSON"`
}

type SendGridConfig struct {
	APIKey    string `env:"API_KEY"`
	FromEmail string `env:"FROM_EMAIL" envDefault:"no-reply@pawclinic.local"`
	FromName  string `env:"FROM_NAME" envDefault:"PawClinic"`
}

type OtelConfig struct {
	Enabled      bool    `env:"ENABLED"`
	ServiceName  string  `env:"SERVICE_NAME" envDefault:"pawclinic"`
	Endpoint     string  `env:"EXPORTER_OTLP_ENDPOINT"`
	Headers      string  `env:"EXPORTER_OTLP_HEADERS"`
	Insecure     bool    `env:"EXPORTER_OTLP_INSECURE"`
	SamplerRatio float64 `env:"SAMPLER_RATIO" envDefault:"1"`
}

// LoadConfig reads an optional .env file and then the process environment. Variables already
// set in the environment win over .env entries.
func LoadConfig(log *logger.Logger, envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
		if log != nil {
			log.Info("Loaded env file", "path", f)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Clinic.OpenHour < 0 || c.Clinic.CloseHour > 24 || c.Clinic.OpenHour >= c.Clinic.CloseHour {
		return fmt.Errorf("invalid clinic hours %d-%d", c.Clinic.OpenHour, c.Clinic.CloseHour)
	}
	if c.Clinic.SlotMinutes <= 0 || 60%c.Clinic.SlotMinutes != 0 {
		return fmt.Errorf("SLOT_MINUTES must divide 60, got %d", c.Clinic.SlotMinutes)
	}
	if _, err := time.LoadLocation(c.Clinic.TimeZone); err != nil {
		return fmt.Errorf("invalid CLINIC_TZ %q: %w", c.Clinic.TimeZone, err)
	}
	if c.IsProduction() && c.JWTSecretKey == "defaultsecret" {
		return fmt.Errorf("JWT_SECRET_KEY must be set in production")
	}
	return nil
}

func (c Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.AppEnv)) {
	case "prod", "production":
		return true
	}
	return false
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Clinic.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
