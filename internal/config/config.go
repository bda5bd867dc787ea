package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// DefaultSpreadsheetID is the hostel's fee spreadsheet.
const DefaultSpreadsheetID = "1xzJ_GRoB-EiEcULuUd9KslUhBet5XkCYZvQAtTey9Jc"

type Config struct {
	// HTTP Server
	Port           string        `envconfig:"PORT" default:"5173" validate:"required,number"`
	AppEnv         string        `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production test"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:8080,https://hostel-fees-insight.vercel.app" validate:"dive,url"`
	RateLimit      int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120" validate:"min=1"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ReadTimeout    time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout   time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`

	// Backend selection
	DataBackend string `envconfig:"DATA_BACKEND" default:"sheets" validate:"oneof=sheets memory sqlite"`

	// Google Sheets
	GoogleSpreadsheetID   string `envconfig:"GOOGLE_SPREADSHEET_ID" default:"1xzJ_GRoB-EiEcULuUd9KslUhBet5XkCYZvQAtTey9Jc"`
	GoogleCredentialsJSON string `envconfig:"GOOGLE_CREDENTIALS"`
	GoogleCredentialsFile string `envconfig:"GOOGLE_CREDENTIALS_FILE"`

	// Memory backend
	MemoryDataDir string `envconfig:"MEMORY_DATA_DIR" default:"data"`

	// Database
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH" default:"./data/hostelfees.db"`

	// AMQP
	AMQPURL      string `envconfig:"AMQP_URL" validate:"omitempty,url"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"hostelfees"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"mirror_sheets"`

	// Mirror worker
	MirrorInterval    time.Duration `envconfig:"MIRROR_INTERVAL" default:"15m"`
	MirrorConcurrency int           `envconfig:"MIRROR_CONCURRENCY" default:"4" validate:"min=1,max=16"`
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.GoogleCredentialsFile == "" {
		cfg.GoogleCredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	cfg.DataBackend = strings.ToLower(strings.TrimSpace(cfg.DataBackend))
	return &cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HasCredentials reports whether any Google credentials are configured.
func (c *Config) HasCredentials() bool {
	return strings.TrimSpace(c.GoogleCredentialsJSON) != "" || c.GoogleCredentialsFile != ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("envconfig"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				errors = append(errors, describe(fe))
			}
		} else {
			errors = append(errors, err.Error())
		}
	}

	if port, err := strconv.Atoi(c.Port); err == nil && (port < 1 || port > 65535) {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, t := range []struct {
		name string
		d    time.Duration
	}{
		{"REQUEST_TIMEOUT", c.RequestTimeout},
		{"READ_TIMEOUT", c.ReadTimeout},
		{"WRITE_TIMEOUT", c.WriteTimeout},
	} {
		if t.d <= 0 {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be positive", t.name, t.d))
		}
	}

	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err == nil && parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DataBackend == "sheets" {
		if strings.TrimSpace(c.GoogleSpreadsheetID) == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if !c.HasCredentials() {
			errors = append(errors, "either GOOGLE_CREDENTIALS or GOOGLE_CREDENTIALS_FILE must be provided for sheets backend")
		}
		if c.GoogleCredentialsJSON == "" && c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if c.MirrorInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 minute", c.MirrorInterval))
	} else if c.MirrorInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at most 24 hours", c.MirrorInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "number":
		return fmt.Sprintf("invalid %s '%v': must be a number", fe.Field(), fe.Value())
	case "oneof":
		return fmt.Sprintf("invalid %s '%v': must be one of %s", fe.Field(), fe.Value(), fe.Param())
	case "url":
		return fmt.Sprintf("invalid %s '%v': must be a URL", fe.Field(), fe.Value())
	case "min":
		return fmt.Sprintf("invalid %s %v: must be at least %s", fe.Field(), fe.Value(), fe.Param())
	case "max":
		return fmt.Sprintf("invalid %s %v: must be at most %s", fe.Field(), fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("invalid %s '%v': failed %s", fe.Field(), fe.Value(), fe.Tag())
	}
}
