package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared struct validator. Field names in its errors are
// the `env` tag of the field, so messages point at the variable to fix.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if name := fld.Tag.Get("env"); name != "" {
				return name
			}
			return fld.Name
		})
	})
	return validate
}

// ValidateStruct validates s and flattens validator errors into one message.
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fe.Field()+" "+describe(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// Config holds the settings of the command line tool itself. Visma.net
// credentials live in vismanet.Config.
type Config struct {
	LogLevel        string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	SyncConcurrency int    `env:"SYNC_CONCURRENCY" validate:"min=1,max=32"`
	SyncPageSize    int    `env:"SYNC_PAGE_SIZE" validate:"min=1,max=1000"` // ERP page size limit
	SyncBatchSize   int    `env:"SYNC_BATCH_SIZE" validate:"min=1,max=10000"`
	ExportDir       string `env:"EXPORT_DIR" validate:"required"`
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	syncConcurrency, err := getEnvInt("SYNC_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	syncPageSize, err := getEnvInt("SYNC_PAGE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	syncBatchSize, err := getEnvInt("SYNC_BATCH_SIZE", 500)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		SyncConcurrency: syncConcurrency,
		SyncPageSize:    syncPageSize,
		SyncBatchSize:   syncBatchSize,
		ExportDir:       getEnv("EXPORT_DIR", "exports"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	return ValidateStruct(c)
}

// NewLogger builds a production logger at the configured level, or a
// development logger when debug is set.
func (c *Config) NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	return zcfg.Build()
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
