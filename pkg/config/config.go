// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageDynamoDB = "dynamodb"
	StorageMemory   = "memory"
)

// Config is shared by the API server and the lambdas. Each binary validates
// the parts it uses.
type Config struct {
	HTTPPort      string
	StorageDriver string
	LogLevel      slog.Level

	CreditsTable        string
	CreditActivityTable string
	SagasTable          string
	CalendarTable       string

	AlertsQueueURL string

	LockTokenSecret string
	LockTokenTTL    time.Duration
	Currency        string

	Square SquareConfig

	NotifyFromAddress string
	OpsEmailAddresses []string
	NotifyTimeout     time.Duration

	RecoveryThreshold time.Duration
}

type SquareConfig struct {
	BaseURL     string
	AccessToken string
	LocationID  string
	APIVersion  string
	Timeout     time.Duration
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("STORAGE_DRIVER", StorageDynamoDB)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOCK_TOKEN_TTL", "5m")
	v.SetDefault("CURRENCY", "USD")
	v.SetDefault("SQUARE_BASE_URL", "https://connect.squareup.com")
	v.SetDefault("SQUARE_API_VERSION", "2024-07-17")
	v.SetDefault("PAYMENT_TIMEOUT", "15s")
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("RECOVERY_THRESHOLD", "20m")

	return v
}

// FromViper builds a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		HTTPPort:            v.GetString("HTTP_PORT"),
		StorageDriver:       strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		LogLevel:            level,
		CreditsTable:        v.GetString("DYNAMODB_CREDITS_TABLE_NAME"),
		CreditActivityTable: v.GetString("DYNAMODB_CREDIT_ACTIVITY_TABLE_NAME"),
		SagasTable:          v.GetString("DYNAMODB_SAGAS_TABLE_NAME"),
		CalendarTable:       v.GetString("DYNAMODB_CALENDAR_TABLE_NAME"),
		AlertsQueueURL:      v.GetString("SQS_ALERTS_QUEUE_URL"),
		LockTokenSecret:     v.GetString("LOCK_TOKEN_SECRET"),
		LockTokenTTL:        v.GetDuration("LOCK_TOKEN_TTL"),
		Currency:            strings.ToUpper(v.GetString("CURRENCY")),
		Square: SquareConfig{
			BaseURL:     v.GetString("SQUARE_BASE_URL"),
			AccessToken: v.GetString("SQUARE_ACCESS_TOKEN"),
			LocationID:  v.GetString("SQUARE_LOCATION_ID"),
			APIVersion:  v.GetString("SQUARE_API_VERSION"),
			Timeout:     v.GetDuration("PAYMENT_TIMEOUT"),
		},
		NotifyFromAddress: v.GetString("NOTIFY_FROM_ADDRESS"),
		OpsEmailAddresses: splitList(v.GetString("OPS_EMAIL_ADDRESS")),
		NotifyTimeout:     v.GetDuration("NOTIFY_TIMEOUT"),
		RecoveryThreshold: v.GetDuration("RECOVERY_THRESHOLD"),
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateStorage checks the settings every binary needs to reach its store.
func (c *Config) ValidateStorage() error {
	switch c.StorageDriver {
	case StorageMemory:
		return nil
	case StorageDynamoDB:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	var errs []error
	for key, value := range map[string]string{
		"DYNAMODB_CREDITS_TABLE_NAME":         c.CreditsTable,
		"DYNAMODB_CREDIT_ACTIVITY_TABLE_NAME": c.CreditActivityTable,
		"DYNAMODB_SAGAS_TABLE_NAME":           c.SagasTable,
		"DYNAMODB_CALENDAR_TABLE_NAME":        c.CalendarTable,
	} {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is not set", key))
		}
	}
	return errors.Join(errs...)
}

// Validate checks everything the API server needs.
func (c *Config) Validate() error {
	errs := []error{c.ValidateStorage()}
	if c.LockTokenSecret == "" {
		errs = append(errs, errors.New("LOCK_TOKEN_SECRET is not set"))
	}
	if c.LockTokenTTL <= 0 {
		errs = append(errs, errors.New("LOCK_TOKEN_TTL must be positive"))
	}
	if c.Currency == "" {
		errs = append(errs, errors.New("CURRENCY is not set"))
	}
	if c.Square.AccessToken == "" {
		errs = append(errs, errors.New("SQUARE_ACCESS_TOKEN is not set"))
	}
	if c.Square.LocationID == "" {
		errs = append(errs, errors.New("SQUARE_LOCATION_ID is not set"))
	}
	return errors.Join(errs...)
}

// ValidateRecovery checks what the recovery sweep needs: durable storage and
// a gateway to cancel provider orders with.
func (c *Config) ValidateRecovery() error {
	errs := []error{c.ValidateStorage()}
	if c.StorageDriver == StorageMemory {
		errs = append(errs, errors.New("recovery requires the dynamodb storage driver"))
	}
	if c.Square.AccessToken == "" {
		errs = append(errs, errors.New("SQUARE_ACCESS_TOKEN is not set"))
	}
	if c.Square.LocationID == "" {
		errs = append(errs, errors.New("SQUARE_LOCATION_ID is not set"))
	}
	if c.RecoveryThreshold <= 0 {
		errs = append(errs, errors.New("RECOVERY_THRESHOLD must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateAlerts checks what the alert forwarder needs.
func (c *Config) ValidateAlerts() error {
	var errs []error
	if c.NotifyFromAddress == "" {
		errs = append(errs, errors.New("NOTIFY_FROM_ADDRESS is not set"))
	}
	if len(c.OpsEmailAddresses) == 0 {
		errs = append(errs, errors.New("OPS_EMAIL_ADDRESS is not set"))
	}
	return errors.Join(errs...)
}

// Logger returns a JSON slog logger at the configured level.
func (c *Config) Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: c.LogLevel}))
}
