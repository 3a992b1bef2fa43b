package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Record store drivers.
const (
	StoreAirtable = "airtable"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is read once at startup and passed to the components that need it.
type Config struct {
	AppPort   string
	LogLevel  string
	LogFormat string
	Store     StoreConfig
	RabbitMQ  RabbitMQConfig
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Driver            string
	AirtableAPIKey    string
	AirtableBaseID    string
	AirtableTableName string
	AirtableAPIURL    string
	Timeout           time.Duration
	DatabaseDSN       string
}

// RabbitMQConfig configures product event publishing. An empty URL disables it.
type RabbitMQConfig struct {
	URL           string
	Queue         string
	ConsumeEvents bool
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// A missing .env file is fine, the environment may already be populated
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from a viper instance, applying defaults and
// checking that the settings required by the chosen store are present.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("APP_PORT", ":3001")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("RECORD_STORE", StoreAirtable)
	v.SetDefault("AIRTABLE_API_URL", "https://api.airtable.com/v0")
	v.SetDefault("AIRTABLE_TIMEOUT", "30s")
	v.SetDefault("RABBITMQ_QUEUE", "product_events")
	v.SetDefault("EVENTS_CONSUMER", false)

	cfg := &Config{
		AppPort:   v.GetString("APP_PORT"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
		Store: StoreConfig{
			Driver:            strings.ToLower(v.GetString("RECORD_STORE")),
			AirtableAPIKey:    v.GetString("AIRTABLE_API_KEY"),
			AirtableBaseID:    v.GetString("AIRTABLE_BASE_ID"),
			AirtableTableName: v.GetString("AIRTABLE_TABLE_NAME"),
			AirtableAPIURL:    v.GetString("AIRTABLE_API_URL"),
			Timeout:           v.GetDuration("AIRTABLE_TIMEOUT"),
			DatabaseDSN:       v.GetString("DATABASE_DSN"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:           v.GetString("RABBITMQ_URL"),
			Queue:         v.GetString("RABBITMQ_QUEUE"),
			ConsumeEvents: v.GetBool("EVENTS_CONSUMER"),
		},
	}
	if !strings.Contains(cfg.AppPort, ":") {
		cfg.AppPort = ":" + cfg.AppPort
	}

	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s StoreConfig) validate() error {
	switch s.Driver {
	case StoreAirtable:
		var missing []string
		if s.AirtableAPIKey == "" {
			missing = append(missing, "AIRTABLE_API_KEY")
		}
		if s.AirtableBaseID == "" {
			missing = append(missing, "AIRTABLE_BASE_ID")
		}
		if s.AirtableTableName == "" {
			missing = append(missing, "AIRTABLE_TABLE_NAME")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
		}
	case StoreSQLite, StorePostgres:
		if s.DatabaseDSN == "" {
			return fmt.Errorf("missing required configuration: DATABASE_DSN for %s record store", s.Driver)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown RECORD_STORE %q", s.Driver)
	}
	return nil
}
