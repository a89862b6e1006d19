package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Company CompanyConfig `mapstructure:"company"`
	Member  MemberConfig  `mapstructure:"member"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Events  EventsConfig  `mapstructure:"events"`
	GCS     GCSConfig     `mapstructure:"gcs"`
	Inbox   InboxConfig   `mapstructure:"inbox"`
	Log     LogConfig     `mapstructure:"log"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CompanyConfig selects the active company.
type CompanyConfig struct {
	ID string `mapstructure:"id"`
}

// MemberConfig identifies the signed-in member for permission checks.
type MemberConfig struct {
	ID   string `mapstructure:"id"`
	Role string `mapstructure:"role"`
}

// UploadConfig holds statement upload settings.
type UploadConfig struct {
	SuccessDelay   time.Duration `mapstructure:"success_delay"`
	ProgressEvents bool          `mapstructure:"progress_events"`
}

// EventsConfig holds the event stream endpoint. Empty derives it from api.base_url.
type EventsConfig struct {
	URL string `mapstructure:"url"`
}

// GCSConfig holds Cloud Storage settings. Empty credentials use the ambient ones.
type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

// InboxConfig holds statement inbox settings.
type InboxConfig struct {
	Dir         string        `mapstructure:"dir"`
	AccountID   string        `mapstructure:"account_id"`
	AccountType string        `mapstructure:"account_type"`
	Settle      time.Duration `mapstructure:"settle"`
	Workers     int           `mapstructure:"workers"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Archive     string        `mapstructure:"archive"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration from file and env. Env var overrides use prefix LEDGERDESK_,
// e.g. LEDGERDESK_API_TOKEN for api.token.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("company.id", "")
	v.SetDefault("member.id", "")
	v.SetDefault("member.role", "owner")
	v.SetDefault("upload.success_delay", 1500*time.Millisecond)
	v.SetDefault("upload.progress_events", true)
	v.SetDefault("events.url", "")
	v.SetDefault("gcs.credentials_file", "")
	v.SetDefault("inbox.dir", filepath.Join(os.Getenv("HOME"), "ledgerdesk", "inbox"))
	v.SetDefault("inbox.account_id", "")
	v.SetDefault("inbox.account_type", "bank_account")
	v.SetDefault("inbox.settle", 2*time.Second)
	v.SetDefault("inbox.workers", 2)
	v.SetDefault("inbox.max_retries", 0)
	v.SetDefault("inbox.archive", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("LEDGERDESK_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "ledgerdesk"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("LEDGERDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing default file is fine; an explicit one that cannot be read is not.
	if err := v.ReadInConfig(); err != nil && cfgPath != "" {
		return Config{}, fmt.Errorf("read config %s: %w", cfgPath, err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.API.BaseURL == "" {
		return Config{}, fmt.Errorf("api.base_url is required")
	}
	return c, nil
}
