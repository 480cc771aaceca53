// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Relay    RelayConfig    `mapstructure:"relay"`
	Source   SourceConfig   `mapstructure:"source"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Delay    DelayConfig    `mapstructure:"delay"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	DB       DBConfig       `mapstructure:"db"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// RelayConfig holds anti-bot relay credentials and request shaping.
type RelayConfig struct {
	APIKey       string `mapstructure:"api_key"`
	Endpoint     string `mapstructure:"endpoint"`
	ProxyCountry string `mapstructure:"proxy_country"`
	UserAgent    string `mapstructure:"user_agent"`
	AcceptLang   string `mapstructure:"accept_language"`
}

// SourceConfig points at the classifieds site being scraped.
type SourceConfig struct {
	BaseURL             string `mapstructure:"base_url"`
	PageCap             int    `mapstructure:"page_cap"`
	CountryPrefix       string `mapstructure:"country_prefix"`
	FilterPrivateOwners bool   `mapstructure:"filter_private_owners"`
	FilterPostedToday   bool   `mapstructure:"filter_posted_today"`
}

// ArchiveConfig controls raw artifact persistence.
type ArchiveConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// ScheduleConfig controls the daily trigger.
type ScheduleConfig struct {
	Time     string `mapstructure:"time"`
	LockFile string `mapstructure:"lock_file"`
}

// RetryConfig holds the two independent retry budgets.
type RetryConfig struct {
	PageMaxAttempts  int           `mapstructure:"page_max_attempts"`
	PhoneMaxAttempts int           `mapstructure:"phone_max_attempts"`
	BackoffFactor    float64       `mapstructure:"backoff_factor"`
	BaseDelay        time.Duration `mapstructure:"base_delay"`
	MaxDelay         time.Duration `mapstructure:"max_delay"`
}

// DelayConfig bounds the jittered pause before every relay request.
type DelayConfig struct {
	Min time.Duration `mapstructure:"min"`
	Max time.Duration `mapstructure:"max"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// DBConfig configures the Postgres lead store.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	LeadsTable      string        `mapstructure:"leads_table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// ServerConfig controls the health/metrics HTTP listener.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles development-friendly log output.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load reads configuration from an optional file plus LEADS_* environment
// variables and unmarshals it into a validated Config.
func Load(path string) (Config, error) {
	v := viper.New()

	// Secrets and site targets default empty so AutomaticEnv can fill
	// them; Validate rejects the ones that stay empty.
	v.SetDefault("relay.api_key", "")
	v.SetDefault("source.base_url", "")
	v.SetDefault("db.dsn", "")

	v.SetDefault("relay.endpoint", "https://api.zenrows.com/v1/")
	v.SetDefault("relay.proxy_country", "il")
	v.SetDefault("relay.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("relay.accept_language", "he-IL,he;q=0.9,en-US;q=0.8,en;q=0.7")

	v.SetDefault("source.page_cap", 5)
	v.SetDefault("source.country_prefix", "+972")
	v.SetDefault("source.filter_private_owners", true)
	v.SetDefault("source.filter_posted_today", true)

	v.SetDefault("archive.data_dir", "data/raw")

	v.SetDefault("schedule.time", "08:00")
	v.SetDefault("schedule.lock_file", "lead-harvester.lock")

	v.SetDefault("retry.page_max_attempts", 3)
	v.SetDefault("retry.phone_max_attempts", 2)
	v.SetDefault("retry.backoff_factor", 1.5)
	v.SetDefault("retry.base_delay", "1s")
	v.SetDefault("retry.max_delay", "30s")

	v.SetDefault("delay.min", "2s")
	v.SetDefault("delay.max", "5s")

	v.SetDefault("http.timeout", "90s")

	v.SetDefault("db.leads_table", "leads")

	v.SetDefault("server.port", 9090)
	v.SetDefault("logging.development", false)

	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/lead-harvester/")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
			// No file is fine; defaults plus env vars carry the run.
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.Relay.APIKey == "" {
		return fmt.Errorf("relay.api_key must be set")
	}
	if c.Relay.Endpoint == "" {
		return fmt.Errorf("relay.endpoint must be set")
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url must be set")
	}
	if c.Source.PageCap < 0 {
		return fmt.Errorf("source.page_cap must be >= 0")
	}
	if c.Retry.PageMaxAttempts <= 0 {
		return fmt.Errorf("retry.page_max_attempts must be > 0")
	}
	if c.Retry.PhoneMaxAttempts <= 0 {
		return fmt.Errorf("retry.phone_max_attempts must be > 0")
	}
	if c.Retry.BackoffFactor <= 1 {
		return fmt.Errorf("retry.backoff_factor must be > 1")
	}
	if c.Delay.Min < 0 || c.Delay.Max < c.Delay.Min {
		return fmt.Errorf("delay window must satisfy 0 <= min <= max")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set")
	}
	if _, err := ParseScheduleTime(c.Schedule.Time); err != nil {
		return err
	}
	return nil
}

// ParseScheduleTime validates an HH:MM wall-clock trigger time.
func ParseScheduleTime(s string) (time.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule.time must be HH:MM: %w", err)
	}
	return t, nil
}
