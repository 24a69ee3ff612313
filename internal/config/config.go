package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Directory DirectoryConfig `mapstructure:"directory"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Cron      CronConfig      `mapstructure:"cron"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type AuthConfig struct {
	Secret string `mapstructure:"secret"`
}

// DirectoryConfig points at the user service used for identity lookups
// and agent attendance checks.
type DirectoryConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SMSConfig struct {
	APIURL   string        `mapstructure:"api_url"`
	APIKey   string        `mapstructure:"api_key"`
	SenderID string        `mapstructure:"sender_id"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type PricingConfig struct {
	// DefaultBasePrice seeds the base reference price setting on first
	// boot. Later changes go through the admin endpoint, not config.
	DefaultBasePrice string `mapstructure:"default_base_price"`
}

type CronConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	SettlementReminder string `mapstructure:"settlement_reminder"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8083")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("auth.secret", "")
	v.SetDefault("directory.base_url", "http://localhost:8081")
	v.SetDefault("directory.timeout", "10s")
	v.SetDefault("sms.api_url", "https://api.ng.termii.com/api/sms/send")
	v.SetDefault("sms.api_key", "")
	v.SetDefault("sms.sender_id", "TakeAm")
	v.SetDefault("sms.timeout", "10s")
	v.SetDefault("pricing.default_base_price", "100")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.settlement_reminder", "@daily")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
