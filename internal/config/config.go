package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

// FeeConfig holds the pricing tiers. Boundaries are inclusive upper
// limits: a stay of exactly ShortStayLimit is still a short stay.
type FeeConfig struct {
	ShortStayLimit time.Duration
	DayLimit       time.Duration
	ShortStayFee   float64
	DayFee         float64
	OvernightFee   float64
}

type RecognizerConfig struct {
	URL   string
	Token string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Fee         FeeConfig
	Recognizer  RecognizerConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Fee: FeeConfig{
			ShortStayLimit: v.GetDuration("FEE_SHORT_STAY_LIMIT"),
			DayLimit:       v.GetDuration("FEE_DAY_LIMIT"),
			ShortStayFee:   v.GetFloat64("FEE_SHORT_STAY"),
			DayFee:         v.GetFloat64("FEE_DAY"),
			OvernightFee:   v.GetFloat64("FEE_OVERNIGHT"),
		},
		Recognizer: RecognizerConfig{
			URL:   v.GetString("RECOGNIZER_URL"),
			Token: v.GetString("RECOGNIZER_INTERNAL_TOKEN"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Fee.ShortStayLimit == 0 {
		cfg.Fee.ShortStayLimit = 4 * time.Hour
	}
	if cfg.Fee.DayLimit == 0 {
		cfg.Fee.DayLimit = 12 * time.Hour
	}
	if cfg.Fee.ShortStayFee == 0 {
		cfg.Fee.ShortStayFee = 5000
	}
	if cfg.Fee.DayFee == 0 {
		cfg.Fee.DayFee = 30000
	}
	if cfg.Fee.OvernightFee == 0 {
		cfg.Fee.OvernightFee = 50000
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Fee.ShortStayLimit >= cfg.Fee.DayLimit {
		return fmt.Errorf("FEE_SHORT_STAY_LIMIT must be below FEE_DAY_LIMIT")
	}
	return nil
}
