package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"env" validate:"oneof=development production staging"`
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	WordlistSource  string        `mapstructure:"wordlist_source" validate:"required"`
	WordlistTimeout time.Duration `mapstructure:"wordlist_timeout" validate:"min=0"`
	AdvanceDelay    time.Duration `mapstructure:"quiz_advance_delay" validate:"min=0"`
	ReverseLimit    int           `mapstructure:"quiz_reverse_limit" validate:"min=0"`
	CookieMaxAge    time.Duration `mapstructure:"cookie_max_age" validate:"min=0"`
	SessionTTL      time.Duration `mapstructure:"session_ttl" validate:"min=0"`
	RateLimitRPS    int           `mapstructure:"rate_limit_rps" validate:"min=1"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst" validate:"min=1"`
	RateLimiterTTL  time.Duration `mapstructure:"rate_limiter_ttl" validate:"min=0"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

var validate = validator.New()

// Load reads an optional .env file, then the environment, over built-in
// defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("wordlist_source", "data/words.txt")
	v.SetDefault("wordlist_timeout", 10*time.Second)
	v.SetDefault("quiz_advance_delay", 2*time.Second)
	v.SetDefault("quiz_reverse_limit", 0)
	v.SetDefault("cookie_max_age", 2*time.Hour)
	v.SetDefault("session_ttl", 3*time.Hour)
	v.SetDefault("rate_limit_rps", 5)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("rate_limiter_ttl", time.Hour)
	v.AutomaticEnv()

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if os.Getenv("GIN_MODE") == "release" {
		cfg.Env = "production"
	}
	cfg.Env = strings.ToLower(cfg.Env)

	if err := validateStruct(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validation failed: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("Field: %s, Tag: %s, Param: %s", fe.Field(), fe.Tag(), fe.Param()))
		}
		return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}
