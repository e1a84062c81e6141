package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config конфигурация сервиса из переменных окружения
type Config struct {
	HTTPAddr    string `split_words:"true" default:":9091"`
	Environment string `default:"development"`

	// RedisURL пустое значение — история поиска хранится в памяти
	RedisURL string `split_words:"true"`

	SearchCacheSize int           `split_words:"true" default:"100"`
	SearchCacheTTL  time.Duration `split_words:"true" default:"5m"`
	HistoryLimit    int           `split_words:"true" default:"20"`
}

// IsProduction окружение боевое
func (c *Config) IsProduction() bool { return c.Environment == "production" }

// Load читает .env (если есть) и окружение
func Load() (*Config, error) {
	godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
