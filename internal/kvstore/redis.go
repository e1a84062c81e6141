package kvstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Config настройки подключения к Redis
type Config struct {
	URL          string `split_words:"true" required:"true"`
	ReadTimeout  int    `split_words:"true" default:"3"`
	WriteTimeout int    `split_words:"true" default:"3"`
	DialTimeout  int    `split_words:"true" default:"5"`
}

// New открывает клиент и проверяет соединение
func (c *Config) New() (*redis.Client, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, err
	}

	opts.ReadTimeout = time.Duration(c.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(c.WriteTimeout) * time.Second
	opts.DialTimeout = time.Duration(c.DialTimeout) * time.Second

	client := redis.NewClient(opts)

	if cmd := client.Ping(context.Background()); cmd.Err() != nil {
		return nil, cmd.Err()
	}

	return client, nil
}

// Redis реализация Store поверх redis-клиента
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

var _ Store = (*Redis)(nil)

func (r *Redis) Get(ctx context.Context, key string, v any) (bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "kvstore: get %s", key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errors.Wrapf(err, "kvstore: decode %s", key)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "kvstore: encode %s", key)
	}
	// 0 — без срока жизни: история переживает рестарты
	if err := r.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return errors.Wrapf(err, "kvstore: set %s", key)
	}
	return nil
}
