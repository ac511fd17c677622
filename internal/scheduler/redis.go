package scheduler

import (
	"crypto/tls"
	"errors"
	"fmt"

	"training_leads_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const defaultQueue = "default"

var errNoRedis = errors.New("scheduler: REDIS_URL is empty")

// backend is the asynq connection shared by the client, worker and periodic
// scheduler of one process.
type backend struct {
	redis asynq.RedisClientOpt
	queue string
}

func newBackend(cfg config.SchedulerConfig) (backend, error) {
	if cfg.GetRedisURL() == "" {
		return backend{}, errNoRedis
	}
	opt, err := parseRedisURL(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return backend{}, err
	}
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = defaultQueue
	}
	return backend{redis: opt, queue: queue}, nil
}

// parseRedisURL accepts redis:// and rediss:// URLs. insecure disables
// certificate checks and also turns TLS on for plain redis:// URLs, which
// managed Redis offerings behind self-signed proxies need.
func parseRedisURL(raw string, insecure bool) (asynq.RedisClientOpt, error) {
	parsed, err := redis.ParseURL(raw)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}

	tlsConfig := parsed.TLSConfig
	switch {
	case tlsConfig != nil && insecure:
		tlsConfig = tlsConfig.Clone()
		tlsConfig.InsecureSkipVerify = true
	case tlsConfig == nil && insecure:
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      parsed.Addr,
		Username:  parsed.Username,
		Password:  parsed.Password,
		DB:        parsed.DB,
		TLSConfig: tlsConfig,
	}, nil
}
