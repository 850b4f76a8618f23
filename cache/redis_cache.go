package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/madspark-go/ideaflow/internal/corelog"
	"github.com/madspark-go/ideaflow/resilience"
)

// keyNamespace matches the teacher's redis client convention of prefixing
// every key with a fixed namespace so a shared Redis instance can host
// multiple applications.
const keyNamespace = "ideaflow"

// RedisCache backs the Cache capability with Redis, so workflow and agent
// caches survive process restarts and can be shared across orchestrator
// instances (spec §5 "the Cache may be shared across concurrent Runs").
// Round trips go through a short bounded retry before being treated as a
// miss, since §4.5 requires cache errors to never fail the workflow.
type RedisCache struct {
	client      *redis.Client
	logger      corelog.Logger
	retryConfig *resilience.RetryConfig
}

// NewRedisCache connects to addr (host:port) using go-redis/v8.
func NewRedisCache(addr, password string, db int, logger corelog.Logger) *RedisCache {
	if logger == nil {
		logger = corelog.NoOpLogger{}
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		logger:      logger,
		retryConfig: resilience.DefaultRetryConfig(),
	}
}

func formatKey(parts ...string) string {
	key := keyNamespace
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func (c *RedisCache) GetWorkflow(topic, bgContext, optionsKey string) ([]byte, bool) {
	key := formatKey("workflow", WorkflowKey(topic, bgContext, optionsKey))
	var val []byte
	err := resilience.Retry(context.Background(), c.retryConfig, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		v, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		val = v
		return nil
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed, treating as miss", corelog.Fields{"key": key, "error": err.Error()})
		}
		return nil, false
	}
	return val, true
}

func (c *RedisCache) PutWorkflow(topic, bgContext, optionsKey string, result []byte, ttl time.Duration) {
	key := formatKey("workflow", WorkflowKey(topic, bgContext, optionsKey))
	err := resilience.Retry(context.Background(), c.retryConfig, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return c.client.Set(ctx, key, result, ttl).Err()
	})
	if err != nil {
		c.logger.Warn("cache put failed", corelog.Fields{"key": key, "error": err.Error()})
	}
}

func (c *RedisCache) GetAgent(agent, promptKey string) (string, bool) {
	key := formatKey("agent", agent, AgentKey(agent, promptKey))
	var val string
	err := resilience.Retry(context.Background(), c.retryConfig, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		v, err := c.client.Get(ctx, key).Result()
		if err != nil {
			return err
		}
		val = v
		return nil
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed, treating as miss", corelog.Fields{"key": key, "error": err.Error()})
		}
		return "", false
	}
	return val, true
}

func (c *RedisCache) PutAgent(agent, promptKey, text string, ttl time.Duration) {
	key := formatKey("agent", agent, AgentKey(agent, promptKey))
	err := resilience.Retry(context.Background(), c.retryConfig, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return c.client.Set(ctx, key, text, ttl).Err()
	})
	if err != nil {
		c.logger.Warn("cache put failed", corelog.Fields{"key": key, "error": err.Error()})
	}
}

// Invalidate deletes every key matching a SCAN glob pattern, namespaced
// under ideaflow:.
func (c *RedisCache) Invalidate(pattern string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	iter := c.client.Scan(ctx, 0, formatKey(pattern), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("cache invalidate failed", corelog.Fields{"key": iter.Val(), "error": err.Error()})
		}
	}
}

// Clear flushes every key in the ideaflow namespace.
func (c *RedisCache) Clear() {
	c.Invalidate("*")
}

var _ Cache = (*RedisCache)(nil)
