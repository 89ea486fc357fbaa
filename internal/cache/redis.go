package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	id "mugs/pkg/domain"
)

var lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mugs_view_cache_lookups_total",
	Help: "View cache lookups by result",
}, []string{"result"})

// maxDepth bounds the populate depths Invalidate clears.
const maxDepth = 1

// Redis is a Views shared across instances.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (c *Redis) Get(ctx context.Context, key string) (map[string]any, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		lookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		lookups.WithLabelValues("error").Inc()
		return nil, false, err
	}
	var view map[string]any
	if err := json.Unmarshal(raw, &view); err != nil {
		// a corrupt entry is a miss; the caller overwrites it
		lookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	lookups.WithLabelValues("hit").Inc()
	return view, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, view map[string]any, ttl time.Duration) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

func (c *Redis) Invalidate(ctx context.Context, model string, docID id.ID) error {
	keys := make([]string, 0, maxDepth+1)
	for depth := 0; depth <= maxDepth; depth++ {
		keys = append(keys, Key(model, docID, depth))
	}
	return c.client.Del(ctx, keys...).Err()
}
