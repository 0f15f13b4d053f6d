package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"profilegraph/internal/middleware"
	"profilegraph/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Aside fills dest from key, or runs load and stores dest under key for ttl.
// Errors from load are returned as-is and nothing is cached. Redis failures
// degrade to calling load.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() error) error {
	kind := keyKind(key)
	if client == nil {
		return load()
	}

	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			observability.CacheLookups.WithLabelValues(kind, "hit").Inc()
			return nil
		}
		Invalidate(ctx, key)
	case !errors.Is(err, redis.Nil):
		middleware.Logger.WarnContext(ctx, "cache read failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}

	observability.CacheLookups.WithLabelValues(kind, "miss").Inc()
	if err := load(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

func keyKind(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
