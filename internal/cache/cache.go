package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Cache stores JSON values for the dashboard: the newest-first record set
// and each operator's navigator state. A miss, an expired entry and an
// undecodable entry all read as hit == false.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	// SetJSON stores val for ttl; ttl <= 0 keeps it until deleted.
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// GetOrLoad reads key, or calls load and stores its result for ttl.
// Cache failures are logged and never fail the call; load errors are returned.
func GetOrLoad[T any](ctx context.Context, c Cache, log logrus.FieldLogger, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var v T
	hit, err := c.GetJSON(ctx, key, &v)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	if hit {
		return v, nil
	}

	v, err = load(ctx)
	if err != nil {
		return v, err
	}
	if err := c.SetJSON(ctx, key, v, ttl); err != nil {
		log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	return v, nil
}
