package medicine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinic/rxengine/internal/platform/db"
)

// ActiveCatalogKey returns the redis key holding a clinic's cached active
// catalog. Requests outside a clinic scope share the "default" entry.
func ActiveCatalogKey(clinicID string) string {
	if clinicID == "" {
		clinicID = "default"
	}
	return "rx:catalog:" + clinicID + ":active"
}

// cacheClient is the subset of *redis.Client used by CachedCatalog.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedCatalog is a read-through cache of the active catalog snapshot.
// Cache failures are logged and never surface to callers; errors from the
// inner repository are returned unchanged.
type CachedCatalog struct {
	client cacheClient
	inner  CatalogRepository
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedCatalog(client cacheClient, inner CatalogRepository, ttl time.Duration, logger zerolog.Logger) *CachedCatalog {
	return &CachedCatalog{
		client: client,
		inner:  inner,
		ttl:    ttl,
		logger: logger.With().Str("component", "catalog_cache").Logger(),
	}
}

func (c *CachedCatalog) ListActive(ctx context.Context) ([]*Medicine, error) {
	key := ActiveCatalogKey(db.ClinicFromContext(ctx))
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var meds []*Medicine
		jerr := json.Unmarshal(raw, &meds)
		if jerr == nil {
			return meds, nil
		}
		c.logger.Warn().Err(jerr).Msg("discarding undecodable catalog cache entry")
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn().Err(err).Msg("catalog cache read failed")
	}

	meds, err := c.inner.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(meds)
	if err != nil {
		c.logger.Warn().Err(err).Msg("encode catalog for cache")
		return meds, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("catalog cache write failed")
	}
	return meds, nil
}
