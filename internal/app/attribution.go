/**
 * @description
 * Attribution resolution for inbound conversion events. Resolution is
 * ordered and first-match-wins:
 *
 *   1. attribution key — Redis cache first, then the Postgres click index
 *   2. referral code   — direct lookup on the unique code
 *   3. none            — the event is logged for reconciliation, nothing
 *                        financial is created
 *
 * The winning method is recorded in the conversion metadata for
 * traceability.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9: attribution-key cache with 30-day TTL.
 * - internal/store: click history and affiliate lookups.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/reflift/affiliate-service/internal/domain"
	"github.com/reflift/affiliate-service/internal/store"
)

// AttributionCache maps attribution keys to affiliate ids. The click tracker
// stores entries with a TTL matching the attribution cookie; the resolver
// treats the cache as best-effort and falls back to the click index.
type AttributionCache interface {
	Store(ctx context.Context, attributionKey string, affiliateID uuid.UUID, ttl time.Duration) error
	Lookup(ctx context.Context, attributionKey string) (uuid.UUID, bool, error)
}

// RedisAttributionCache is the Redis-backed AttributionCache.
type RedisAttributionCache struct {
	client *redis.Client
	prefix string
}

// NewRedisAttributionCache creates a cache using the given key prefix.
func NewRedisAttributionCache(client *redis.Client, prefix string) *RedisAttributionCache {
	if prefix == "" {
		prefix = "affiliate:attribution"
	}
	return &RedisAttributionCache{client: client, prefix: prefix}
}

func (c *RedisAttributionCache) key(attributionKey string) string {
	return fmt.Sprintf("%s:%s", c.prefix, attributionKey)
}

// Store writes the key -> affiliate mapping with the given TTL.
func (c *RedisAttributionCache) Store(ctx context.Context, attributionKey string, affiliateID uuid.UUID, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(attributionKey), affiliateID.String(), ttl).Err()
}

// Lookup resolves an attribution key. The second return is false on a miss.
func (c *RedisAttributionCache) Lookup(ctx context.Context, attributionKey string) (uuid.UUID, bool, error) {
	value, err := c.client.Get(ctx, c.key(attributionKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	affiliateID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt cache entry for %s: %w", attributionKey, err)
	}
	return affiliateID, true, nil
}

// resolveAttribution maps a conversion event to the affiliate that should
// receive credit, returning the affiliate (nil when unattributed) and the
// method that won.
func (s *Service) resolveAttribution(ctx context.Context, event domain.ConversionEvent) (*domain.Affiliate, string, error) {
	if event.AttributionKey != "" {
		affiliate, err := s.resolveByAttributionKey(ctx, event.AttributionKey)
		if err != nil {
			return nil, "", err
		}
		if affiliate != nil {
			return affiliate, domain.AttributionMethodKey, nil
		}
	}

	if event.ReferralCode != "" {
		affiliate, err := s.repo.FindAffiliateByReferralCode(ctx, event.ReferralCode)
		if err != nil {
			if errors.Is(err, store.ErrAffiliateNotFound) {
				return nil, domain.AttributionMethodNone, nil
			}
			return nil, "", err
		}
		return affiliate, domain.AttributionMethodCode, nil
	}

	return nil, domain.AttributionMethodNone, nil
}

// resolveByAttributionKey tries the cache, then the click index. A stale or
// unknown key yields (nil, nil) so resolution can fall through to the
// referral code.
func (s *Service) resolveByAttributionKey(ctx context.Context, attributionKey string) (*domain.Affiliate, error) {
	if s.cache != nil {
		affiliateID, hit, err := s.cache.Lookup(ctx, attributionKey)
		if err != nil {
			// Cache trouble must not fail attribution; the click index is
			// the source of truth.
			log.Printf("level=warn component=attribution msg=\"cache lookup failed; falling back to click index\" err=%v", err)
		} else if hit {
			affiliate, err := s.repo.FindAffiliateByID(ctx, affiliateID)
			if err == nil {
				return affiliate, nil
			}
			if !errors.Is(err, store.ErrAffiliateNotFound) {
				return nil, err
			}
		}
	}

	click, err := s.repo.FindReferralClickByAttributionKey(ctx, attributionKey)
	if err != nil {
		if errors.Is(err, store.ErrClickNotFound) {
			return nil, nil
		}
		return nil, err
	}

	affiliate, err := s.repo.FindAffiliateByReferralCode(ctx, click.ReferralCode)
	if err != nil {
		if errors.Is(err, store.ErrAffiliateNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return affiliate, nil
}
