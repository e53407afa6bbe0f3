package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reflift/affiliate-service/internal/domain"
	"github.com/reflift/affiliate-service/internal/store"
)

type trackRepoStub struct {
	store.Repository

	affiliate *domain.Affiliate
	clicks    []*domain.ReferralClick
}

func (s *trackRepoStub) FindAffiliateByReferralCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	if s.affiliate != nil && s.affiliate.ReferralCode == code {
		return s.affiliate, nil
	}
	return nil, store.ErrAffiliateNotFound
}

func (s *trackRepoStub) CreateReferralClick(ctx context.Context, click *domain.ReferralClick) error {
	s.clicks = append(s.clicks, click)
	return nil
}

type cacheStub struct {
	stored map[string]uuid.UUID
	ttl    time.Duration
}

func (c *cacheStub) Store(ctx context.Context, attributionKey string, affiliateID uuid.UUID, ttl time.Duration) error {
	if c.stored == nil {
		c.stored = make(map[string]uuid.UUID)
	}
	c.stored[attributionKey] = affiliateID
	c.ttl = ttl
	return nil
}

func (c *cacheStub) Lookup(ctx context.Context, attributionKey string) (uuid.UUID, bool, error) {
	id, ok := c.stored[attributionKey]
	return id, ok, nil
}

func TestTrackClick_RecordsClickAndCachesKey(t *testing.T) {
	repo := &trackRepoStub{
		affiliate: &domain.Affiliate{ID: uuid.New(), ReferralCode: "SARAH-TECH"},
	}
	cache := &cacheStub{}
	ttl := 30 * 24 * time.Hour
	service := NewService(repo, nil, 10000, ttl)
	service.SetAttributionCache(cache)

	affiliate, click, err := service.TrackClick(context.Background(), "SARAH-TECH", "203.0.113.9", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if affiliate.ID != repo.affiliate.ID {
		t.Fatal("expected the owning affiliate to be returned")
	}
	if len(repo.clicks) != 1 {
		t.Fatalf("expected one recorded click, got %d", len(repo.clicks))
	}
	if !strings.HasPrefix(click.AttributionKey, "attr_") {
		t.Fatalf("expected an attr_ prefixed key, got %q", click.AttributionKey)
	}
	if click.IP != "203.0.113.9" || click.UserAgent != "Mozilla/5.0" {
		t.Fatalf("expected request details on the click, got %+v", click)
	}
	if got, ok := cache.stored[click.AttributionKey]; !ok || got != affiliate.ID {
		t.Fatal("expected the attribution key to be cached for the affiliate")
	}
	if cache.ttl != ttl {
		t.Fatalf("expected the configured TTL, got %v", cache.ttl)
	}
}

func TestTrackClick_UnknownCode(t *testing.T) {
	repo := &trackRepoStub{}
	service := NewService(repo, nil, 10000, 30*24*time.Hour)

	_, _, err := service.TrackClick(context.Background(), "GHOST", "203.0.113.9", "Mozilla/5.0")
	if !errors.Is(err, store.ErrAffiliateNotFound) {
		t.Fatalf("expected ErrAffiliateNotFound, got %v", err)
	}
	if len(repo.clicks) != 0 {
		t.Fatal("expected no click for an unknown code")
	}
}

func TestNewAttributionKeyShape(t *testing.T) {
	key := newAttributionKey()
	parts := strings.Split(key, "_")
	if len(parts) != 3 || parts[0] != "attr" {
		t.Fatalf("expected attr_<ms>_<suffix>, got %q", key)
	}
	if len(parts[2]) != 9 {
		t.Fatalf("expected a 9 character suffix, got %q", parts[2])
	}
	if key == newAttributionKey() {
		t.Fatal("expected consecutive keys to differ")
	}
}
