package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reflift/affiliate-service/internal/app"
	"github.com/reflift/affiliate-service/internal/domain"
	"github.com/reflift/affiliate-service/internal/store"
)

type redirectRepoStub struct {
	store.Repository

	affiliate *domain.Affiliate
	clicks    []*domain.ReferralClick
}

func (s *redirectRepoStub) FindAffiliateByReferralCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	if s.affiliate != nil && s.affiliate.ReferralCode == code {
		return s.affiliate, nil
	}
	return nil, store.ErrAffiliateNotFound
}

func (s *redirectRepoStub) FindReferralClickByAttributionKey(ctx context.Context, attributionKey string) (*domain.ReferralClick, error) {
	return nil, store.ErrClickNotFound
}

func (s *redirectRepoStub) CreateReferralClick(ctx context.Context, click *domain.ReferralClick) error {
	s.clicks = append(s.clicks, click)
	return nil
}

func (s *redirectRepoStub) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	return nil
}

func newRedirectRouter(repo store.Repository) http.Handler {
	service := app.NewService(repo, nil, 10000, 30*24*time.Hour)
	handlers := NewAffiliateHandlers(service, "https://example.com", false)
	return AffiliateRoutes(handlers, "test-secret", []string{"*"})
}

func TestRedirectHandler_TracksClickAndSetsCookie(t *testing.T) {
	repo := &redirectRepoStub{
		affiliate: &domain.Affiliate{ID: uuid.New(), ReferralCode: "SARAH-TECH"},
	}
	router := newRedirectRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/r/SARAH-TECH", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}

	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid redirect location: %v", err)
	}
	if location.Host != "example.com" {
		t.Fatalf("expected redirect to example.com, got %q", location.Host)
	}
	if got := location.Query().Get("ref"); got != "SARAH-TECH" {
		t.Fatalf("expected ref param, got %q", got)
	}
	attr := location.Query().Get("attr")
	if !strings.HasPrefix(attr, "attr_") {
		t.Fatalf("expected attr param with attr_ prefix, got %q", attr)
	}

	if len(repo.clicks) != 1 {
		t.Fatalf("expected one recorded click, got %d", len(repo.clicks))
	}
	if repo.clicks[0].AttributionKey != attr {
		t.Fatal("expected the redirect attr param to match the recorded click")
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "affiliate_attribution" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected the attribution cookie to be set")
	}
	if cookie.HttpOnly {
		t.Fatal("expected the attribution cookie to be readable by the frontend")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", cookie.SameSite)
	}

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		t.Fatalf("cookie value not URL-escaped JSON: %v", err)
	}
	var payload struct {
		ReferralCode   string `json:"referral_code"`
		AttributionKey string `json:"attribution_key"`
		AffiliateID    string `json:"affiliate_id"`
		Timestamp      int64  `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("cookie payload not JSON: %v", err)
	}
	if payload.ReferralCode != "SARAH-TECH" || payload.AttributionKey != attr {
		t.Fatalf("unexpected cookie payload: %+v", payload)
	}
	if payload.AffiliateID != repo.affiliate.ID.String() {
		t.Fatalf("expected affiliate id in cookie, got %q", payload.AffiliateID)
	}
	if payload.Timestamp == 0 {
		t.Fatal("expected a timestamp in the cookie payload")
	}
}

func TestRedirectHandler_TargetOverride(t *testing.T) {
	repo := &redirectRepoStub{
		affiliate: &domain.Affiliate{ID: uuid.New(), ReferralCode: "SARAH-TECH"},
	}
	router := newRedirectRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/r/SARAH-TECH?target="+url.QueryEscape("https://shop.example.net/pricing"), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid redirect location: %v", err)
	}
	if location.Host != "shop.example.net" || location.Path != "/pricing" {
		t.Fatalf("expected the target override to win, got %q", location.String())
	}
	if got := location.Query().Get("ref"); got != "SARAH-TECH" {
		t.Fatalf("expected ref param on the override target, got %q", got)
	}
}

func TestRedirectHandler_RejectsNonHTTPTarget(t *testing.T) {
	repo := &redirectRepoStub{
		affiliate: &domain.Affiliate{ID: uuid.New(), ReferralCode: "SARAH-TECH"},
	}
	router := newRedirectRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/r/SARAH-TECH?target="+url.QueryEscape("javascript:alert(1)"), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid redirect location: %v", err)
	}
	if location.Host != "example.com" {
		t.Fatalf("expected fallback to the default redirect, got %q", location.String())
	}
}

func TestRedirectHandler_UnknownCodeStillRedirects(t *testing.T) {
	repo := &redirectRepoStub{}
	router := newRedirectRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/r/GHOST-CODE", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "https://example.com" {
		t.Fatalf("expected the plain default redirect, got %q", got)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("expected no cookie for an unknown code")
	}
	if len(repo.clicks) != 0 {
		t.Fatal("expected no click for an unknown code")
	}
}
