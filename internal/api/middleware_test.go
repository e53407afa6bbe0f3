package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/reflift/affiliate-service/internal/app"
	"github.com/reflift/affiliate-service/internal/domain"
	"github.com/reflift/affiliate-service/internal/store"
)

const testJWTSecret = "test-secret"

type adminRepoStub struct {
	store.Repository
}

func (s *adminRepoStub) ListAffiliates(ctx context.Context) ([]domain.AffiliateListItem, error) {
	return []domain.AffiliateListItem{}, nil
}

func newAdminRouter() http.Handler {
	service := app.NewService(&adminRepoStub{}, nil, 10000, 30*24*time.Hour)
	handlers := NewAffiliateHandlers(service, "https://example.com", false)
	return AffiliateRoutes(handlers, testJWTSecret, []string{"*"})
}

func signToken(t *testing.T, secret, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.New().String(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestAdminRoutes_RejectMissingToken(t *testing.T) {
	router := newAdminRouter()

	req := httptest.NewRequest(http.MethodGet, "/admin/affiliates", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminRoutes_RejectInvalidToken(t *testing.T) {
	router := newAdminRouter()

	req := httptest.NewRequest(http.MethodGet, "/admin/affiliates", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret", RoleAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminRoutes_RejectNonAdminRole(t *testing.T) {
	router := newAdminRouter()

	req := httptest.NewRequest(http.MethodGet, "/admin/affiliates", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testJWTSecret, "affiliate"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminRoutes_AcceptAdminBearerToken(t *testing.T) {
	router := newAdminRouter()

	req := httptest.NewRequest(http.MethodGet, "/admin/affiliates", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testJWTSecret, RoleAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminRoutes_AcceptAdminCookieToken(t *testing.T) {
	router := newAdminRouter()

	req := httptest.NewRequest(http.MethodGet, "/admin/affiliates", nil)
	req.AddCookie(&http.Cookie{Name: "auth-token", Value: signToken(t, testJWTSecret, RoleAdmin)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
