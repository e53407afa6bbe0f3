package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reflift/affiliate-service/internal/app"
	"github.com/reflift/affiliate-service/internal/domain"
	"github.com/reflift/affiliate-service/internal/store"
)

type reviewReferralRepoStub struct {
	store.Repository

	claimErr error
	referral *domain.Referral
}

func (s *reviewReferralRepoStub) ClaimReferralForReview(ctx context.Context, referralID uuid.UUID, status string, reviewerID uuid.UUID, notes *string) (*domain.Referral, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	claimed := *s.referral
	claimed.Status = status
	claimed.ReviewedBy = &reviewerID
	return &claimed, nil
}

func (s *reviewReferralRepoStub) ListCommissionRules(ctx context.Context) ([]domain.CommissionRule, error) {
	return nil, nil
}

func (s *reviewReferralRepoStub) RecordConversion(ctx context.Context, conversion *domain.Conversion, commission *domain.Commission) error {
	return nil
}

func (s *reviewReferralRepoStub) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	return nil
}

func putReferralReview(t *testing.T, repo store.Repository, referralID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()
	service := app.NewService(repo, nil, 10000, 30*24*time.Hour)
	handlers := NewAffiliateHandlers(service, "https://example.com", false)
	router := AffiliateRoutes(handlers, testJWTSecret, []string{"*"})

	req := httptest.NewRequest(http.MethodPut, "/admin/referrals/"+referralID.String(), strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, testJWTSecret, RoleAdmin))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReviewReferralHandler_Approve(t *testing.T) {
	referral := &domain.Referral{
		ID:          uuid.New(),
		AffiliateID: uuid.New(),
		LeadEmail:   "lead@example.com",
		Status:      domain.ReferralStatusSubmitted,
	}
	repo := &reviewReferralRepoStub{referral: referral}

	rec := putReferralReview(t, repo, referral.ID, `{"action":"approve"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReviewReferralHandler_AlreadyReviewedConflict(t *testing.T) {
	repo := &reviewReferralRepoStub{claimErr: store.ErrReferralNotReviewable}

	rec := putReferralReview(t, repo, uuid.New(), `{"action":"approve"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestReviewReferralHandler_NotFound(t *testing.T) {
	repo := &reviewReferralRepoStub{claimErr: store.ErrReferralNotFound}

	rec := putReferralReview(t, repo, uuid.New(), `{"action":"reject"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReviewReferralHandler_InvalidAction(t *testing.T) {
	repo := &reviewReferralRepoStub{claimErr: store.ErrReferralNotFound}

	rec := putReferralReview(t, repo, uuid.New(), `{"action":"escalate"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
