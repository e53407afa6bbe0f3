package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reflift/affiliate-service/internal/domain"
	"github.com/reflift/affiliate-service/internal/store"
)

type reviewRepoStub struct {
	store.Repository

	referral *domain.Referral
	rules    []domain.CommissionRule

	recordedConversion *domain.Conversion
	recordedCommission *domain.Commission
	auditActions       []string
}

func (s *reviewRepoStub) ClaimReferralForReview(ctx context.Context, referralID uuid.UUID, status string, reviewerID uuid.UUID, notes *string) (*domain.Referral, error) {
	if s.referral == nil || s.referral.ID != referralID {
		return nil, store.ErrReferralNotFound
	}
	if s.referral.Status != domain.ReferralStatusSubmitted {
		return nil, store.ErrReferralNotReviewable
	}
	now := time.Now()
	claimed := *s.referral
	claimed.Status = status
	claimed.ReviewedBy = &reviewerID
	claimed.ReviewedAt = &now
	claimed.ReviewNotes = notes
	s.referral = &claimed
	return &claimed, nil
}

func (s *reviewRepoStub) ListCommissionRules(ctx context.Context) ([]domain.CommissionRule, error) {
	return s.rules, nil
}

func (s *reviewRepoStub) RecordConversion(ctx context.Context, conversion *domain.Conversion, commission *domain.Commission) error {
	s.recordedConversion = conversion
	s.recordedCommission = commission
	return nil
}

func (s *reviewRepoStub) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	s.auditActions = append(s.auditActions, entry.Action)
	return nil
}

func newReviewStub(status string) *reviewRepoStub {
	return &reviewRepoStub{
		referral: &domain.Referral{
			ID:          uuid.New(),
			AffiliateID: uuid.New(),
			LeadName:    "Lead Example",
			LeadEmail:   "lead@example.com",
			Status:      status,
		},
		rules: []domain.CommissionRule{
			{ID: uuid.New(), Name: "standard", Type: domain.RuleTypePercentage, Value: 10, IsDefault: true},
		},
	}
}

func TestReviewReferral_ApproveCreatesConversionThroughRules(t *testing.T) {
	repo := newReviewStub(domain.ReferralStatusSubmitted)
	service := NewService(repo, nil, 10000, 30*24*time.Hour)
	reviewerID := uuid.New()

	referral, err := service.ReviewReferral(context.Background(), repo.referral.ID, reviewerID, domain.ReviewReferralRequest{Action: "approve"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if referral.Status != domain.ReferralStatusApproved {
		t.Fatalf("expected approved status, got %q", referral.Status)
	}
	if referral.ReviewedBy == nil || *referral.ReviewedBy != reviewerID {
		t.Fatalf("expected reviewer to be recorded, got %+v", referral.ReviewedBy)
	}
	if repo.recordedConversion == nil {
		t.Fatal("expected a conversion to be recorded on approval")
	}
	if repo.recordedConversion.ReferralID == nil || *repo.recordedConversion.ReferralID != referral.ID {
		t.Fatal("expected the conversion to reference the referral")
	}
	if repo.recordedConversion.AmountCents != 10000 {
		t.Fatalf("expected the configured placeholder amount, got %d", repo.recordedConversion.AmountCents)
	}
	// 10% of the 10000 cent placeholder deal size.
	if repo.recordedCommission.AmountCents != 1000 {
		t.Fatalf("expected a 1000 cent commission, got %d", repo.recordedCommission.AmountCents)
	}
	if len(repo.auditActions) != 1 || repo.auditActions[0] != "referral_approved" {
		t.Fatalf("expected a referral_approved audit entry, got %v", repo.auditActions)
	}
}

func TestReviewReferral_RejectCreatesNothing(t *testing.T) {
	repo := newReviewStub(domain.ReferralStatusSubmitted)
	service := NewService(repo, nil, 10000, 30*24*time.Hour)

	notes := "duplicate lead"
	referral, err := service.ReviewReferral(context.Background(), repo.referral.ID, uuid.New(), domain.ReviewReferralRequest{
		Action:      "reject",
		ReviewNotes: &notes,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if referral.Status != domain.ReferralStatusRejected {
		t.Fatalf("expected rejected status, got %q", referral.Status)
	}
	if referral.ReviewNotes == nil || *referral.ReviewNotes != notes {
		t.Fatalf("expected review notes to be stored, got %+v", referral.ReviewNotes)
	}
	if repo.recordedConversion != nil || repo.recordedCommission != nil {
		t.Fatal("expected no financial records on rejection")
	}
	if len(repo.auditActions) != 1 || repo.auditActions[0] != "referral_rejected" {
		t.Fatalf("expected a referral_rejected audit entry, got %v", repo.auditActions)
	}
}

func TestReviewReferral_AlreadyReviewed(t *testing.T) {
	repo := newReviewStub(domain.ReferralStatusApproved)
	service := NewService(repo, nil, 10000, 30*24*time.Hour)

	_, err := service.ReviewReferral(context.Background(), repo.referral.ID, uuid.New(), domain.ReviewReferralRequest{Action: "approve"})
	if !errors.Is(err, store.ErrReferralNotReviewable) {
		t.Fatalf("expected ErrReferralNotReviewable, got %v", err)
	}
	if repo.recordedConversion != nil {
		t.Fatal("expected no records when the claim fails")
	}
}

func TestReviewReferral_UnknownReferral(t *testing.T) {
	repo := newReviewStub(domain.ReferralStatusSubmitted)
	service := NewService(repo, nil, 10000, 30*24*time.Hour)

	_, err := service.ReviewReferral(context.Background(), uuid.New(), uuid.New(), domain.ReviewReferralRequest{Action: "approve"})
	if !errors.Is(err, store.ErrReferralNotFound) {
		t.Fatalf("expected ErrReferralNotFound, got %v", err)
	}
}

func TestReviewReferral_InvalidAction(t *testing.T) {
	repo := newReviewStub(domain.ReferralStatusSubmitted)
	service := NewService(repo, nil, 10000, 30*24*time.Hour)

	_, err := service.ReviewReferral(context.Background(), repo.referral.ID, uuid.New(), domain.ReviewReferralRequest{Action: "escalate"})
	if !errors.Is(err, ErrInvalidReviewAction) {
		t.Fatalf("expected ErrInvalidReviewAction, got %v", err)
	}
	if repo.referral.Status != domain.ReferralStatusSubmitted {
		t.Fatal("expected the referral to remain submitted")
	}
}
