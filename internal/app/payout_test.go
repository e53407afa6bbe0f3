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

type payoutRepoStub struct {
	store.Repository

	payoutsByAffiliate map[uuid.UUID]*domain.Payout
	failFor            map[uuid.UUID]error

	auditActions []string
}

func (s *payoutRepoStub) CreatePayoutForAffiliate(ctx context.Context, affiliateID uuid.UUID, method string) (*domain.Payout, error) {
	if err, ok := s.failFor[affiliateID]; ok {
		return nil, err
	}
	payout, ok := s.payoutsByAffiliate[affiliateID]
	if !ok {
		return nil, store.ErrNoPayableCommissions
	}
	return payout, nil
}

func (s *payoutRepoStub) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	s.auditActions = append(s.auditActions, entry.Action)
	return nil
}

func TestProcessPayouts_SkipsAffiliatesWithNothingPayable(t *testing.T) {
	payable := uuid.New()
	empty := uuid.New()
	repo := &payoutRepoStub{
		payoutsByAffiliate: map[uuid.UUID]*domain.Payout{
			payable: {
				ID:              uuid.New(),
				AffiliateID:     payable,
				AmountCents:     4500,
				Currency:        "USD",
				Status:          domain.StatusPending,
				CommissionCount: 3,
			},
		},
	}
	service := NewService(repo, nil, 10000, 30*24*time.Hour)

	processed, err := service.ProcessPayouts(context.Background(), []uuid.UUID{payable, empty}, uuid.New())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(processed) != 1 {
		t.Fatalf("expected one processed payout, got %d", len(processed))
	}
	if processed[0].AffiliateID != payable || processed[0].AmountCents != 4500 || processed[0].CommissionCount != 3 {
		t.Fatalf("unexpected payout summary: %+v", processed[0])
	}
	if len(repo.auditActions) != 1 || repo.auditActions[0] != "payout_processed" {
		t.Fatalf("expected one payout_processed audit entry, got %v", repo.auditActions)
	}
}

func TestProcessPayouts_EmptySelection(t *testing.T) {
	repo := &payoutRepoStub{}
	service := NewService(repo, nil, 10000, 30*24*time.Hour)

	_, err := service.ProcessPayouts(context.Background(), nil, uuid.New())
	if !errors.Is(err, ErrNoAffiliatesGiven) {
		t.Fatalf("expected ErrNoAffiliatesGiven, got %v", err)
	}
}

func TestProcessPayouts_StopsOnStorageFailure(t *testing.T) {
	first := uuid.New()
	broken := uuid.New()
	repo := &payoutRepoStub{
		payoutsByAffiliate: map[uuid.UUID]*domain.Payout{
			first: {ID: uuid.New(), AffiliateID: first, AmountCents: 1000, CommissionCount: 1},
		},
		failFor: map[uuid.UUID]error{
			broken: errors.New("connection reset"),
		},
	}
	service := NewService(repo, nil, 10000, 30*24*time.Hour)

	processed, err := service.ProcessPayouts(context.Background(), []uuid.UUID{first, broken}, uuid.New())
	if err == nil {
		t.Fatal("expected an error from the failing affiliate")
	}
	if len(processed) != 1 {
		t.Fatalf("expected the completed payout to be reported, got %d", len(processed))
	}
}
