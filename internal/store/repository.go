/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the affiliate-service. By defining an interface,
 * we decouple the attribution and commission logic from the specific database
 * implementation (PostgreSQL), making the core testable against in-memory fakes.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/reflift/affiliate-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// User methods
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// Affiliate methods
	// Lookup is exact-match and case-sensitive on the unique referral code.
	FindAffiliateByReferralCode(ctx context.Context, code string) (*domain.Affiliate, error)
	FindAffiliateByID(ctx context.Context, affiliateID uuid.UUID) (*domain.Affiliate, error)
	FindAffiliateByUserID(ctx context.Context, userID uuid.UUID) (*domain.Affiliate, error)
	ListAffiliates(ctx context.Context) ([]domain.AffiliateListItem, error)
	// IncrementAffiliateBalance applies the delta as a single atomic UPDATE.
	// Negative deltas that would take the balance below zero fail with
	// ErrInsufficientBalance.
	IncrementAffiliateBalance(ctx context.Context, affiliateID uuid.UUID, deltaCents int64) error

	// Referral click methods
	CreateReferralClick(ctx context.Context, click *domain.ReferralClick) error
	FindReferralClickByAttributionKey(ctx context.Context, attributionKey string) (*domain.ReferralClick, error)
	DeleteReferralClicksBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Referral (lead) methods
	CreateReferral(ctx context.Context, referral *domain.Referral) error
	FindReferralByID(ctx context.Context, referralID uuid.UUID) (*domain.Referral, error)
	// ClaimReferralForReview performs the guarded submitted -> approved|rejected
	// transition. Exactly one concurrent reviewer can win the claim; a referral
	// whose status is no longer 'submitted' fails with ErrReferralNotReviewable.
	ClaimReferralForReview(ctx context.Context, referralID uuid.UUID, status string, reviewerID uuid.UUID, notes *string) (*domain.Referral, error)
	DeleteReferral(ctx context.Context, referralID uuid.UUID) error

	// Conversion and commission methods
	// RecordConversion persists the conversion, its commission, and the
	// affiliate balance credit as one database transaction. Partial
	// application is not possible.
	RecordConversion(ctx context.Context, conversion *domain.Conversion, commission *domain.Commission) error
	FindCommissionByID(ctx context.Context, commissionID uuid.UUID) (*domain.Commission, error)
	// ReviewCommission performs the guarded pending -> approved|rejected
	// transition; a rejection reverses the provisional balance credit inside
	// the same transaction.
	ReviewCommission(ctx context.Context, commissionID uuid.UUID, status string, reviewerID uuid.UUID) (*domain.Commission, error)

	// Commission rule methods
	ListCommissionRules(ctx context.Context) ([]domain.CommissionRule, error)
	// CreateCommissionRule unsets any previous default in the same
	// transaction when the new rule is flagged default.
	CreateCommissionRule(ctx context.Context, rule *domain.CommissionRule) error

	// Payout methods
	ListPayableCommissions(ctx context.Context) ([]domain.PayoutPreview, error)
	// CreatePayoutForAffiliate sums the affiliate's approved unpaid
	// commissions, marks them paid, debits the balance, and inserts the
	// payout record in one transaction. ErrNoPayableCommissions when there
	// is nothing to disburse.
	CreatePayoutForAffiliate(ctx context.Context, affiliateID uuid.UUID, method string) (*domain.Payout, error)

	// Audit log methods
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
}
