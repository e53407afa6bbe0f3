/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the SQL needed for affiliates, referral clicks, referrals,
 * conversions, commissions, commission rules, payouts, and the audit log.
 *
 * Balance mutation is never read-modify-write in request code: every credit
 * and debit is a single guarded `UPDATE ... SET balance_cents = balance_cents + $n`
 * so concurrent conversions for the same affiliate cannot lose updates. The
 * conversion -> commission -> balance sequence runs inside one transaction.
 *
 * @dependencies
 * - context, encoding/json, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reflift/affiliate-service/internal/domain"
)

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrAffiliateNotFound       = errors.New("affiliate not found")
	ErrClickNotFound           = errors.New("referral click not found")
	ErrReferralNotFound        = errors.New("referral not found")
	ErrReferralNotReviewable   = errors.New("referral is not in a reviewable state")
	ErrCommissionNotFound      = errors.New("commission not found")
	ErrCommissionNotPending    = errors.New("commission is not pending review")
	ErrInsufficientBalance     = errors.New("insufficient affiliate balance")
	ErrNoPayableCommissions    = errors.New("no approved unpaid commissions")
	ErrDuplicateAttributionKey = errors.New("attribution key already recorded")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindUserByID retrieves a user from the database by their ID.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, name, email, role, status, created_at FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.Status, &user.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindAffiliateByReferralCode resolves a referral code to its affiliate.
// The match is exact and case-sensitive on the unique referral_code column.
func (r *PostgresRepository) FindAffiliateByReferralCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	query := `
		SELECT id, user_id, referral_code, payout_details, balance_cents, created_at, updated_at
		FROM affiliates
		WHERE referral_code = $1
	`
	return r.scanAffiliate(r.db.QueryRow(ctx, query, code))
}

// FindAffiliateByID retrieves an affiliate by its primary key.
func (r *PostgresRepository) FindAffiliateByID(ctx context.Context, affiliateID uuid.UUID) (*domain.Affiliate, error) {
	query := `
		SELECT id, user_id, referral_code, payout_details, balance_cents, created_at, updated_at
		FROM affiliates
		WHERE id = $1
	`
	return r.scanAffiliate(r.db.QueryRow(ctx, query, affiliateID))
}

// FindAffiliateByUserID retrieves the affiliate owned by a given user.
func (r *PostgresRepository) FindAffiliateByUserID(ctx context.Context, userID uuid.UUID) (*domain.Affiliate, error) {
	query := `
		SELECT id, user_id, referral_code, payout_details, balance_cents, created_at, updated_at
		FROM affiliates
		WHERE user_id = $1
	`
	return r.scanAffiliate(r.db.QueryRow(ctx, query, userID))
}

func (r *PostgresRepository) scanAffiliate(row pgx.Row) (*domain.Affiliate, error) {
	var affiliate domain.Affiliate
	var payoutDetails []byte
	err := row.Scan(
		&affiliate.ID,
		&affiliate.UserID,
		&affiliate.ReferralCode,
		&payoutDetails,
		&affiliate.BalanceCents,
		&affiliate.CreatedAt,
		&affiliate.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAffiliateNotFound
		}
		return nil, err
	}
	if len(payoutDetails) > 0 {
		if err := json.Unmarshal(payoutDetails, &affiliate.PayoutDetails); err != nil {
			return nil, fmt.Errorf("decode payout details: %w", err)
		}
	}
	return &affiliate, nil
}

// ListAffiliates returns all affiliates with their owning user and referral
// count, newest first.
func (r *PostgresRepository) ListAffiliates(ctx context.Context) ([]domain.AffiliateListItem, error) {
	query := `
		SELECT a.id, a.user_id, a.referral_code, a.payout_details, a.balance_cents, a.created_at, a.updated_at,
		       u.id, u.name, u.email, u.role, u.status, u.created_at,
		       COUNT(ref.id) AS referral_count
		FROM affiliates a
		JOIN users u ON u.id = a.user_id
		LEFT JOIN referrals ref ON ref.affiliate_id = a.id
		GROUP BY a.id, u.id
		ORDER BY a.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.AffiliateListItem
	for rows.Next() {
		var item domain.AffiliateListItem
		var payoutDetails []byte
		err := rows.Scan(
			&item.ID, &item.UserID, &item.ReferralCode, &payoutDetails, &item.BalanceCents,
			&item.CreatedAt, &item.UpdatedAt,
			&item.User.ID, &item.User.Name, &item.User.Email, &item.User.Role, &item.User.Status, &item.User.CreatedAt,
			&item.ReferralCount,
		)
		if err != nil {
			return nil, err
		}
		if len(payoutDetails) > 0 {
			if err := json.Unmarshal(payoutDetails, &item.PayoutDetails); err != nil {
				return nil, fmt.Errorf("decode payout details: %w", err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// IncrementAffiliateBalance applies a balance delta as one atomic UPDATE.
// The guard keeps the balance non-negative for debits.
func (r *PostgresRepository) IncrementAffiliateBalance(ctx context.Context, affiliateID uuid.UUID, deltaCents int64) error {
	query := `
		UPDATE affiliates
		SET balance_cents = balance_cents + $2, updated_at = NOW()
		WHERE id = $1 AND balance_cents + $2 >= 0
	`
	result, err := r.db.Exec(ctx, query, affiliateID, deltaCents)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		if deltaCents < 0 {
			return ErrInsufficientBalance
		}
		return ErrAffiliateNotFound
	}
	return nil
}

// CreateReferralClick inserts one immutable click record. A collision on the
// unique attribution_key index surfaces as ErrDuplicateAttributionKey.
func (r *PostgresRepository) CreateReferralClick(ctx context.Context, click *domain.ReferralClick) error {
	query := `
		INSERT INTO referral_clicks (id, referral_code, ip, user_agent, attribution_key, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, click.ID, click.ReferralCode, click.IP, click.UserAgent, click.AttributionKey).
		Scan(&click.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateAttributionKey
	}
	return err
}

// FindReferralClickByAttributionKey resolves an attribution key back to its
// click record. Backed by a unique index on attribution_key.
func (r *PostgresRepository) FindReferralClickByAttributionKey(ctx context.Context, attributionKey string) (*domain.ReferralClick, error) {
	var click domain.ReferralClick
	query := `
		SELECT id, referral_code, ip, user_agent, attribution_key, created_at
		FROM referral_clicks
		WHERE attribution_key = $1
	`
	err := r.db.QueryRow(ctx, query, attributionKey).Scan(
		&click.ID, &click.ReferralCode, &click.IP, &click.UserAgent, &click.AttributionKey, &click.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrClickNotFound
		}
		return nil, err
	}
	return &click, nil
}

// DeleteReferralClicksBefore removes clicks older than the cutoff and
// reports how many rows were deleted. Used by the retention sweep.
func (r *PostgresRepository) DeleteReferralClicksBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM referral_clicks WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// CreateReferral inserts a newly submitted lead with status 'submitted'.
func (r *PostgresRepository) CreateReferral(ctx context.Context, referral *domain.Referral) error {
	metadata, err := json.Marshal(referral.Metadata)
	if err != nil {
		return fmt.Errorf("encode referral metadata: %w", err)
	}
	query := `
		INSERT INTO referrals (id, affiliate_id, lead_name, lead_email, metadata, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING submitted_at
	`
	return r.db.QueryRow(ctx, query,
		referral.ID, referral.AffiliateID, referral.LeadName, referral.LeadEmail, metadata, referral.Status,
	).Scan(&referral.SubmittedAt)
}

// FindReferralByID retrieves a referral by its primary key.
func (r *PostgresRepository) FindReferralByID(ctx context.Context, referralID uuid.UUID) (*domain.Referral, error) {
	query := `
		SELECT id, affiliate_id, lead_name, lead_email, metadata, status, submitted_at, reviewed_by, reviewed_at, review_notes
		FROM referrals
		WHERE id = $1
	`
	return r.scanReferral(r.db.QueryRow(ctx, query, referralID))
}

func (r *PostgresRepository) scanReferral(row pgx.Row) (*domain.Referral, error) {
	var referral domain.Referral
	var metadata []byte
	err := row.Scan(
		&referral.ID, &referral.AffiliateID, &referral.LeadName, &referral.LeadEmail, &metadata,
		&referral.Status, &referral.SubmittedAt, &referral.ReviewedBy, &referral.ReviewedAt, &referral.ReviewNotes,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrReferralNotFound
		}
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &referral.Metadata); err != nil {
			return nil, fmt.Errorf("decode referral metadata: %w", err)
		}
	}
	return &referral, nil
}

// ClaimReferralForReview atomically claims the submitted -> approved|rejected
// transition. The WHERE status = 'submitted' guard means only one concurrent
// reviewer can win; anything already reviewed fails closed.
func (r *PostgresRepository) ClaimReferralForReview(ctx context.Context, referralID uuid.UUID, status string, reviewerID uuid.UUID, notes *string) (*domain.Referral, error) {
	query := `
		UPDATE referrals
		SET status = $2, reviewed_by = $3, reviewed_at = NOW(), review_notes = $4
		WHERE id = $1 AND status = 'submitted'
		RETURNING id, affiliate_id, lead_name, lead_email, metadata, status, submitted_at, reviewed_by, reviewed_at, review_notes
	`
	referral, err := r.scanReferral(r.db.QueryRow(ctx, query, referralID, status, reviewerID, notes))
	if err == nil {
		return referral, nil
	}
	if !errors.Is(err, ErrReferralNotFound) {
		return nil, err
	}

	// Distinguish "gone" from "already reviewed" for the caller.
	if _, findErr := r.FindReferralByID(ctx, referralID); findErr != nil {
		return nil, findErr
	}
	return nil, ErrReferralNotReviewable
}

// DeleteReferral removes a referral. Derived conversions and commissions are
// removed by the referral_id foreign keys, which are declared ON DELETE CASCADE.
func (r *PostgresRepository) DeleteReferral(ctx context.Context, referralID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM referrals WHERE id = $1`, referralID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrReferralNotFound
	}
	return nil
}

// RecordConversion applies the conversion insert, commission insert, and
// balance credit as one transaction so partial application cannot happen.
func (r *PostgresRepository) RecordConversion(ctx context.Context, conversion *domain.Conversion, commission *domain.Commission) error {
	metadata, err := json.Marshal(conversion.EventMetadata)
	if err != nil {
		return fmt.Errorf("encode event metadata: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO conversions (id, affiliate_id, referral_id, event_type, amount_cents, currency, status, event_metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`, conversion.ID, conversion.AffiliateID, conversion.ReferralID, conversion.EventType,
		conversion.AmountCents, conversion.Currency, conversion.Status, metadata,
	).Scan(&conversion.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert conversion: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO commissions (id, conversion_id, affiliate_id, amount_cents, rate, rate_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`, commission.ID, commission.ConversionID, commission.AffiliateID,
		commission.AmountCents, commission.Rate, commission.RateType, commission.Status,
	).Scan(&commission.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert commission: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE affiliates
		SET balance_cents = balance_cents + $2, updated_at = NOW()
		WHERE id = $1
	`, conversion.AffiliateID, commission.AmountCents)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAffiliateNotFound
	}

	return tx.Commit(ctx)
}

// FindCommissionByID retrieves a commission by its primary key.
func (r *PostgresRepository) FindCommissionByID(ctx context.Context, commissionID uuid.UUID) (*domain.Commission, error) {
	var commission domain.Commission
	query := `
		SELECT id, conversion_id, affiliate_id, amount_cents, rate, rate_type, status, approved_by, approved_at, paid_at, created_at
		FROM commissions
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, commissionID).Scan(
		&commission.ID, &commission.ConversionID, &commission.AffiliateID, &commission.AmountCents,
		&commission.Rate, &commission.RateType, &commission.Status,
		&commission.ApprovedBy, &commission.ApprovedAt, &commission.PaidAt, &commission.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCommissionNotFound
		}
		return nil, err
	}
	return &commission, nil
}

// ReviewCommission claims the pending -> approved|rejected transition. A
// rejection reverses the provisional balance credit in the same transaction.
func (r *PostgresRepository) ReviewCommission(ctx context.Context, commissionID uuid.UUID, status string, reviewerID uuid.UUID) (*domain.Commission, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var commission domain.Commission
	err = tx.QueryRow(ctx, `
		UPDATE commissions
		SET status = $2, approved_by = $3, approved_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, conversion_id, affiliate_id, amount_cents, rate, rate_type, status, approved_by, approved_at, paid_at, created_at
	`, commissionID, status, reviewerID).Scan(
		&commission.ID, &commission.ConversionID, &commission.AffiliateID, &commission.AmountCents,
		&commission.Rate, &commission.RateType, &commission.Status,
		&commission.ApprovedBy, &commission.ApprovedAt, &commission.PaidAt, &commission.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			if _, findErr := r.FindCommissionByID(ctx, commissionID); findErr != nil {
				return nil, findErr
			}
			return nil, ErrCommissionNotPending
		}
		return nil, err
	}

	if status == domain.StatusRejected {
		result, err := tx.Exec(ctx, `
			UPDATE affiliates
			SET balance_cents = balance_cents - $2, updated_at = NOW()
			WHERE id = $1 AND balance_cents - $2 >= 0
		`, commission.AffiliateID, commission.AmountCents)
		if err != nil {
			return nil, fmt.Errorf("reverse balance credit: %w", err)
		}
		if result.RowsAffected() == 0 {
			return nil, ErrInsufficientBalance
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &commission, nil
}

// ListCommissionRules returns all configured rules, default first.
func (r *PostgresRepository) ListCommissionRules(ctx context.Context) ([]domain.CommissionRule, error) {
	query := `
		SELECT id, name, type, value, min_amount_cents, max_amount_cents, is_default, created_at
		FROM commission_rules
		ORDER BY is_default DESC, created_at ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.CommissionRule
	for rows.Next() {
		var rule domain.CommissionRule
		err := rows.Scan(
			&rule.ID, &rule.Name, &rule.Type, &rule.Value,
			&rule.MinAmountCents, &rule.MaxAmountCents, &rule.IsDefault, &rule.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// CreateCommissionRule inserts a rule. When the new rule is flagged default,
// the previous default is unset in the same transaction so at most one rule
// carries is_default = true.
func (r *PostgresRepository) CreateCommissionRule(ctx context.Context, rule *domain.CommissionRule) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if rule.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE commission_rules SET is_default = FALSE WHERE is_default`); err != nil {
			return fmt.Errorf("unset previous default rule: %w", err)
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO commission_rules (id, name, type, value, min_amount_cents, max_amount_cents, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`, rule.ID, rule.Name, rule.Type, rule.Value, rule.MinAmountCents, rule.MaxAmountCents, rule.IsDefault,
	).Scan(&rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert commission rule: %w", err)
	}

	return tx.Commit(ctx)
}

// ListPayableCommissions returns approved, unpaid commissions grouped per
// affiliate with totals, for the admin payout review screen.
func (r *PostgresRepository) ListPayableCommissions(ctx context.Context) ([]domain.PayoutPreview, error) {
	query := `
		SELECT c.id, c.conversion_id, c.affiliate_id, c.amount_cents, c.rate, c.rate_type, c.status,
		       c.approved_by, c.approved_at, c.paid_at, c.created_at,
		       a.id, a.referral_code, u.name, u.email
		FROM commissions c
		JOIN affiliates a ON a.id = c.affiliate_id
		JOIN users u ON u.id = a.user_id
		WHERE c.status = 'approved' AND c.paid_at IS NULL
		ORDER BY a.created_at DESC, c.created_at ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make(map[uuid.UUID]*domain.PayoutPreview)
	var order []uuid.UUID
	for rows.Next() {
		var commission domain.Commission
		var payee domain.PayoutPayee
		err := rows.Scan(
			&commission.ID, &commission.ConversionID, &commission.AffiliateID, &commission.AmountCents,
			&commission.Rate, &commission.RateType, &commission.Status,
			&commission.ApprovedBy, &commission.ApprovedAt, &commission.PaidAt, &commission.CreatedAt,
			&payee.ID, &payee.ReferralCode, &payee.Name, &payee.Email,
		)
		if err != nil {
			return nil, err
		}
		group, ok := groups[payee.ID]
		if !ok {
			group = &domain.PayoutPreview{Affiliate: payee}
			groups[payee.ID] = group
			order = append(order, payee.ID)
		}
		group.Commissions = append(group.Commissions, commission)
		group.TotalAmountCents += commission.AmountCents
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	previews := make([]domain.PayoutPreview, 0, len(order))
	for _, id := range order {
		previews = append(previews, *groups[id])
	}
	return previews, nil
}

// CreatePayoutForAffiliate disburses all approved unpaid commissions for one
// affiliate: locks them, sums the total, marks them paid, debits the balance,
// and inserts the payout record — all in one transaction.
func (r *PostgresRepository) CreatePayoutForAffiliate(ctx context.Context, affiliateID uuid.UUID, method string) (*domain.Payout, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, amount_cents
		FROM commissions
		WHERE affiliate_id = $1 AND status = 'approved' AND paid_at IS NULL
		FOR UPDATE
	`, affiliateID)
	if err != nil {
		return nil, err
	}

	var commissionIDs []uuid.UUID
	var total int64
	for rows.Next() {
		var id uuid.UUID
		var amount int64
		if err := rows.Scan(&id, &amount); err != nil {
			rows.Close()
			return nil, err
		}
		commissionIDs = append(commissionIDs, id)
		total += amount
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(commissionIDs) == 0 {
		return nil, ErrNoPayableCommissions
	}

	if _, err := tx.Exec(ctx, `
		UPDATE commissions SET status = 'paid', paid_at = NOW() WHERE id = ANY($1)
	`, commissionIDs); err != nil {
		return nil, fmt.Errorf("mark commissions paid: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE affiliates
		SET balance_cents = balance_cents - $2, updated_at = NOW()
		WHERE id = $1 AND balance_cents - $2 >= 0
	`, affiliateID, total)
	if err != nil {
		return nil, fmt.Errorf("debit balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrInsufficientBalance
	}

	payout := &domain.Payout{
		ID:              uuid.New(),
		AffiliateID:     affiliateID,
		AmountCents:     total,
		Currency:        "USD",
		Method:          method,
		Status:          domain.StatusPending,
		CommissionCount: len(commissionIDs),
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO payouts (id, affiliate_id, amount_cents, currency, method, status, commission_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`, payout.ID, payout.AffiliateID, payout.AmountCents, payout.Currency, payout.Method, payout.Status, payout.CommissionCount,
	).Scan(&payout.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert payout: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return payout, nil
}

// CreateAuditLog appends one audit entry.
func (r *PostgresRepository) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode audit payload: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO audit_logs (id, actor_id, action, object_type, object_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, entry.ID, entry.ActorID, entry.Action, entry.ObjectType, entry.ObjectID, payload)
	return err
}
