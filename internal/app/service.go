/**
 * @description
 * This file contains the core business logic for the affiliate-service. The
 * `Service` struct orchestrates the attribution and commission pipeline:
 * click tracking, conversion recording, referral review, commission review,
 * and payout runs — coordinating the repository, the attribution cache, and
 * the message broker.
 *
 * Key features:
 * - Click tracking is best-effort and never blocks a visitor's redirect.
 * - Conversion recording routes every event (webhook, message bus, referral
 *   approval) through the same rule engine and the same transactional
 *   recorder.
 * - Publishes events to RabbitMQ for asynchronous processing by other
 *   services (notifications, analytics).
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For event publication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/reflift/affiliate-service/internal/domain"
	"github.com/reflift/affiliate-service/internal/store"
	"github.com/reflift/affiliate-service/pkg/rabbitmq"
)

// EventsExchange is the topic exchange all affiliate events are published to.
const EventsExchange = "affiliate.events"

var (
	ErrMissingEventFields  = errors.New("event_type and customer_email are required")
	ErrMissingLeadFields   = errors.New("lead_name and lead_email are required")
	ErrInvalidReviewAction = errors.New(`action must be "approve" or "reject"`)
	ErrMissingRuleName     = errors.New("rule name is required")
	ErrInvalidRuleValue    = errors.New("rule value must not be negative")
	ErrNoAffiliatesGiven   = errors.New("at least one affiliate id is required")
)

// Service provides the core business logic for the affiliate platform.
type Service struct {
	repo                          store.Repository
	events                        rabbitmq.Publisher
	cache                         AttributionCache
	referralConversionAmountCents int64
	attributionTTL                time.Duration
}

// NewService creates a new affiliate service instance.
// referralConversionAmountCents is the placeholder deal size credited when a
// manually submitted referral is approved; attributionTTL bounds how long an
// attribution key stays resolvable through the cache.
func NewService(repo store.Repository, events rabbitmq.Publisher, referralConversionAmountCents int64, attributionTTL time.Duration) *Service {
	return &Service{
		repo:                          repo,
		events:                        events,
		referralConversionAmountCents: referralConversionAmountCents,
		attributionTTL:                attributionTTL,
	}
}

// SetAttributionCache wires the optional Redis-backed attribution cache.
// Without it, attribution keys resolve through the Postgres click index only.
func (s *Service) SetAttributionCache(cache AttributionCache) {
	s.cache = cache
}

const attributionKeyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newAttributionKey builds a time-prefixed random key. Unguessable enough to
// avoid trivial collision; not a credential and not cryptographically hardened.
func newAttributionKey() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = attributionKeyAlphabet[rand.Intn(len(attributionKeyAlphabet))]
	}
	return fmt.Sprintf("attr_%d_%s", time.Now().UnixMilli(), suffix)
}

// TrackClick resolves a referral code and records one click against it.
// Callers treat every error as a soft failure: the visitor is redirected
// regardless of whether tracking succeeded.
func (s *Service) TrackClick(ctx context.Context, code, ip, userAgent string) (*domain.Affiliate, *domain.ReferralClick, error) {
	affiliate, err := s.repo.FindAffiliateByReferralCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	click := &domain.ReferralClick{
		ID:             uuid.New(),
		ReferralCode:   code,
		IP:             ip,
		UserAgent:      userAgent,
		AttributionKey: newAttributionKey(),
	}
	if err := s.repo.CreateReferralClick(ctx, click); err != nil {
		if !errors.Is(err, store.ErrDuplicateAttributionKey) {
			return nil, nil, fmt.Errorf("record click: %w", err)
		}
		// Key collision is vanishingly rare; one retry with a fresh key.
		click.ID = uuid.New()
		click.AttributionKey = newAttributionKey()
		if err := s.repo.CreateReferralClick(ctx, click); err != nil {
			return nil, nil, fmt.Errorf("record click: %w", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, click.AttributionKey, affiliate.ID, s.attributionTTL); err != nil {
			log.Printf("level=warn component=app msg=\"attribution cache store failed\" attribution_key=%s err=%v", click.AttributionKey, err)
		}
	}

	return affiliate, click, nil
}

// ProcessConversion runs a conversion event through attribution, the rule
// engine, and the transactional recorder. Unattributed events are accepted
// and audit-logged but produce no financial records.
func (s *Service) ProcessConversion(ctx context.Context, event domain.ConversionEvent) (*domain.ConversionResult, error) {
	if event.EventType == "" || event.CustomerEmail == "" {
		return nil, ErrMissingEventFields
	}
	if event.AmountCents < 0 {
		return nil, ErrInvalidConversionAmount
	}

	affiliate, method, err := s.resolveAttribution(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("resolve attribution: %w", err)
	}

	if affiliate == nil {
		log.Printf("level=info component=app msg=\"conversion received without attribution\" event_type=%s customer_email=%s", event.EventType, event.CustomerEmail)
		s.audit(ctx, "system", "conversion_unattributed", "conversion", "", map[string]interface{}{
			"event_type":      event.EventType,
			"customer_email":  event.CustomerEmail,
			"attribution_key": event.AttributionKey,
			"referral_code":   event.ReferralCode,
		})
		return &domain.ConversionResult{Attributed: false, AttributionMethod: domain.AttributionMethodNone}, nil
	}

	rules, err := s.repo.ListCommissionRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load commission rules: %w", err)
	}
	quote, err := computeCommission(event.AmountCents, selectCommissionRule(rules))
	if err != nil {
		return nil, err
	}

	metadata := make(map[string]interface{}, len(event.EventMetadata)+4)
	for k, v := range event.EventMetadata {
		metadata[k] = v
	}
	metadata["customer_email"] = event.CustomerEmail
	metadata["attribution_method"] = method
	if event.AttributionKey != "" {
		metadata["attribution_key"] = event.AttributionKey
	}
	if event.ReferralCode != "" {
		metadata["referral_code"] = event.ReferralCode
	}

	currency := event.Currency
	if currency == "" {
		currency = "USD"
	}

	conversion := &domain.Conversion{
		ID:            uuid.New(),
		AffiliateID:   affiliate.ID,
		EventType:     event.EventType,
		AmountCents:   event.AmountCents,
		Currency:      currency,
		Status:        domain.StatusPending,
		EventMetadata: metadata,
	}
	commission := &domain.Commission{
		ID:           uuid.New(),
		ConversionID: conversion.ID,
		AffiliateID:  affiliate.ID,
		AmountCents:  quote.AmountCents,
		Rate:         quote.Rate,
		RateType:     quote.RateType,
		Status:       domain.StatusPending,
	}

	if err := s.repo.RecordConversion(ctx, conversion, commission); err != nil {
		return nil, fmt.Errorf("record conversion: %w", err)
	}

	s.audit(ctx, "system", "conversion_tracked", "conversion", conversion.ID.String(), map[string]interface{}{
		"event_type":              event.EventType,
		"amount_cents":            event.AmountCents,
		"commission_amount_cents": commission.AmountCents,
		"affiliate_id":            affiliate.ID.String(),
		"attribution_method":      method,
	})
	s.publish(ctx, "commission.created", domain.CommissionCreatedEvent{
		CommissionID:      commission.ID,
		ConversionID:      conversion.ID,
		AffiliateID:       affiliate.ID,
		AmountCents:       commission.AmountCents,
		AttributionMethod: method,
		Timestamp:         time.Now().UTC(),
	})

	return &domain.ConversionResult{
		Attributed:        true,
		AttributionMethod: method,
		Conversion:        conversion,
		Commission:        commission,
	}, nil
}

// SubmitReferral records a manually submitted lead for the affiliate owned
// by the given user.
func (s *Service) SubmitReferral(ctx context.Context, userID uuid.UUID, req domain.SubmitReferralRequest) (*domain.Referral, error) {
	if req.LeadName == "" || req.LeadEmail == "" {
		return nil, ErrMissingLeadFields
	}

	affiliate, err := s.repo.FindAffiliateByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find affiliate for user: %w", err)
	}

	referral := &domain.Referral{
		ID:          uuid.New(),
		AffiliateID: affiliate.ID,
		LeadName:    req.LeadName,
		LeadEmail:   req.LeadEmail,
		Metadata:    req.Metadata,
		Status:      domain.ReferralStatusSubmitted,
	}
	if err := s.repo.CreateReferral(ctx, referral); err != nil {
		return nil, fmt.Errorf("create referral: %w", err)
	}

	s.audit(ctx, userID.String(), "referral_submitted", "referral", referral.ID.String(), map[string]interface{}{
		"affiliate_id": affiliate.ID.String(),
		"lead_email":   referral.LeadEmail,
	})
	return referral, nil
}

// ReviewReferral performs the admin approve/reject transition. Approval
// synthesizes a conversion and commission through the rule engine, using the
// configured placeholder deal size, and credits the affiliate balance.
func (s *Service) ReviewReferral(ctx context.Context, referralID, reviewerID uuid.UUID, req domain.ReviewReferralRequest) (*domain.Referral, error) {
	var status string
	switch req.Action {
	case "approve":
		status = domain.ReferralStatusApproved
	case "reject":
		status = domain.ReferralStatusRejected
	default:
		return nil, ErrInvalidReviewAction
	}

	referral, err := s.repo.ClaimReferralForReview(ctx, referralID, status, reviewerID, req.ReviewNotes)
	if err != nil {
		return nil, err
	}

	if status == domain.ReferralStatusApproved {
		rules, err := s.repo.ListCommissionRules(ctx)
		if err != nil {
			return nil, fmt.Errorf("load commission rules: %w", err)
		}
		quote, err := computeCommission(s.referralConversionAmountCents, selectCommissionRule(rules))
		if err != nil {
			return nil, err
		}

		conversion := &domain.Conversion{
			ID:          uuid.New(),
			AffiliateID: referral.AffiliateID,
			ReferralID:  &referral.ID,
			EventType:   domain.EventTypePurchase,
			AmountCents: s.referralConversionAmountCents,
			Currency:    "USD",
			Status:      domain.StatusPending,
			EventMetadata: map[string]interface{}{
				"attribution_method": domain.AttributionMethodReview,
				"lead_email":         referral.LeadEmail,
			},
		}
		commission := &domain.Commission{
			ID:           uuid.New(),
			ConversionID: conversion.ID,
			AffiliateID:  referral.AffiliateID,
			AmountCents:  quote.AmountCents,
			Rate:         quote.Rate,
			RateType:     quote.RateType,
			Status:       domain.StatusPending,
		}
		if err := s.repo.RecordConversion(ctx, conversion, commission); err != nil {
			// The referral is already approved; surface loudly so the
			// missing financial records can be reconciled.
			log.Printf("level=error component=app msg=\"approved referral has no conversion recorded\" referral_id=%s err=%v", referral.ID, err)
			return nil, fmt.Errorf("record approval conversion: %w", err)
		}

		s.publish(ctx, "referral.approved", domain.ReferralReviewedEvent{
			ReferralID:  referral.ID,
			AffiliateID: referral.AffiliateID,
			Status:      status,
			ReviewedBy:  reviewerID,
			Timestamp:   time.Now().UTC(),
		})
		s.audit(ctx, reviewerID.String(), "referral_approved", "referral", referral.ID.String(), map[string]interface{}{
			"affiliate_id":            referral.AffiliateID.String(),
			"conversion_id":           conversion.ID.String(),
			"commission_amount_cents": commission.AmountCents,
		})
		return referral, nil
	}

	s.publish(ctx, "referral.rejected", domain.ReferralReviewedEvent{
		ReferralID:  referral.ID,
		AffiliateID: referral.AffiliateID,
		Status:      status,
		ReviewedBy:  reviewerID,
		Timestamp:   time.Now().UTC(),
	})
	s.audit(ctx, reviewerID.String(), "referral_rejected", "referral", referral.ID.String(), map[string]interface{}{
		"affiliate_id": referral.AffiliateID.String(),
	})
	return referral, nil
}

// DeleteReferral removes a referral and, through the cascade, its derived
// conversions and commissions.
func (s *Service) DeleteReferral(ctx context.Context, referralID, actorID uuid.UUID) error {
	if err := s.repo.DeleteReferral(ctx, referralID); err != nil {
		return err
	}
	s.audit(ctx, actorID.String(), "referral_deleted", "referral", referralID.String(), nil)
	return nil
}

// ReviewCommission performs the admin pending -> approved|rejected
// transition on a commission. Rejection reverses the provisional balance
// credit at the storage layer.
func (s *Service) ReviewCommission(ctx context.Context, commissionID, reviewerID uuid.UUID, action string) (*domain.Commission, error) {
	var status string
	switch action {
	case "approve":
		status = domain.StatusApproved
	case "reject":
		status = domain.StatusRejected
	default:
		return nil, ErrInvalidReviewAction
	}

	commission, err := s.repo.ReviewCommission(ctx, commissionID, status, reviewerID)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, reviewerID.String(), "commission_"+status, "commission", commission.ID.String(), map[string]interface{}{
		"affiliate_id": commission.AffiliateID.String(),
		"amount_cents": commission.AmountCents,
	})
	return commission, nil
}

// ListPayoutPreviews returns approved, unpaid commissions grouped per
// affiliate for the admin payout screen.
func (s *Service) ListPayoutPreviews(ctx context.Context) ([]domain.PayoutPreview, error) {
	return s.repo.ListPayableCommissions(ctx)
}

// ProcessPayouts disburses the approved, unpaid commissions of each selected
// affiliate. Affiliates with nothing payable are skipped silently, matching
// the admin batch-selection workflow.
func (s *Service) ProcessPayouts(ctx context.Context, affiliateIDs []uuid.UUID, actorID uuid.UUID) ([]domain.ProcessedPayout, error) {
	if len(affiliateIDs) == 0 {
		return nil, ErrNoAffiliatesGiven
	}

	var processed []domain.ProcessedPayout
	for _, affiliateID := range affiliateIDs {
		payout, err := s.repo.CreatePayoutForAffiliate(ctx, affiliateID, "bank_transfer")
		if err != nil {
			if errors.Is(err, store.ErrNoPayableCommissions) {
				continue
			}
			return processed, fmt.Errorf("payout for affiliate %s: %w", affiliateID, err)
		}

		processed = append(processed, domain.ProcessedPayout{
			AffiliateID:     affiliateID,
			PayoutID:        payout.ID,
			AmountCents:     payout.AmountCents,
			CommissionCount: payout.CommissionCount,
		})
		s.audit(ctx, actorID.String(), "payout_processed", "payout", payout.ID.String(), map[string]interface{}{
			"affiliate_id":     affiliateID.String(),
			"amount_cents":     payout.AmountCents,
			"commission_count": payout.CommissionCount,
		})
		s.publish(ctx, "payout.processed", domain.PayoutProcessedEvent{
			PayoutID:        payout.ID,
			AffiliateID:     affiliateID,
			AmountCents:     payout.AmountCents,
			CommissionCount: payout.CommissionCount,
			Timestamp:       time.Now().UTC(),
		})
	}
	return processed, nil
}

// ListAffiliates returns all affiliates with user info and referral counts.
func (s *Service) ListAffiliates(ctx context.Context) ([]domain.AffiliateListItem, error) {
	return s.repo.ListAffiliates(ctx)
}

// ListCommissionRules returns the configured commission rules.
func (s *Service) ListCommissionRules(ctx context.Context) ([]domain.CommissionRule, error) {
	return s.repo.ListCommissionRules(ctx)
}

// CreateCommissionRule validates and persists a new rule.
func (s *Service) CreateCommissionRule(ctx context.Context, actorID uuid.UUID, req domain.CreateCommissionRuleRequest) (*domain.CommissionRule, error) {
	if req.Name == "" {
		return nil, ErrMissingRuleName
	}
	if req.Type != domain.RuleTypePercentage && req.Type != domain.RuleTypeFlat {
		return nil, ErrUnknownRuleType
	}
	if req.Value < 0 {
		return nil, ErrInvalidRuleValue
	}

	rule := &domain.CommissionRule{
		ID:             uuid.New(),
		Name:           req.Name,
		Type:           req.Type,
		Value:          req.Value,
		MinAmountCents: req.MinAmountCents,
		MaxAmountCents: req.MaxAmountCents,
		IsDefault:      req.IsDefault,
	}
	if err := s.repo.CreateCommissionRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("create commission rule: %w", err)
	}

	s.audit(ctx, actorID.String(), "commission_rule_created", "commission_rule", rule.ID.String(), map[string]interface{}{
		"name":       rule.Name,
		"type":       rule.Type,
		"value":      rule.Value,
		"is_default": rule.IsDefault,
	})
	return rule, nil
}

// audit appends an audit-log entry. Audit failures are logged, not
// propagated: the financial write has already committed and the request
// outcome should reflect that.
func (s *Service) audit(ctx context.Context, actorID, action, objectType, objectID string, payload map[string]interface{}) {
	entry := domain.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Payload:    payload,
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		log.Printf("level=error component=app msg=\"audit log write failed\" action=%s object_id=%s err=%v", action, objectID, err)
	}
}

// publish sends an event to the affiliate events exchange when a producer is
// configured. Publish failures are logged and swallowed; events are
// advisory, not part of the financial transaction.
func (s *Service) publish(ctx context.Context, routingKey string, body interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, EventsExchange, routingKey, body); err != nil {
		log.Printf("level=warn component=app msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}
