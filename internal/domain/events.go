/**
 * @description
 * This file defines the event payloads the affiliate-service publishes to
 * RabbitMQ. Downstream consumers (notification delivery, analytics) bind to
 * these routing keys on the `affiliate.events` topic exchange.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// CommissionCreatedEvent is published when a tracked conversion produces a
// commission and the affiliate balance has been credited.
type CommissionCreatedEvent struct {
	CommissionID      uuid.UUID `json:"commission_id"`
	ConversionID      uuid.UUID `json:"conversion_id"`
	AffiliateID       uuid.UUID `json:"affiliate_id"`
	AmountCents       int64     `json:"amount_cents"`
	AttributionMethod string    `json:"attribution_method"`
	Timestamp         time.Time `json:"timestamp"`
}

// ReferralReviewedEvent is published after an admin approve/reject
// transition completes.
type ReferralReviewedEvent struct {
	ReferralID  uuid.UUID `json:"referral_id"`
	AffiliateID uuid.UUID `json:"affiliate_id"`
	Status      string    `json:"status"`
	ReviewedBy  uuid.UUID `json:"reviewed_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// PayoutProcessedEvent is published when a payout run disburses an
// affiliate's approved commissions.
type PayoutProcessedEvent struct {
	PayoutID        uuid.UUID `json:"payout_id"`
	AffiliateID     uuid.UUID `json:"affiliate_id"`
	AmountCents     int64     `json:"amount_cents"`
	CommissionCount int       `json:"commission_count"`
	Timestamp       time.Time `json:"timestamp"`
}
