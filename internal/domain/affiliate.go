/**
 * @description
 * This file defines the core domain models for the affiliate-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Using distinct types for API requests, database models, and event payloads
 *   keeps a clear separation of concerns between layers.
 * - All money values are stored as `int64` in the smallest currency unit
 *   (cents), which avoids floating-point inaccuracies with financial data.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Referral review statuses. Only `submitted -> approved|rejected` is a legal
// admin transition; `converted` is set when a tracked conversion later lands
// against an approved referral.
const (
	ReferralStatusSubmitted = "submitted"
	ReferralStatusApproved  = "approved"
	ReferralStatusRejected  = "rejected"
	ReferralStatusConverted = "converted"
)

// Conversion and commission lifecycle statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusPaid     = "paid"
)

// Commission rule types.
const (
	RuleTypePercentage = "percentage"
	RuleTypeFlat       = "flat"
)

// Attribution methods recorded on conversions for traceability.
const (
	AttributionMethodKey    = "attribution_key"
	AttributionMethodCode   = "referral_code"
	AttributionMethodNone   = "none"
	AttributionMethodReview = "referral_review"
)

// Conversion event types accepted from webhooks and the message bus.
const (
	EventTypeSignup   = "signup"
	EventTypePurchase = "purchase"
	EventTypeTrial    = "trial"
	EventTypeDemo     = "demo"
)

// User represents the simplified view of a platform user needed by this
// service. Authentication and user management live in an external service.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"` // 'admin' or 'affiliate'
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Affiliate maps to the `affiliates` table. The referral code is globally
// unique and immutable once issued; the balance only moves through atomic
// increments at the storage layer.
type Affiliate struct {
	ID            uuid.UUID              `json:"id"`
	UserID        uuid.UUID              `json:"user_id"`
	ReferralCode  string                 `json:"referral_code"`
	PayoutDetails map[string]interface{} `json:"payout_details,omitempty"`
	BalanceCents  int64                  `json:"balance_cents"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// AffiliateListItem is the admin listing projection: the affiliate joined
// with its owning user and referral count.
type AffiliateListItem struct {
	Affiliate
	User          User  `json:"user"`
	ReferralCount int64 `json:"referral_count"`
}

// ReferralClick records one inbound click on a referral link. Rows are
// immutable once created and exist only for attribution lookups and
// analytics.
type ReferralClick struct {
	ID             uuid.UUID `json:"id"`
	ReferralCode   string    `json:"referral_code"`
	IP             string    `json:"ip"`
	UserAgent      string    `json:"user_agent"`
	AttributionKey string    `json:"attribution_key"`
	CreatedAt      time.Time `json:"created_at"`
}

// Referral is a manually submitted lead awaiting admin review.
type Referral struct {
	ID          uuid.UUID              `json:"id"`
	AffiliateID uuid.UUID              `json:"affiliate_id"`
	LeadName    string                 `json:"lead_name"`
	LeadEmail   string                 `json:"lead_email"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Status      string                 `json:"status"`
	SubmittedAt time.Time              `json:"submitted_at"`
	ReviewedBy  *uuid.UUID             `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time             `json:"reviewed_at,omitempty"`
	ReviewNotes *string                `json:"review_notes,omitempty"`
}

// Conversion is one tracked revenue event credited to an affiliate.
// Immutable after creation except for status.
type Conversion struct {
	ID            uuid.UUID              `json:"id"`
	AffiliateID   uuid.UUID              `json:"affiliate_id"`
	ReferralID    *uuid.UUID             `json:"referral_id,omitempty"`
	EventType     string                 `json:"event_type"`
	AmountCents   int64                  `json:"amount_cents"`
	Currency      string                 `json:"currency"`
	Status        string                 `json:"status"`
	EventMetadata map[string]interface{} `json:"event_metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Commission is the affiliate's cut of one conversion (1:1 under the current
// design). Rate carries the percentage for percentage rules and the flat
// cents value for flat rules, disambiguated by RateType.
type Commission struct {
	ID           uuid.UUID  `json:"id"`
	ConversionID uuid.UUID  `json:"conversion_id"`
	AffiliateID  uuid.UUID  `json:"affiliate_id"`
	AmountCents  int64      `json:"amount_cents"`
	Rate         int64      `json:"rate"`
	RateType     string     `json:"rate_type"`
	Status       string     `json:"status"`
	ApprovedBy   *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CommissionRule configures how a commission is computed. At most one rule
// carries IsDefault=true at any time; writing a new default unsets the
// previous one. Min/max amount bounds and tier requirements are modeled but
// not yet consulted by rule selection.
type CommissionRule struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`  // 'percentage' or 'flat'
	Value          int64     `json:"value"` // percentage (15) or cents (1500)
	MinAmountCents *int64    `json:"min_amount_cents,omitempty"`
	MaxAmountCents *int64    `json:"max_amount_cents,omitempty"`
	IsDefault      bool      `json:"is_default"`
	CreatedAt      time.Time `json:"created_at"`
}

// Payout aggregates approved, unpaid commissions for one affiliate into a
// single disbursement record.
type Payout struct {
	ID              uuid.UUID  `json:"id"`
	AffiliateID     uuid.UUID  `json:"affiliate_id"`
	AmountCents     int64      `json:"amount_cents"`
	Currency        string     `json:"currency"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	CommissionCount int        `json:"commission_count"`
	CreatedAt       time.Time  `json:"created_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
}

// AuditLog captures actor, action kind, object reference, and a payload
// snapshot for forensic replay of every financially relevant mutation.
type AuditLog struct {
	ID         uuid.UUID              `json:"id"`
	ActorID    string                 `json:"actor_id"`
	Action     string                 `json:"action"`
	ObjectType string                 `json:"object_type"`
	ObjectID   string                 `json:"object_id"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ConversionEvent is the DTO for inbound conversion reports, arriving either
// via the HTTP webhook or the message bus.
type ConversionEvent struct {
	EventType      string                 `json:"event_type"`
	AmountCents    int64                  `json:"amount_cents"`
	Currency       string                 `json:"currency,omitempty"`
	CustomerEmail  string                 `json:"customer_email"`
	AttributionKey string                 `json:"attribution_key,omitempty"`
	ReferralCode   string                 `json:"referral_code,omitempty"`
	EventMetadata  map[string]interface{} `json:"event_metadata,omitempty"`
}

// ConversionResult reports the outcome of processing one conversion event.
// Unattributed events are not errors: Attributed is false and no financial
// records exist.
type ConversionResult struct {
	Attributed        bool        `json:"attributed"`
	AttributionMethod string      `json:"attribution_method"`
	Conversion        *Conversion `json:"conversion,omitempty"`
	Commission        *Commission `json:"commission,omitempty"`
}

// SubmitReferralRequest is the DTO for an affiliate submitting a lead.
type SubmitReferralRequest struct {
	LeadName  string                 `json:"lead_name"`
	LeadEmail string                 `json:"lead_email"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ReviewReferralRequest is the DTO for the admin approve/reject transition.
type ReviewReferralRequest struct {
	Action      string  `json:"action"` // 'approve' or 'reject'
	ReviewNotes *string `json:"reviewNotes,omitempty"`
}

// ReviewCommissionRequest is the DTO for the admin commission review.
type ReviewCommissionRequest struct {
	Action string `json:"action"` // 'approve' or 'reject'
}

// PayoutPayee identifies the affiliate a payout group belongs to.
type PayoutPayee struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ReferralCode string    `json:"referral_code"`
}

// PayoutPreview groups the approved, unpaid commissions for one affiliate
// with their total, for the admin payout review screen.
type PayoutPreview struct {
	Affiliate        PayoutPayee  `json:"affiliate"`
	Commissions      []Commission `json:"commissions"`
	TotalAmountCents int64        `json:"total_amount_cents"`
}

// ProcessPayoutsRequest is the DTO for the admin batch payout action.
type ProcessPayoutsRequest struct {
	AffiliateIDs []uuid.UUID `json:"affiliate_ids"`
}

// ProcessedPayout summarizes one disbursement created by a payout run.
type ProcessedPayout struct {
	AffiliateID     uuid.UUID `json:"affiliate_id"`
	PayoutID        uuid.UUID `json:"payout_id"`
	AmountCents     int64     `json:"amount_cents"`
	CommissionCount int       `json:"commission_count"`
}

// CreateCommissionRuleRequest is the DTO for the admin rule editor.
type CreateCommissionRuleRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Value          int64  `json:"value"`
	MinAmountCents *int64 `json:"min_amount_cents,omitempty"`
	MaxAmountCents *int64 `json:"max_amount_cents,omitempty"`
	IsDefault      bool   `json:"is_default"`
}
