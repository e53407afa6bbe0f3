/**
 * @description
 * This file contains the HTTP handlers for the admin surface: affiliate
 * listing, referral review, commission review, commission rules, and payout
 * runs. All routes here sit behind AuthMiddleware plus RequireAdmin.
 *
 * Error mapping follows the service's sentinel errors: validation failures
 * are 400, missing records 404, illegal state transitions 409.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/reflift/affiliate-service/internal/app"
	"github.com/reflift/affiliate-service/internal/domain"
	"github.com/reflift/affiliate-service/internal/store"
)

// parseIDParam extracts and parses the {id} URL parameter.
func (h *AffiliateHandlers) parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid id format")
		return uuid.Nil, false
	}
	return id, true
}

// ListAffiliatesHandler handles GET /admin/affiliates.
func (h *AffiliateHandlers) ListAffiliatesHandler(w http.ResponseWriter, r *http.Request) {
	affiliates, err := h.service.ListAffiliates(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_affiliates outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list affiliates")
		return
	}
	h.writeJSON(w, http.StatusOK, affiliates)
}

// ReviewReferralHandler handles PUT/PATCH /admin/referrals/{id}: the
// approve/reject decision on a submitted referral.
func (h *AffiliateHandlers) ReviewReferralHandler(w http.ResponseWriter, r *http.Request) {
	referralID, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}
	reviewerID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req domain.ReviewReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	referral, err := h.service.ReviewReferral(r.Context(), referralID, reviewerID, req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidReviewAction):
			h.writeError(w, http.StatusBadRequest, "Action must be 'approve' or 'reject'")
		case errors.Is(err, store.ErrReferralNotFound):
			h.writeError(w, http.StatusNotFound, "Referral not found")
		case errors.Is(err, store.ErrReferralNotReviewable):
			h.writeError(w, http.StatusConflict, "Referral has already been reviewed")
		default:
			log.Printf("level=error component=api endpoint=review_referral outcome=failed referral_id=%s err=%v", referralID, err)
			h.writeError(w, http.StatusInternalServerError, "Failed to review referral")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, referral)
}

// DeleteReferralHandler handles DELETE /admin/referrals/{id}.
func (h *AffiliateHandlers) DeleteReferralHandler(w http.ResponseWriter, r *http.Request) {
	referralID, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}
	actorID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	if err := h.service.DeleteReferral(r.Context(), referralID, actorID); err != nil {
		if errors.Is(err, store.ErrReferralNotFound) {
			h.writeError(w, http.StatusNotFound, "Referral not found")
			return
		}
		log.Printf("level=error component=api endpoint=delete_referral outcome=failed referral_id=%s err=%v", referralID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete referral")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Referral deleted"})
}

// ReviewCommissionHandler handles PUT /admin/commissions/{id}: the
// approve/reject decision on a pending commission.
func (h *AffiliateHandlers) ReviewCommissionHandler(w http.ResponseWriter, r *http.Request) {
	commissionID, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}
	reviewerID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req domain.ReviewCommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	commission, err := h.service.ReviewCommission(r.Context(), commissionID, reviewerID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidReviewAction):
			h.writeError(w, http.StatusBadRequest, "Action must be 'approve' or 'reject'")
		case errors.Is(err, store.ErrCommissionNotFound):
			h.writeError(w, http.StatusNotFound, "Commission not found")
		case errors.Is(err, store.ErrCommissionNotPending):
			h.writeError(w, http.StatusConflict, "Commission has already been reviewed")
		case errors.Is(err, store.ErrInsufficientBalance):
			h.writeError(w, http.StatusConflict, "Affiliate balance cannot absorb the reversal")
		default:
			log.Printf("level=error component=api endpoint=review_commission outcome=failed commission_id=%s err=%v", commissionID, err)
			h.writeError(w, http.StatusInternalServerError, "Failed to review commission")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, commission)
}

// ListPayoutsHandler handles GET /admin/payouts: approved unpaid commissions
// grouped per affiliate, ready for a payout run.
func (h *AffiliateHandlers) ListPayoutsHandler(w http.ResponseWriter, r *http.Request) {
	previews, err := h.service.ListPayoutPreviews(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_payouts outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list payouts")
		return
	}
	h.writeJSON(w, http.StatusOK, previews)
}

// ProcessPayoutsHandler handles POST /admin/payouts: disburses approved
// commissions for the selected affiliates.
func (h *AffiliateHandlers) ProcessPayoutsHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req domain.ProcessPayoutsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	processed, err := h.service.ProcessPayouts(r.Context(), req.AffiliateIDs, actorID)
	if err != nil {
		if errors.Is(err, app.ErrNoAffiliatesGiven) {
			h.writeError(w, http.StatusBadRequest, "At least one affiliate id is required")
			return
		}
		log.Printf("level=error component=api endpoint=process_payouts outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to process payouts")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"payouts": processed,
	})
}

// ListCommissionRulesHandler handles GET /admin/commission-rules.
func (h *AffiliateHandlers) ListCommissionRulesHandler(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.ListCommissionRules(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_commission_rules outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list commission rules")
		return
	}
	h.writeJSON(w, http.StatusOK, rules)
}

// CreateCommissionRuleHandler handles POST /admin/commission-rules.
func (h *AffiliateHandlers) CreateCommissionRuleHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req domain.CreateCommissionRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rule, err := h.service.CreateCommissionRule(r.Context(), actorID, req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingRuleName):
			h.writeError(w, http.StatusBadRequest, "Rule name is required")
		case errors.Is(err, app.ErrUnknownRuleType):
			h.writeError(w, http.StatusBadRequest, "Rule type must be 'percentage' or 'flat'")
		case errors.Is(err, app.ErrInvalidRuleValue):
			h.writeError(w, http.StatusBadRequest, "Rule value must not be negative")
		default:
			log.Printf("level=error component=api endpoint=create_commission_rule outcome=failed err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Failed to create commission rule")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, rule)
}
