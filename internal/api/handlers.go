/**
 * @description
 * This file contains the HTTP handlers for the affiliate-service's public
 * endpoints: the referral redirect, the conversion webhook, and referral
 * submission. Handlers are responsible for parsing incoming requests, calling
 * the appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * The redirect handler is deliberately fail-open: a visitor following a
 * referral link is always redirected, even when tracking fails.
 *
 * @dependencies
 * - encoding/json, log, net/http, net/url: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/reflift/affiliate-service/internal/app"
	"github.com/reflift/affiliate-service/internal/domain"
	"github.com/reflift/affiliate-service/internal/store"
)

// attributionCookieName carries the attribution payload to the marketing
// site; the frontend reads it, so it is not HttpOnly.
const attributionCookieName = "affiliate_attribution"

// attributionCookieTTL matches the attribution window.
const attributionCookieTTL = 30 * 24 * time.Hour

// AffiliateHandlers holds the application service that handlers will use.
type AffiliateHandlers struct {
	service            *app.Service
	defaultRedirectURL string
	secureCookies      bool
}

// NewAffiliateHandlers creates a new instance of AffiliateHandlers.
func NewAffiliateHandlers(service *app.Service, defaultRedirectURL string, secureCookies bool) *AffiliateHandlers {
	return &AffiliateHandlers{
		service:            service,
		defaultRedirectURL: defaultRedirectURL,
		secureCookies:      secureCookies,
	}
}

// attributionCookiePayload is the JSON stored (URL-escaped) in the
// attribution cookie.
type attributionCookiePayload struct {
	ReferralCode   string `json:"referral_code"`
	AttributionKey string `json:"attribution_key"`
	AffiliateID    string `json:"affiliate_id"`
	Timestamp      int64  `json:"timestamp"`
}

// conversionResponse is the webhook response shape. attributionMethod is
// camelCase for the dashboard client.
type conversionResponse struct {
	Success           bool               `json:"success"`
	Message           string             `json:"message"`
	Attributed        bool               `json:"attributed"`
	AttributionMethod string             `json:"attributionMethod,omitempty"`
	Conversion        *domain.Conversion `json:"conversion,omitempty"`
	Commission        *domain.Commission `json:"commission,omitempty"`
}

// RedirectHandler handles GET /r/{code}: it records the click, drops the
// attribution cookie, and redirects to the marketing site. Every failure
// path still redirects.
func (h *AffiliateHandlers) RedirectHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	targetURL := h.resolveTarget(r.URL.Query().Get("target"))

	affiliate, click, err := h.service.TrackClick(r.Context(), code, clientIP(r), r.UserAgent())
	if err != nil {
		if errors.Is(err, store.ErrAffiliateNotFound) {
			log.Printf("level=info component=api endpoint=redirect outcome=passthrough reason=unknown_code code=%s", code)
		} else {
			log.Printf("level=warn component=api endpoint=redirect outcome=passthrough reason=tracking_failed code=%s err=%v", code, err)
		}
		http.Redirect(w, r, targetURL, http.StatusFound)
		return
	}

	payload, err := json.Marshal(attributionCookiePayload{
		ReferralCode:   code,
		AttributionKey: click.AttributionKey,
		AffiliateID:    affiliate.ID.String(),
		Timestamp:      time.Now().UnixMilli(),
	})
	if err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     attributionCookieName,
			Value:    url.QueryEscape(string(payload)),
			Path:     "/",
			Expires:  time.Now().Add(attributionCookieTTL),
			MaxAge:   int(attributionCookieTTL / time.Second),
			SameSite: http.SameSiteLaxMode,
			HttpOnly: false,
			Secure:   h.secureCookies,
		})
	}

	target, err := url.Parse(targetURL)
	if err != nil {
		http.Redirect(w, r, targetURL, http.StatusFound)
		return
	}
	query := target.Query()
	query.Set("ref", code)
	query.Set("attr", click.AttributionKey)
	target.RawQuery = query.Encode()

	log.Printf("level=info component=api endpoint=redirect outcome=tracked code=%s attribution_key=%s", code, click.AttributionKey)
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// ConversionWebhookHandler handles POST /webhook/conversion from external
// systems reporting signups, purchases, and other conversion events.
func (h *AffiliateHandlers) ConversionWebhookHandler(w http.ResponseWriter, r *http.Request) {
	var event domain.ConversionEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Printf("level=warn component=api endpoint=conversion_webhook outcome=reject reason=invalid_json err=%v", err)
		h.writeJSON(w, http.StatusBadRequest, conversionResponse{Success: false, Message: "Invalid request body"})
		return
	}

	result, err := h.service.ProcessConversion(r.Context(), event)
	if err != nil {
		if errors.Is(err, app.ErrMissingEventFields) {
			h.writeJSON(w, http.StatusBadRequest, conversionResponse{Success: false, Message: "Event type and customer email are required"})
			return
		}
		if errors.Is(err, app.ErrInvalidConversionAmount) {
			h.writeJSON(w, http.StatusBadRequest, conversionResponse{Success: false, Message: "Conversion amount must not be negative"})
			return
		}
		log.Printf("level=error component=api endpoint=conversion_webhook outcome=failed event_type=%s err=%v", event.EventType, err)
		h.writeJSON(w, http.StatusInternalServerError, conversionResponse{Success: false, Message: "Failed to process conversion"})
		return
	}

	if !result.Attributed {
		h.writeJSON(w, http.StatusOK, conversionResponse{
			Success:    true,
			Message:    "Conversion logged (no attribution)",
			Attributed: false,
		})
		return
	}

	h.writeJSON(w, http.StatusOK, conversionResponse{
		Success:           true,
		Message:           "Conversion tracked",
		Attributed:        true,
		AttributionMethod: result.AttributionMethod,
		Conversion:        result.Conversion,
		Commission:        result.Commission,
	})
}

// SubmitReferralHandler handles POST /referrals: an authenticated affiliate
// manually submits a lead for review.
func (h *AffiliateHandlers) SubmitReferralHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req domain.SubmitReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	referral, err := h.service.SubmitReferral(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, app.ErrMissingLeadFields) {
			h.writeError(w, http.StatusBadRequest, "Lead name and lead email are required")
			return
		}
		if errors.Is(err, store.ErrAffiliateNotFound) {
			h.writeError(w, http.StatusNotFound, "Affiliate profile not found")
			return
		}
		log.Printf("level=error component=api endpoint=submit_referral outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to submit referral")
		return
	}

	h.writeJSON(w, http.StatusCreated, referral)
}

// resolveTarget accepts an absolute http(s) override from the link, falling
// back to the configured marketing-site URL for anything else.
func (h *AffiliateHandlers) resolveTarget(raw string) string {
	if raw == "" {
		return h.defaultRedirectURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return h.defaultRedirectURL
	}
	return raw
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, falling
// back to the connection's remote address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeJSON is a helper for writing JSON responses.
func (h *AffiliateHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *AffiliateHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
