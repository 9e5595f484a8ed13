package subscription

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v79/webhook"

	"docforge/internal/api"
	"docforge/internal/auth"
	"docforge/internal/models"
)

// UserSource resolves the caller's profile for checkout.
type UserSource interface {
	GetUser(userID uint) (*models.User, error)
}

type Handler struct {
	service *Service
	billing *Billing
	users   UserSource
}

func NewHandler(service *Service, billing *Billing, users UserSource) *Handler {
	return &Handler{service: service, billing: billing, users: users}
}

// GetPlans is public; the plan catalog is read-only.
func (h *Handler) GetPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.GetPlans()
	if err != nil {
		api.WriteInternal(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	status, err := h.service.Status(userID)
	if err != nil {
		api.WriteInternal(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, status)
}

type CheckoutRequest struct {
	PlanID   uint   `json:"planId"`
	Interval string `json:"interval"`
}

func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	if h.billing == nil || !h.billing.Configured() {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "Billing not configured")
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid request body")
		return
	}
	if req.Interval == "" {
		req.Interval = "monthly"
	}
	if req.Interval != "monthly" && req.Interval != "yearly" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Interval must be monthly or yearly")
		return
	}

	user, err := h.users.GetUser(userID)
	if err != nil {
		api.WriteInternal(w, err)
		return
	}

	url, err := h.billing.CreateCheckoutSession(userID, user.Email, req.PlanID, req.Interval)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Plan not found")
			return
		}
		api.WriteInternal(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Webhook is public; authentication is the Stripe signature.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid payload")
		return
	}

	secret := ""
	if h.billing != nil {
		secret = h.billing.WebhookSecret()
	}
	if secret == "" {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "Webhook not configured")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		r.Header.Get("Stripe-Signature"),
		secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		log.Printf("stripe webhook signature failed: %v", err)
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Signature verification failed")
		return
	}

	if err := h.billing.ApplyEvent(event); err != nil {
		api.WriteInternal(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
