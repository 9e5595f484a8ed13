package subscription

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"gorm.io/gorm"

	"docforge/internal/models"
)

// BillingConfig carries the Stripe knobs read from the environment.
type BillingConfig struct {
	SecretKey     string
	WebhookSecret string
	FrontendURL   string
}

// Billing creates checkout sessions and applies subscription lifecycle
// events coming back through the webhook.
type Billing struct {
	repo *Repository
	cfg  BillingConfig
}

func NewBilling(repo *Repository, cfg BillingConfig) *Billing {
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &Billing{repo: repo, cfg: cfg}
}

func (b *Billing) Configured() bool {
	return b.cfg.SecretKey != "" && b.cfg.FrontendURL != ""
}

func (b *Billing) WebhookSecret() string {
	return b.cfg.WebhookSecret
}

// CreateCheckoutSession starts a Stripe Checkout session for the given plan
// and billing interval ("monthly" or "yearly").
func (b *Billing) CreateCheckoutSession(userID uint, email string, planID uint, interval string) (string, error) {
	plan, err := b.repo.GetPlanByID(planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrPlanNotFound
		}
		return "", err
	}

	priceID := plan.StripeMonthlyID
	if interval == "yearly" {
		priceID = plan.StripeYearlyID
	}
	if priceID == "" {
		return "", fmt.Errorf("plan %d has no price for interval %q", planID, interval)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(b.cfg.FrontendURL + "/billing/success"),
		CancelURL:  stripe.String(b.cfg.FrontendURL + "/billing/cancel"),
		Metadata: map[string]string{
			"user_id": strconv.FormatUint(uint64(userID), 10),
			"plan_id": strconv.FormatUint(uint64(planID), 10),
		},
	}

	sess, err := session.New(params)
	if err != nil {
		log.Printf("stripe checkout session failed: %v", err)
		return "", err
	}
	return sess.URL, nil
}

// ApplyEvent maps a verified Stripe event onto the Subscription row. Unknown
// event types are ignored.
func (b *Billing) ApplyEvent(event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("unmarshal checkout session: %w", err)
		}
		return b.applyCheckoutCompleted(&sess)
	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("unmarshal subscription: %w", err)
		}
		return b.applySubscriptionChange(&sub, event.Type == "customer.subscription.deleted")
	default:
		return nil
	}
}

func (b *Billing) applyCheckoutCompleted(sess *stripe.CheckoutSession) error {
	userID, err := strconv.ParseUint(sess.Metadata["user_id"], 10, 64)
	if err != nil {
		return fmt.Errorf("checkout session missing user_id metadata")
	}
	planID, _ := strconv.ParseUint(sess.Metadata["plan_id"], 10, 64)

	row := &models.Subscription{
		UserID: uint(userID),
		PlanID: uint(planID),
		Status: models.SubscriptionActive,
	}
	if sess.Customer != nil {
		row.StripeCustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		row.StripeSubscriptionID = sess.Subscription.ID
	}
	return b.repo.UpsertSubscription(row)
}

func (b *Billing) applySubscriptionChange(sub *stripe.Subscription, deleted bool) error {
	if sub.Customer == nil || sub.Customer.ID == "" {
		return fmt.Errorf("subscription event missing customer id")
	}

	row, err := b.repo.GetSubscriptionByCustomer(sub.Customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Webhook arrived before checkout completion was recorded.
			log.Printf("No subscription row for customer %s, skipping", sub.Customer.ID)
			return nil
		}
		return err
	}

	if deleted {
		row.Status = models.SubscriptionCanceled
	} else {
		row.Status = mapStripeStatus(sub.Status)
	}
	row.StripeSubscriptionID = sub.ID
	row.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	if sub.CurrentPeriodStart > 0 {
		t := time.Unix(sub.CurrentPeriodStart, 0)
		row.CurrentPeriodStart = &t
	}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0)
		row.CurrentPeriodEnd = &t
	}
	return b.repo.SaveSubscription(row)
}

func mapStripeStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive:
		return models.SubscriptionActive
	case stripe.SubscriptionStatusCanceled:
		return models.SubscriptionCanceled
	case stripe.SubscriptionStatusPastDue:
		return models.SubscriptionPastDue
	case stripe.SubscriptionStatusIncomplete, stripe.SubscriptionStatusIncompleteExpired:
		return models.SubscriptionIncomplete
	case stripe.SubscriptionStatusTrialing:
		return models.SubscriptionTrialing
	default:
		return models.SubscriptionNone
	}
}
