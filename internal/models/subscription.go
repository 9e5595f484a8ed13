package models

import (
	"time"
)

const (
	SubscriptionActive     = "active"
	SubscriptionCanceled   = "canceled"
	SubscriptionPastDue    = "past_due"
	SubscriptionIncomplete = "incomplete"
	SubscriptionTrialing   = "trialing"
	SubscriptionNone       = "none"
)

type SubscriptionPlan struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	CreatedAt         time.Time `json:"created_at"`
	Name              string    `json:"name" gorm:"not null"`
	PriceMonthlyCents int64     `json:"price_monthly_cents"`
	PriceYearlyCents  int64     `json:"price_yearly_cents"`
	Features          string    `json:"features"` // JSON array of feature strings
	StripeMonthlyID   string    `json:"-"`
	StripeYearlyID    string    `json:"-"`
	IsActive          bool      `json:"is_active" gorm:"default:true"`
}

type Subscription struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	UserID               uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	PlanID               uint       `json:"plan_id"`
	Status               string     `json:"status" gorm:"not null;default:'none'"`
	StripeCustomerID     string     `json:"-" gorm:"index"`
	StripeSubscriptionID string     `json:"-"`
	CurrentPeriodStart   *time.Time `json:"current_period_start"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
}

// IsActive re-checks period expiry instead of trusting the stored status
// alone; a row still marked active past its period end counts as inactive.
func (s *Subscription) IsActive(now time.Time) bool {
	if s == nil || s.Status != SubscriptionActive {
		return false
	}
	if s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.Before(now) {
		return false
	}
	return true
}
