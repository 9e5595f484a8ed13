package subscription

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"docforge/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetActivePlans() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Where("is_active = ?", true).Order("price_monthly_cents asc").Find(&plans).Error
	return plans, err
}

func (r *Repository) GetPlanByID(id uint) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *Repository) GetSubscriptionByUser(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *Repository) GetSubscriptionByCustomer(customerID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpsertSubscription keeps the at-most-one-row-per-user invariant through the
// unique index on user_id.
func (r *Repository) UpsertSubscription(sub *models.Subscription) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_id", "status", "stripe_customer_id", "stripe_subscription_id",
			"current_period_start", "current_period_end", "cancel_at_period_end", "updated_at",
		}),
	}).Create(sub).Error
	if err != nil {
		log.Printf("Error upserting subscription for user %d: %v", sub.UserID, err)
	}
	return err
}

func (r *Repository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}
