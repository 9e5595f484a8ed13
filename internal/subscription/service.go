package subscription

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"docforge/internal/models"
)

var ErrPlanNotFound = errors.New("plan not found")

// ConfigSource resolves a user's AI configuration; the subscription status
// payload reports whether a personal API key is stored.
type ConfigSource interface {
	GetConfig(userID uint) (*models.AIConfig, error)
}

type Service struct {
	repo    *Repository
	configs ConfigSource
	now     func() time.Time
}

func NewService(repo *Repository, configs ConfigSource) *Service {
	return &Service{
		repo:    repo,
		configs: configs,
		now:     time.Now,
	}
}

func (s *Service) GetPlans() ([]models.SubscriptionPlan, error) {
	return s.repo.GetActivePlans()
}

// GetSubscription returns nil without error when the user has no row.
func (s *Service) GetSubscription(userID uint) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func (s *Service) HasActiveSubscription(userID uint) (bool, error) {
	sub, err := s.GetSubscription(userID)
	if err != nil {
		return false, err
	}
	return sub.IsActive(s.now()), nil
}

// CanUseServerKey is the gating rule: a caller with a personal key is always
// allowed; everyone else needs an active subscription.
func (s *Service) CanUseServerKey(userID uint, hasUserKey bool) (bool, error) {
	if hasUserKey {
		return true, nil
	}
	return s.HasActiveSubscription(userID)
}

func (s *Service) Status(userID uint) (*models.SubscriptionStatus, error) {
	sub, err := s.GetSubscription(userID)
	if err != nil {
		return nil, err
	}

	hasUserKey := false
	if s.configs != nil {
		config, err := s.configs.GetConfig(userID)
		if err != nil {
			return nil, err
		}
		hasUserKey = config.APIKey != ""
	}

	active := sub.IsActive(s.now())
	return &models.SubscriptionStatus{
		Subscription:          sub,
		HasActiveSubscription: active,
		HasUserAPIKey:         hasUserKey,
		CanUseServerAIKey:     hasUserKey || active,
	}, nil
}
