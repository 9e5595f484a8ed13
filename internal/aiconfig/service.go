package aiconfig

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"docforge/internal/models"
)

var (
	ErrInvalidProvider  = errors.New("unknown provider")
	ErrMissingModel     = errors.New("model is required")
	ErrUnknownModel     = errors.New("model not found in catalog or custom models")
	ErrProviderMismatch = errors.New("model belongs to a different provider")
	ErrDuplicateModel   = errors.New("custom model already declared")
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// GetConfig returns the user's stored configuration, or defaults when no row
// exists. The API key is never invented.
func (s *Service) GetConfig(userID uint) (*models.AIConfig, error) {
	config, err := s.repo.GetConfig(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.AIConfig{
				UserID:   userID,
				Provider: DefaultProvider,
				Model:    DefaultModel,
			}, nil
		}
		return nil, err
	}
	return config, nil
}

// SaveConfig validates the declared provider/model pair against the built-in
// catalog plus the caller's custom models, then upserts the single row.
func (s *Service) SaveConfig(userID uint, provider, model, apiKey string) error {
	provider = strings.TrimSpace(provider)
	model = strings.TrimSpace(model)

	if !KnownProvider(provider) {
		return ErrInvalidProvider
	}
	if model == "" {
		return ErrMissingModel
	}

	resolvedProvider, err := s.resolveModelProvider(userID, model)
	if err != nil {
		return err
	}
	if resolvedProvider != provider {
		return ErrProviderMismatch
	}

	config := &models.AIConfig{
		UserID:   userID,
		Provider: provider,
		Model:    model,
	}
	if apiKey != "" {
		config.APIKey = apiKey
	}
	return s.repo.UpsertConfig(config)
}

func (s *Service) resolveModelProvider(userID uint, modelID string) (string, error) {
	if entry, ok := lookupBuiltin(modelID); ok {
		return entry.Provider, nil
	}

	custom, err := s.repo.GetCustomModels(userID)
	if err != nil {
		return "", err
	}
	for _, m := range custom {
		if m.Model == modelID {
			return m.Provider, nil
		}
	}
	return "", ErrUnknownModel
}

func (s *Service) ListCustomModels(userID uint) ([]models.CustomModel, error) {
	return s.repo.GetCustomModels(userID)
}

func (s *Service) AddCustomModel(userID uint, modelID, provider string) (*models.CustomModel, error) {
	modelID = strings.TrimSpace(modelID)
	provider = strings.TrimSpace(provider)

	if !KnownProvider(provider) {
		return nil, ErrInvalidProvider
	}
	if modelID == "" {
		return nil, ErrMissingModel
	}

	existing, err := s.repo.GetCustomModels(userID)
	if err != nil {
		return nil, err
	}
	for _, m := range existing {
		if m.Model == modelID {
			return nil, ErrDuplicateModel
		}
	}

	custom := &models.CustomModel{
		UserID:   userID,
		Model:    modelID,
		Provider: provider,
	}
	if err := s.repo.CreateCustomModel(custom); err != nil {
		return nil, err
	}
	return custom, nil
}

func (s *Service) RemoveCustomModel(userID, id uint) error {
	affected, err := s.repo.DeleteCustomModel(userID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUnknownModel
	}
	return nil
}
