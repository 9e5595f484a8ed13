package aiconfig

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

func (r *Repository) GetConfig(userID uint) (*models.AIConfig, error) {
	var config models.AIConfig
	err := r.db.Where("user_id = ?", userID).First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// UpsertConfig keeps the one-row-per-user invariant through the unique index
// on user_id. A blank key leaves any stored key untouched; keys are replaced
// through this path, never cleared.
func (r *Repository) UpsertConfig(config *models.AIConfig) error {
	columns := []string{"provider", "model", "updated_at"}
	if config.APIKey != "" {
		columns = append(columns, "api_key")
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(config).Error
	if err != nil {
		log.Printf("Error upserting AI config for user %d: %v", config.UserID, err)
	}
	return err
}

func (r *Repository) GetCustomModels(userID uint) ([]models.CustomModel, error) {
	var custom []models.CustomModel
	err := r.db.Where("user_id = ?", userID).Find(&custom).Error
	return custom, err
}

func (r *Repository) CreateCustomModel(model *models.CustomModel) error {
	return r.db.Create(model).Error
}

func (r *Repository) DeleteCustomModel(userID, id uint) (int64, error) {
	result := r.db.Where("user_id = ? AND id = ?", userID, id).
		Delete(&models.CustomModel{})
	return result.RowsAffected, result.Error
}
