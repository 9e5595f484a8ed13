package generate

import (
	"log"

	"gorm.io/gorm"

	"docforge/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) RecordUsage(record *models.UsageRecord) error {
	err := r.db.Create(record).Error
	if err != nil {
		log.Printf("Error recording usage for user %d: %v", record.UserID, err)
	}
	return err
}

func (r *Repository) GetUsageByUser(userID uint, limit int) ([]models.UsageRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var records []models.UsageRecord
	err := r.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}
