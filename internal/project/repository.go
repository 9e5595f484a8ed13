package project

import (
	"gorm.io/gorm"

	"docforge/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Every query filters by user_id explicitly; ownership is never assumed from
// the row id alone.

func (r *Repository) GetByUser(userID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.Where("user_id = ?", userID).Order("updated_at desc").Find(&projects).Error
	return projects, err
}

func (r *Repository) GetByID(userID, id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *Repository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

func (r *Repository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

func (r *Repository) Delete(userID, id uint) (int64, error) {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Project{})
	return result.RowsAffected, result.Error
}
