package project

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"docforge/internal/models"
)

var (
	ErrNotFound    = errors.New("project not found")
	ErrMissingName = errors.New("project name is required")
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(userID uint) ([]models.Project, error) {
	return s.repo.GetByUser(userID)
}

func (s *Service) Get(userID, id uint) (*models.Project, error) {
	project, err := s.repo.GetByID(userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *Service) Create(project *models.Project) error {
	if strings.TrimSpace(project.Name) == "" {
		return ErrMissingName
	}
	return s.repo.Create(project)
}

// Update rewrites the mutable fields of an owned project.
func (s *Service) Update(userID, id uint, updated *models.Project) (*models.Project, error) {
	project, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(updated.Name) == "" {
		return nil, ErrMissingName
	}

	project.Name = updated.Name
	project.Description = updated.Description
	project.TargetAudience = updated.TargetAudience
	project.Objectives = updated.Objectives
	project.TechStack = updated.TechStack
	project.Document = updated.Document

	if err := s.repo.Update(project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) Delete(userID, id uint) error {
	affected, err := s.repo.Delete(userID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
