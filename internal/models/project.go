package models

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
	UserID         uint           `json:"user_id" gorm:"not null;index"`
	Name           string         `json:"name" gorm:"not null"`
	Description    string         `json:"description"`
	TargetAudience string         `json:"target_audience"`
	Objectives     string         `json:"objectives"`
	TechStack      string         `json:"tech_stack"`
	Document       string         `json:"document"`
}
