package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// AIConfig is the per-user provider preference. One row per user.
type AIConfig struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Provider  string    `json:"provider" gorm:"not null"`
	Model     string    `json:"model" gorm:"not null"`
	APIKey    string    `json:"api_key,omitempty"`
}

// CustomModel is a user-declared model outside the built-in catalog.
type CustomModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	UserID    uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_custom_model_user"`
	Model     string         `json:"model" gorm:"not null;uniqueIndex:idx_custom_model_user"`
	Provider  string         `json:"provider" gorm:"not null"`
}

// UsageRecord is one generation call, recorded after every successful dispatch.
type UsageRecord struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CreatedAt     time.Time `json:"created_at"`
	UserID        uint      `json:"user_id" gorm:"not null;index"`
	Provider      string    `json:"provider" gorm:"not null"`
	Model         string    `json:"model" gorm:"not null"`
	Category      string    `json:"category" gorm:"not null"`
	InputChars    int       `json:"input_chars"`
	OutputChars   int       `json:"output_chars"`
	DurationMs    int64     `json:"duration_ms"`
	UsedServerKey bool      `json:"used_server_key"`
}
