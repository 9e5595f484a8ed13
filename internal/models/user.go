package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"`
	FullName  string         `json:"full_name"`
	Name      string         `json:"name"`
	AvatarURL string         `json:"avatar_url"`
}

// DisplayName picks the first non-empty source in a fixed order:
// full name, short name, email local-part, then a literal fallback.
func (u *User) DisplayName() string {
	sources := []string{
		strings.TrimSpace(u.FullName),
		strings.TrimSpace(u.Name),
		emailLocalPart(u.Email),
	}
	for _, s := range sources {
		if s != "" {
			return s
		}
	}
	return "Participante"
}

func emailLocalPart(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return ""
	}
	return email[:at]
}
