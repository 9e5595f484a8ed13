package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	QuizStatusDraft    = "draft"
	QuizStatusActive   = "active"
	QuizStatusFinished = "finished"

	ParticipantPlaying   = "playing"
	ParticipantCompleted = "completed"
)

type Quiz struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
	UserID             uint           `json:"user_id" gorm:"not null;index"`
	Title              string         `json:"title" gorm:"not null"`
	Description        string         `json:"description"`
	ShareCode          string         `json:"share_code" gorm:"uniqueIndex;not null"`
	QuestionCount      int            `json:"question_count"`
	SecondsPerQuestion int            `json:"seconds_per_question"`
	Status             string         `json:"status" gorm:"not null;default:'draft'"`
}

// QuizParticipant is unique per (quiz, user); the composite index backs the
// idempotent-join guarantee under concurrent joins.
type QuizParticipant struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	QuizID               uint       `json:"quiz_id" gorm:"not null;uniqueIndex:idx_quiz_participant"`
	UserID               uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_quiz_participant"`
	DisplayName          string     `json:"display_name" gorm:"not null"`
	AvatarURL            string     `json:"avatar_url"`
	Status               string     `json:"status" gorm:"not null;default:'playing'"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	TotalScore           int        `json:"total_score"`
	CorrectAnswers       int        `json:"correct_answers"`
	QuestionsAnswered    int        `json:"questions_answered"`
	CompletedAt          *time.Time `json:"completed_at"`
}

// QuizAnswer carries the review state; reviewed rows always have both
// ReviewedAt and ReviewedBy set, unreviewed rows have neither.
type QuizAnswer struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ParticipantID uint       `json:"participant_id" gorm:"not null;index"`
	QuestionIndex int        `json:"question_index"`
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	IsCorrect     *bool      `json:"is_correct"`
	Points        int        `json:"points"`
	TimeSpent     int        `json:"time_spent"`
	NeedsReview   bool       `json:"needs_review"`
	ReviewedAt    *time.Time `json:"reviewed_at"`
	ReviewedBy    *uint      `json:"reviewed_by"`
}
