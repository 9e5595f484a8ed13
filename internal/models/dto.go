package models

import "time"

// RankingEntry is one row of a computed quiz ranking. Position is dense and
// 1-based in final sort order.
type RankingEntry struct {
	Position       int        `json:"position"`
	ParticipantID  uint       `json:"participant_id"`
	DisplayName    string     `json:"display_name"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	TotalScore     int        `json:"total_score"`
	CorrectAnswers int        `json:"correct_answers"`
	CompletedAt    *time.Time `json:"completed_at"`
	IsCurrentUser  bool       `json:"is_current_user"`
}

// SubscriptionStatus is the payload of GET /api/subscription/status.
type SubscriptionStatus struct {
	Subscription          *Subscription `json:"subscription"`
	HasActiveSubscription bool          `json:"hasActiveSubscription"`
	HasUserAPIKey         bool          `json:"hasUserApiKey"`
	CanUseServerAIKey     bool          `json:"canUseServerAIKey"`
}
