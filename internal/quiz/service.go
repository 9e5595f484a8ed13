package quiz

import (
	"errors"
	"log"
	"math/rand"
	"strings"
	"time"

	"gorm.io/gorm"

	"docforge/internal/models"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrQuizNotActive   = errors.New("quiz is not active")
	ErrAnswerNotFound  = errors.New("answer not found")
	ErrAccessDenied    = errors.New("caller does not own this quiz")
	ErrNotParticipant  = errors.New("caller has not joined this quiz")
	ErrMissingTitle    = errors.New("quiz title is required")
	ErrInvalidStatus   = errors.New("invalid quiz status")
	ErrInvalidQuestion = errors.New("question index out of range")
	ErrAlreadyAnswered = errors.New("question already answered")
)

// Cache keeps hot quiz lookups and computed rankings out of the database.
// A nil cache disables caching.
type Cache interface {
	GetQuiz(code string) (*models.Quiz, error)
	SetQuiz(quiz *models.Quiz) error
	InvalidateQuiz(code string) error
	GetRanking(quizID uint) ([]models.RankingEntry, bool)
	SetRanking(quizID uint, entries []models.RankingEntry) error
	InvalidateRanking(quizID uint) error
}

// RoomBroadcaster pushes events into the quiz's websocket room. A nil
// broadcaster disables realtime updates.
type RoomBroadcaster interface {
	BroadcastMessage(shareCode, messageType string, data interface{})
}

type Service struct {
	repo  *Repository
	cache Cache
	hub   RoomBroadcaster
	now   func() time.Time
}

func NewService(repo *Repository, cache Cache, hub RoomBroadcaster) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		hub:   hub,
		now:   time.Now,
	}
}

// --- Quiz CRUD ---

func (s *Service) CreateQuiz(quiz *models.Quiz) error {
	if strings.TrimSpace(quiz.Title) == "" {
		return ErrMissingTitle
	}
	quiz.ShareCode = generateShareCode()
	quiz.Status = models.QuizStatusDraft
	return s.repo.CreateQuiz(quiz)
}

func (s *Service) GetQuizzesByOwner(userID uint) ([]models.Quiz, error) {
	return s.repo.GetQuizzesByOwner(userID)
}

func (s *Service) GetQuiz(id uint) (*models.Quiz, error) {
	quiz, err := s.repo.GetQuizByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

// GetOwnedQuiz distinguishes a missing quiz from one owned by someone else.
func (s *Service) GetOwnedQuiz(userID, id uint) (*models.Quiz, error) {
	quiz, err := s.GetQuiz(id)
	if err != nil {
		return nil, err
	}
	if quiz.UserID != userID {
		return nil, ErrAccessDenied
	}
	return quiz, nil
}

func (s *Service) UpdateQuiz(userID, id uint, updated *models.Quiz) (*models.Quiz, error) {
	quiz, err := s.GetOwnedQuiz(userID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(updated.Title) == "" {
		return nil, ErrMissingTitle
	}
	if !validQuizStatus(updated.Status) {
		return nil, ErrInvalidStatus
	}

	quiz.Title = updated.Title
	quiz.Description = updated.Description
	quiz.QuestionCount = updated.QuestionCount
	quiz.SecondsPerQuestion = updated.SecondsPerQuestion
	quiz.Status = updated.Status

	if err := s.repo.UpdateQuiz(quiz); err != nil {
		return nil, err
	}
	s.invalidateQuiz(quiz)
	return quiz, nil
}

func (s *Service) DeleteQuiz(userID, id uint) error {
	quiz, err := s.GetOwnedQuiz(userID, id)
	if err != nil {
		return err
	}
	affected, err := s.repo.DeleteQuiz(userID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrQuizNotFound
	}
	s.invalidateQuiz(quiz)
	return nil
}

func (s *Service) IsOwner(userID, id uint) bool {
	quiz, err := s.repo.GetQuizByID(id)
	if err != nil {
		return false
	}
	return quiz.UserID == userID
}

// --- Share lookup ---

// ShareLookup resolves a quiz by its public share code and reports whether
// the caller already participates.
func (s *Service) ShareLookup(code string, userID uint) (*models.Quiz, bool, string, error) {
	quiz, err := s.getQuizByShareCode(code)
	if err != nil {
		return nil, false, "", err
	}

	participant, err := s.repo.GetParticipant(quiz.ID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return quiz, false, "", nil
		}
		return nil, false, "", err
	}
	return quiz, true, participant.Status, nil
}

func (s *Service) getQuizByShareCode(code string) (*models.Quiz, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrQuizNotFound
	}

	if s.cache != nil {
		if quiz, err := s.cache.GetQuiz(code); err == nil {
			return quiz, nil
		}
	}

	quiz, err := s.repo.GetQuizByShareCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetQuiz(quiz); err != nil {
			log.Printf("Error caching quiz %s: %v", quiz.ShareCode, err)
		}
	}
	return quiz, nil
}

// --- Join ---

type JoinResult struct {
	Participant *models.QuizParticipant
	Message     string
	Rejoined    bool
}

// JoinQuiz is idempotent per (quiz, user): an existing participant row is
// returned unchanged. The unique index on the pair guards the concurrent
// first-join race; a duplicate-key insert is re-read as "already joined".
func (s *Service) JoinQuiz(quizID uint, user *models.User) (*JoinResult, error) {
	quiz, err := s.GetQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != models.QuizStatusActive {
		return nil, ErrQuizNotActive
	}

	existing, err := s.repo.GetParticipant(quizID, user.ID)
	if err == nil {
		return &JoinResult{
			Participant: existing,
			Message:     joinMessage(existing.Status),
			Rejoined:    true,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	participant := &models.QuizParticipant{
		QuizID:      quizID,
		UserID:      user.ID,
		DisplayName: user.DisplayName(),
		AvatarURL:   user.AvatarURL,
		Status:      models.ParticipantPlaying,
	}
	if err := s.repo.CreateParticipant(participant); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race to a concurrent join; the other insert won.
			existing, rerr := s.repo.GetParticipant(quizID, user.ID)
			if rerr != nil {
				return nil, rerr
			}
			return &JoinResult{
				Participant: existing,
				Message:     joinMessage(existing.Status),
				Rejoined:    true,
			}, nil
		}
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastMessage(quiz.ShareCode, "participant_joined", map[string]interface{}{
			"participant_id": participant.ID,
			"display_name":   participant.DisplayName,
		})
	}

	return &JoinResult{
		Participant: participant,
		Message:     "Participação registrada. Boa sorte!",
	}, nil
}

func joinMessage(status string) string {
	if status == models.ParticipantCompleted {
		return "Você já concluiu este quiz."
	}
	return "Continuando de onde você parou."
}

// --- Answers ---

type AnswerSubmission struct {
	QuestionIndex int
	Question      string
	Answer        string
	Correct       *bool
	TimeSpent     int
}

// SubmitAnswer records one answer for a playing participant, advances the
// participant's progress and completes the run when the last question is
// answered. Each question index is answerable once and must fall inside the
// quiz's question range. Free-text answers (Correct unset) are flagged for
// owner review.
func (s *Service) SubmitAnswer(quizID, userID uint, sub AnswerSubmission) (*models.QuizAnswer, *models.QuizParticipant, error) {
	quiz, err := s.GetQuiz(quizID)
	if err != nil {
		return nil, nil, err
	}
	if quiz.Status != models.QuizStatusActive {
		return nil, nil, ErrQuizNotActive
	}

	participant, err := s.repo.GetParticipant(quizID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotParticipant
		}
		return nil, nil, err
	}
	if participant.Status != models.ParticipantPlaying {
		return nil, nil, ErrQuizNotActive
	}

	if sub.QuestionIndex < 0 || (quiz.QuestionCount > 0 && sub.QuestionIndex >= quiz.QuestionCount) {
		return nil, nil, ErrInvalidQuestion
	}
	answered, err := s.repo.HasAnswer(participant.ID, sub.QuestionIndex)
	if err != nil {
		return nil, nil, err
	}
	if answered {
		return nil, nil, ErrAlreadyAnswered
	}

	answer := &models.QuizAnswer{
		ParticipantID: participant.ID,
		QuestionIndex: sub.QuestionIndex,
		Question:      sub.Question,
		Answer:        sub.Answer,
		IsCorrect:     sub.Correct,
		TimeSpent:     sub.TimeSpent,
		NeedsReview:   sub.Correct == nil,
	}
	if sub.Correct != nil && *sub.Correct {
		answer.Points = calculateScore(sub.TimeSpent)
	}
	if err := s.repo.CreateAnswer(answer); err != nil {
		return nil, nil, err
	}

	participant.QuestionsAnswered++
	participant.CurrentQuestionIndex = sub.QuestionIndex + 1
	participant.TotalScore += answer.Points
	if sub.Correct != nil && *sub.Correct {
		participant.CorrectAnswers++
	}
	if quiz.QuestionCount > 0 && participant.QuestionsAnswered >= quiz.QuestionCount {
		participant.Status = models.ParticipantCompleted
		completedAt := s.now()
		participant.CompletedAt = &completedAt
	}
	if err := s.repo.SaveParticipant(participant); err != nil {
		return nil, nil, err
	}

	if participant.Status == models.ParticipantCompleted {
		if s.cache != nil {
			if err := s.cache.InvalidateRanking(quizID); err != nil {
				log.Printf("Error invalidating ranking cache for quiz %d: %v", quizID, err)
			}
		}
		if s.hub != nil {
			s.hub.BroadcastMessage(quiz.ShareCode, "ranking_updated", map[string]interface{}{
				"participant_id": participant.ID,
				"display_name":   participant.DisplayName,
				"total_score":    participant.TotalScore,
			})
		}
	}

	return answer, participant, nil
}

// Correct answers start at 1000 and lose 10 points per second spent,
// floored at zero.
func calculateScore(timeSpent int) int {
	score := 1000 - timeSpent*10
	if score < 0 {
		score = 0
	}
	return score
}

// --- Ranking ---

type RankingResult struct {
	Entries             []models.RankingEntry
	CurrentUserPosition *int
	TotalParticipants   int64
}

// Ranking orders completed participants by score descending with earlier
// completion winning ties, and assigns dense 1-based positions.
func (s *Service) Ranking(quizID, currentUserID uint) (*RankingResult, error) {
	if _, err := s.GetQuiz(quizID); err != nil {
		return nil, err
	}

	entries, cached := s.cachedRanking(quizID)
	if !cached {
		participants, err := s.repo.GetCompletedParticipants(quizID)
		if err != nil {
			return nil, err
		}
		entries = make([]models.RankingEntry, len(participants))
		for i, p := range participants {
			entries[i] = models.RankingEntry{
				Position:       i + 1,
				ParticipantID:  p.ID,
				DisplayName:    p.DisplayName,
				AvatarURL:      p.AvatarURL,
				TotalScore:     p.TotalScore,
				CorrectAnswers: p.CorrectAnswers,
				CompletedAt:    p.CompletedAt,
			}
		}
		if s.cache != nil {
			if err := s.cache.SetRanking(quizID, entries); err != nil {
				log.Printf("Error caching ranking for quiz %d: %v", quizID, err)
			}
		}
	}

	// The caller annotation is computed per request, never cached.
	result := &RankingResult{Entries: entries}
	participantIDs := make(map[uint]bool)
	if p, err := s.repo.GetParticipant(quizID, currentUserID); err == nil {
		participantIDs[p.ID] = true
	}
	for i := range result.Entries {
		result.Entries[i].IsCurrentUser = participantIDs[result.Entries[i].ParticipantID]
		if result.Entries[i].IsCurrentUser {
			pos := result.Entries[i].Position
			result.CurrentUserPosition = &pos
		}
	}

	total, err := s.repo.CountParticipants(quizID)
	if err != nil {
		return nil, err
	}
	result.TotalParticipants = total
	return result, nil
}

func (s *Service) cachedRanking(quizID uint) ([]models.RankingEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	entries, ok := s.cache.GetRanking(quizID)
	if !ok {
		return nil, false
	}
	// Strip any stale caller annotation.
	for i := range entries {
		entries[i].IsCurrentUser = false
	}
	return entries, true
}

// --- Review ---

// ToggleReview flips the needs-review flag on an answer. Only the quiz owner
// may review; reviewed answers always carry reviewer and timestamp, cleared
// together on un-review.
func (s *Service) ToggleReview(quizID, answerID, callerID uint, reviewed bool) (*models.QuizAnswer, error) {
	quiz, err := s.GetQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if quiz.UserID != callerID {
		return nil, ErrAccessDenied
	}

	answer, err := s.repo.GetAnswerForQuiz(quizID, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnswerNotFound
		}
		return nil, err
	}

	if reviewed {
		now := s.now()
		reviewer := callerID
		answer.NeedsReview = false
		answer.ReviewedAt = &now
		answer.ReviewedBy = &reviewer
	} else {
		answer.NeedsReview = true
		answer.ReviewedAt = nil
		answer.ReviewedBy = nil
	}

	if err := s.repo.SaveAnswer(answer); err != nil {
		return nil, err
	}
	return answer, nil
}

// ParticipantAnswers lists a participant's answers for the quiz owner's
// review screen.
func (s *Service) ParticipantAnswers(quizID, participantID, callerID uint) ([]models.QuizAnswer, error) {
	quiz, err := s.GetQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if quiz.UserID != callerID {
		return nil, ErrAccessDenied
	}

	participant, err := s.repo.GetParticipantByID(participantID)
	if err != nil || participant.QuizID != quizID {
		return nil, ErrNotParticipant
	}
	return s.repo.GetAnswersByParticipant(participantID)
}

// --- helpers ---

func (s *Service) invalidateQuiz(quiz *models.Quiz) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateQuiz(quiz.ShareCode); err != nil {
		log.Printf("Error invalidating quiz cache %s: %v", quiz.ShareCode, err)
	}
}

func validQuizStatus(status string) bool {
	switch status {
	case models.QuizStatusDraft, models.QuizStatusActive, models.QuizStatusFinished:
		return true
	}
	return false
}

func generateShareCode() string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	code := make([]byte, 6)
	for i := range code {
		code[i] = charset[rand.Intn(len(charset))]
	}
	return string(code)
}
