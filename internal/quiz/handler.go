package quiz

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"docforge/internal/api"
	"docforge/internal/auth"
	"docforge/internal/models"
)

// UserSource resolves the joining user's profile so the participant row can
// carry a display name and avatar.
type UserSource interface {
	GetUser(userID uint) (*models.User, error)
}

type Handler struct {
	service *Service
	users   UserSource
}

func NewHandler(service *Service, users UserSource) *Handler {
	return &Handler{service: service, users: users}
}

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	var quiz models.Quiz
	if err := json.NewDecoder(r.Body).Decode(&quiz); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid request body")
		return
	}
	quiz.ID = 0
	quiz.UserID = userID

	if err := h.service.CreateQuiz(&quiz); err != nil {
		writeQuizError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) GetMyQuizzes(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	quizzes, err := h.service.GetQuizzesByOwner(userID)
	if err != nil {
		api.WriteInternal(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]interface{}{"quizzes": quizzes})
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}
	quizID, ok := pathID(r, "quizId")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid quiz id")
		return
	}

	quiz, err := h.service.GetOwnedQuiz(userID, quizID)
	if err != nil {
		writeQuizError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, quiz)
}

func (h *Handler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}
	quizID, ok := pathID(r, "quizId")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid quiz id")
		return
	}

	var updated models.Quiz
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid request body")
		return
	}

	quiz, err := h.service.UpdateQuiz(userID, quizID, &updated)
	if err != nil {
		writeQuizError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, quiz)
}

func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}
	quizID, ok := pathID(r, "quizId")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid quiz id")
		return
	}

	if err := h.service.DeleteQuiz(userID, quizID); err != nil {
		writeQuizError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CheckOwner always answers 200; a missing quiz simply means "not the owner".
func (h *Handler) CheckOwner(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}
	quizID, _ := pathID(r, "quizId")

	api.WriteJSON(w, http.StatusOK, map[string]bool{
		"isOwner": h.service.IsOwner(userID, quizID),
	})
}

func (h *Handler) JoinQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}
	quizID, ok := pathID(r, "quizId")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid quiz id")
		return
	}

	user, err := h.users.GetUser(userID)
	if err != nil {
		api.WriteInternal(w, err)
		return
	}

	result, err := h.service.JoinQuiz(quizID, user)
	if err != nil {
		writeQuizError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"participant": result.Participant,
		"message":     result.Message,
	})
}

type SubmitAnswerRequest struct {
	QuestionIndex int    `json:"questionIndex"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	Correct       *bool  `json:"correct"`
	TimeSpent     int    `json:"timeSpent"`
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}
	quizID, ok := pathID(r, "quizId")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid quiz id")
		return
	}

	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid request body")
		return
	}

	answer, participant, err := h.service.SubmitAnswer(quizID, userID, AnswerSubmission{
		QuestionIndex: req.QuestionIndex,
		Question:      req.Question,
		Answer:        req.Answer,
		Correct:       req.Correct,
		TimeSpent:     req.TimeSpent,
	})
	if err != nil {
		writeQuizError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"answer":      answer,
		"participant": participant,
	})
}

func (h *Handler) GetRanking(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}
	quizID, ok := pathID(r, "quizId")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid quiz id")
		return
	}

	result, err := h.service.Ranking(quizID, userID)
	if err != nil {
		writeQuizError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ranking":             result.Entries,
		"currentUserPosition": result.CurrentUserPosition,
		"totalParticipants":   result.TotalParticipants,
	})
}

type ReviewRequest struct {
	Reviewed bool `json:"reviewed"`
}

func (h *Handler) ReviewAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}
	quizID, ok := pathID(r, "quizId")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid quiz id")
		return
	}
	answerID, ok := pathID(r, "answerId")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid answer id")
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid request body")
		return
	}

	if _, err := h.service.ToggleReview(quizID, answerID, userID, req.Reviewed); err != nil {
		writeQuizError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) GetParticipantAnswers(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}
	quizID, ok := pathID(r, "quizId")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid quiz id")
		return
	}
	participantID, ok := pathID(r, "participantId")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid participant id")
		return
	}

	answers, err := h.service.ParticipantAnswers(quizID, participantID, userID)
	if err != nil {
		writeQuizError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]interface{}{"answers": answers})
}

func (h *Handler) GetQuizByShareCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}
	code := mux.Vars(r)["code"]

	quiz, hasParticipation, participantStatus, err := h.service.ShareLookup(code, userID)
	if err != nil {
		writeQuizError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"quiz":              quiz,
		"hasParticipation":  hasParticipation,
		"participantStatus": participantStatus,
	})
}

func pathID(r *http.Request, name string) (uint, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func writeQuizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrQuizNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodeQuizNotFound, "Quiz not found")
	case errors.Is(err, ErrQuizNotActive):
		api.WriteError(w, http.StatusBadRequest, api.CodeQuizNotActive, "Quiz is not active")
	case errors.Is(err, ErrAnswerNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodeAnswerNotFound, "Answer not found")
	case errors.Is(err, ErrAccessDenied):
		api.WriteError(w, http.StatusForbidden, api.CodeAccessDenied, "You do not own this quiz")
	case errors.Is(err, ErrNotParticipant):
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Participant not found")
	case errors.Is(err, ErrMissingTitle):
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Quiz title is required")
	case errors.Is(err, ErrInvalidStatus):
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid quiz status")
	case errors.Is(err, ErrInvalidQuestion):
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid question index")
	case errors.Is(err, ErrAlreadyAnswered):
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Question already answered")
	default:
		api.WriteInternal(w, err)
	}
}
