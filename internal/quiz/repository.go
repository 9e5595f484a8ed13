package quiz

import (
	"log"
	"strings"

	"gorm.io/gorm"

	"docforge/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateQuiz(quiz *models.Quiz) error {
	err := r.db.Create(quiz).Error
	if err != nil {
		log.Printf("Error creating quiz: %v", err)
		return err
	}
	return nil
}

func (r *Repository) UpdateQuiz(quiz *models.Quiz) error {
	return r.db.Save(quiz).Error
}

func (r *Repository) DeleteQuiz(userID, id uint) (int64, error) {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Quiz{})
	return result.RowsAffected, result.Error
}

func (r *Repository) GetQuizByID(id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *Repository) GetQuizzesByOwner(userID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := r.db.Where("user_id = ?", userID).Order("created_at desc").Find(&quizzes).Error
	return quizzes, err
}

// Share codes are stored upper-case; lookup normalizes the incoming code so
// joins are case-insensitive.
func (r *Repository) GetQuizByShareCode(code string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.Where("share_code = ?", strings.ToUpper(code)).First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *Repository) GetParticipant(quizID, userID uint) (*models.QuizParticipant, error) {
	var participant models.QuizParticipant
	err := r.db.Where("quiz_id = ? AND user_id = ?", quizID, userID).First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *Repository) CreateParticipant(participant *models.QuizParticipant) error {
	return r.db.Create(participant).Error
}

func (r *Repository) SaveParticipant(participant *models.QuizParticipant) error {
	return r.db.Save(participant).Error
}

// GetCompletedParticipants returns the ranking order: score descending,
// earlier completion winning ties.
func (r *Repository) GetCompletedParticipants(quizID uint) ([]models.QuizParticipant, error) {
	var participants []models.QuizParticipant
	err := r.db.Where("quiz_id = ? AND status = ?", quizID, models.ParticipantCompleted).
		Order("total_score desc, completed_at asc").
		Find(&participants).Error
	return participants, err
}

func (r *Repository) CountParticipants(quizID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.QuizParticipant{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

func (r *Repository) HasAnswer(participantID uint, questionIndex int) (bool, error) {
	var count int64
	err := r.db.Model(&models.QuizAnswer{}).
		Where("participant_id = ? AND question_index = ?", participantID, questionIndex).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateAnswer(answer *models.QuizAnswer) error {
	return r.db.Create(answer).Error
}

func (r *Repository) SaveAnswer(answer *models.QuizAnswer) error {
	return r.db.Save(answer).Error
}

// GetAnswerForQuiz joins the answer to its participant so the caller can
// verify the answer actually belongs to the given quiz.
func (r *Repository) GetAnswerForQuiz(quizID, answerID uint) (*models.QuizAnswer, error) {
	var answer models.QuizAnswer
	err := r.db.
		Select("quiz_answers.*").
		Joins("JOIN quiz_participants ON quiz_participants.id = quiz_answers.participant_id").
		Where("quiz_answers.id = ? AND quiz_participants.quiz_id = ?", answerID, quizID).
		First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *Repository) GetParticipantByID(id uint) (*models.QuizParticipant, error) {
	var participant models.QuizParticipant
	if err := r.db.First(&participant, id).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *Repository) GetAnswersByParticipant(participantID uint) ([]models.QuizAnswer, error) {
	var answers []models.QuizAnswer
	err := r.db.Where("participant_id = ?", participantID).
		Order("question_index asc").
		Find(&answers).Error
	return answers, err
}
