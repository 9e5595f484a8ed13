package quiz

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"docforge/internal/models"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	err = db.AutoMigrate(&models.Quiz{}, &models.QuizParticipant{}, &models.QuizAnswer{})
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewService(NewRepository(db), nil, nil), db
}

func createQuiz(t *testing.T, db *gorm.DB, quiz *models.Quiz) *models.Quiz {
	t.Helper()
	if quiz.ShareCode == "" {
		quiz.ShareCode = generateShareCode()
	}
	if err := db.Create(quiz).Error; err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz
}

func testUser(id uint, fullName, email string) *models.User {
	return &models.User{ID: id, FullName: fullName, Email: email}
}

// --- Join ---

func TestJoinQuizCreatesParticipant(t *testing.T) {
	svc, db := newTestService(t)
	quiz := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Capitals", Status: models.QuizStatusActive, QuestionCount: 3})

	result, err := svc.JoinQuiz(quiz.ID, testUser(2, "Ana Souza", "ana@example.com"))
	if err != nil {
		t.Fatalf("JoinQuiz: %v", err)
	}
	if result.Rejoined {
		t.Error("first join should not report rejoin")
	}
	p := result.Participant
	if p.Status != models.ParticipantPlaying || p.CurrentQuestionIndex != 0 {
		t.Errorf("participant = %+v, want playing at index 0", p)
	}
	if p.DisplayName != "Ana Souza" {
		t.Errorf("display name = %q, want %q", p.DisplayName, "Ana Souza")
	}
}

func TestJoinQuizIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	quiz := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Capitals", Status: models.QuizStatusActive, QuestionCount: 3})

	first, err := svc.JoinQuiz(quiz.ID, testUser(2, "", "ana@example.com"))
	if err != nil {
		t.Fatalf("first JoinQuiz: %v", err)
	}
	second, err := svc.JoinQuiz(quiz.ID, testUser(2, "", "ana@example.com"))
	if err != nil {
		t.Fatalf("second JoinQuiz: %v", err)
	}

	if !second.Rejoined {
		t.Error("second join should report rejoin")
	}
	if second.Participant.ID != first.Participant.ID {
		t.Errorf("participant id = %d, want %d", second.Participant.ID, first.Participant.ID)
	}
	if second.Message != "Continuando de onde você parou." {
		t.Errorf("message = %q", second.Message)
	}

	var count int64
	if err := db.Model(&models.QuizParticipant{}).Where("quiz_id = ?", quiz.ID).Count(&count).Error; err != nil {
		t.Fatalf("count participants: %v", err)
	}
	if count != 1 {
		t.Errorf("participant rows = %d, want 1", count)
	}
}

func TestJoinQuizCompletedMessage(t *testing.T) {
	svc, db := newTestService(t)
	quiz := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Capitals", Status: models.QuizStatusActive, QuestionCount: 1})

	completedAt := time.Now()
	err := db.Create(&models.QuizParticipant{
		QuizID: quiz.ID, UserID: 2, DisplayName: "Ana",
		Status: models.ParticipantCompleted, CompletedAt: &completedAt,
	}).Error
	if err != nil {
		t.Fatalf("seed participant: %v", err)
	}

	result, err := svc.JoinQuiz(quiz.ID, testUser(2, "Ana", "ana@example.com"))
	if err != nil {
		t.Fatalf("JoinQuiz: %v", err)
	}
	if result.Message != "Você já concluiu este quiz." {
		t.Errorf("message = %q", result.Message)
	}
}

func TestJoinQuizRejectsInactiveAndMissing(t *testing.T) {
	svc, db := newTestService(t)
	draft := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Draft", Status: models.QuizStatusDraft})
	finished := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Done", Status: models.QuizStatusFinished})

	if _, err := svc.JoinQuiz(draft.ID, testUser(2, "", "a@b.c")); !errors.Is(err, ErrQuizNotActive) {
		t.Errorf("draft join error = %v, want ErrQuizNotActive", err)
	}
	if _, err := svc.JoinQuiz(finished.ID, testUser(2, "", "a@b.c")); !errors.Is(err, ErrQuizNotActive) {
		t.Errorf("finished join error = %v, want ErrQuizNotActive", err)
	}
	if _, err := svc.JoinQuiz(9999, testUser(2, "", "a@b.c")); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("missing quiz join error = %v, want ErrQuizNotFound", err)
	}
}

// --- Ranking ---

func seedCompleted(t *testing.T, db *gorm.DB, quizID, userID uint, name string, score int, completedAt time.Time) *models.QuizParticipant {
	t.Helper()
	p := &models.QuizParticipant{
		QuizID: quizID, UserID: userID, DisplayName: name,
		Status: models.ParticipantCompleted, TotalScore: score, CompletedAt: &completedAt,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed participant %s: %v", name, err)
	}
	return p
}

func TestRankingOrderAndTieBreak(t *testing.T) {
	svc, db := newTestService(t)
	quiz := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Q1", Status: models.QuizStatusActive})

	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedCompleted(t, db, quiz.ID, 10, "A", 80, day.Add(10*time.Hour))
	seedCompleted(t, db, quiz.ID, 11, "B", 80, day.Add(9*time.Hour+50*time.Minute))
	seedCompleted(t, db, quiz.ID, 12, "C", 95, day.Add(11*time.Hour))
	// Still playing; must not appear in the ranking.
	err := db.Create(&models.QuizParticipant{QuizID: quiz.ID, UserID: 13, DisplayName: "D", Status: models.ParticipantPlaying}).Error
	if err != nil {
		t.Fatalf("seed playing participant: %v", err)
	}

	result, err := svc.Ranking(quiz.ID, 10)
	if err != nil {
		t.Fatalf("Ranking: %v", err)
	}

	wantOrder := []string{"C", "B", "A"}
	if len(result.Entries) != len(wantOrder) {
		t.Fatalf("entries = %d, want %d", len(result.Entries), len(wantOrder))
	}
	for i, want := range wantOrder {
		entry := result.Entries[i]
		if entry.DisplayName != want {
			t.Errorf("entry %d = %q, want %q", i, entry.DisplayName, want)
		}
		if entry.Position != i+1 {
			t.Errorf("entry %d position = %d, want %d", i, entry.Position, i+1)
		}
	}

	if result.CurrentUserPosition == nil || *result.CurrentUserPosition != 3 {
		t.Errorf("currentUserPosition = %v, want 3", result.CurrentUserPosition)
	}
	if !result.Entries[2].IsCurrentUser {
		t.Error("entry A should be flagged as the current user")
	}
	if result.Entries[0].IsCurrentUser || result.Entries[1].IsCurrentUser {
		t.Error("only the caller's entry may be flagged")
	}
	if result.TotalParticipants != 4 {
		t.Errorf("totalParticipants = %d, want 4", result.TotalParticipants)
	}
}

func TestRankingCallerWithoutCompletedEntry(t *testing.T) {
	svc, db := newTestService(t)
	quiz := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Q1", Status: models.QuizStatusActive})
	seedCompleted(t, db, quiz.ID, 10, "A", 50, time.Now())

	result, err := svc.Ranking(quiz.ID, 99)
	if err != nil {
		t.Fatalf("Ranking: %v", err)
	}
	if result.CurrentUserPosition != nil {
		t.Errorf("currentUserPosition = %v, want nil", *result.CurrentUserPosition)
	}
}

// --- Answer submission ---

func TestSubmitAnswerScoringAndCompletion(t *testing.T) {
	svc, db := newTestService(t)
	quiz := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Q1", Status: models.QuizStatusActive, QuestionCount: 2})

	if _, err := svc.JoinQuiz(quiz.ID, testUser(2, "Ana", "ana@example.com")); err != nil {
		t.Fatalf("JoinQuiz: %v", err)
	}

	correct := true
	answer, participant, err := svc.SubmitAnswer(quiz.ID, 2, AnswerSubmission{
		QuestionIndex: 0, Question: "2+2?", Answer: "4", Correct: &correct, TimeSpent: 5,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if answer.Points != 950 {
		t.Errorf("points = %d, want 950", answer.Points)
	}
	if answer.NeedsReview {
		t.Error("graded answer must not need review")
	}
	if participant.Status != models.ParticipantPlaying {
		t.Errorf("status = %q, want playing", participant.Status)
	}

	// Free-text second answer completes the run and is flagged for review.
	answer, participant, err = svc.SubmitAnswer(quiz.ID, 2, AnswerSubmission{
		QuestionIndex: 1, Question: "Explain", Answer: "because", TimeSpent: 20,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !answer.NeedsReview || answer.Points != 0 {
		t.Errorf("free-text answer = %+v, want needs_review with 0 points", answer)
	}
	if participant.Status != models.ParticipantCompleted || participant.CompletedAt == nil {
		t.Errorf("participant = %+v, want completed with timestamp", participant)
	}
	if participant.TotalScore != 950 || participant.QuestionsAnswered != 2 || participant.CorrectAnswers != 1 {
		t.Errorf("counters = %+v", participant)
	}
}

func TestSubmitAnswerRejectsReplayAndBadIndex(t *testing.T) {
	svc, db := newTestService(t)
	quiz := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Q1", Status: models.QuizStatusActive, QuestionCount: 2})

	if _, err := svc.JoinQuiz(quiz.ID, testUser(2, "Ana", "ana@example.com")); err != nil {
		t.Fatalf("JoinQuiz: %v", err)
	}

	correct := true
	if _, _, err := svc.SubmitAnswer(quiz.ID, 2, AnswerSubmission{
		QuestionIndex: 0, Answer: "4", Correct: &correct, TimeSpent: 5,
	}); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	// Resubmitting the same index must not inflate score or progress.
	_, _, err := svc.SubmitAnswer(quiz.ID, 2, AnswerSubmission{
		QuestionIndex: 0, Answer: "4", Correct: &correct, TimeSpent: 1,
	})
	if !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("replay error = %v, want ErrAlreadyAnswered", err)
	}

	for _, index := range []int{-1, 2, 99} {
		_, _, err := svc.SubmitAnswer(quiz.ID, 2, AnswerSubmission{
			QuestionIndex: index, Answer: "x", Correct: &correct,
		})
		if !errors.Is(err, ErrInvalidQuestion) {
			t.Errorf("index %d error = %v, want ErrInvalidQuestion", index, err)
		}
	}

	participant, err := svc.repo.GetParticipant(quiz.ID, 2)
	if err != nil {
		t.Fatalf("GetParticipant: %v", err)
	}
	if participant.QuestionsAnswered != 1 || participant.TotalScore != 950 {
		t.Errorf("counters = answered %d score %d, want 1/950", participant.QuestionsAnswered, participant.TotalScore)
	}
	if participant.Status != models.ParticipantPlaying {
		t.Errorf("status = %q, want playing", participant.Status)
	}
}

func TestSubmitAnswerRequiresJoin(t *testing.T) {
	svc, db := newTestService(t)
	quiz := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Q1", Status: models.QuizStatusActive, QuestionCount: 1})

	_, _, err := svc.SubmitAnswer(quiz.ID, 2, AnswerSubmission{QuestionIndex: 0, Answer: "x"})
	if !errors.Is(err, ErrNotParticipant) {
		t.Errorf("error = %v, want ErrNotParticipant", err)
	}
}

// --- Review ---

func TestToggleReview(t *testing.T) {
	svc, db := newTestService(t)
	owner := uint(1)
	quiz := createQuiz(t, db, &models.Quiz{UserID: owner, Title: "Q1", Status: models.QuizStatusActive, QuestionCount: 1})

	p := seedCompleted(t, db, quiz.ID, 2, "Ana", 0, time.Now())
	seeded := &models.QuizAnswer{ParticipantID: p.ID, Question: "Explain", Answer: "because", NeedsReview: true}
	if err := db.Create(seeded).Error; err != nil {
		t.Fatalf("seed answer: %v", err)
	}

	reviewed, err := svc.ToggleReview(quiz.ID, seeded.ID, owner, true)
	if err != nil {
		t.Fatalf("ToggleReview(true): %v", err)
	}
	if reviewed.NeedsReview {
		t.Error("answer should be marked reviewed")
	}
	if reviewed.ReviewedAt == nil || reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != owner {
		t.Errorf("reviewed stamps = %+v, want reviewer %d with timestamp", reviewed, owner)
	}

	unreviewed, err := svc.ToggleReview(quiz.ID, seeded.ID, owner, false)
	if err != nil {
		t.Fatalf("ToggleReview(false): %v", err)
	}
	if !unreviewed.NeedsReview || unreviewed.ReviewedAt != nil || unreviewed.ReviewedBy != nil {
		t.Errorf("un-reviewed answer = %+v, want cleared stamps", unreviewed)
	}
}

func TestToggleReviewAuthorization(t *testing.T) {
	svc, db := newTestService(t)
	quiz := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Q1", Status: models.QuizStatusActive})
	other := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Q2", Status: models.QuizStatusActive})

	p := seedCompleted(t, db, quiz.ID, 2, "Ana", 0, time.Now())
	answer := &models.QuizAnswer{ParticipantID: p.ID, NeedsReview: true}
	if err := db.Create(answer).Error; err != nil {
		t.Fatalf("seed answer: %v", err)
	}

	if _, err := svc.ToggleReview(quiz.ID, answer.ID, 99, true); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("non-owner error = %v, want ErrAccessDenied", err)
	}
	if _, err := svc.ToggleReview(9999, answer.ID, 1, true); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("missing quiz error = %v, want ErrQuizNotFound", err)
	}
	// Answer exists but belongs to a different quiz of the same owner.
	if _, err := svc.ToggleReview(other.ID, answer.ID, 1, true); !errors.Is(err, ErrAnswerNotFound) {
		t.Errorf("cross-quiz error = %v, want ErrAnswerNotFound", err)
	}
}

// --- Share lookup / ownership ---

func TestShareLookupCaseInsensitive(t *testing.T) {
	svc, db := newTestService(t)
	quiz := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Q1", Status: models.QuizStatusActive, ShareCode: "AB12CD"})

	found, hasParticipation, status, err := svc.ShareLookup("ab12cd", 2)
	if err != nil {
		t.Fatalf("ShareLookup: %v", err)
	}
	if found.ID != quiz.ID {
		t.Errorf("quiz id = %d, want %d", found.ID, quiz.ID)
	}
	if hasParticipation || status != "" {
		t.Errorf("participation = %v/%q, want false/empty", hasParticipation, status)
	}

	if _, err := svc.JoinQuiz(quiz.ID, testUser(2, "Ana", "ana@example.com")); err != nil {
		t.Fatalf("JoinQuiz: %v", err)
	}
	_, hasParticipation, status, err = svc.ShareLookup("AB12CD", 2)
	if err != nil {
		t.Fatalf("ShareLookup after join: %v", err)
	}
	if !hasParticipation || status != models.ParticipantPlaying {
		t.Errorf("participation = %v/%q, want true/playing", hasParticipation, status)
	}

	if _, _, _, err := svc.ShareLookup("NOPE42", 2); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("unknown code error = %v, want ErrQuizNotFound", err)
	}
}

func TestOwnershipChecks(t *testing.T) {
	svc, db := newTestService(t)
	quiz := createQuiz(t, db, &models.Quiz{UserID: 1, Title: "Q1", Status: models.QuizStatusDraft})

	if !svc.IsOwner(1, quiz.ID) {
		t.Error("owner check failed for owner")
	}
	if svc.IsOwner(2, quiz.ID) {
		t.Error("owner check passed for non-owner")
	}
	if svc.IsOwner(1, 9999) {
		t.Error("owner check passed for missing quiz")
	}

	if _, err := svc.GetOwnedQuiz(2, quiz.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("GetOwnedQuiz non-owner error = %v, want ErrAccessDenied", err)
	}
}

func TestCreateQuizGeneratesShareCode(t *testing.T) {
	svc, _ := newTestService(t)

	quiz := &models.Quiz{UserID: 1, Title: "New quiz", QuestionCount: 5}
	if err := svc.CreateQuiz(quiz); err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if len(quiz.ShareCode) != 6 {
		t.Errorf("share code = %q, want 6 characters", quiz.ShareCode)
	}
	if quiz.Status != models.QuizStatusDraft {
		t.Errorf("status = %q, want draft", quiz.Status)
	}

	if err := svc.CreateQuiz(&models.Quiz{UserID: 1, Title: "  "}); !errors.Is(err, ErrMissingTitle) {
		t.Error("expected ErrMissingTitle for blank title")
	}
}
