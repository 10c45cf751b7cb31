// Package quiz implements leveled quiz progression: level unlocking,
// question batches, answer grading and level results.
package quiz

import (
	"context"
	"errors"
	"math"
	"time"

	"aitutor/backend/models"
)

const (
	// BatchSize is the maximum number of questions served per attempt.
	BatchSize = 20
	// TotalQuestions is the fixed result denominator, even when fewer
	// questions exist for a level.
	TotalQuestions = 20
	// PassScore is the number of correct answers needed to pass (75%).
	PassScore = 15
)

var (
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrInvalidLevel     = errors.New("invalid level")
	ErrQuestionNotFound = errors.New("question not found in the current attempt")
	ErrChoiceMismatch   = errors.New("choice does not belong to the question")
	ErrNoActiveAttempt  = errors.New("no active attempt for this level; fetch questions first")
	ErrLevelCompleted   = errors.New("level already completed")
	ErrAlreadyAnswered  = errors.New("question already answered in this attempt")
)

// Store is the persistence the engine needs.
type Store interface {
	FindLesson(ctx context.Context, id uint) (models.Lesson, error)
	GetOrCreateProgress(ctx context.Context, userID, lessonID uint, level models.Level) (models.UserLevelProgress, error)
	FindProgress(ctx context.Context, userID, lessonID uint, level models.Level) (models.UserLevelProgress, error)
	ResetProgress(ctx context.Context, id uint) (models.UserLevelProgress, error)
	MarkCompleted(ctx context.Context, id uint) error
	RandomQuestions(ctx context.Context, lessonID uint, level models.Level, limit int) ([]models.Question, error)
	FindQuestion(ctx context.Context, lessonID uint, level models.Level, questionID uint) (models.Question, error)
	FindChoice(ctx context.Context, questionID, choiceID uint) (models.Choice, error)
	CorrectChoice(ctx context.Context, questionID uint) (models.Choice, error)
	ServeQuestions(ctx context.Context, p models.UserLevelProgress, questionIDs []uint, at time.Time) error
	IsServed(ctx context.Context, p models.UserLevelProgress, questionID uint) (bool, error)
	RecordAnswer(ctx context.Context, a *models.UserQuizAttempt, progressID uint, maxCorrect int) (models.UserLevelProgress, error)
}

// LevelStatus describes one level of a lesson for a user.
type LevelStatus struct {
	Level         models.Level `json:"level"`
	DisplayName   string       `json:"display_name"`
	IsUnlocked    bool         `json:"is_unlocked"`
	IsCompleted   bool         `json:"is_completed"`
	CorrectCount  int          `json:"correct_count"`
	// RequiredCount is the progress denominator shown as correct/required.
	RequiredCount int          `json:"required_count"`
}

type ChoiceView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type QuestionView struct {
	ID      uint         `json:"id"`
	Text    string       `json:"text"`
	Choices []ChoiceView `json:"choices"`
}

// Batch is one attempt's questions. Choices never reveal correctness.
type Batch struct {
	LessonTitle    string         `json:"lesson_title"`
	LessonCategory string         `json:"lesson_category"`
	Level          models.Level   `json:"level"`
	Attempt        int            `json:"attempt"`
	Questions      []QuestionView `json:"questions"`
}

func (b Batch) Empty() bool { return len(b.Questions) == 0 }

type Grade struct {
	IsCorrect         bool   `json:"is_correct"`
	Message           string `json:"message"`
	CorrectAnswerText string `json:"correct_answer_text,omitempty"`
	Explanation       string `json:"explanation"`
	NewScore          int    `json:"new_score"`
	LevelCompleted    bool   `json:"level_completed"`
}

type Result struct {
	FinalScore     int     `json:"final_score"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
	Passed         bool    `json:"passed"`
	Feedback       string  `json:"feedback"`
	StatusMsg      string  `json:"status_msg"`
	StatusColor    string  `json:"status_color"`
	LevelUnlocked  bool    `json:"level_unlocked"`
}

// Tier is the feedback band for a percentage.
type Tier struct {
	Feedback string
	Status   string
	Color    string
}

var tiers = []struct {
	min float64
	Tier
}{
	{90, Tier{"Outstanding! You have mastered this level. Excellent work!", "Expert", "#4caf50"}},
	{75, Tier{"Great job! You have a strong grasp of the concepts.", "Good", "#2196f3"}},
	{50, Tier{"Not bad! You passed, but you need more practice.", "Average", "#ff9800"}},
	{math.Inf(-1), Tier{"Needs Improvement. Please review the study materials and try again.", "Poor", "#f44336"}},
}

func TierFor(percentage float64) Tier {
	for _, t := range tiers {
		if percentage >= t.min {
			return t.Tier
		}
	}
	return tiers[len(tiers)-1].Tier
}

// Percentage converts a correct count to a percentage of TotalQuestions,
// rounded to one decimal.
func Percentage(correct int) float64 {
	return math.Round(float64(correct)/TotalQuestions*100*10) / 10
}
