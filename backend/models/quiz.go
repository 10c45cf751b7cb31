package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Level is a difficulty tier gating quiz content within a lesson.
type Level string

const (
	LevelEasy   Level = "EASY"
	LevelMedium Level = "MEDIUM"
	LevelHard   Level = "HARD"
	LevelExpert Level = "EXPERT"
)

// Levels lists every tier in unlock order.
var Levels = []Level{LevelEasy, LevelMedium, LevelHard, LevelExpert}

// ParseLevel accepts a level key in any letter case.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Levels {
		if l == known {
			return l, true
		}
	}
	return "", false
}

func (l Level) DisplayName() string {
	switch l {
	case LevelEasy:
		return "Easy"
	case LevelMedium:
		return "Medium"
	case LevelHard:
		return "Hard"
	case LevelExpert:
		return "Expert"
	}
	return string(l)
}

type Question struct {
	gorm.Model
	LessonID    uint   `gorm:"not null;index:idx_question_lesson_level"`
	Level       Level  `gorm:"size:20;not null;default:EASY;index:idx_question_lesson_level"`
	Text        string `gorm:"not null"`
	Explanation string
	Choices     []Choice
}

type Choice struct {
	gorm.Model
	QuestionID uint   `gorm:"not null;index"`
	Text       string `gorm:"size:255;not null"`
	IsCorrect  bool   `gorm:"default:false"`
}

// UserLevelProgress is the per-(user, lesson, level) attempt state.
// CorrectCount holds correct answers within the current attempt only;
// it is reset whenever a new batch is fetched.
type UserLevelProgress struct {
	gorm.Model
	UserID       uint  `gorm:"not null;uniqueIndex:idx_user_lesson_level"`
	LessonID     uint  `gorm:"not null;uniqueIndex:idx_user_lesson_level"`
	Level        Level `gorm:"size:20;not null;uniqueIndex:idx_user_lesson_level"`
	IsCompleted  bool  `gorm:"default:false"`
	CorrectCount int   `gorm:"default:0"`
	Attempts     int   `gorm:"default:0"`
}

func (UserLevelProgress) TableName() string {
	return "user_level_progress"
}

// UserQuizAttempt is an append-only audit row for one graded answer.
type UserQuizAttempt struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_attempt_answer"`
	LessonID    uint      `gorm:"not null;uniqueIndex:idx_attempt_answer"`
	Level       Level     `gorm:"size:20;not null;uniqueIndex:idx_attempt_answer"`
	Attempt     int       `gorm:"not null;uniqueIndex:idx_attempt_answer"`
	QuestionID  uint      `gorm:"not null;uniqueIndex:idx_attempt_answer"`
	ChoiceID    uint      `gorm:"not null"`
	IsCorrect   bool      `gorm:"not null"`
	AttemptedAt time.Time `gorm:"not null"`
}

// ServedQuestion marks a question handed out in one attempt. Only served
// questions can be answered within that attempt.
type ServedQuestion struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_served_question"`
	LessonID   uint      `gorm:"not null;uniqueIndex:idx_served_question"`
	Level      Level     `gorm:"size:20;not null;uniqueIndex:idx_served_question"`
	Attempt    int       `gorm:"not null;uniqueIndex:idx_served_question"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_served_question"`
	ServedAt   time.Time `gorm:"not null"`
}

// ErrInvalidQuestion is returned by Question.Validate.
var ErrInvalidQuestion = errors.New("invalid question")

// Validate checks that the question has text, a known level and exactly
// one correct choice among at least two.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidQuestion)
	}
	if _, ok := ParseLevel(string(q.Level)); !ok {
		return fmt.Errorf("%w: unknown level %q", ErrInvalidQuestion, q.Level)
	}
	if len(q.Choices) < 2 {
		return fmt.Errorf("%w: at least two choices are required", ErrInvalidQuestion)
	}
	correct := 0
	for _, c := range q.Choices {
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("%w: choice text is required", ErrInvalidQuestion)
		}
		if c.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("%w: exactly one correct choice is required, got %d", ErrInvalidQuestion, correct)
	}
	return nil
}
