// Package testutil provides an isolated in-memory database for package tests.
package testutil

import (
	"testing"

	"aitutor/backend/models"
	"aitutor/backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a fresh migrated sqlite database that lives for the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, utils.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with an empty profile.
func CreateUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.Profile{UserID: user.ID}).Error)
	return user
}

// CreateLesson inserts a lesson with n questions at the given level, each
// with one correct and two wrong choices.
func CreateLesson(t *testing.T, db *gorm.DB, title string, level models.Level, n int) models.Lesson {
	t.Helper()
	lesson := models.Lesson{Title: title, Category: "Science"}
	lesson.ApplyDefaults()
	require.NoError(t, db.Create(&lesson).Error)
	AddQuestions(t, db, lesson.ID, level, n)
	return lesson
}

// AddQuestions appends n generated questions to a lesson.
func AddQuestions(t *testing.T, db *gorm.DB, lessonID uint, level models.Level, n int) []models.Question {
	t.Helper()
	questions := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		q := models.Question{
			LessonID:    lessonID,
			Level:       level,
			Text:        "Question " + uuid.NewString()[:8],
			Explanation: "Because it is.",
			Choices: []models.Choice{
				{Text: "right", IsCorrect: true},
				{Text: "wrong A"},
				{Text: "wrong B"},
			},
		}
		require.NoError(t, db.Create(&q).Error)
		questions = append(questions, q)
	}
	return questions
}

// Choices splits a question's choices into the correct one and a wrong one.
func Choices(q models.Question) (correct, wrong models.Choice) {
	for _, c := range q.Choices {
		if c.IsCorrect {
			correct = c
		} else {
			wrong = c
		}
	}
	return correct, wrong
}
