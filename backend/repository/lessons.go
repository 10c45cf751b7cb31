package repository

import (
	"context"
	"strings"

	"aitutor/backend/models"
)

// LessonFilter narrows ListLessons; empty fields match everything.
type LessonFilter struct {
	Category string
	Search   string
}

func (s *Store) ListLessons(ctx context.Context, f LessonFilter) ([]models.Lesson, error) {
	query := s.db(ctx).Model(&models.Lesson{})
	if f.Category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(f.Category))
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var lessons []models.Lesson
	err := query.Order("created_at DESC").Find(&lessons).Error
	return lessons, translate(err)
}

func (s *Store) TrendingLessons(ctx context.Context) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := s.db(ctx).Where("is_trending = ?", true).Order("created_at DESC").Find(&lessons).Error
	return lessons, translate(err)
}

// QuizLessons lists lessons in the order the quiz picker shows them.
func (s *Store) QuizLessons(ctx context.Context) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := s.db(ctx).Order("category ASC, title ASC").Find(&lessons).Error
	return lessons, translate(err)
}

func (s *Store) FindLesson(ctx context.Context, id uint) (models.Lesson, error) {
	var lesson models.Lesson
	err := s.db(ctx).First(&lesson, id).Error
	return lesson, translate(err)
}

func (s *Store) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	lesson.ApplyDefaults()
	return translate(s.db(ctx).Create(lesson).Error)
}

func (s *Store) SaveLesson(ctx context.Context, lesson *models.Lesson) error {
	return translate(s.db(ctx).Save(lesson).Error)
}

func (s *Store) CountLessons(ctx context.Context) (int64, error) {
	var n int64
	err := s.db(ctx).Model(&models.Lesson{}).Count(&n).Error
	return n, translate(err)
}

// UserLessons returns the lessons a user started, newest first.
func (s *Store) UserLessons(ctx context.Context, userID uint) ([]models.UserLesson, error) {
	var rows []models.UserLesson
	err := s.db(ctx).Preload("Lesson").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, translate(err)
}

// StartLesson returns the existing enrolment or creates an IN_PROGRESS one.
func (s *Store) StartLesson(ctx context.Context, userID, lessonID uint) (models.UserLesson, bool, error) {
	row := models.UserLesson{UserID: userID, LessonID: lessonID}
	res := s.db(ctx).
		Where(models.UserLesson{UserID: userID, LessonID: lessonID}).
		Attrs(models.UserLesson{Status: models.LessonInProgress}).
		FirstOrCreate(&row)
	if err := translate(res.Error); err != nil {
		if err == models.ErrDuplicate {
			// lost a race with a concurrent start
			err = s.db(ctx).Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&row).Error
			return row, false, translate(err)
		}
		return row, false, err
	}
	return row, res.RowsAffected > 0, nil
}

func (s *Store) CountStartedLessons(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.db(ctx).Model(&models.UserLesson{}).Where("user_id = ?", userID).Count(&n).Error
	return n, translate(err)
}
