package repository

import (
	"context"

	"aitutor/backend/models"
)

// RandomQuestions draws up to limit questions of a lesson level in random
// order with their choices loaded.
func (s *Store) RandomQuestions(ctx context.Context, lessonID uint, level models.Level, limit int) ([]models.Question, error) {
	var questions []models.Question
	err := s.db(ctx).Preload("Choices").
		Where("lesson_id = ? AND level = ?", lessonID, level).
		Order("RANDOM()").
		Limit(limit).
		Find(&questions).Error
	return questions, translate(err)
}

// FindQuestion loads a question only if it belongs to the lesson level.
func (s *Store) FindQuestion(ctx context.Context, lessonID uint, level models.Level, questionID uint) (models.Question, error) {
	var q models.Question
	err := s.db(ctx).
		Where("id = ? AND lesson_id = ? AND level = ?", questionID, lessonID, level).
		First(&q).Error
	return q, translate(err)
}

// FindChoice loads a choice only if it belongs to the question.
func (s *Store) FindChoice(ctx context.Context, questionID, choiceID uint) (models.Choice, error) {
	var c models.Choice
	err := s.db(ctx).Where("id = ? AND question_id = ?", choiceID, questionID).First(&c).Error
	return c, translate(err)
}

func (s *Store) CorrectChoice(ctx context.Context, questionID uint) (models.Choice, error) {
	var c models.Choice
	err := s.db(ctx).Where("question_id = ? AND is_correct = ?", questionID, true).First(&c).Error
	return c, translate(err)
}

// CreateQuestion inserts a question together with its choices.
func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	return translate(s.db(ctx).Create(q).Error)
}

func (s *Store) CountQuestions(ctx context.Context, lessonID uint, level models.Level) (int64, error) {
	var n int64
	err := s.db(ctx).Model(&models.Question{}).
		Where("lesson_id = ? AND level = ?", lessonID, level).
		Count(&n).Error
	return n, translate(err)
}
