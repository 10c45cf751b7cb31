package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"aitutor/backend/models"

	"gorm.io/gorm"
)

func progressKey(userID, lessonID uint, level models.Level) models.UserLevelProgress {
	return models.UserLevelProgress{UserID: userID, LessonID: lessonID, Level: level}
}

// GetOrCreateProgress returns the progress row, creating it at zero.
func (s *Store) GetOrCreateProgress(ctx context.Context, userID, lessonID uint, level models.Level) (models.UserLevelProgress, error) {
	p := progressKey(userID, lessonID, level)
	err := translate(s.db(ctx).Where(progressKey(userID, lessonID, level)).FirstOrCreate(&p).Error)
	if errors.Is(err, models.ErrDuplicate) {
		return s.FindProgress(ctx, userID, lessonID, level)
	}
	return p, err
}

func (s *Store) FindProgress(ctx context.Context, userID, lessonID uint, level models.Level) (models.UserLevelProgress, error) {
	var p models.UserLevelProgress
	err := s.db(ctx).Where(progressKey(userID, lessonID, level)).First(&p).Error
	return p, translate(err)
}

// ResetProgress starts a new attempt: the correct count goes back to zero
// and the attempt counter is bumped.
func (s *Store) ResetProgress(ctx context.Context, id uint) (models.UserLevelProgress, error) {
	err := s.db(ctx).Model(&models.UserLevelProgress{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"correct_count": 0,
			"attempts":      gorm.Expr("attempts + ?", 1),
		}).Error
	if err != nil {
		return models.UserLevelProgress{}, translate(err)
	}
	return s.progressByID(ctx, id)
}

// MarkCompleted sets is_completed; nothing ever clears it.
func (s *Store) MarkCompleted(ctx context.Context, id uint) error {
	err := s.db(ctx).Model(&models.UserLevelProgress{}).Where("id = ?", id).
		Update("is_completed", true).Error
	return translate(err)
}

func (s *Store) progressByID(ctx context.Context, id uint) (models.UserLevelProgress, error) {
	var p models.UserLevelProgress
	err := s.db(ctx).First(&p, id).Error
	return p, translate(err)
}

// ServeQuestions records the questions handed out in the progress row's
// current attempt.
func (s *Store) ServeQuestions(ctx context.Context, p models.UserLevelProgress, questionIDs []uint, at time.Time) error {
	if len(questionIDs) == 0 {
		return nil
	}
	rows := make([]models.ServedQuestion, 0, len(questionIDs))
	for _, id := range questionIDs {
		rows = append(rows, models.ServedQuestion{
			UserID:     p.UserID,
			LessonID:   p.LessonID,
			Level:      p.Level,
			Attempt:    p.Attempts,
			QuestionID: id,
			ServedAt:   at,
		})
	}
	return translate(s.db(ctx).Create(&rows).Error)
}

// IsServed reports whether the question was handed out in the progress
// row's current attempt.
func (s *Store) IsServed(ctx context.Context, p models.UserLevelProgress, questionID uint) (bool, error) {
	var n int64
	err := s.db(ctx).Model(&models.ServedQuestion{}).
		Where("user_id = ? AND lesson_id = ? AND level = ? AND attempt = ? AND question_id = ?",
			p.UserID, p.LessonID, p.Level, p.Attempts, questionID).
		Count(&n).Error
	return n > 0, translate(err)
}

// RecordAnswer stores the audit row and, for a correct answer, bumps the
// progress counter in the same transaction. The counter never exceeds
// maxCorrect.
func (s *Store) RecordAnswer(ctx context.Context, a *models.UserQuizAttempt, progressID uint, maxCorrect int) (models.UserLevelProgress, error) {
	var p models.UserLevelProgress
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		if a.IsCorrect {
			err := tx.Model(&models.UserLevelProgress{}).
				Where("id = ? AND correct_count < ?", progressID, maxCorrect).
				Update("correct_count", gorm.Expr("correct_count + ?", 1)).Error
			if err != nil {
				return err
			}
		}
		return tx.First(&p, progressID).Error
	})
	return p, translate(err)
}

func (s *Store) CountCompletedLevels(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.db(ctx).Model(&models.UserLevelProgress{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Count(&n).Error
	return n, translate(err)
}

// AverageCorrectCount averages the correct counts above zero. ok is false
// when the user has no such rows.
func (s *Store) AverageCorrectCount(ctx context.Context, userID uint) (avg float64, ok bool, err error) {
	var v sql.NullFloat64
	err = s.db(ctx).Model(&models.UserLevelProgress{}).
		Select("AVG(correct_count)").
		Where("user_id = ? AND correct_count > 0", userID).
		Row().Scan(&v)
	if err != nil {
		return 0, false, translate(err)
	}
	return v.Float64, v.Valid, nil
}

// LevelStats aggregates quiz progress of one level across users.
type LevelStats struct {
	Level        models.Level `json:"level"`
	Learners     int64        `json:"learners"`
	Attempted    int64        `json:"attempted"`
	Completed    int64        `json:"completed"`
	AverageScore float64      `json:"average_score"`
}

func (s *Store) LevelStats(ctx context.Context, lessonID uint) ([]LevelStats, error) {
	var rows []LevelStats
	err := s.db(ctx).Model(&models.UserLevelProgress{}).
		Select(`level,
			COUNT(*) AS learners,
			SUM(CASE WHEN attempts > 0 THEN 1 ELSE 0 END) AS attempted,
			SUM(CASE WHEN is_completed THEN 1 ELSE 0 END) AS completed,
			COALESCE(AVG(CASE WHEN attempts > 0 THEN correct_count END), 0) AS average_score`).
		Where("lesson_id = ?", lessonID).
		Group("level").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	byLevel := make(map[models.Level]LevelStats, len(rows))
	for _, r := range rows {
		byLevel[r.Level] = r
	}
	out := make([]LevelStats, 0, len(models.Levels))
	for _, l := range models.Levels {
		st := byLevel[l]
		st.Level = l
		out = append(out, st)
	}
	return out, nil
}
