package controllers

import (
	"errors"

	"aitutor/backend/config"
	"aitutor/backend/models"
	"aitutor/backend/repository"
	"aitutor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store *repository.Store
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg, Store: repository.New(db)}
}

// GetLessonAnalytics returns per-level quiz statistics of a lesson.
func (ac *AnalyticsController) GetLessonAnalytics(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.NotFound(c, "Lesson not found")
	}

	ctx := c.UserContext()
	lesson, err := ac.Store.FindLesson(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return utils.NotFound(c, "Lesson not found")
	}
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch lesson")
	}

	stats, err := ac.Store.LevelStats(ctx, id)
	if err != nil {
		return utils.InternalServerError(c, "Failed to compute analytics")
	}
	questions := make(fiber.Map, len(stats))
	for _, st := range stats {
		n, err := ac.Store.CountQuestions(ctx, id, st.Level)
		if err != nil {
			return utils.InternalServerError(c, "Failed to compute analytics")
		}
		questions[string(st.Level)] = n
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"lesson_id": lesson.ID,
		"title":     lesson.Title,
		"levels":    stats,
		"questions": questions,
	})
}
