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

// CoursesController serves the lesson catalogue and the lessons a user
// has started.
type CoursesController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store *repository.Store
}

func NewCoursesController(db *gorm.DB, cfg *config.Config) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg, Store: repository.New(db)}
}

func (cc *CoursesController) ListLessons(c *fiber.Ctx) error {
	lessons, err := cc.Store.ListLessons(c.UserContext(), repository.LessonFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch lessons")
	}
	return c.JSON(lessonsJSON(lessons))
}

func (cc *CoursesController) TrendingLessons(c *fiber.Ctx) error {
	lessons, err := cc.Store.TrendingLessons(c.UserContext())
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch lessons")
	}
	return c.JSON(lessonsJSON(lessons))
}

func (cc *CoursesController) GetLesson(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.NotFound(c, "Lesson not found")
	}

	lesson, err := cc.Store.FindLesson(c.UserContext(), id)
	if errors.Is(err, models.ErrNotFound) {
		return utils.NotFound(c, "Lesson not found")
	}
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch lesson")
	}
	return c.JSON(lessonJSON(lesson))
}

func (cc *CoursesController) MyLessons(c *fiber.Ctx) error {
	userID, _ := utils.CurrentUserID(c)

	lessons, err := cc.Store.UserLessons(c.UserContext(), userID)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch your lessons")
	}

	out := make([]fiber.Map, 0, len(lessons))
	for _, ul := range lessons {
		out = append(out, userLessonJSON(ul))
	}
	return c.JSON(out)
}

// StartLesson records that the user opened a lesson. Repeated calls keep
// the original record.
func (cc *CoursesController) StartLesson(c *fiber.Ctx) error {
	userID, _ := utils.CurrentUserID(c)
	id, err := paramID(c, "id")
	if err != nil {
		return utils.NotFound(c, "Lesson not found")
	}

	ctx := c.UserContext()
	if _, err := cc.Store.FindLesson(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Failed to fetch lesson")
	}

	if _, _, err := cc.Store.StartLesson(ctx, userID, id); err != nil {
		return utils.InternalServerError(c, "Could not start lesson")
	}
	return c.JSON(fiber.Map{"status": "Lesson started"})
}

// QuizLessons lists the lessons offered in the quiz section.
func (cc *CoursesController) QuizLessons(c *fiber.Ctx) error {
	lessons, err := cc.Store.QuizLessons(c.UserContext())
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch lessons")
	}
	return c.JSON(lessonsJSON(lessons))
}
