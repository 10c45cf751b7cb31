package controllers

import (
	"errors"
	"strconv"
	"strings"

	"aitutor/backend/config"
	"aitutor/backend/models"
	"aitutor/backend/repository"
	"aitutor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminController manages lesson content and reads contact submissions.
type AdminController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store *repository.Store
}

func NewAdminController(db *gorm.DB, cfg *config.Config) *AdminController {
	return &AdminController{DB: db, Cfg: cfg, Store: repository.New(db)}
}

// LessonRequest is used for create and update; on update nil fields are
// left unchanged.
type LessonRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	Category         *string `json:"category"`
	IsTrending       *bool   `json:"is_trending"`
	ImageURL         *string `json:"image_url"`
	ExternalURL      *string `json:"external_url"`
	VideoURL         *string `json:"video_url"`
	PDFURL           *string `json:"pdf_url"`
	Content          *string `json:"content"`
	Duration         *string `json:"duration"`
	WhatYouWillLearn *string `json:"what_you_will_learn"`
	CourseIncludes   *string `json:"course_includes"`
	Curriculum       *string `json:"curriculum"`
}

func (r LessonRequest) apply(l *models.Lesson) {
	setIfPresent(&l.Title, r.Title)
	setIfPresent(&l.Description, r.Description)
	setIfPresent(&l.Category, r.Category)
	if r.IsTrending != nil {
		l.IsTrending = *r.IsTrending
	}
	setIfPresent(&l.ImageURL, r.ImageURL)
	setIfPresent(&l.ExternalURL, r.ExternalURL)
	setIfPresent(&l.VideoURL, r.VideoURL)
	setIfPresent(&l.PDFURL, r.PDFURL)
	setIfPresent(&l.Content, r.Content)
	setIfPresent(&l.Duration, r.Duration)
	setIfPresent(&l.WhatYouWillLearn, r.WhatYouWillLearn)
	setIfPresent(&l.CourseIncludes, r.CourseIncludes)
	setIfPresent(&l.Curriculum, r.Curriculum)
}

type QuestionRequest struct {
	Level       string          `json:"level" example:"EASY"`
	Text        string          `json:"text"`
	Explanation string          `json:"explanation"`
	Choices     []ChoiceRequest `json:"choices"`
}

type ChoiceRequest struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

func (ac *AdminController) CreateLesson(c *fiber.Ctx) error {
	var input LessonRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return utils.ValidationError(c, map[string]string{"title": "This field is required."})
	}

	var lesson models.Lesson
	input.apply(&lesson)
	if err := ac.Store.CreateLesson(c.UserContext(), &lesson); err != nil {
		return utils.InternalServerError(c, "Could not create lesson")
	}
	return utils.Success(c, fiber.StatusCreated, lessonJSON(lesson))
}

func (ac *AdminController) UpdateLesson(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.NotFound(c, "Lesson not found")
	}
	var input LessonRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return utils.ValidationError(c, map[string]string{"title": "This field may not be blank."})
	}

	ctx := c.UserContext()
	lesson, err := ac.Store.FindLesson(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return utils.NotFound(c, "Lesson not found")
	}
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch lesson")
	}

	input.apply(&lesson)
	if err := ac.Store.SaveLesson(ctx, &lesson); err != nil {
		return utils.InternalServerError(c, "Could not update lesson")
	}
	return utils.Success(c, fiber.StatusOK, lessonJSON(lesson))
}

// AddQuestion attaches a question with its choices to a lesson level.
func (ac *AdminController) AddQuestion(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.NotFound(c, "Lesson not found")
	}
	var input QuestionRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	ctx := c.UserContext()
	if _, err := ac.Store.FindLesson(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Failed to fetch lesson")
	}

	level := models.LevelEasy
	if input.Level != "" {
		level = models.Level(strings.ToUpper(strings.TrimSpace(input.Level)))
	}
	q := models.Question{
		LessonID:    id,
		Level:       level,
		Text:        strings.TrimSpace(input.Text),
		Explanation: strings.TrimSpace(input.Explanation),
	}
	for _, ch := range input.Choices {
		q.Choices = append(q.Choices, models.Choice{Text: strings.TrimSpace(ch.Text), IsCorrect: ch.IsCorrect})
	}
	if err := q.Validate(); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	if err := ac.Store.CreateQuestion(ctx, &q); err != nil {
		return utils.InternalServerError(c, "Could not create question")
	}

	choices := make([]fiber.Map, 0, len(q.Choices))
	for _, ch := range q.Choices {
		choices = append(choices, fiber.Map{"id": ch.ID, "text": ch.Text, "is_correct": ch.IsCorrect})
	}
	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"id":          q.ID,
		"lesson_id":   q.LessonID,
		"level":       q.Level,
		"text":        q.Text,
		"explanation": q.Explanation,
		"choices":     choices,
	})
}

func (ac *AdminController) ListContacts(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	rows, total, err := ac.Store.ListContacts(c.UserContext(), pageSize, (page-1)*pageSize)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch contact messages")
	}
	return c.JSON(utils.PaginatedResponse{
		Success:  true,
		Data:     rows,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}
