package controllers

import (
	"errors"
	"log"

	"aitutor/backend/config"
	"aitutor/backend/quiz"
	"aitutor/backend/repository"
	"aitutor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type QuizController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Engine *quiz.Engine
	Logger *log.Logger
}

func NewQuizController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *QuizController {
	return &QuizController{
		DB:     db,
		Cfg:    cfg,
		Engine: quiz.NewEngine(repository.New(db), logger),
		Logger: logger,
	}
}

type SubmitAnswerRequest struct {
	Level      string `json:"level" example:"EASY"`
	QuestionID uint   `json:"question_id"`
	ChoiceID   uint   `json:"choice_id"`
}

// GetLevels godoc
// @Summary Quiz levels of a lesson
// @Description Unlock and completion state of every level for the current user
// @Tags quiz
// @Produce json
// @Param lessonId path int true "Lesson ID"
// @Success 200 {array} quiz.LevelStatus
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quiz/levels/{lessonId} [get]
func (qc *QuizController) GetLevels(c *fiber.Ctx) error {
	userID, _ := utils.CurrentUserID(c)
	lessonID, err := paramID(c, "lessonId")
	if err != nil {
		return utils.NotFound(c, "Lesson not found")
	}

	levels, err := qc.Engine.ListLevels(c.UserContext(), userID, lessonID)
	if err != nil {
		return qc.fail(c, err)
	}
	return c.JSON(levels)
}

// GetQuestions godoc
// @Summary Start a quiz attempt
// @Description Resets the level score and returns up to 20 random questions
// @Tags quiz
// @Produce json
// @Param lessonId path int true "Lesson ID"
// @Param level path string true "Level key" Enums(EASY, MEDIUM, HARD, EXPERT)
// @Success 200 {object} quiz.Batch
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quiz/questions/{lessonId}/{level} [get]
func (qc *QuizController) GetQuestions(c *fiber.Ctx) error {
	userID, _ := utils.CurrentUserID(c)
	lessonID, err := paramID(c, "lessonId")
	if err != nil {
		return utils.NotFound(c, "Lesson not found")
	}

	batch, err := qc.Engine.FetchQuestionBatch(c.UserContext(), userID, lessonID, c.Params("level"))
	if err != nil {
		return qc.fail(c, err)
	}
	if batch.Empty() {
		return c.JSON(fiber.Map{"message": "No questions found for this level."})
	}
	return c.JSON(batch)
}

// SubmitAnswer godoc
// @Summary Grade one answer
// @Tags quiz
// @Accept json
// @Produce json
// @Param lessonId path int true "Lesson ID"
// @Param answer body SubmitAnswerRequest true "Answer"
// @Success 200 {object} quiz.Grade
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quiz/submit-answer/{lessonId} [post]
func (qc *QuizController) SubmitAnswer(c *fiber.Ctx) error {
	userID, _ := utils.CurrentUserID(c)
	lessonID, err := paramID(c, "lessonId")
	if err != nil {
		return utils.NotFound(c, "Lesson not found")
	}

	var input SubmitAnswerRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	problems := map[string]string{}
	if input.Level == "" {
		problems["level"] = "This field is required."
	}
	if input.QuestionID == 0 {
		problems["question_id"] = "This field is required."
	}
	if input.ChoiceID == 0 {
		problems["choice_id"] = "This field is required."
	}
	if len(problems) > 0 {
		return utils.ValidationError(c, problems)
	}

	grade, err := qc.Engine.SubmitAnswer(c.UserContext(), userID, lessonID, input.Level, input.QuestionID, input.ChoiceID)
	if err != nil {
		return qc.fail(c, err)
	}
	return c.JSON(grade)
}

// GetResult godoc
// @Summary Finish a quiz attempt
// @Description Scores the attempt out of 20; 15 or more completes the level
// @Tags quiz
// @Produce json
// @Param lessonId path int true "Lesson ID"
// @Param level path string true "Level key"
// @Success 200 {object} quiz.Result
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quiz/result/{lessonId}/{level} [get]
func (qc *QuizController) GetResult(c *fiber.Ctx) error {
	userID, _ := utils.CurrentUserID(c)
	lessonID, err := paramID(c, "lessonId")
	if err != nil {
		return utils.NotFound(c, "Lesson not found")
	}

	result, err := qc.Engine.ComputeResult(c.UserContext(), userID, lessonID, c.Params("level"))
	if err != nil {
		return qc.fail(c, err)
	}
	return c.JSON(result)
}

func (qc *QuizController) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, quiz.ErrInvalidLevel):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, quiz.ErrLessonNotFound),
		errors.Is(err, quiz.ErrQuestionNotFound),
		errors.Is(err, quiz.ErrChoiceMismatch),
		errors.Is(err, quiz.ErrNoActiveAttempt):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, quiz.ErrLevelCompleted), errors.Is(err, quiz.ErrAlreadyAnswered):
		return utils.Conflict(c, err.Error())
	}
	qc.Logger.Printf("quiz: %s %s: %v", c.Method(), c.Path(), err)
	return utils.InternalServerError(c, "Could not process quiz request")
}
