package controllers

import (
	"errors"
	"log"

	"aitutor/backend/config"
	"aitutor/backend/tutor"
	"aitutor/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type TutorController struct {
	Cfg    *config.Config
	Tutor  *tutor.Service
	Logger *log.Logger
}

func NewTutorController(cfg *config.Config, svc *tutor.Service, logger *log.Logger) *TutorController {
	return &TutorController{Cfg: cfg, Tutor: svc, Logger: logger}
}

type AskRequest struct {
	Question string `json:"question" example:"What is photosynthesis?"`
}

// Ask godoc
// @Summary Ask the AI tutor
// @Tags tutor
// @Accept json
// @Produce json
// @Param request body AskRequest true "Question"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /ask-tutor-ai [post]
func (tc *TutorController) Ask(c *fiber.Ctx) error {
	var input AskRequest
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	answer, err := tc.Tutor.Ask(c.UserContext(), input.Question)
	if errors.Is(err, tutor.ErrEmptyQuestion) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		userID, _ := utils.CurrentUserID(c)
		tc.Logger.Printf("tutor: user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"answer": answer})
}
