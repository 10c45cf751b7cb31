package controllers

import (
	"log"

	"aitutor/backend/config"
	"aitutor/backend/dashboard"
	"aitutor/backend/repository"
	"aitutor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Dashboard *dashboard.Service
	Logger    *log.Logger
}

func NewProgressController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *ProgressController {
	return &ProgressController{
		DB:        db,
		Cfg:       cfg,
		Dashboard: dashboard.NewService(repository.New(db)),
		Logger:    logger,
	}
}

// GetProgress godoc
// @Summary Dashboard progress
// @Description Learning progress and the predicted chance of passing
// @Tags dashboard
// @Produce json
// @Success 200 {object} dashboard.Prediction
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /dashboard/progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	userID, _ := utils.CurrentUserID(c)

	prediction, err := pc.Dashboard.PredictOutcome(c.UserContext(), userID)
	if err != nil {
		pc.Logger.Printf("dashboard: user %d: %v", userID, err)
		return utils.InternalServerError(c, "Could not compute progress")
	}
	return c.JSON(prediction)
}
