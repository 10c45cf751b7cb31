package middleware

import (
	"errors"

	"aitutor/backend/config"
	"aitutor/backend/models"
	"aitutor/backend/repository"
	"aitutor/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware rejects requests without a valid token and stores the
// user id for the handlers.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Authentication credentials were not provided or are invalid")
		}
		utils.SetCurrentUserID(c, userID)
		return c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware(store *repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := utils.CurrentUserID(c)
		if !ok {
			return utils.Unauthorized(c, "Unauthorized")
		}

		user, err := store.FindUser(c.UserContext(), userID)
		if errors.Is(err, models.ErrNotFound) {
			return utils.Unauthorized(c, "User no longer exists")
		}
		if err != nil {
			return utils.InternalServerError(c, "Could not load user")
		}
		if !user.IsAdmin() {
			return utils.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}
