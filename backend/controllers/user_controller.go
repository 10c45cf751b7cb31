package controllers

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"aitutor/backend/config"
	"aitutor/backend/models"
	"aitutor/backend/repository"
	"aitutor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store *repository.Store
}

func NewUserController(db *gorm.DB, cfg *config.Config) *UserController {
	return &UserController{DB: db, Cfg: cfg, Store: repository.New(db)}
}

// UpdateUserRequest fields are optional; absent fields keep their value.
type UpdateUserRequest struct {
	Username *string               `json:"username" example:"ada"`
	Email    *string               `json:"email" example:"ada@example.com"`
	Profile  *UpdateProfileRequest `json:"profile"`
}

type UpdateProfileRequest struct {
	DOB           *string `json:"dob" example:"2001-04-30"`
	College       *string `json:"college"`
	Qualification *string `json:"qualification"`
	RollNumber    *string `json:"roll_number"`
	Year          *string `json:"year"`
	Course        *string `json:"course"`
}

// GetUser godoc
// @Summary Get current user
// @Description Returns the authenticated user with profile and avatar
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/user [get]
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	userID, _ := utils.CurrentUserID(c)

	user, err := uc.Store.FindUser(c.UserContext(), userID)
	if errors.Is(err, models.ErrNotFound) {
		return utils.NotFound(c, "User not found")
	}
	if err != nil {
		return utils.InternalServerError(c, "Could not load user")
	}
	return c.JSON(userJSON(user))
}

// UpdateUser godoc
// @Summary Update current user
// @Description Updates username, email and profile fields
// @Tags users
// @Accept json
// @Produce json
// @Param input body UpdateUserRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/user [put]
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	userID, _ := utils.CurrentUserID(c)

	var input UpdateUserRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	ctx := c.UserContext()
	user, err := uc.Store.FindUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return utils.NotFound(c, "User not found")
	}
	if err != nil {
		return utils.InternalServerError(c, "Could not load user")
	}

	problems := map[string]string{}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			problems["username"] = "This field may not be blank."
		} else if username != user.Username {
			taken, err := uc.Store.UsernameTaken(ctx, username, user.ID)
			if err != nil {
				return utils.InternalServerError(c, "Could not query database")
			}
			if taken {
				problems["username"] = "A user with that username already exists."
			}
			user.Username = username
		}
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			problems["email"] = "Enter a valid email address."
		} else if !strings.EqualFold(email, user.Email) {
			taken, err := uc.Store.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return utils.InternalServerError(c, "Could not query database")
			}
			if taken {
				problems["email"] = "A user is already registered with this e-mail address."
			}
		}
		user.Email = email
	}

	if p := input.Profile; p != nil {
		if p.DOB != nil {
			if *p.DOB == "" {
				user.Profile.DOB = nil
			} else if dob, err := time.Parse(dateLayout, *p.DOB); err != nil {
				problems["profile.dob"] = "Date has wrong format. Use YYYY-MM-DD."
			} else {
				user.Profile.DOB = &dob
			}
		}
		setIfPresent(&user.Profile.College, p.College)
		setIfPresent(&user.Profile.Qualification, p.Qualification)
		setIfPresent(&user.Profile.RollNumber, p.RollNumber)
		setIfPresent(&user.Profile.Year, p.Year)
		setIfPresent(&user.Profile.Course, p.Course)
	}

	if len(problems) > 0 {
		return utils.ValidationError(c, problems)
	}

	if err := uc.Store.SaveUser(ctx, &user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return utils.Conflict(c, "Username or email already taken")
		}
		return utils.InternalServerError(c, "Could not update user")
	}
	return c.JSON(userJSON(user))
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
