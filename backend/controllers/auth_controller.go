package controllers

import (
	"errors"
	"net/mail"
	"strings"

	"aitutor/backend/config"
	"aitutor/backend/identity"
	"aitutor/backend/models"
	"aitutor/backend/repository"
	"aitutor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type AuthController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Store  *repository.Store
	Google identity.Verifier
}

func NewAuthController(db *gorm.DB, cfg *config.Config, google identity.Verifier) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Store: repository.New(db), Google: google}
}

type RegisterRequest struct {
	Username  string `json:"username" example:"ada"`
	Email     string `json:"email" example:"ada@example.com"`
	Password1 string `json:"password1" minLength:"8"`
	Password2 string `json:"password2" minLength:"8"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates the account with an empty profile and returns an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /auth/registration [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	ctx := c.UserContext()
	problems := map[string]string{}
	if input.Username == "" {
		problems["username"] = "This field is required."
	} else if taken, err := ac.Store.UsernameTaken(ctx, input.Username, 0); err != nil {
		return utils.InternalServerError(c, "Could not query database")
	} else if taken {
		problems["username"] = "A user with that username already exists."
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		problems["email"] = "Enter a valid email address."
	} else if taken, err := ac.Store.EmailTaken(ctx, input.Email, 0); err != nil {
		return utils.InternalServerError(c, "Could not query database")
	} else if taken {
		problems["email"] = "A user is already registered with this e-mail address."
	}
	switch {
	case len(input.Password1) < minPasswordLength:
		problems["password1"] = "This password is too short. It must contain at least 8 characters."
	case input.Password1 != input.Password2:
		problems["password2"] = "The two password fields didn't match."
	}
	if len(problems) > 0 {
		return utils.ValidationError(c, problems)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password1), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
	}
	if err := ac.Store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return utils.Conflict(c, "Username or email already registered")
		}
		return utils.InternalServerError(c, "Could not create user")
	}

	return ac.respondWithToken(c, fiber.StatusCreated, user.ID)
}

// Login godoc
// @Summary User login
// @Description Authenticate by username or email and return an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	login := input.Username
	if strings.TrimSpace(login) == "" {
		login = input.Email
	}
	if strings.TrimSpace(login) == "" || input.Password == "" {
		return utils.BadRequest(c, "Must include \"username\" or \"email\" and \"password\".")
	}

	user, err := ac.Store.FindUserByLogin(c.UserContext(), login)
	if errors.Is(err, models.ErrNotFound) {
		return utils.Unauthorized(c, "Unable to log in with provided credentials.")
	}
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	// Accounts created through Google have no password.
	if user.PasswordHash == "" {
		return utils.Unauthorized(c, "Unable to log in with provided credentials.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.Unauthorized(c, "Unable to log in with provided credentials.")
	}

	return ac.respondWithToken(c, fiber.StatusOK, user.ID)
}

// GoogleLogin godoc
// @Summary Sign in with Google
// @Description Accepts an authorization code or an access token obtained by the client
// @Tags auth
// @Accept json
// @Produce json
// @Param request body identity.Credentials true "Google credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /auth/google [post]
func (ac *AuthController) GoogleLogin(c *fiber.Ctx) error {
	var creds identity.Credentials
	if err := c.BodyParser(&creds); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	ctx := c.UserContext()
	ident, err := ac.Google.Verify(ctx, creds)
	switch {
	case errors.Is(err, identity.ErrMissingCredentials), errors.Is(err, identity.ErrExchangeFailed):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, identity.ErrNotConfigured):
		return utils.Fail(c, fiber.StatusServiceUnavailable, err.Error())
	case err != nil:
		return utils.Fail(c, fiber.StatusBadGateway, "Could not reach Google")
	}

	user, err := ac.userForIdentity(c, ident)
	switch {
	case errors.Is(err, errUnverifiedEmail):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, errEmailInUse):
		return utils.Conflict(c, err.Error())
	case err != nil:
		return utils.InternalServerError(c, "Could not sign in with Google")
	}

	link := models.SocialAccount{
		UserID:    user.ID,
		Provider:  ident.Provider,
		UID:       ident.Subject,
		AvatarURL: ident.AvatarURL,
	}
	if err := ac.Store.LinkSocialAccount(ctx, &link); err != nil {
		return utils.InternalServerError(c, "Could not link Google account")
	}

	return ac.respondWithToken(c, fiber.StatusOK, user.ID)
}

var (
	errUnverifiedEmail = errors.New("google has not verified this email address")
	errEmailInUse      = errors.New("an account with this email already exists; sign in with your password")
)

// userForIdentity finds the account linked to the Google identity or
// creates one. An existing account is never connected through its email
// alone, and new accounts need an email Google has verified.
func (ac *AuthController) userForIdentity(c *fiber.Ctx, ident identity.Identity) (models.User, error) {
	ctx := c.UserContext()

	acc, err := ac.Store.FindSocialAccount(ctx, ident.Provider, ident.Subject)
	if err == nil {
		return ac.Store.FindUser(ctx, acc.UserID)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.User{}, err
	}
	if !ident.VerifiedEmail {
		return models.User{}, errUnverifiedEmail
	}

	_, err = ac.Store.FindUserByEmail(ctx, ident.Email)
	if err == nil {
		return models.User{}, errEmailInUse
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.User{}, err
	}

	username, err := ac.availableUsername(c, ident.Email)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{Username: username, Email: ident.Email, Role: models.RoleUser}
	if err := ac.Store.CreateUser(ctx, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (ac *AuthController) availableUsername(c *fiber.Ctx, email string) (string, error) {
	base := strings.ToLower(strings.SplitN(email, "@", 2)[0])
	base = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.' || r == '_' || r == '-' {
			return r
		}
		return -1
	}, base)
	if base == "" {
		base = "user"
	}

	taken, err := ac.Store.UsernameTaken(c.UserContext(), base, 0)
	if err != nil || !taken {
		return base, err
	}
	return base + "_" + uuid.NewString()[:8], nil
}

// Logout godoc
// @Summary Log out
// @Description Tokens are stateless; the client discards its token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/logout [post]
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"detail": "Successfully logged out."})
}

func (ac *AuthController) respondWithToken(c *fiber.Ctx, status int, userID uint) error {
	user, err := ac.Store.FindUser(c.UserContext(), userID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load user")
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return c.Status(status).JSON(fiber.Map{
		"access": token,
		"user":   userJSON(user),
	})
}
