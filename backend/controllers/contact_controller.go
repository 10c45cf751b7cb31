package controllers

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"unicode/utf8"

	"aitutor/backend/config"
	appmail "aitutor/backend/mail"
	"aitutor/backend/models"
	"aitutor/backend/repository"
	"aitutor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ContactController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Store    *repository.Store
	Notifier appmail.Notifier
	Logger   *log.Logger
}

func NewContactController(db *gorm.DB, cfg *config.Config, notifier appmail.Notifier, logger *log.Logger) *ContactController {
	return &ContactController{DB: db, Cfg: cfg, Store: repository.New(db), Notifier: notifier, Logger: logger}
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Submit stores a contact form message. The notification mail is best
// effort: the message is already saved when sending fails.
func (cc *ContactController) Submit(c *fiber.Ctx) error {
	var input ContactRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	msg := models.ContactSubmission{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.TrimSpace(input.Email),
		Message: strings.TrimSpace(input.Message),
	}
	problems := map[string]string{}
	if msg.Name == "" {
		problems["name"] = "This field is required."
	} else if utf8.RuneCountInString(msg.Name) > 100 {
		problems["name"] = "Ensure this field has no more than 100 characters."
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		problems["email"] = "Enter a valid email address."
	}
	if msg.Message == "" {
		problems["message"] = "This field is required."
	}
	if len(problems) > 0 {
		return utils.ValidationError(c, problems)
	}

	ctx := c.UserContext()
	if err := cc.Store.CreateContact(ctx, &msg); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not save message"})
	}

	if cc.Cfg.ContactInbox != "" {
		err := cc.Notifier.Send(ctx, appmail.Message{
			To:      []string{cc.Cfg.ContactInbox},
			ReplyTo: msg.Email,
			Subject: fmt.Sprintf("New contact message from %s", msg.Name),
			Body:    fmt.Sprintf("From: %s <%s>\n\n%s\n", msg.Name, msg.Email, msg.Message),
		})
		if err != nil {
			cc.Logger.Printf("contact: notify about submission %d: %v", msg.ID, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": "Message saved successfully!"})
}
