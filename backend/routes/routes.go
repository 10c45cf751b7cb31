package routes

import (
	"log"
	"strconv"
	"time"

	"aitutor/backend/config"
	"aitutor/backend/controllers"
	"aitutor/backend/identity"
	"aitutor/backend/mail"
	"aitutor/backend/middleware"
	"aitutor/backend/repository"
	"aitutor/backend/tutor"
	"aitutor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Services are the collaborators that talk to the outside world.
type Services struct {
	Logger *log.Logger
	Tutor  *tutor.Service
	Google identity.Verifier
	Mailer mail.Notifier
	// LimiterStorage keeps rate limit counters; nil uses process memory.
	LimiterStorage fiber.Storage
}

// NewApp creates the fiber application with the global middleware stack.
func NewApp(cfg *config.Config, logger *log.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "AI Tutor",
		ErrorHandler: utils.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	origins := cfg.AllowedOrigins()
	if origins == "" {
		origins = "*"
	}
	// fiber refuses credentials together with a wildcard origin.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
	}))
	app.Use(middleware.LoggingMiddleware(logger, "/healthz"))

	return app
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, svc Services) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return utils.Fail(c, fiber.StatusServiceUnavailable, err.Error())
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(repository.New(db))

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, svc.Google)
	api.Post("/auth/registration", authController.Register)
	api.Post("/auth/login", authController.Login)
	api.Post("/auth/google", authController.GoogleLogin)
	api.Post("/auth/logout", authController.Logout)

	userController := controllers.NewUserController(db, cfg)
	api.Get("/auth/user", authMiddleware, userController.GetUser)
	api.Put("/auth/user", authMiddleware, userController.UpdateUser)
	api.Patch("/auth/user", authMiddleware, userController.UpdateUser)

	// Lessons
	coursesController := controllers.NewCoursesController(db, cfg)
	api.Get("/lessons", coursesController.ListLessons)
	api.Get("/lessons/trending", coursesController.TrendingLessons)
	api.Get("/lessons/:id", coursesController.GetLesson)
	api.Post("/lessons/start/:id", authMiddleware, coursesController.StartLesson)
	api.Get("/available-lessons", coursesController.ListLessons)
	api.Get("/available-lessons/:id", coursesController.GetLesson)
	api.Get("/trending-courses", coursesController.TrendingLessons)
	api.Get("/my-lessons", authMiddleware, coursesController.MyLessons)

	// Quiz
	quizController := controllers.NewQuizController(db, cfg, svc.Logger)
	quiz := api.Group("/quiz", authMiddleware)
	quiz.Get("/lessons", coursesController.QuizLessons)
	quiz.Get("/levels/:lessonId", quizController.GetLevels)
	quiz.Get("/questions/:lessonId/:level", quizController.GetQuestions)
	quiz.Post("/submit-answer/:lessonId", quizController.SubmitAnswer)
	quiz.Get("/result/:lessonId/:level", quizController.GetResult)

	// Dashboard
	progressController := controllers.NewProgressController(db, cfg, svc.Logger)
	api.Get("/dashboard/progress", authMiddleware, progressController.GetProgress)

	// AI tutor
	tutorController := controllers.NewTutorController(cfg, svc.Tutor, svc.Logger)
	tutorHandlers := []fiber.Handler{authMiddleware}
	if cfg.TutorRateLimit > 0 {
		tutorHandlers = append(tutorHandlers, tutorLimiter(cfg.TutorRateLimit, svc.LimiterStorage))
	}
	api.Post("/ask-tutor-ai", append(tutorHandlers, tutorController.Ask)...)

	// Contact
	contactController := controllers.NewContactController(db, cfg, svc.Mailer, svc.Logger)
	api.Post("/contact", contactController.Submit)

	// Admin
	adminController := controllers.NewAdminController(db, cfg)
	analyticsController := controllers.NewAnalyticsController(db, cfg)
	admin := api.Group("/admin", authMiddleware, adminMiddleware)
	admin.Post("/lessons", adminController.CreateLesson)
	admin.Put("/lessons/:id", adminController.UpdateLesson)
	admin.Patch("/lessons/:id", adminController.UpdateLesson)
	admin.Post("/lessons/:id/questions", adminController.AddQuestion)
	admin.Get("/lessons/:id/analytics", analyticsController.GetLessonAnalytics)
	admin.Get("/contacts", adminController.ListContacts)
}

// tutorLimiter allows max requests per minute per authenticated user.
func tutorLimiter(max int, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			userID, _ := utils.CurrentUserID(c)
			return "tutor:" + strconv.FormatUint(uint64(userID), 10)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Fail(c, fiber.StatusTooManyRequests, "Too many questions, please wait a minute before asking again.")
		},
	})
}
