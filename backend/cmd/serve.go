package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aitutor/backend/cache"
	"aitutor/backend/identity"
	"aitutor/backend/llm"
	"aitutor/backend/mail"
	"aitutor/backend/routes"
	"aitutor/backend/tutor"
	"aitutor/backend/utils"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("migrate", true, "Create or update tables before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, db, err := openDB(cmd)
	if err != nil {
		return err
	}
	logger := utils.InitLogger(utils.LoggerConfig{Format: cfg.LogFormat, EnableColors: cfg.LogFormat != "plain"})

	// The root command has no --migrate flag; it always migrates.
	migrate := true
	if f := cmd.Flags().Lookup("migrate"); f != nil {
		migrate, _ = cmd.Flags().GetBool("migrate")
	}
	if migrate {
		if err := utils.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llmCfg := llm.ConfigFromEnv()
	provider, err := llm.NewProvider(ctx, llmCfg, logger)
	if err != nil {
		return fmt.Errorf("tutor provider: %w", err)
	}
	logger.Printf("tutor: using %s (%s)", llmCfg.Provider, provider.ModelID())

	svc := routes.Services{
		Logger: logger,
		Tutor:  tutor.NewService(provider, llmCfg.MaxTokens),
		Google: identity.NewGoogleVerifier(cfg),
		Mailer: mail.New(cfg, logger),
	}
	if cfg.RedisURL != "" {
		storage, err := cache.NewRedisStorage(ctx, cfg.RedisURL, "tutor:limiter:")
		if err != nil {
			return err
		}
		defer storage.Close()
		svc.LimiterStorage = storage
		logger.Println("rate limits are shared through redis")
	}

	app := routes.NewApp(cfg, logger)
	routes.SetupRoutes(app, db, cfg, svc)

	errc := make(chan error, 1)
	go func() {
		errc <- app.Listen(":" + cfg.ServerPort)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Println("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

