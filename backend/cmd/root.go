// Package cmd holds the command line entry points of the server.
package cmd

import (
	"aitutor/backend/config"
	"aitutor/backend/utils"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:          "tutor",
	Short:        "AI tutor backend",
	Long:         "AI tutor backend: lessons, leveled quizzes, progress prediction and an AI tutor.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("env", "", "Path to a .env file (defaults to ./.env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(createAdminCmd)
}

// loadConfig reads the --env file when given, otherwise ./.env.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if p, _ := cmd.Flags().GetString("env"); p != "" {
		return config.LoadConfig(p)
	}
	return config.LoadConfig()
}

func openDB(cmd *cobra.Command) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	db, err := utils.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
