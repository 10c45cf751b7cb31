package cmd

import (
	"fmt"

	"aitutor/backend/seed"
	"aitutor/backend/utils"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load lessons and quiz questions from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		_, db, err := openDB(cmd)
		if err != nil {
			return err
		}
		if err := utils.AutoMigrate(db); err != nil {
			return err
		}

		sum, err := seed.SeedFromJSON(cmd.Context(), db, path)
		if err != nil {
			return fmt.Errorf("seed %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d lessons with %d questions", sum.Lessons, sum.Questions)
		if len(sum.Skipped) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), " (skipped existing: %v)", sum.Skipped)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "lessons.json", "JSON file with lessons")
}
