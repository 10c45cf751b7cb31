package cmd

import (
	"fmt"

	"aitutor/backend/utils"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB(cmd)
		if err != nil {
			return err
		}
		if err := utils.AutoMigrate(db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}
