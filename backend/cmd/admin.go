package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aitutor/backend/models"
	"aitutor/backend/repository"
	"aitutor/backend/utils"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account or promote an existing user",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		_, db, err := openDB(cmd)
		if err != nil {
			return err
		}
		if err := utils.AutoMigrate(db); err != nil {
			return err
		}

		user, created, err := createAdmin(cmd.Context(), db, username, email, password)
		if err != nil {
			return err
		}
		verb := "promoted"
		if created {
			verb = "created"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s admin %s (id %d)\n", verb, user.Username, user.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().String("username", "", "Admin username")
	createAdminCmd.Flags().String("email", "", "Admin email, required for new accounts")
	createAdminCmd.Flags().String("password", "", "Admin password, required for new accounts")
	_ = createAdminCmd.MarkFlagRequired("username")
}

// createAdmin promotes the user when the username exists, otherwise
// creates a new admin account with a profile.
func createAdmin(ctx context.Context, db *gorm.DB, username, email, password string) (models.User, bool, error) {
	store := repository.New(db)
	username = strings.TrimSpace(username)

	user, err := store.FindUserByLogin(ctx, username)
	switch {
	case err == nil:
		user, err = store.FindUser(ctx, user.ID)
		if err != nil {
			return models.User{}, false, err
		}
		user.Role = models.RoleAdmin
		if password != "" {
			if err := setPassword(&user, password); err != nil {
				return models.User{}, false, err
			}
		}
		return user, false, store.SaveUser(ctx, &user)
	case !errors.Is(err, models.ErrNotFound):
		return models.User{}, false, err
	}

	if strings.TrimSpace(email) == "" {
		return models.User{}, false, errors.New("--email is required for a new admin")
	}
	user = models.User{Username: username, Email: strings.TrimSpace(email), Role: models.RoleAdmin}
	if err := setPassword(&user, password); err != nil {
		return models.User{}, false, err
	}
	if err := store.CreateUser(ctx, &user); err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

func setPassword(user *models.User, password string) error {
	if len(password) < 8 {
		return errors.New("password must contain at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return nil
}
