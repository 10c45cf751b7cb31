package repository

import (
	"context"
	"strings"

	"aitutor/backend/models"

	"gorm.io/gorm"
)

// CreateUser inserts the user and its empty profile in one transaction.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile", "SocialAccounts").Create(user).Error; err != nil {
			return err
		}
		user.Profile = models.Profile{UserID: user.ID}
		return tx.Create(&user.Profile).Error
	}))
}

func (s *Store) FindUser(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := s.db(ctx).Preload("Profile").Preload("SocialAccounts").First(&user, id).Error
	return user, translate(err)
}

// FindUserByLogin matches either the username or the email address.
func (s *Store) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	login = strings.TrimSpace(login)
	err := s.db(ctx).Where("username = ? OR LOWER(email) = ?", login, strings.ToLower(login)).First(&user).Error
	return user, translate(err)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	return user, translate(err)
}

func (s *Store) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	var n int64
	err := s.db(ctx).Model(&models.User{}).Where("username = ? AND id <> ?", username, exceptID).Count(&n).Error
	return n > 0, translate(err)
}

func (s *Store) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var n int64
	err := s.db(ctx).Model(&models.User{}).
		Where("LOWER(email) = ? AND id <> ?", strings.ToLower(email), exceptID).
		Count(&n).Error
	return n > 0, translate(err)
}

// SaveUser updates the account and its profile.
func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	return translate(s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile", "SocialAccounts").Save(user).Error; err != nil {
			return err
		}
		user.Profile.UserID = user.ID
		return tx.Save(&user.Profile).Error
	}))
}

func (s *Store) FindSocialAccount(ctx context.Context, provider, uid string) (models.SocialAccount, error) {
	var acc models.SocialAccount
	err := s.db(ctx).Where("provider = ? AND uid = ?", provider, uid).First(&acc).Error
	return acc, translate(err)
}

// LinkSocialAccount creates the link or refreshes its avatar.
func (s *Store) LinkSocialAccount(ctx context.Context, acc *models.SocialAccount) error {
	var existing models.SocialAccount
	err := s.db(ctx).Where("provider = ? AND uid = ?", acc.Provider, acc.UID).First(&existing).Error
	switch translate(err) {
	case nil:
		existing.AvatarURL = acc.AvatarURL
		*acc = existing
		return translate(s.db(ctx).Save(acc).Error)
	case models.ErrNotFound:
		return translate(s.db(ctx).Create(acc).Error)
	default:
		return translate(err)
	}
}
