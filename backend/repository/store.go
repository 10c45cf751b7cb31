// Package repository is the gorm-backed persistence layer. It hides gorm
// errors behind models.ErrNotFound and models.ErrDuplicate.
package repository

import (
	"context"
	"errors"
	"strings"

	"aitutor/backend/models"

	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return models.ErrDuplicate
	}
	return err
}

// Not every driver translates constraint errors, so fall back to the message.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
