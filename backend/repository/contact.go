package repository

import (
	"context"

	"aitutor/backend/models"
)

func (s *Store) CreateContact(ctx context.Context, msg *models.ContactSubmission) error {
	return translate(s.db(ctx).Create(msg).Error)
}

func (s *Store) ListContacts(ctx context.Context, limit, offset int) ([]models.ContactSubmission, int64, error) {
	var total int64
	if err := s.db(ctx).Model(&models.ContactSubmission{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var rows []models.ContactSubmission
	err := s.db(ctx).Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, translate(err)
}
