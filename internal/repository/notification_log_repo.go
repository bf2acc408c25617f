package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/suggestbox-go-api/internal/models"
)

// NotificationLogRepository records dispatcher delivery attempts.
type NotificationLogRepository interface {
	Create(ctx context.Context, entry *models.NotificationLog) error
	ListForSuggestion(ctx context.Context, suggestionID uint) ([]models.NotificationLog, error)
}

type notificationLogRepository struct {
	db *gorm.DB
}

// NewNotificationLogRepository constructs a repository backed by GORM.
func NewNotificationLogRepository(db *gorm.DB) NotificationLogRepository {
	return &notificationLogRepository{db: db}
}

func (r *notificationLogRepository) Create(ctx context.Context, entry *models.NotificationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *notificationLogRepository) ListForSuggestion(ctx context.Context, suggestionID uint) ([]models.NotificationLog, error) {
	var entries []models.NotificationLog
	err := r.db.WithContext(ctx).
		Where("suggestion_id = ?", suggestionID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
