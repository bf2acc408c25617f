package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/suggestbox-go-api/internal/models"
)

// PushSubscriptionRepository persists browser push subscriptions.
type PushSubscriptionRepository interface {
	// Upsert stores the subscription, replacing any prior row for the same
	// subject and endpoint so that re-subscribing is idempotent.
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	DeleteByEndpoint(ctx context.Context, endpoint string) (int64, error)
	DeleteByID(ctx context.Context, id uint) error
	ListForAdmins(ctx context.Context) ([]models.PushSubscription, error)
	ListForStudent(ctx context.Context, studentKey string) ([]models.PushSubscription, error)
}

type pushSubscriptionRepository struct {
	db *gorm.DB
}

// NewPushSubscriptionRepository constructs a repository backed by GORM.
func NewPushSubscriptionRepository(db *gorm.DB) PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

func (r *pushSubscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("endpoint = ?", sub.Endpoint)
		switch {
		case sub.StudentKey != nil:
			query = query.Where("student_key = ?", *sub.StudentKey)
		case sub.AdminID != nil:
			query = query.Where("admin_id = ?", *sub.AdminID)
		default:
			return gorm.ErrInvalidData
		}

		var existing models.PushSubscription
		err := query.First(&existing).Error
		switch {
		case err == nil:
			sub.ID = existing.ID
			sub.CreatedAt = existing.CreatedAt
			return tx.Model(&existing).Updates(map[string]interface{}{
				"p256dh": sub.P256dh,
				"auth":   sub.Auth,
			}).Error
		case err == gorm.ErrRecordNotFound:
			return tx.Create(sub).Error
		default:
			return err
		}
	})
}

func (r *pushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) (int64, error) {
	result := r.db.WithContext(ctx).Where("endpoint = ?", endpoint).Delete(&models.PushSubscription{})
	return result.RowsAffected, result.Error
}

func (r *pushSubscriptionRepository) DeleteByID(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.PushSubscription{}, id).Error
}

func (r *pushSubscriptionRepository) ListForAdmins(ctx context.Context) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := r.db.WithContext(ctx).Where("admin_id IS NOT NULL").Find(&subs).Error
	return subs, err
}

func (r *pushSubscriptionRepository) ListForStudent(ctx context.Context, studentKey string) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := r.db.WithContext(ctx).Where("student_key = ?", studentKey).Find(&subs).Error
	return subs, err
}
