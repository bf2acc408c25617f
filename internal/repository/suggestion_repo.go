package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/suggestbox-go-api/internal/dto"
	"github.com/noah-isme/suggestbox-go-api/internal/models"
)

// ErrLocked indicates the suggestion is answered and no longer owner-mutable.
var ErrLocked = errors.New("suggestion is locked")

// SuggestionRepository exposes persistence helpers for suggestions.
//
// Owner-scoped mutations run as a guarded UPDATE/DELETE inside a transaction:
// the statement only matches rows that still belong to the owner and are still
// pending, so a concurrent admin answer or delete can never be partially
// overwritten. Classification of a zero-row result happens inside the same
// transaction.
type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *models.Suggestion) error
	GetByID(ctx context.Context, id uint) (models.Suggestion, error)
	ListForOwner(ctx context.Context, studentKey string, answeredSince *time.Time) ([]models.Suggestion, error)
	ListForAdmin(ctx context.Context, filter dto.SuggestionFilter) ([]models.Suggestion, int64, error)
	UpdateByOwner(ctx context.Context, id uint, studentKey string, changes map[string]interface{}) (models.Suggestion, error)
	DeleteByOwner(ctx context.Context, id uint, studentKey string) error
	Answer(ctx context.Context, id uint, answer string, answeredAt time.Time) (models.Suggestion, bool, error)
	DeleteByAdmin(ctx context.Context, id uint) error
}

type suggestionRepository struct {
	db *gorm.DB
}

// NewSuggestionRepository constructs a repository backed by GORM.
func NewSuggestionRepository(db *gorm.DB) SuggestionRepository {
	return &suggestionRepository{db: db}
}

func (r *suggestionRepository) Create(ctx context.Context, suggestion *models.Suggestion) error {
	return r.db.WithContext(ctx).Create(suggestion).Error
}

func (r *suggestionRepository) GetByID(ctx context.Context, id uint) (models.Suggestion, error) {
	var suggestion models.Suggestion
	err := r.db.WithContext(ctx).First(&suggestion, id).Error
	return suggestion, err
}

func (r *suggestionRepository) ListForOwner(ctx context.Context, studentKey string, answeredSince *time.Time) ([]models.Suggestion, error) {
	query := r.db.WithContext(ctx).Where("student_key = ?", studentKey)
	if answeredSince != nil {
		query = query.Where("answered_at IS NOT NULL AND answered_at > ?", *answeredSince)
	}

	var items []models.Suggestion
	if err := query.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *suggestionRepository) ListForAdmin(ctx context.Context, filter dto.SuggestionFilter) ([]models.Suggestion, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Suggestion{})

	if filter.Grade != nil {
		query = query.Where("grade = ?", *filter.Grade)
	}
	if filter.Status == models.SuggestionStatusPending || filter.Status == models.SuggestionStatusAnswered {
		query = query.Where("status = ?", filter.Status)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var items []models.Suggestion
	if err := query.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *suggestionRepository) UpdateByOwner(ctx context.Context, id uint, studentKey string, changes map[string]interface{}) (models.Suggestion, error) {
	var out models.Suggestion
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Suggestion{}).
			Where("id = ? AND student_key = ? AND status = ?", id, studentKey, models.SuggestionStatusPending).
			Updates(changes)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.classifyOwnerMiss(tx, id, studentKey)
		}
		return tx.First(&out, id).Error
	})
	return out, err
}

func (r *suggestionRepository) DeleteByOwner(ctx context.Context, id uint, studentKey string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("id = ? AND student_key = ? AND status = ?", id, studentKey, models.SuggestionStatusPending).
			Delete(&models.Suggestion{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.classifyOwnerMiss(tx, id, studentKey)
		}
		return nil
	})
}

// classifyOwnerMiss distinguishes a missing row from a locked one after a
// guarded write matched nothing.
func (r *suggestionRepository) classifyOwnerMiss(tx *gorm.DB, id uint, studentKey string) error {
	var current models.Suggestion
	if err := tx.Where("id = ? AND student_key = ?", id, studentKey).First(&current).Error; err != nil {
		return err
	}
	return fmt.Errorf("suggestion %d: %w", id, ErrLocked)
}

func (r *suggestionRepository) Answer(ctx context.Context, id uint, answer string, answeredAt time.Time) (models.Suggestion, bool, error) {
	var out models.Suggestion
	wasPending := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Suggestion
		if err := tx.First(&current, id).Error; err != nil {
			return err
		}
		wasPending = current.Status == models.SuggestionStatusPending

		result := tx.Model(&models.Suggestion{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"answer":      answer,
				"answered_at": answeredAt,
				"status":      models.SuggestionStatusAnswered,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Row vanished between the read and the write.
			return gorm.ErrRecordNotFound
		}
		return tx.First(&out, id).Error
	})
	return out, wasPending, err
}

func (r *suggestionRepository) DeleteByAdmin(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Suggestion{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
