package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification delivery channels and outcomes recorded in the log.
const (
	NotificationChannelPush  = "push"
	NotificationChannelEmail = "email"

	NotificationOutcomeSent    = "sent"
	NotificationOutcomeFailed  = "failed"
	NotificationOutcomePruned  = "pruned"
	NotificationOutcomeSkipped = "skipped"
)

// NotificationLog records a single best-effort delivery attempt made by the
// dispatcher. Rows are informational; writes never block or fail the
// triggering operation.
type NotificationLog struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Event        string            `gorm:"size:32;not null;index" json:"event"`
	Channel      string            `gorm:"size:16;not null" json:"channel"`
	SubjectKind  string            `gorm:"size:16;not null" json:"subject_kind"`
	SubjectRef   string            `gorm:"size:128;index" json:"subject_ref"`
	SuggestionID uint              `gorm:"index" json:"suggestion_id"`
	Outcome      string            `gorm:"size:16;not null" json:"outcome"`
	Detail       datatypes.JSONMap `gorm:"type:json" json:"detail"`
	CreatedAt    time.Time         `json:"created_at"`
}
