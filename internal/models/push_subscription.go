package models

import "time"

// PushSubscription stores a browser push subscription for either a student
// (identified by their opaque key) or an admin. Exactly one of StudentKey and
// AdminID is set per row.
type PushSubscription struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentKey *string   `gorm:"size:128;index" json:"student_key,omitempty"`
	AdminID    *uint     `gorm:"index" json:"admin_id,omitempty"`
	Endpoint   string    `gorm:"type:text;not null" json:"endpoint"`
	P256dh     string    `gorm:"column:p256dh;type:text;not null" json:"p256dh"`
	Auth       string    `gorm:"type:text;not null" json:"auth"`
	CreatedAt  time.Time `json:"created_at"`
}
