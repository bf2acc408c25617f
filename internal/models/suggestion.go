package models

import "time"

// Suggestion lifecycle states.
const (
	SuggestionStatusPending  = "pending"
	SuggestionStatusAnswered = "answered"
)

// Suggestion represents an anonymous student suggestion and its answer.
//
// StudentKey is the opaque capability string tying the record to its
// submitter; it never changes after creation. Status is "answered" exactly
// when Answer and AnsweredAt are both set.
type Suggestion struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	StudentKey        string     `gorm:"size:128;index;not null" json:"student_key"`
	Grade             int        `gorm:"not null" json:"grade"`
	Title             string     `gorm:"size:140;not null" json:"title"`
	Content           string     `gorm:"type:text;not null" json:"content"`
	Status            string     `gorm:"size:16;not null;default:pending;index" json:"status"`
	Answer            *string    `gorm:"type:text" json:"answer"`
	AnsweredAt        *time.Time `json:"answered_at"`
	NotificationEmail *string    `gorm:"size:320" json:"notification_email,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Answered reports whether the suggestion has received an answer.
func (s Suggestion) Answered() bool {
	return s.Status == SuggestionStatusAnswered
}
