package dto

import (
	"time"

	"github.com/noah-isme/suggestbox-go-api/internal/models"
)

// SuggestionCreateRequest is the payload submitted by a student.
type SuggestionCreateRequest struct {
	Grade             int    `json:"grade" validate:"required,min=1,max=3"`
	Title             string `json:"title" validate:"required,min=2,max=140"`
	Content           string `json:"content" validate:"required,min=5,max=10000"`
	NotificationEmail string `json:"notification_email" validate:"omitempty,email,max=320"`
}

// SuggestionUpdateRequest carries the owner-editable fields. Nil fields are
// left untouched.
type SuggestionUpdateRequest struct {
	Grade   *int    `json:"grade" validate:"omitempty,min=1,max=3"`
	Title   *string `json:"title" validate:"omitempty,min=2,max=140"`
	Content *string `json:"content" validate:"omitempty,min=5,max=10000"`
}

// SuggestionAnswerRequest carries the admin answer text.
type SuggestionAnswerRequest struct {
	Answer string `json:"answer" validate:"required,min=1,max=10000"`
}

// NotificationEmailRequest sets or clears the optional answer-notification
// email on a suggestion. An empty email clears the field.
type NotificationEmailRequest struct {
	Email string `json:"email" validate:"omitempty,email,max=320"`
}

// SuggestionFilter captures the admin list query parameters.
type SuggestionFilter struct {
	Grade    *int
	Status   string
	Query    string
	Page     int
	PageSize int
}

// SuggestionResponse is the serialized representation of a suggestion.
type SuggestionResponse struct {
	ID                uint       `json:"id"`
	StudentKey        string     `json:"student_key,omitempty"`
	Grade             int        `json:"grade"`
	Title             string     `json:"title"`
	Content           string     `json:"content"`
	Status            string     `json:"status"`
	Answer            *string    `json:"answer"`
	AnsweredAt        *time.Time `json:"answered_at"`
	NotificationEmail *string    `json:"notification_email,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewSuggestionResponse converts a model into a DTO. The owner key is
// included only for owner-facing responses; admin listings omit it.
func NewSuggestionResponse(s models.Suggestion, includeKey bool) SuggestionResponse {
	resp := SuggestionResponse{
		ID:                s.ID,
		Grade:             s.Grade,
		Title:             s.Title,
		Content:           s.Content,
		Status:            s.Status,
		Answer:            s.Answer,
		AnsweredAt:        s.AnsweredAt,
		NotificationEmail: s.NotificationEmail,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	if includeKey {
		resp.StudentKey = s.StudentKey
	}
	return resp
}

// NewSuggestionResponseSlice converts a slice of models into DTOs.
func NewSuggestionResponseSlice(items []models.Suggestion, includeKey bool) []SuggestionResponse {
	out := make([]SuggestionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewSuggestionResponse(item, includeKey))
	}
	return out
}

// PaginationMeta describes the page window of a list response.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// SuggestionListResponse is the paginated admin listing payload.
type SuggestionListResponse struct {
	Items      []SuggestionResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}
