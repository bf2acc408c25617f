package dto

import (
	"time"

	"github.com/noah-isme/suggestbox-go-api/internal/models"
)

// PushSubscriptionKeys carries the browser-generated encryption material.
type PushSubscriptionKeys struct {
	P256dh string `json:"p256dh" validate:"required,max=512"`
	Auth   string `json:"auth" validate:"required,max=256"`
}

// PushSubscribeRequest is the payload of a subscribe call, matching the
// serialized PushSubscription object produced by browsers.
type PushSubscribeRequest struct {
	Endpoint string               `json:"endpoint" validate:"required,url,max=2048"`
	Keys     PushSubscriptionKeys `json:"keys" validate:"required"`
}

// PushUnsubscribeRequest identifies the subscription to remove.
type PushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,max=2048"`
}

// PushSubscriptionResponse is the serialized representation of a stored
// subscription. Keying material is never echoed back.
type PushSubscriptionResponse struct {
	ID        uint      `json:"id"`
	Endpoint  string    `json:"endpoint"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPushSubscriptionResponse converts a model into a DTO.
func NewPushSubscriptionResponse(sub models.PushSubscription) PushSubscriptionResponse {
	return PushSubscriptionResponse{
		ID:        sub.ID,
		Endpoint:  sub.Endpoint,
		CreatedAt: sub.CreatedAt,
	}
}
