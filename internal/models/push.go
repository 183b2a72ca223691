package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Push queue statuses.
const (
	PushStatusPending = "pending"
	PushStatusSent    = "sent"
	PushStatusFailed  = "failed"
)

// PushRecord is a fully formatted notification payload waiting on the
// outbound delivery queue (MongoDB). Transports consume and mark it.
type PushRecord struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    uint               `json:"user_id" bson:"user_id"`
	Title     string             `json:"title" bson:"title"`
	Message   string             `json:"message" bson:"message"`
	Mobile    bool               `json:"mobile" bson:"mobile"`
	Browser   bool               `json:"browser" bson:"browser"`
	Status    string             `json:"status" bson:"status"`
	Attempts  int                `json:"attempts" bson:"attempts"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
