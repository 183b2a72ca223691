package models

import "time"

// Subscription represents a user subscribing to another user's uploads.
// Created and destroyed by the settings surface; the pipeline only reads it
// to fan out create notifications.
type Subscription struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SubscriberID uint      `json:"subscriber_id" gorm:"index;uniqueIndex:idx_subscriber_user"`
	UserID       uint      `json:"user_id" gorm:"index;uniqueIndex:idx_subscriber_user"`
	CreatedAt    time.Time `json:"created_at"`
}
