package models

import "time"

// Notification represents one open notification per (user, type, entity) (PostgreSQL).
// Repeated actions from distinct actors stack onto the same row as
// NotificationActions until the user views it.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"index:idx_notifications_open"`
	Type        string    `json:"type" gorm:"size:40;index:idx_notifications_open"` // Follow, RepostDigitalContent, MilestoneListen, ...
	EntityID    uint      `json:"entity_id" gorm:"index:idx_notifications_open"`    // semantics vary by type
	Blocknumber int64     `json:"blocknumber"`
	Slot        int64     `json:"slot"`
	Timestamp   time.Time `json:"timestamp" gorm:"index"` // bumped when a new action stacks
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	IsViewed    bool      `json:"is_viewed" gorm:"default:false"`
	IsHidden    bool      `json:"is_hidden" gorm:"default:false"`
	Metadata    string    `json:"metadata" gorm:"type:jsonb;default:null"` // type-specific extras, e.g. collection ownership
	CreatedAt   time.Time `json:"created_at"`
}

// NotificationAction is one distinct actor or contributing entity appended to
// a Notification. (NotificationID, ActionEntityType, ActionEntityID) is
// unique; re-appending the same actor is a no-op.
type NotificationAction struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	NotificationID   uint      `json:"notification_id" gorm:"index;uniqueIndex:idx_notification_actions_unique"`
	ActionEntityType string    `json:"action_entity_type" gorm:"size:40;uniqueIndex:idx_notification_actions_unique"` // User, DigitalContent, Album, ContentList, week:all, ...
	ActionEntityID   uint      `json:"action_entity_id" gorm:"uniqueIndex:idx_notification_actions_unique"`
	Blocknumber      int64     `json:"blocknumber"`
	Slot             int64     `json:"slot"`
	CreatedAt        time.Time `json:"created_at"`
}

// NotificationCheckpoint tracks the highest durably committed provenance
// ordering keys. A single row, advanced in the same transaction as each batch.
type NotificationCheckpoint struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Blocknumber int64     `json:"blocknumber"`
	Slot        int64     `json:"slot"`
	UpdatedAt   time.Time `json:"updated_at"`
}
