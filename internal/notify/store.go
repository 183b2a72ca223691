package notify

import (
	"context"
	"time"

	"github.com/wavelane/wavelane/backend/internal/models"
)

// Store is the notification store adapter the pipeline writes through. All
// writes belonging to one inbound batch run against the Store handed to the
// Transact callback; a returned error rolls the whole batch back.
type Store interface {
	// FindOpen returns the un-viewed notification for (user, type, entity),
	// or nil when none exists. When metaMatch is non-empty the stored
	// metadata must also match it.
	FindOpen(userID uint, t Type, entityID uint, metaMatch string) (*models.Notification, error)

	// Create inserts a new notification row.
	Create(n *models.Notification) error

	// FindOrCreateAction appends an action unless the same
	// (notification, actionEntityType, actionEntityID) already exists.
	// Reports whether a row was actually created.
	FindOrCreateAction(a *models.NotificationAction) (bool, error)

	// UpdateTimestamp bumps a notification's activity timestamp.
	UpdateTimestamp(notificationID uint, ts time.Time) error

	// ListWithActions returns all notifications for (user, type, entity)
	// with their actions, optionally restricted to unread rows.
	ListWithActions(userID uint, t Type, entityID uint, unreadOnly bool) ([]NotificationWithActions, error)

	// LatestWithActions returns the most recent notification for
	// (user, type, entity) by timestamp, or nil when none exists.
	LatestWithActions(userID uint, t Type, entityID uint) (*NotificationWithActions, error)

	// Delete hard-deletes a notification and its actions.
	Delete(notificationID uint) error

	// DeleteCreateItemActions removes standalone create actions referencing
	// an uploaded item that has since been bundled into a collection, and
	// any parent create notification left without actions.
	DeleteCreateItemActions(itemID uint) error

	// Checkpoint advances the durable high-water provenance marks.
	Checkpoint(blocknumber, slot int64) error
}

// TxStore opens the atomic transaction scope one batch runs in.
type TxStore interface {
	Store
	Transact(fn func(Store) error) error
}

// SubscriptionSource resolves which users subscribe to an uploader.
type SubscriptionSource interface {
	Subscribers(userID uint) ([]uint, error)
}

// PreferenceSource answers whether a user wants pushes for a preference key,
// per device class.
type PreferenceSource interface {
	ShouldNotify(ctx context.Context, userID uint, key string) (DeviceTypes, error)
}

// PushBuffer is the outbound delivery queue. Transport is somebody else's
// problem; the pipeline only appends.
type PushBuffer interface {
	Enqueue(ctx context.Context, rec *models.PushRecord) error
}

// MetadataSource fetches display metadata for formatting push messages.
type MetadataSource interface {
	UserHandles(ctx context.Context, userIDs []uint) (map[uint]string, error)
	ContentTitles(ctx context.Context, entityIDs []uint) (map[uint]string, error)
}
