package repositories

import (
	"errors"
	"time"

	"github.com/wavelane/wavelane/backend/internal/models"
	"github.com/wavelane/wavelane/backend/internal/notify"
	"gorm.io/gorm"
)

// PostgresNotificationStore implements notify.TxStore over GORM. The pipeline
// always writes through a Transact scope; each callback receives a store
// bound to the open transaction.
type PostgresNotificationStore struct {
	db *gorm.DB
}

// NewPostgresNotificationStore creates a new PostgresNotificationStore
func NewPostgresNotificationStore(db *gorm.DB) *PostgresNotificationStore {
	return &PostgresNotificationStore{db: db}
}

// Transact runs fn inside one database transaction; an error rolls the whole
// batch back.
func (r *PostgresNotificationStore) Transact(fn func(notify.Store) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresNotificationStore{db: tx})
	})
}

func (r *PostgresNotificationStore) FindOpen(userID uint, t notify.Type, entityID uint, metaMatch string) (*models.Notification, error) {
	q := r.db.Where("user_id = ? AND type = ? AND entity_id = ? AND is_viewed = false", userID, string(t), entityID)
	if metaMatch != "" {
		q = q.Where("metadata = ?", metaMatch)
	}

	var notif models.Notification
	if err := q.First(&notif).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notif, nil
}

func (r *PostgresNotificationStore) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

func (r *PostgresNotificationStore) FindOrCreateAction(a *models.NotificationAction) (bool, error) {
	res := r.db.Where(models.NotificationAction{
		NotificationID:   a.NotificationID,
		ActionEntityType: a.ActionEntityType,
		ActionEntityID:   a.ActionEntityID,
	}).Attrs(models.NotificationAction{
		Blocknumber: a.Blocknumber,
		Slot:        a.Slot,
	}).FirstOrCreate(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresNotificationStore) UpdateTimestamp(notificationID uint, ts time.Time) error {
	return r.db.Model(&models.Notification{}).Where("id = ?", notificationID).Update("timestamp", ts).Error
}

func (r *PostgresNotificationStore) ListWithActions(userID uint, t notify.Type, entityID uint, unreadOnly bool) ([]notify.NotificationWithActions, error) {
	q := r.db.Where("user_id = ? AND type = ? AND entity_id = ?", userID, string(t), entityID)
	if unreadOnly {
		q = q.Where("is_read = false")
	}

	var notifs []models.Notification
	if err := q.Order("timestamp DESC").Find(&notifs).Error; err != nil {
		return nil, err
	}
	return r.attachActions(notifs)
}

func (r *PostgresNotificationStore) LatestWithActions(userID uint, t notify.Type, entityID uint) (*notify.NotificationWithActions, error) {
	var notif models.Notification
	err := r.db.Where("user_id = ? AND type = ? AND entity_id = ?", userID, string(t), entityID).
		Order("timestamp DESC").
		First(&notif).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	withActions, err := r.attachActions([]models.Notification{notif})
	if err != nil {
		return nil, err
	}
	return &withActions[0], nil
}

func (r *PostgresNotificationStore) Delete(notificationID uint) error {
	if err := r.db.Where("notification_id = ?", notificationID).Delete(&models.NotificationAction{}).Error; err != nil {
		return err
	}
	return r.db.Where("id = ?", notificationID).Delete(&models.Notification{}).Error
}

func (r *PostgresNotificationStore) DeleteCreateItemActions(itemID uint) error {
	createParents := r.db.Model(&models.Notification{}).
		Select("id").
		Where("type = ?", string(notify.TypeCreateDigitalContent))

	err := r.db.Where("action_entity_type = ? AND action_entity_id = ? AND notification_id IN (?)",
		string(notify.ActionDigitalContent), itemID, createParents).
		Delete(&models.NotificationAction{}).Error
	if err != nil {
		return err
	}

	// Drop create notifications left with no actions at all.
	remaining := r.db.Model(&models.NotificationAction{}).Select("notification_id")
	return r.db.Where("type = ? AND id NOT IN (?)", string(notify.TypeCreateDigitalContent), remaining).
		Delete(&models.Notification{}).Error
}

func (r *PostgresNotificationStore) Checkpoint(blocknumber, slot int64) error {
	var cp models.NotificationCheckpoint
	err := r.db.First(&cp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(&models.NotificationCheckpoint{Blocknumber: blocknumber, Slot: slot}).Error
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if blocknumber > cp.Blocknumber {
		updates["blocknumber"] = blocknumber
	}
	if slot > cp.Slot {
		updates["slot"] = slot
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&cp).Updates(updates).Error
}

func (r *PostgresNotificationStore) attachActions(notifs []models.Notification) ([]notify.NotificationWithActions, error) {
	out := make([]notify.NotificationWithActions, 0, len(notifs))
	for _, n := range notifs {
		var actions []models.NotificationAction
		if err := r.db.Where("notification_id = ?", n.ID).Order("id").Find(&actions).Error; err != nil {
			return nil, err
		}
		out = append(out, notify.NotificationWithActions{Notification: n, Actions: actions})
	}
	return out, nil
}
