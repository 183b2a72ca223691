package repositories

import (
	"errors"

	"github.com/wavelane/wavelane/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the read-path operations for the HTTP
// surface: listing, unread counts and read/viewed state changes.
type NotificationRepository interface {
	GetByUserID(userID uint, page, limit int) ([]models.Notification, int64, error)
	GetActions(notificationID uint) ([]models.NotificationAction, error)
	GetUnreadCount(userID uint) (int64, error)
	MarkAsRead(userID, notificationID uint) error
	MarkAllAsRead(userID uint) error
	MarkAsViewed(userID, notificationID uint) error
	GetCheckpoint() (*models.NotificationCheckpoint, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) GetByUserID(userID uint, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	r.db.Model(&models.Notification{}).Where("user_id = ? AND is_hidden = false", userID).Count(&total)

	offset := (page - 1) * limit
	err := r.db.Where("user_id = ? AND is_hidden = false", userID).
		Order("timestamp DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) GetActions(notificationID uint) ([]models.NotificationAction, error) {
	var actions []models.NotificationAction
	err := r.db.Where("notification_id = ?", notificationID).Order("id").Find(&actions).Error
	return actions, err
}

func (r *postgresNotificationRepository) GetUnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false AND is_hidden = false", userID).
		Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAsRead(userID, notificationID uint) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("notification not found")
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(userID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Update("is_read", true).Error
}

// MarkAsViewed closes the notification for further action stacking: the next
// action on the same (user, type, entity) opens a fresh row.
func (r *postgresNotificationRepository) MarkAsViewed(userID, notificationID uint) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_viewed": true, "is_read": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("notification not found")
	}
	return nil
}

func (r *postgresNotificationRepository) GetCheckpoint() (*models.NotificationCheckpoint, error) {
	var cp models.NotificationCheckpoint
	if err := r.db.First(&cp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.NotificationCheckpoint{}, nil
		}
		return nil, err
	}
	return &cp, nil
}
