package repositories

import (
	"github.com/wavelane/wavelane/backend/internal/models"
	"gorm.io/gorm"
)

// SubscriptionRepository defines the interface for subscription data operations
type SubscriptionRepository interface {
	Subscribe(subscriberID, userID uint) error
	Unsubscribe(subscriberID, userID uint) error
	Subscribers(userID uint) ([]uint, error)
	IsSubscribed(subscriberID, userID uint) (bool, error)
}

// PostgresSubscriptionRepository implements SubscriptionRepository for PostgreSQL
type PostgresSubscriptionRepository struct {
	db *gorm.DB
}

// NewPostgresSubscriptionRepository creates a new PostgresSubscriptionRepository
func NewPostgresSubscriptionRepository(db *gorm.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

func (r *PostgresSubscriptionRepository) Subscribe(subscriberID, userID uint) error {
	sub := models.Subscription{SubscriberID: subscriberID, UserID: userID}
	return r.db.Where(sub).FirstOrCreate(&sub).Error
}

func (r *PostgresSubscriptionRepository) Unsubscribe(subscriberID, userID uint) error {
	return r.db.Where("subscriber_id = ? AND user_id = ?", subscriberID, userID).
		Delete(&models.Subscription{}).Error
}

// Subscribers returns the ids of every user subscribed to userID's uploads.
func (r *PostgresSubscriptionRepository) Subscribers(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Subscription{}).Where("user_id = ?", userID).Pluck("subscriber_id", &ids).Error
	return ids, err
}

func (r *PostgresSubscriptionRepository) IsSubscribed(subscriberID, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Subscription{}).
		Where("subscriber_id = ? AND user_id = ?", subscriberID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
