package repositories

import (
	"context"
	"errors"

	"github.com/wavelane/wavelane/backend/internal/models"
	"github.com/wavelane/wavelane/backend/internal/notify"
	"gorm.io/gorm"
)

// SettingsRepository reads and writes per-user push preferences. It is the
// pipeline's notify.PreferenceSource.
type SettingsRepository interface {
	ShouldNotify(ctx context.Context, userID uint, key string) (notify.DeviceTypes, error)
	Upsert(settings *models.NotificationSettings) error
	GetByUserID(userID uint) ([]models.NotificationSettings, error)
}

type postgresSettingsRepository struct {
	db *gorm.DB
}

func NewPostgresSettingsRepository(db *gorm.DB) SettingsRepository {
	return &postgresSettingsRepository{db: db}
}

// ShouldNotify reports which device classes want a push for the preference
// key. A user with no settings row for a device class gets every category
// enabled on it.
func (r *postgresSettingsRepository) ShouldNotify(ctx context.Context, userID uint, key string) (notify.DeviceTypes, error) {
	var rows []models.NotificationSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error
	if err != nil {
		return notify.DeviceTypes{}, err
	}

	devices := notify.DeviceTypes{Mobile: true, Browser: true}
	for _, row := range rows {
		enabled, err := categoryEnabled(row, key)
		if err != nil {
			return notify.DeviceTypes{}, err
		}
		switch row.Device {
		case "mobile":
			devices.Mobile = enabled
		case "browser":
			devices.Browser = enabled
		}
	}
	return devices, nil
}

func (r *postgresSettingsRepository) Upsert(settings *models.NotificationSettings) error {
	existing := models.NotificationSettings{}
	err := r.db.Where("user_id = ? AND device = ?", settings.UserID, settings.Device).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(settings).Error
	}
	if err != nil {
		return err
	}
	settings.ID = existing.ID
	return r.db.Save(settings).Error
}

func (r *postgresSettingsRepository) GetByUserID(userID uint) ([]models.NotificationSettings, error) {
	var rows []models.NotificationSettings
	err := r.db.Where("user_id = ?", userID).Find(&rows).Error
	return rows, err
}

func categoryEnabled(row models.NotificationSettings, key string) (bool, error) {
	switch key {
	case notify.PrefFollowers:
		return row.Followers, nil
	case notify.PrefReposts:
		return row.Reposts, nil
	case notify.PrefFavorites:
		return row.Favorites, nil
	case notify.PrefRemixes:
		return row.Remixes, nil
	case notify.PrefMilestones:
		return row.Milestones, nil
	case notify.PrefTips:
		return row.Tips, nil
	}
	return false, errors.New("unknown notification preference key: " + key)
}
