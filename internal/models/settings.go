package models

import "time"

// NotificationSettings holds one user's per-category push preferences for a
// single device class ("mobile" or "browser"). A missing row means every
// category is enabled.
type NotificationSettings struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"index;uniqueIndex:idx_settings_user_device"`
	Device     string    `json:"device" gorm:"size:10;uniqueIndex:idx_settings_user_device"` // mobile, browser
	Followers  bool      `json:"followers" gorm:"default:true"`
	Reposts    bool      `json:"reposts" gorm:"default:true"`
	Favorites  bool      `json:"favorites" gorm:"default:true"`
	Remixes    bool      `json:"remixes" gorm:"default:true"`
	Milestones bool      `json:"milestones_and_achievements" gorm:"default:true"`
	Tips       bool      `json:"tips" gorm:"default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
