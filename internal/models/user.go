package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// User is the minimal account record this service keeps. Display metadata
// (handles, artwork) lives on the discovery layer and is fetched on demand.
type User struct {
	gorm.Model  `json:"-"`
	Handle      string `json:"handle" gorm:"uniqueIndex"`
	Email       string `json:"email" gorm:"uniqueIndex"`
	FirebaseUID string `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
