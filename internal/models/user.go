package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// User is the actor directory row. Actors are owned by the user-management
// service; the engagement core only reads them for existence and follow
// recipient resolution.
type User struct {
	gorm.Model  `json:"-"`
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name"`
	Email       string `json:"email" gorm:"uniqueIndex"`
	Role        string `json:"role" gorm:"size:20;default:'member'"` // member, admin
	FirebaseUID string `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
