package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is owned by the auth handlers; posts only reference ID and Username.
type User struct {
	ID          string    `json:"_id" bson:"_id" gorm:"primaryKey;size:24"`
	Username    string    `json:"username" bson:"username" gorm:"size:30;uniqueIndex;not null"`
	Email       string    `json:"email" bson:"email" gorm:"uniqueIndex;not null"`
	Password    string    `json:"-" bson:"password"` // bcrypt hash
	FirebaseUID string    `json:"firebaseUid,omitempty" bson:"firebase_uid,omitempty" gorm:"index"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// NormalizeEmail lower-cases and trims an email address before it is stored
// or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// Identity is the verified caller of a request, as extracted from its token.
type Identity struct {
	UserID   string
	Username string
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
