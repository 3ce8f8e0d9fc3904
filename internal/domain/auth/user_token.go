package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pawclinic-backend/internal/domain/user"
)

// UserToken is one login session: a signed access token and the opaque
// refresh token that can rotate it. Rows are deleted, never soft deleted, on
// logout, rotation and expiry.
type UserToken struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	User         *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	AccessToken  string     `gorm:"uniqueIndex;not null" json:"-"`
	RefreshToken string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt    time.Time  `gorm:"index;not null" json:"expires_at"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
}

func (UserToken) TableName() string { return "user_token" }

// Expired reports whether the refresh window has closed at now.
func (t *UserToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
