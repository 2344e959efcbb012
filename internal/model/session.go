package model

import (
	"time"
)

// Session records a successful login: the signed token that was issued and
// when it expires.
type Session struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Token     string    `json:"-" gorm:"type:text"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired checks if the session is expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Login log outcome reasons
const (
	LoginReasonOK              = "ok"
	LoginReasonUserNotFound    = "user not found"
	LoginReasonAccountLocked   = "account locked"
	LoginReasonAccountInactive = "account inactive"
	LoginReasonInvalidPassword = "invalid password"
)

// LoginLog records the outcome of one login attempt. Failed attempts carry a
// reason and no session.
type LoginLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(100);index"`
	UserID    *uint     `json:"user_id,omitempty" gorm:"index"`
	Success   bool      `json:"success"`
	Reason    string    `json:"reason" gorm:"type:varchar(50)"`
	IP        string    `json:"ip" gorm:"type:varchar(45)"`
	CreatedAt time.Time `json:"created_at"`
}
