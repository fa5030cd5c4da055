// Package models contains domain entities and business models for the operations dashboard
package models

import (
	"time"

	"github.com/opsdash/opsdash/utils"
)

// OperatorSession tracks a signed-in dashboard operator. Operators are not a
// table of their own: identity comes from the OAuth provider and authorization
// from the configured allow-list, so only the session is persisted.
type OperatorSession struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	OperatorEmail string  `gorm:"size:255;not null;index:idx_operator_sessions_email" json:"operator_email"`
	SessionToken  string  `gorm:"size:512;not null;uniqueIndex:uk_operator_sessions_session_token" json:"-"`
	RefreshToken  *string `gorm:"size:512;uniqueIndex:uk_operator_sessions_refresh_token" json:"-"`

	IPAddress *string `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent *string `gorm:"type:text" json:"user_agent,omitempty"`

	IsActive *bool `gorm:"default:true;index:idx_operator_sessions_is_active" json:"is_active"`

	CreatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	LastAccessedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"last_accessed_at"`
	ExpiresAt      time.Time `gorm:"not null;index:idx_operator_sessions_expires_at" json:"expires_at"`
}

func (OperatorSession) TableName() string {
	return "operator_sessions"
}

// OperatorSessionFilter represents filter criteria for session queries
type OperatorSessionFilter struct {
	ID            *uint
	OperatorEmail *string
	IsActive      *bool
	ExpiresAfter  *time.Time
	ExpiresBefore *time.Time
}

func (s *OperatorSession) IsExpired() bool {
	return utils.UTCNow().After(s.ExpiresAt)
}

func (s *OperatorSession) IsValid() bool {
	return utils.IsTrue(s.IsActive) && !s.IsExpired()
}
