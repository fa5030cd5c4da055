// Package models contains domain entities and business models for the operations dashboard
package models

import (
	"time"
)

type SocialProfile struct {
	ID         string `gorm:"size:36;primaryKey" json:"id"`
	UserEmail  string `gorm:"size:255;not null;index:idx_social_profiles_user_email" json:"user_email"`
	AdspowerID string `gorm:"size:64;not null" json:"adspower_id"`
	Name       string `gorm:"size:255;not null" json:"name"`

	// Optional identity/network fields; empty form inputs are stored as NULL
	Gmail        *string `gorm:"size:255" json:"gmail,omitempty"`
	Proxy        *string `gorm:"size:255" json:"proxy,omitempty"`
	FacebookURL  *string `gorm:"size:512" json:"facebook_url,omitempty"`
	RedditURL    *string `gorm:"size:512" json:"reddit_url,omitempty"`
	YoutubeURL   *string `gorm:"size:512" json:"youtube_url,omitempty"`
	InstagramURL *string `gorm:"size:512" json:"instagram_url,omitempty"`
	PinterestURL *string `gorm:"size:512" json:"pinterest_url,omitempty"`
	TwitterURL   *string `gorm:"size:512" json:"twitter_url,omitempty"`
	ThreadURL    *string `gorm:"size:512" json:"thread_url,omitempty"`

	Active *bool `gorm:"default:true;index:idx_social_profiles_active" json:"active"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Assignments []ProfileGroup `gorm:"foreignKey:ProfileID" json:"assignments,omitempty"`
	Tasks       []Task         `gorm:"foreignKey:ProfileID" json:"-"`
}

func (SocialProfile) TableName() string {
	return "social_profiles"
}

// SocialProfileFilter represents filter criteria for profile queries
type SocialProfileFilter struct {
	ID            *string
	UserEmail     *string
	AdspowerID    *string
	Name          *string
	Active        *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
