// Package models contains domain entities and business models for the operations dashboard
package models

// Group role constants
const (
	RoleAdmin      = "admin"
	RoleEngagement = "engagement"
)

// ProfileGroup assigns a profile to a Facebook group with a role. The
// composite primary key guarantees at most one role per profile per group.
type ProfileGroup struct {
	ProfileID string `gorm:"size:36;primaryKey" json:"profile_id"`
	GroupID   uint   `gorm:"primaryKey" json:"group_id"`
	Role      string `gorm:"size:20;not null;index:idx_profile_groups_role" json:"role"`

	Profile SocialProfile `gorm:"foreignKey:ProfileID;references:ID" json:"-"`
	Group   FacebookGroup `gorm:"foreignKey:GroupID;references:ID" json:"-"`
}

func (ProfileGroup) TableName() string {
	return "profile_groups"
}

// ProfileGroupFilter represents filter criteria for assignment queries
type ProfileGroupFilter struct {
	ProfileID *string
	GroupID   *uint
	Role      *string
}

func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEngagement
}
