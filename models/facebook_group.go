// Package models contains domain entities and business models for the operations dashboard
package models

type FacebookGroup struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
	URL  string `gorm:"size:512;not null;uniqueIndex:uk_facebook_groups_url" json:"url"`

	// Relations
	Assignments []ProfileGroup `gorm:"foreignKey:GroupID" json:"-"`
}

func (FacebookGroup) TableName() string {
	return "facebook_groups"
}

// FacebookGroupFilter represents filter criteria for group queries
type FacebookGroupFilter struct {
	ID   *uint
	Name *string
	URL  *string
}
