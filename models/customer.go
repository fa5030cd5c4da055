// Package models contains domain entities and business models for the operations dashboard
package models

import (
	"time"
)

// Customer status constants. These are the literal display strings the
// dashboard stores; anything else is rejected at the API boundary.
const (
	CustomerStatusNegotiating   = "Potential Customer / negotiating"
	CustomerStatusPaidFewGroups = "Paid few groups"
	CustomerStatusPaidFull      = "Paid full groups"
)

type Customer struct {
	ID     string `gorm:"size:36;primaryKey" json:"id"`
	Name   string `gorm:"size:255;not null" json:"name"`
	Status string `gorm:"size:64;not null;index:idx_customers_status" json:"status"`

	FacebookProfileURL *string `gorm:"size:512" json:"facebook_profile_url,omitempty"`
	ContactProfile     *string `gorm:"size:512" json:"contact_profile,omitempty"`
	Email              *string `gorm:"size:255" json:"email,omitempty"`

	// GroupsPurchased holds the names of groups the customer paid for,
	// serialized as a JSON array in a text column.
	GroupsPurchased []string `gorm:"serializer:json;type:text" json:"groups_purchased"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_customers_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// CustomerFilter represents filter criteria for customer queries
type CustomerFilter struct {
	ID            *string
	Name          *string
	Status        *string
	Email         *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func IsValidCustomerStatus(status string) bool {
	switch status {
	case CustomerStatusNegotiating, CustomerStatusPaidFewGroups, CustomerStatusPaidFull:
		return true
	default:
		return false
	}
}
