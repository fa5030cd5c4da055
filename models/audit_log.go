// Package models contains domain entities and business models for the operations dashboard
package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OperatorEmail *string         `gorm:"size:255;index:idx_audit_operator_email" json:"operator_email,omitempty"`
	Action        string          `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description   *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress     *string         `gorm:"size:64" json:"ip_address,omitempty"`
	RequestID     *string         `gorm:"size:255" json:"request_id,omitempty"`
	Metadata      json.RawMessage `gorm:"type:text" json:"metadata,omitempty"`
	Success       *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage  *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt     time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionLoginSuccess   = "login_success"
	AuditActionLoginDenied    = "login_denied"
	AuditActionLogout         = "logout"
	AuditActionTasksGenerated = "tasks_generated"
	AuditActionGroupsSeeded   = "groups_seeded"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	OperatorEmail *string
	Action        *string
	Success       *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
