// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/opsdash/opsdash/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// SocialProfileRepository defines operations for social profiles
type SocialProfileRepository interface {
	Repository[models.SocialProfile, models.SocialProfileFilter]
	ByID(ctx context.Context, id string) (*models.SocialProfile, error)
	ListActive(ctx context.Context, limit, offset int) ([]*models.SocialProfile, error)
	Update(ctx context.Context, profile *models.SocialProfile) error
	Delete(ctx context.Context, id string) error
}

// FacebookGroupRepository defines operations for Facebook groups
type FacebookGroupRepository interface {
	Repository[models.FacebookGroup, models.FacebookGroupFilter]
	ByID(ctx context.Context, id uint) (*models.FacebookGroup, error)
	ByURL(ctx context.Context, url string) (*models.FacebookGroup, error)
}

// GroupRoleCount is one row of the per-group role tally used by the groups
// listing.
type GroupRoleCount struct {
	GroupID uint
	Role    string
	Count   int64
}

// ProfileGroupRepository defines operations for profile-group role assignments
type ProfileGroupRepository interface {
	Repository[models.ProfileGroup, models.ProfileGroupFilter]
	ListByProfile(ctx context.Context, profileID string) ([]*models.ProfileGroup, error)
	ReplaceForProfile(ctx context.Context, profileID string, assignments []*models.ProfileGroup) error
	DeleteByProfile(ctx context.Context, profileID string) error
	ListForActiveProfiles(ctx context.Context) ([]*models.ProfileGroup, error)
	ListRoleCounts(ctx context.Context) ([]GroupRoleCount, error)
}

// TaskRepository defines operations for tasks
type TaskRepository interface {
	Repository[models.Task, models.TaskFilter]
	ByID(ctx context.Context, id string) (*models.Task, error)
	DeletePending(ctx context.Context) error
	DeletePendingByProfile(ctx context.Context, profileID string) (int64, error)
	DeleteByProfile(ctx context.Context, profileID string) error
	Complete(ctx context.Context, id string) error
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByID(ctx context.Context, id string) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id string) error
}

// OperatorSessionRepository defines operations for operator sessions
type OperatorSessionRepository interface {
	Repository[models.OperatorSession, models.OperatorSessionFilter]
	BySessionToken(ctx context.Context, token string) (*models.OperatorSession, error)
	ByRefreshToken(ctx context.Context, token string) (*models.OperatorSession, error)
	Revoke(ctx context.Context, sessionID uint) error
	Touch(ctx context.Context, sessionID uint) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}
