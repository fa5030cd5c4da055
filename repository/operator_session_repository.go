package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/opsdash/opsdash/models"
	"github.com/opsdash/opsdash/utils"
	"gorm.io/gorm"
)

// OperatorSessionRepositoryImpl implements OperatorSessionRepository interface
type OperatorSessionRepositoryImpl struct {
	*BaseRepository[models.OperatorSession, models.OperatorSessionFilter]
}

// NewOperatorSessionRepository creates a new operator session repository
func NewOperatorSessionRepository(db *gorm.DB) OperatorSessionRepository {
	return &OperatorSessionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.OperatorSession, models.OperatorSessionFilter](db),
	}
}

// BySessionToken retrieves a session by its access token
func (r *OperatorSessionRepositoryImpl) BySessionToken(ctx context.Context, token string) (*models.OperatorSession, error) {
	db := r.getDB(ctx)

	var session models.OperatorSession
	err := db.Where("session_token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by token: %w", err)
	}

	return &session, nil
}

// ByRefreshToken retrieves a session by its refresh token
func (r *OperatorSessionRepositoryImpl) ByRefreshToken(ctx context.Context, token string) (*models.OperatorSession, error) {
	db := r.getDB(ctx)

	var session models.OperatorSession
	err := db.Where("refresh_token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by refresh token: %w", err)
	}

	return &session, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *OperatorSessionRepositoryImpl) applyFilter(query *gorm.DB, filter models.OperatorSessionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.OperatorEmail != nil {
		query = query.Where("operator_email = ?", *filter.OperatorEmail)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.ExpiresAfter != nil {
		query = query.Where("expires_at > ?", *filter.ExpiresAfter)
	}
	if filter.ExpiresBefore != nil {
		query = query.Where("expires_at < ?", *filter.ExpiresBefore)
	}
	return query
}

// ByFilter retrieves sessions based on filter criteria
func (r *OperatorSessionRepositoryImpl) ByFilter(ctx context.Context, filter models.OperatorSessionFilter, orderBy string, limit, offset int) ([]*models.OperatorSession, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.OperatorSession{}), filter)

	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var sessions []*models.OperatorSession
	if err := query.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to find sessions by filter: %w", err)
	}
	return sessions, nil
}

// Count returns the number of sessions matching the filter
func (r *OperatorSessionRepositoryImpl) Count(ctx context.Context, filter models.OperatorSessionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.OperatorSession{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// Exists checks if any session matching the filter exists
func (r *OperatorSessionRepositoryImpl) Exists(ctx context.Context, filter models.OperatorSessionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Revoke deactivates a session so its tokens stop working
func (r *OperatorSessionRepositoryImpl) Revoke(ctx context.Context, sessionID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	result := db.Model(&models.OperatorSession{}).
		Where("id = ?", sessionID).
		Update("is_active", false)

	if result.Error != nil {
		err = result.Error
		return err
	}
	if result.RowsAffected == 0 {
		err = fmt.Errorf("session not found with ID: %d", sessionID)
		return err
	}
	return nil
}

// Touch bumps the last-accessed timestamp of a session
func (r *OperatorSessionRepositoryImpl) Touch(ctx context.Context, sessionID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.OperatorSession{}).
		Where("id = ?", sessionID).
		Update("last_accessed_at", utils.UTCNow()).Error
	if err != nil {
		return fmt.Errorf("failed to touch session %d: %w", sessionID, err)
	}
	return nil
}
