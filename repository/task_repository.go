package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/opsdash/opsdash/models"
	"github.com/opsdash/opsdash/utils"
	"gorm.io/gorm"
)

// TaskRepositoryImpl implements TaskRepository interface
type TaskRepositoryImpl struct {
	*BaseRepository[models.Task, models.TaskFilter]
}

// NewTaskRepository creates a new task repository. Batch inserts are chunked
// so a full regeneration stays within SQLite's bound-variable limit.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	base := NewBaseRepository[models.Task, models.TaskFilter](db)
	base.BatchSize = utils.TaskInsertChunkSize
	return &TaskRepositoryImpl{BaseRepository: base}
}

// ByID retrieves a task by its ID
func (r *TaskRepositoryImpl) ByID(ctx context.Context, id string) (*models.Task, error) {
	db := r.getDB(ctx)

	var task models.Task
	err := db.Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find task by ID %s: %w", id, err)
	}

	return &task, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *TaskRepositoryImpl) applyFilter(query *gorm.DB, filter models.TaskFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.ProfileID != nil {
		query = query.Where("profile_id = ?", *filter.ProfileID)
	}
	if filter.TaskType != nil {
		query = query.Where("task_type = ?", *filter.TaskType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.TargetGroupID != nil {
		query = query.Where("target_group_id = ?", *filter.TargetGroupID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves tasks based on filter criteria
func (r *TaskRepositoryImpl) ByFilter(ctx context.Context, filter models.TaskFilter, orderBy string, limit, offset int) ([]*models.Task, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Task{}), filter)

	if orderBy == "" {
		orderBy = "task_order ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var tasks []*models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to find tasks by filter: %w", err)
	}
	return tasks, nil
}

// Count returns the number of tasks matching the filter
func (r *TaskRepositoryImpl) Count(ctx context.Context, filter models.TaskFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Task{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// Exists checks if any task matching the filter exists
func (r *TaskRepositoryImpl) Exists(ctx context.Context, filter models.TaskFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeletePending removes every pending task across all profiles
func (r *TaskRepositoryImpl) DeletePending(ctx context.Context) error {
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

	err = db.Where("status = ?", models.TaskStatusPending).Delete(&models.Task{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete pending tasks: %w", err)
	}
	return nil
}

// DeletePendingByProfile removes the pending tasks of one profile and reports
// how many rows went away
func (r *TaskRepositoryImpl) DeletePendingByProfile(ctx context.Context, profileID string) (int64, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
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

	result := db.Where("profile_id = ? AND status = ?", profileID, models.TaskStatusPending).Delete(&models.Task{})
	if result.Error != nil {
		err = result.Error
		return 0, fmt.Errorf("failed to delete pending tasks for profile %s: %w", profileID, err)
	}
	return result.RowsAffected, nil
}

// DeleteByProfile removes every task a profile holds, pending or completed
func (r *TaskRepositoryImpl) DeleteByProfile(ctx context.Context, profileID string) error {
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

	err = db.Where("profile_id = ?", profileID).Delete(&models.Task{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete tasks for profile %s: %w", profileID, err)
	}
	return nil
}

// Complete marks a task completed and stamps the completion time
func (r *TaskRepositoryImpl) Complete(ctx context.Context, id string) error {
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

	result := db.Model(&models.Task{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       models.TaskStatusCompleted,
			"completed_at": utils.UTCNow(),
		})

	if result.Error != nil {
		err = result.Error
		return err
	}
	if result.RowsAffected == 0 {
		err = errors.New("task not found with ID: " + id)
		return err
	}
	return nil
}
