package repository

import (
	"context"
	"fmt"

	"github.com/opsdash/opsdash/models"
	"gorm.io/gorm"
)

// ProfileGroupRepositoryImpl implements ProfileGroupRepository interface
type ProfileGroupRepositoryImpl struct {
	*BaseRepository[models.ProfileGroup, models.ProfileGroupFilter]
}

// NewProfileGroupRepository creates a new profile-group assignment repository
func NewProfileGroupRepository(db *gorm.DB) ProfileGroupRepository {
	return &ProfileGroupRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ProfileGroup, models.ProfileGroupFilter](db),
	}
}

// applyFilter applies filter criteria to a GORM query
func (r *ProfileGroupRepositoryImpl) applyFilter(query *gorm.DB, filter models.ProfileGroupFilter) *gorm.DB {
	if filter.ProfileID != nil {
		query = query.Where("profile_id = ?", *filter.ProfileID)
	}
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	return query
}

// ByFilter retrieves assignments based on filter criteria
func (r *ProfileGroupRepositoryImpl) ByFilter(ctx context.Context, filter models.ProfileGroupFilter, orderBy string, limit, offset int) ([]*models.ProfileGroup, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ProfileGroup{}), filter)

	if orderBy == "" {
		orderBy = "group_id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var assignments []*models.ProfileGroup
	if err := query.Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to find assignments by filter: %w", err)
	}
	return assignments, nil
}

// Count returns the number of assignments matching the filter
func (r *ProfileGroupRepositoryImpl) Count(ctx context.Context, filter models.ProfileGroupFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ProfileGroup{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return count, nil
}

// Exists checks if any assignment matching the filter exists
func (r *ProfileGroupRepositoryImpl) Exists(ctx context.Context, filter models.ProfileGroupFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByProfile retrieves all assignments for one profile
func (r *ProfileGroupRepositoryImpl) ListByProfile(ctx context.Context, profileID string) ([]*models.ProfileGroup, error) {
	return r.ByFilter(ctx, models.ProfileGroupFilter{ProfileID: &profileID}, "group_id ASC", 0, 0)
}

// ReplaceForProfile swaps the full assignment set of a profile. Callers run
// this inside WithTransaction so the delete and the insert land together.
func (r *ProfileGroupRepositoryImpl) ReplaceForProfile(ctx context.Context, profileID string, assignments []*models.ProfileGroup) error {
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

	err = db.Where("profile_id = ?", profileID).Delete(&models.ProfileGroup{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear assignments for profile %s: %w", profileID, err)
	}

	if len(assignments) > 0 {
		err = db.Create(&assignments).Error
		if err != nil {
			return fmt.Errorf("failed to insert assignments for profile %s: %w", profileID, err)
		}
	}
	return nil
}

// DeleteByProfile removes every assignment a profile holds
func (r *ProfileGroupRepositoryImpl) DeleteByProfile(ctx context.Context, profileID string) error {
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

	err = db.Where("profile_id = ?", profileID).Delete(&models.ProfileGroup{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete assignments for profile %s: %w", profileID, err)
	}
	return nil
}

// ListForActiveProfiles retrieves assignments belonging to active profiles
// only, which is the input set of the task generation routine.
func (r *ProfileGroupRepositoryImpl) ListForActiveProfiles(ctx context.Context) ([]*models.ProfileGroup, error) {
	db := r.getDB(ctx)

	var assignments []*models.ProfileGroup
	err := db.Model(&models.ProfileGroup{}).
		Joins("JOIN social_profiles ON social_profiles.id = profile_groups.profile_id").
		Where("social_profiles.active = ?", true).
		Order("profile_groups.profile_id ASC, profile_groups.group_id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for active profiles: %w", err)
	}
	return assignments, nil
}

// ListRoleCounts tallies assignments per group and role
func (r *ProfileGroupRepositoryImpl) ListRoleCounts(ctx context.Context) ([]GroupRoleCount, error) {
	db := r.getDB(ctx)

	var counts []GroupRoleCount
	err := db.Model(&models.ProfileGroup{}).
		Select("group_id, role, COUNT(*) AS count").
		Group("group_id, role").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to tally group role counts: %w", err)
	}
	return counts, nil
}
