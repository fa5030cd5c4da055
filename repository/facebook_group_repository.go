package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/opsdash/opsdash/models"
	"gorm.io/gorm"
)

// FacebookGroupRepositoryImpl implements FacebookGroupRepository interface
type FacebookGroupRepositoryImpl struct {
	*BaseRepository[models.FacebookGroup, models.FacebookGroupFilter]
}

// NewFacebookGroupRepository creates a new Facebook group repository
func NewFacebookGroupRepository(db *gorm.DB) FacebookGroupRepository {
	return &FacebookGroupRepositoryImpl{
		BaseRepository: NewBaseRepository[models.FacebookGroup, models.FacebookGroupFilter](db),
	}
}

// ByID retrieves a group by its ID
func (r *FacebookGroupRepositoryImpl) ByID(ctx context.Context, id uint) (*models.FacebookGroup, error) {
	db := r.getDB(ctx)

	var group models.FacebookGroup
	err := db.Where("id = ?", id).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find group by ID %d: %w", id, err)
	}

	return &group, nil
}

// ByURL retrieves a group by its unique URL
func (r *FacebookGroupRepositoryImpl) ByURL(ctx context.Context, url string) (*models.FacebookGroup, error) {
	db := r.getDB(ctx)

	var group models.FacebookGroup
	err := db.Where("url = ?", url).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find group by URL: %w", err)
	}

	return &group, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *FacebookGroupRepositoryImpl) applyFilter(query *gorm.DB, filter models.FacebookGroupFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.URL != nil {
		query = query.Where("url = ?", *filter.URL)
	}
	return query
}

// ByFilter retrieves groups based on filter criteria
func (r *FacebookGroupRepositoryImpl) ByFilter(ctx context.Context, filter models.FacebookGroupFilter, orderBy string, limit, offset int) ([]*models.FacebookGroup, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.FacebookGroup{}), filter)

	if orderBy == "" {
		orderBy = "id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var groups []*models.FacebookGroup
	if err := query.Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to find groups by filter: %w", err)
	}
	return groups, nil
}

// Count returns the number of groups matching the filter
func (r *FacebookGroupRepositoryImpl) Count(ctx context.Context, filter models.FacebookGroupFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.FacebookGroup{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count groups: %w", err)
	}
	return count, nil
}

// Exists checks if any group matching the filter exists
func (r *FacebookGroupRepositoryImpl) Exists(ctx context.Context, filter models.FacebookGroupFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
