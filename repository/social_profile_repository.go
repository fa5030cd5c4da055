// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/opsdash/opsdash/models"
	"github.com/opsdash/opsdash/utils"
	"gorm.io/gorm"
)

// SocialProfileRepositoryImpl implements SocialProfileRepository interface
type SocialProfileRepositoryImpl struct {
	*BaseRepository[models.SocialProfile, models.SocialProfileFilter]
}

// NewSocialProfileRepository creates a new social profile repository
func NewSocialProfileRepository(db *gorm.DB) SocialProfileRepository {
	return &SocialProfileRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SocialProfile, models.SocialProfileFilter](db),
	}
}

// ByID retrieves a profile by its ID
func (r *SocialProfileRepositoryImpl) ByID(ctx context.Context, id string) (*models.SocialProfile, error) {
	db := r.getDB(ctx)

	var profile models.SocialProfile
	err := db.Where("id = ?", id).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find profile by ID %s: %w", id, err)
	}

	return &profile, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *SocialProfileRepositoryImpl) applyFilter(query *gorm.DB, filter models.SocialProfileFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UserEmail != nil {
		query = query.Where("user_email = ?", *filter.UserEmail)
	}
	if filter.AdspowerID != nil {
		query = query.Where("adspower_id = ?", *filter.AdspowerID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves profiles based on filter criteria
func (r *SocialProfileRepositoryImpl) ByFilter(ctx context.Context, filter models.SocialProfileFilter, orderBy string, limit, offset int) ([]*models.SocialProfile, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SocialProfile{}), filter)

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

	var profiles []*models.SocialProfile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to find profiles by filter: %w", err)
	}
	return profiles, nil
}

// Count returns the number of profiles matching the filter
func (r *SocialProfileRepositoryImpl) Count(ctx context.Context, filter models.SocialProfileFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SocialProfile{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

// Exists checks if any profile matching the filter exists
func (r *SocialProfileRepositoryImpl) Exists(ctx context.Context, filter models.SocialProfileFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListActive retrieves active profiles with pagination
func (r *SocialProfileRepositoryImpl) ListActive(ctx context.Context, limit, offset int) ([]*models.SocialProfile, error) {
	isActive := true
	return r.ByFilter(ctx, models.SocialProfileFilter{Active: &isActive}, "created_at DESC", limit, offset)
}

// Update updates mutable fields for a profile by ID
func (r *SocialProfileRepositoryImpl) Update(ctx context.Context, profile *models.SocialProfile) error {
	if profile == nil {
		return errors.New("profile payload is nil")
	}
	if profile.ID == "" {
		return errors.New("profile ID is required for update")
	}

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

	updates := map[string]any{
		"adspower_id":   profile.AdspowerID,
		"name":          profile.Name,
		"gmail":         profile.Gmail,
		"proxy":         profile.Proxy,
		"facebook_url":  profile.FacebookURL,
		"reddit_url":    profile.RedditURL,
		"youtube_url":   profile.YoutubeURL,
		"instagram_url": profile.InstagramURL,
		"pinterest_url": profile.PinterestURL,
		"twitter_url":   profile.TwitterURL,
		"thread_url":    profile.ThreadURL,
		"updated_at":    utils.UTCNow(),
	}
	if profile.Active != nil {
		updates["active"] = *profile.Active
	}

	result := db.Model(&models.SocialProfile{}).
		Where("id = ?", profile.ID).
		Updates(updates)

	if result.Error != nil {
		err = result.Error
		return err
	}
	if result.RowsAffected == 0 {
		err = errors.New("profile not found with ID: " + profile.ID)
		return err
	}
	return nil
}

// Delete removes a profile row
func (r *SocialProfileRepositoryImpl) Delete(ctx context.Context, id string) error {
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

	err = db.Where("id = ?", id).Delete(&models.SocialProfile{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", id, err)
	}
	return nil
}
