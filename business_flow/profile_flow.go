package businessflow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/opsdash/opsdash/app/dto"
	"github.com/opsdash/opsdash/app/services"
	"github.com/opsdash/opsdash/models"
	"github.com/opsdash/opsdash/repository"
	"github.com/opsdash/opsdash/utils"
	"gorm.io/gorm"
)

// Cache keys shared between the profile and group flows
const (
	RoleCountsCacheKey   = "group_role_counts"
	ProfileCountCacheKey = "profile_count"
)

// ProfileFlow handles social profile management and group role assignments
type ProfileFlow interface {
	ListProfiles(ctx context.Context, page, pageSize int) (*dto.ListProfilesResponse, error)
	GetProfile(ctx context.Context, id string) (*dto.ProfileDTO, error)
	CreateProfile(ctx context.Context, request *dto.CreateProfileRequest, operatorEmail string, metadata *ClientMetadata) (*dto.ProfileDTO, error)
	UpdateProfile(ctx context.Context, id string, request *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.ProfileDTO, error)
	DeleteProfile(ctx context.Context, id string, metadata *ClientMetadata) error
	GetAssignments(ctx context.Context, profileID string) ([]dto.AssignmentDTO, error)
	UpdateAssignments(ctx context.Context, profileID string, request *dto.UpdateAssignmentsRequest, metadata *ClientMetadata) ([]dto.AssignmentDTO, error)
}

// ProfileFlowImpl implements the profile business flow
type ProfileFlowImpl struct {
	profileRepo repository.SocialProfileRepository
	groupRepo   repository.FacebookGroupRepository
	pgRepo      repository.ProfileGroupRepository
	taskRepo    repository.TaskRepository
	cache       services.CacheService
	db          *gorm.DB
}

// NewProfileFlow creates a new profile flow instance
func NewProfileFlow(
	profileRepo repository.SocialProfileRepository,
	groupRepo repository.FacebookGroupRepository,
	pgRepo repository.ProfileGroupRepository,
	taskRepo repository.TaskRepository,
	cache services.CacheService,
	db *gorm.DB,
) ProfileFlow {
	return &ProfileFlowImpl{
		profileRepo: profileRepo,
		groupRepo:   groupRepo,
		pgRepo:      pgRepo,
		taskRepo:    taskRepo,
		cache:       cache,
		db:          db,
	}
}

// ListProfiles returns a page of profiles with their assignments attached
func (pf *ProfileFlowImpl) ListProfiles(ctx context.Context, page, pageSize int) (*dto.ListProfilesResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 100
	}

	total, err := pf.profileCount(ctx)
	if err != nil {
		return nil, NewBusinessError("LIST_PROFILES_FAILED", "Failed to count profiles", err)
	}

	profiles, err := pf.profileRepo.ByFilter(ctx, models.SocialProfileFilter{}, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_PROFILES_FAILED", "Failed to list profiles", err)
	}

	groupNames, err := pf.groupNames(ctx)
	if err != nil {
		return nil, NewBusinessError("LIST_PROFILES_FAILED", "Failed to load groups", err)
	}

	out := make([]dto.ProfileDTO, 0, len(profiles))
	for _, profile := range profiles {
		item := ToProfileDTO(*profile)

		assignments, err := pf.pgRepo.ListByProfile(ctx, profile.ID)
		if err != nil {
			return nil, NewBusinessError("LIST_PROFILES_FAILED", "Failed to load assignments", err)
		}
		item.Assignments = toAssignmentDTOs(assignments, groupNames)

		out = append(out, item)
	}

	return &dto.ListProfilesResponse{
		Profiles: out,
		Pagination: dto.Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}, nil
}

// GetProfile returns one profile with its assignments
func (pf *ProfileFlowImpl) GetProfile(ctx context.Context, id string) (*dto.ProfileDTO, error) {
	profile, err := pf.profileRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_PROFILE_FAILED", "Failed to load profile", err)
	}
	if profile == nil {
		return nil, NewBusinessError("PROFILE_NOT_FOUND", "Profile not found", ErrProfileNotFound)
	}

	item := ToProfileDTO(*profile)

	groupNames, err := pf.groupNames(ctx)
	if err != nil {
		return nil, NewBusinessError("GET_PROFILE_FAILED", "Failed to load groups", err)
	}

	assignments, err := pf.pgRepo.ListByProfile(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_PROFILE_FAILED", "Failed to load assignments", err)
	}
	item.Assignments = toAssignmentDTOs(assignments, groupNames)

	return &item, nil
}

// CreateProfile creates a new social profile owned by the calling operator
func (pf *ProfileFlowImpl) CreateProfile(ctx context.Context, request *dto.CreateProfileRequest, operatorEmail string, metadata *ClientMetadata) (*dto.ProfileDTO, error) {
	if operatorEmail == "" {
		return nil, NewBusinessError("CREATE_PROFILE_FAILED", "Create profile failed", ErrOperatorRequired)
	}

	active := true
	if request.Active != nil {
		active = *request.Active
	}

	profile := &models.SocialProfile{
		ID:           uuid.New().String(),
		UserEmail:    operatorEmail,
		AdspowerID:   request.AdspowerID,
		Name:         request.Name,
		Gmail:        utils.NilIfEmpty(&request.Gmail),
		Proxy:        utils.NilIfEmpty(&request.Proxy),
		FacebookURL:  utils.NilIfEmpty(&request.FacebookURL),
		RedditURL:    utils.NilIfEmpty(&request.RedditURL),
		YoutubeURL:   utils.NilIfEmpty(&request.YoutubeURL),
		InstagramURL: utils.NilIfEmpty(&request.InstagramURL),
		PinterestURL: utils.NilIfEmpty(&request.PinterestURL),
		TwitterURL:   utils.NilIfEmpty(&request.TwitterURL),
		ThreadURL:    utils.NilIfEmpty(&request.ThreadURL),
		Active:       &active,
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}

	if err := pf.profileRepo.Save(ctx, profile); err != nil {
		return nil, NewBusinessError("CREATE_PROFILE_FAILED", "Failed to save profile", err)
	}

	pf.invalidateCounts(ctx)

	item := ToProfileDTO(*profile)
	return &item, nil
}

// UpdateProfile updates an existing profile
func (pf *ProfileFlowImpl) UpdateProfile(ctx context.Context, id string, request *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.ProfileDTO, error) {
	existing, err := pf.profileRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("UPDATE_PROFILE_FAILED", "Failed to load profile", err)
	}
	if existing == nil {
		return nil, NewBusinessError("PROFILE_NOT_FOUND", "Profile not found", ErrProfileNotFound)
	}

	existing.AdspowerID = request.AdspowerID
	existing.Name = request.Name
	existing.Gmail = utils.NilIfEmpty(&request.Gmail)
	existing.Proxy = utils.NilIfEmpty(&request.Proxy)
	existing.FacebookURL = utils.NilIfEmpty(&request.FacebookURL)
	existing.RedditURL = utils.NilIfEmpty(&request.RedditURL)
	existing.YoutubeURL = utils.NilIfEmpty(&request.YoutubeURL)
	existing.InstagramURL = utils.NilIfEmpty(&request.InstagramURL)
	existing.PinterestURL = utils.NilIfEmpty(&request.PinterestURL)
	existing.TwitterURL = utils.NilIfEmpty(&request.TwitterURL)
	existing.ThreadURL = utils.NilIfEmpty(&request.ThreadURL)
	if request.Active != nil {
		existing.Active = request.Active
	}

	if err := pf.profileRepo.Update(ctx, existing); err != nil {
		return nil, NewBusinessError("UPDATE_PROFILE_FAILED", "Failed to update profile", err)
	}

	updated, err := pf.profileRepo.ByID(ctx, id)
	if err != nil || updated == nil {
		return nil, NewBusinessError("UPDATE_PROFILE_FAILED", "Failed to reload profile", err)
	}

	item := ToProfileDTO(*updated)
	return &item, nil
}

// DeleteProfile removes a profile together with its assignments and tasks
func (pf *ProfileFlowImpl) DeleteProfile(ctx context.Context, id string, metadata *ClientMetadata) error {
	existing, err := pf.profileRepo.ByID(ctx, id)
	if err != nil {
		return NewBusinessError("DELETE_PROFILE_FAILED", "Failed to load profile", err)
	}
	if existing == nil {
		return NewBusinessError("PROFILE_NOT_FOUND", "Profile not found", ErrProfileNotFound)
	}

	err = repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		if err := pf.taskRepo.DeleteByProfile(ctx, id); err != nil {
			return err
		}
		if err := pf.pgRepo.DeleteByProfile(ctx, id); err != nil {
			return err
		}
		return pf.profileRepo.Delete(ctx, id)
	})
	if err != nil {
		return NewBusinessError("DELETE_PROFILE_FAILED", "Failed to delete profile", err)
	}

	pf.invalidateCounts(ctx)
	return nil
}

// GetAssignments returns the group role assignments of a profile
func (pf *ProfileFlowImpl) GetAssignments(ctx context.Context, profileID string) ([]dto.AssignmentDTO, error) {
	existing, err := pf.profileRepo.ByID(ctx, profileID)
	if err != nil {
		return nil, NewBusinessError("GET_ASSIGNMENTS_FAILED", "Failed to load profile", err)
	}
	if existing == nil {
		return nil, NewBusinessError("PROFILE_NOT_FOUND", "Profile not found", ErrProfileNotFound)
	}

	groupNames, err := pf.groupNames(ctx)
	if err != nil {
		return nil, NewBusinessError("GET_ASSIGNMENTS_FAILED", "Failed to load groups", err)
	}

	assignments, err := pf.pgRepo.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, NewBusinessError("GET_ASSIGNMENTS_FAILED", "Failed to load assignments", err)
	}

	return toAssignmentDTOs(assignments, groupNames), nil
}

// UpdateAssignments replaces the full assignment set of a profile
func (pf *ProfileFlowImpl) UpdateAssignments(ctx context.Context, profileID string, request *dto.UpdateAssignmentsRequest, metadata *ClientMetadata) ([]dto.AssignmentDTO, error) {
	existing, err := pf.profileRepo.ByID(ctx, profileID)
	if err != nil {
		return nil, NewBusinessError("UPDATE_ASSIGNMENTS_FAILED", "Failed to load profile", err)
	}
	if existing == nil {
		return nil, NewBusinessError("PROFILE_NOT_FOUND", "Profile not found", ErrProfileNotFound)
	}

	if err := pf.validateAssignments(ctx, request.Assignments); err != nil {
		return nil, NewBusinessError("UPDATE_ASSIGNMENTS_FAILED", "Assignment validation failed", err)
	}

	rows := make([]*models.ProfileGroup, 0, len(request.Assignments))
	for _, a := range request.Assignments {
		rows = append(rows, &models.ProfileGroup{
			ProfileID: profileID,
			GroupID:   a.GroupID,
			Role:      a.Role,
		})
	}

	err = repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		return pf.pgRepo.ReplaceForProfile(ctx, profileID, rows)
	})
	if err != nil {
		return nil, NewBusinessError("UPDATE_ASSIGNMENTS_FAILED", "Failed to replace assignments", err)
	}

	pf.invalidateCounts(ctx)

	return pf.GetAssignments(ctx, profileID)
}

// Private helper methods

func (pf *ProfileFlowImpl) validateAssignments(ctx context.Context, assignments []dto.AssignmentDTO) error {
	seen := make(map[uint]bool, len(assignments))
	for _, a := range assignments {
		if !models.IsValidRole(a.Role) {
			return ErrInvalidRole
		}
		if seen[a.GroupID] {
			return fmt.Errorf("%w: group %d", ErrDuplicateGroupRole, a.GroupID)
		}
		seen[a.GroupID] = true

		group, err := pf.groupRepo.ByID(ctx, a.GroupID)
		if err != nil {
			return err
		}
		if group == nil {
			return fmt.Errorf("%w: group %d", ErrGroupNotFound, a.GroupID)
		}
	}
	return nil
}

func (pf *ProfileFlowImpl) groupNames(ctx context.Context) (map[uint]string, error) {
	groups, err := pf.groupRepo.ByFilter(ctx, models.FacebookGroupFilter{}, "", 0, 0)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}
	return names, nil
}

// profileCount serves the total from the cache when fresh and falls back to
// the database on a miss
func (pf *ProfileFlowImpl) profileCount(ctx context.Context) (int64, error) {
	if pf.cache != nil {
		if bs, err := pf.cache.Get(ctx, ProfileCountCacheKey); err == nil && len(bs) > 0 {
			if total, err := strconv.ParseInt(string(bs), 10, 64); err == nil {
				return total, nil
			}
		}
	}

	total, err := pf.profileRepo.Count(ctx, models.SocialProfileFilter{})
	if err != nil {
		return 0, err
	}

	if pf.cache != nil {
		_ = pf.cache.Set(ctx, ProfileCountCacheKey, []byte(strconv.FormatInt(total, 10)), 0)
	}

	return total, nil
}

func (pf *ProfileFlowImpl) invalidateCounts(ctx context.Context) {
	if pf.cache == nil {
		return
	}
	_ = pf.cache.Delete(ctx, RoleCountsCacheKey, ProfileCountCacheKey)
}

func toAssignmentDTOs(assignments []*models.ProfileGroup, groupNames map[uint]string) []dto.AssignmentDTO {
	out := make([]dto.AssignmentDTO, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, dto.AssignmentDTO{
			GroupID:   a.GroupID,
			GroupName: groupNames[a.GroupID],
			Role:      a.Role,
		})
	}
	return out
}
