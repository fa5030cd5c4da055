package businessflow

import (
	"context"
	"encoding/json"

	"github.com/opsdash/opsdash/app/dto"
	"github.com/opsdash/opsdash/app/services"
	"github.com/opsdash/opsdash/models"
	"github.com/opsdash/opsdash/repository"
	"github.com/opsdash/opsdash/utils"
	"gorm.io/gorm"
)

// defaultGroups is the fixed starter set inserted by the seeding endpoint
var defaultGroups = []models.FacebookGroup{
	{Name: "Digital Faceless Queens", URL: "https://www.facebook.com/groups/461037856544830"},
	{Name: "Women Learning to Lead in Business", URL: "https://www.facebook.com/groups/1114978673633491"},
	{Name: "Women Entrepreneurs & Digital Product Success", URL: "https://www.facebook.com/groups/9362107010471392"},
	{Name: "Digital Marketing / Digital Products Playground", URL: "https://www.facebook.com/groups/1727010741391730"},
	{Name: "Digital Marketing Promo Network", URL: "https://www.facebook.com/groups/527796609857325"},
	{Name: "WFH Moms & Online Hustles", URL: "https://www.facebook.com/groups/1138736687836465"},
	{Name: "Digital Marketing Girl Boss", URL: "https://www.facebook.com/groups/939906811424324"},
	{Name: "Millionaire Mompreneurs Hub", URL: "https://www.facebook.com/groups/1618269535741586"},
	{Name: "Women Entrepreneurs Success Circle", URL: "https://www.facebook.com/groups/614384310936686"},
	{Name: "Women Entrepreneurs in Online Business", URL: "https://www.facebook.com/groups/2063709847400243"},
	{Name: "Women Learning & Growing Together", URL: "https://www.facebook.com/groups/579039344984304"},
	{Name: "The Female Entrepreneur Collective", URL: "https://www.facebook.com/groups/2027722134369108"},
	{Name: "Stay At Home Moms in Business", URL: "https://www.facebook.com/groups/601637519223787"},
	{Name: "Digital Marketing For Growth", URL: "https://www.facebook.com/groups/1586819345309789"},
	{Name: "Digital Marketing - ImpGrowth", URL: "https://www.facebook.com/groups/1146686613679308"},
}

// GroupFlow handles Facebook group management
type GroupFlow interface {
	ListGroups(ctx context.Context) (*dto.ListGroupsResponse, error)
	AddGroup(ctx context.Context, request *dto.CreateGroupRequest, metadata *ClientMetadata) (*dto.GroupDTO, error)
	SeedGroups(ctx context.Context, operatorEmail string, metadata *ClientMetadata) (*dto.SeedGroupsResponse, error)
}

// GroupFlowImpl implements the group business flow
type GroupFlowImpl struct {
	groupRepo repository.FacebookGroupRepository
	pgRepo    repository.ProfileGroupRepository
	auditRepo repository.AuditLogRepository
	cache     services.CacheService
	db        *gorm.DB
}

// NewGroupFlow creates a new group flow instance
func NewGroupFlow(
	groupRepo repository.FacebookGroupRepository,
	pgRepo repository.ProfileGroupRepository,
	auditRepo repository.AuditLogRepository,
	cache services.CacheService,
	db *gorm.DB,
) GroupFlow {
	return &GroupFlowImpl{
		groupRepo: groupRepo,
		pgRepo:    pgRepo,
		auditRepo: auditRepo,
		cache:     cache,
		db:        db,
	}
}

// ListGroups returns all groups with their per-role assignment counts
func (gf *GroupFlowImpl) ListGroups(ctx context.Context) (*dto.ListGroupsResponse, error) {
	groups, err := gf.groupRepo.ByFilter(ctx, models.FacebookGroupFilter{}, "id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_GROUPS_FAILED", "Failed to list groups", err)
	}

	counts, err := gf.roleCounts(ctx)
	if err != nil {
		return nil, NewBusinessError("LIST_GROUPS_FAILED", "Failed to tally role counts", err)
	}

	out := make([]dto.GroupDTO, 0, len(groups))
	for _, g := range groups {
		item := dto.GroupDTO{
			ID:   g.ID,
			Name: g.Name,
			URL:  g.URL,
		}
		for _, c := range counts {
			if c.GroupID != g.ID {
				continue
			}
			switch c.Role {
			case models.RoleAdmin:
				item.AdminCount = c.Count
			case models.RoleEngagement:
				item.EngagementCount = c.Count
			}
		}
		out = append(out, item)
	}

	return &dto.ListGroupsResponse{Groups: out}, nil
}

// AddGroup registers a new Facebook group
func (gf *GroupFlowImpl) AddGroup(ctx context.Context, request *dto.CreateGroupRequest, metadata *ClientMetadata) (*dto.GroupDTO, error) {
	existing, err := gf.groupRepo.ByURL(ctx, request.URL)
	if err != nil {
		return nil, NewBusinessError("ADD_GROUP_FAILED", "Failed to check group URL", err)
	}
	if existing != nil {
		return nil, NewBusinessError("GROUP_URL_EXISTS", "Group URL already exists", ErrGroupURLExists)
	}

	group := &models.FacebookGroup{
		Name: request.Name,
		URL:  request.URL,
	}
	if err := gf.groupRepo.Save(ctx, group); err != nil {
		return nil, NewBusinessError("ADD_GROUP_FAILED", "Failed to save group", err)
	}

	return &dto.GroupDTO{
		ID:   group.ID,
		Name: group.Name,
		URL:  group.URL,
	}, nil
}

// SeedGroups inserts the starter group set. The call is a no-op when any
// group row already exists, so re-running it is safe.
func (gf *GroupFlowImpl) SeedGroups(ctx context.Context, operatorEmail string, metadata *ClientMetadata) (*dto.SeedGroupsResponse, error) {
	var created int

	err := repository.WithTransaction(ctx, gf.db, func(ctx context.Context) error {
		count, err := gf.groupRepo.Count(ctx, models.FacebookGroupFilter{})
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		rows := make([]*models.FacebookGroup, 0, len(defaultGroups))
		for i := range defaultGroups {
			g := defaultGroups[i]
			rows = append(rows, &g)
		}
		if err := gf.groupRepo.SaveBatch(ctx, rows); err != nil {
			return err
		}
		created = len(rows)
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("SEED_GROUPS_FAILED", "Failed to seed groups", err)
	}

	if created > 0 {
		gf.logSeeded(ctx, operatorEmail, created, metadata)
	}

	return &dto.SeedGroupsResponse{
		Seeded:  created > 0,
		Created: created,
	}, nil
}

// Private helper methods

// roleCounts serves the tallies from the cache when fresh and falls back to
// the database on a miss
func (gf *GroupFlowImpl) roleCounts(ctx context.Context) ([]repository.GroupRoleCount, error) {
	if gf.cache != nil {
		if bs, err := gf.cache.Get(ctx, RoleCountsCacheKey); err == nil && len(bs) > 0 {
			var cached []repository.GroupRoleCount
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	counts, err := gf.pgRepo.ListRoleCounts(ctx)
	if err != nil {
		return nil, err
	}

	if gf.cache != nil {
		if bs, err := json.Marshal(counts); err == nil {
			_ = gf.cache.Set(ctx, RoleCountsCacheKey, bs, 0)
		}
	}

	return counts, nil
}

func (gf *GroupFlowImpl) logSeeded(ctx context.Context, operatorEmail string, created int, metadata *ClientMetadata) {
	description := "Seeded starter Facebook groups"
	audit := &models.AuditLog{
		Action:      models.AuditActionGroupsSeeded,
		Description: &description,
		Success:     utils.ToPtr(true),
	}
	if operatorEmail != "" {
		audit.OperatorEmail = &operatorEmail
	}
	if metadata != nil {
		audit.IPAddress = utils.NilIfEmpty(&metadata.IPAddress)
		if metadata.RequestID != "" {
			audit.RequestID = &metadata.RequestID
		}
	}
	if bs, err := json.Marshal(map[string]int{"created": created}); err == nil {
		audit.Metadata = bs
	}
	_ = gf.auditRepo.Save(ctx, audit)
}
