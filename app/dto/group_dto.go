package dto

// CreateGroupRequest represents the request payload for registering a Facebook group
type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255" example:"Dog Lovers Daily"`
	URL  string `json:"url" validate:"required,url,max=512" example:"https://www.facebook.com/groups/doglovers"`
}

// GroupDTO represents a Facebook group with its per-role assignment tallies
type GroupDTO struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	URL             string `json:"url"`
	AdminCount      int64  `json:"admin_count"`
	EngagementCount int64  `json:"engagement_count"`
}

// ListGroupsResponse wraps the full group list
type ListGroupsResponse struct {
	Groups []GroupDTO `json:"groups"`
}

// SeedGroupsResponse reports how the seeding call ended
type SeedGroupsResponse struct {
	Seeded  bool `json:"seeded"`
	Created int  `json:"created"`
}
