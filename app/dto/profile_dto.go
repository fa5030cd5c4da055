// Package dto contains Data Transfer Objects for API request and response structures
package dto

// CreateProfileRequest represents the request payload for creating a social profile
type CreateProfileRequest struct {
	AdspowerID   string `json:"adspower_id" validate:"required,min=1,max=64" example:"kxq2v8p"`
	Name         string `json:"name" validate:"required,min=1,max=255" example:"Jane Ops"`
	Gmail        string `json:"gmail" validate:"omitempty,email,max=255" example:"jane.ops@gmail.com"`
	Proxy        string `json:"proxy" validate:"omitempty,max=255" example:"socks5://10.0.0.1:1080"`
	FacebookURL  string `json:"facebook_url" validate:"omitempty,url,max=512" example:"https://facebook.com/jane.ops"`
	RedditURL    string `json:"reddit_url" validate:"omitempty,url,max=512"`
	YoutubeURL   string `json:"youtube_url" validate:"omitempty,url,max=512"`
	InstagramURL string `json:"instagram_url" validate:"omitempty,url,max=512"`
	PinterestURL string `json:"pinterest_url" validate:"omitempty,url,max=512"`
	TwitterURL   string `json:"twitter_url" validate:"omitempty,url,max=512"`
	ThreadURL    string `json:"thread_url" validate:"omitempty,url,max=512"`
	Active       *bool  `json:"active" validate:"omitempty" example:"true"`
}

// UpdateProfileRequest represents the request payload for updating a social profile
type UpdateProfileRequest struct {
	AdspowerID   string `json:"adspower_id" validate:"required,min=1,max=64"`
	Name         string `json:"name" validate:"required,min=1,max=255"`
	Gmail        string `json:"gmail" validate:"omitempty,email,max=255"`
	Proxy        string `json:"proxy" validate:"omitempty,max=255"`
	FacebookURL  string `json:"facebook_url" validate:"omitempty,url,max=512"`
	RedditURL    string `json:"reddit_url" validate:"omitempty,url,max=512"`
	YoutubeURL   string `json:"youtube_url" validate:"omitempty,url,max=512"`
	InstagramURL string `json:"instagram_url" validate:"omitempty,url,max=512"`
	PinterestURL string `json:"pinterest_url" validate:"omitempty,url,max=512"`
	TwitterURL   string `json:"twitter_url" validate:"omitempty,url,max=512"`
	ThreadURL    string `json:"thread_url" validate:"omitempty,url,max=512"`
	Active       *bool  `json:"active" validate:"omitempty"`
}

// ProfileDTO represents a social profile in API responses
type ProfileDTO struct {
	ID           string  `json:"id"`
	UserEmail    string  `json:"user_email"`
	AdspowerID   string  `json:"adspower_id"`
	Name         string  `json:"name"`
	Gmail        *string `json:"gmail,omitempty"`
	Proxy        *string `json:"proxy,omitempty"`
	FacebookURL  *string `json:"facebook_url,omitempty"`
	RedditURL    *string `json:"reddit_url,omitempty"`
	YoutubeURL   *string `json:"youtube_url,omitempty"`
	InstagramURL *string `json:"instagram_url,omitempty"`
	PinterestURL *string `json:"pinterest_url,omitempty"`
	TwitterURL   *string `json:"twitter_url,omitempty"`
	ThreadURL    *string `json:"thread_url,omitempty"`
	Active       *bool   `json:"active"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`

	Assignments []AssignmentDTO `json:"assignments,omitempty"`
}

// AssignmentDTO represents one group-role assignment of a profile
type AssignmentDTO struct {
	GroupID   uint   `json:"group_id" validate:"required" example:"3"`
	GroupName string `json:"group_name,omitempty"`
	Role      string `json:"role" validate:"required,oneof=admin engagement" example:"admin"`
}

// UpdateAssignmentsRequest replaces the full assignment set of a profile
type UpdateAssignmentsRequest struct {
	Assignments []AssignmentDTO `json:"assignments" validate:"dive"`
}

// ListProfilesResponse wraps a page of profiles
type ListProfilesResponse struct {
	Profiles   []ProfileDTO `json:"profiles"`
	Pagination Pagination   `json:"pagination"`
}
