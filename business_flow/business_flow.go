// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/opsdash/opsdash/app/dto"
	"github.com/opsdash/opsdash/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToProfileDTO converts a profile model to its API representation
func ToProfileDTO(profile models.SocialProfile) dto.ProfileDTO {
	return dto.ProfileDTO{
		ID:           profile.ID,
		UserEmail:    profile.UserEmail,
		AdspowerID:   profile.AdspowerID,
		Name:         profile.Name,
		Gmail:        profile.Gmail,
		Proxy:        profile.Proxy,
		FacebookURL:  profile.FacebookURL,
		RedditURL:    profile.RedditURL,
		YoutubeURL:   profile.YoutubeURL,
		InstagramURL: profile.InstagramURL,
		PinterestURL: profile.PinterestURL,
		TwitterURL:   profile.TwitterURL,
		ThreadURL:    profile.ThreadURL,
		Active:       profile.Active,
		CreatedAt:    profile.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    profile.UpdatedAt.Format(time.RFC3339),
	}
}

// ToTaskDTO converts a task model to its API representation
func ToTaskDTO(task models.Task) dto.TaskDTO {
	out := dto.TaskDTO{
		ID:            task.ID,
		ProfileID:     task.ProfileID,
		TaskType:      task.TaskType,
		Status:        task.Status,
		TargetGroupID: task.TargetGroupID,
		TargetURL:     task.TargetURL,
		Order:         task.TaskOrder,
		ActionCount:   task.ActionCount,
		CreatedAt:     task.CreatedAt.Format(time.RFC3339),
	}
	if task.CompletedAt != nil {
		completed := task.CompletedAt.Format(time.RFC3339)
		out.CompletedAt = &completed
	}
	return out
}

// ToCustomerDTO converts a customer model to its API representation
func ToCustomerDTO(customer models.Customer) dto.CustomerDTO {
	groups := customer.GroupsPurchased
	if groups == nil {
		groups = []string{}
	}
	return dto.CustomerDTO{
		ID:                 customer.ID,
		Name:               customer.Name,
		Status:             customer.Status,
		FacebookProfileURL: customer.FacebookProfileURL,
		ContactProfile:     customer.ContactProfile,
		Email:              customer.Email,
		GroupsPurchased:    groups,
		CreatedAt:          customer.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          customer.UpdatedAt.Format(time.RFC3339),
	}
}

// ToSessionDTO converts a session model to the token pair handed to the dashboard
func ToSessionDTO(session models.OperatorSession) dto.SessionDTO {
	out := dto.SessionDTO{
		AccessToken: session.SessionToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(session.ExpiresAt).Seconds()),
		CreatedAt:   session.CreatedAt.Format(time.RFC3339),
	}
	if session.RefreshToken != nil {
		out.RefreshToken = *session.RefreshToken
	}
	return out
}
