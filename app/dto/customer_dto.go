package dto

// CreateCustomerRequest represents the request payload for creating a customer
type CreateCustomerRequest struct {
	Name               string   `json:"name" validate:"required,min=1,max=255" example:"Acme Pets"`
	Status             string   `json:"status" validate:"required" example:"Paid few groups"`
	FacebookProfileURL string   `json:"facebook_profile_url" validate:"omitempty,url,max=512"`
	ContactProfile     string   `json:"contact_profile" validate:"omitempty,max=512"`
	Email              string   `json:"email" validate:"omitempty,email,max=255"`
	GroupsPurchased    []string `json:"groups_purchased" validate:"omitempty,dive,min=1,max=255"`
}

// UpdateCustomerRequest represents the request payload for updating a customer
type UpdateCustomerRequest struct {
	Name               string   `json:"name" validate:"required,min=1,max=255"`
	Status             string   `json:"status" validate:"required"`
	FacebookProfileURL string   `json:"facebook_profile_url" validate:"omitempty,url,max=512"`
	ContactProfile     string   `json:"contact_profile" validate:"omitempty,max=512"`
	Email              string   `json:"email" validate:"omitempty,email,max=255"`
	GroupsPurchased    []string `json:"groups_purchased" validate:"omitempty,dive,min=1,max=255"`
}

// CustomerDTO represents a customer in API responses
type CustomerDTO struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Status             string   `json:"status"`
	FacebookProfileURL *string  `json:"facebook_profile_url,omitempty"`
	ContactProfile     *string  `json:"contact_profile,omitempty"`
	Email              *string  `json:"email,omitempty"`
	GroupsPurchased    []string `json:"groups_purchased"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

// ListCustomersRequest carries the query filters of the customer listing endpoint
type ListCustomersRequest struct {
	Status   string `query:"status" validate:"omitempty"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=500"`
}

// ListCustomersResponse wraps a page of customers
type ListCustomersResponse struct {
	Customers  []CustomerDTO `json:"customers"`
	Pagination Pagination    `json:"pagination"`
}
