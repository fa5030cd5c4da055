package dto

// GoogleLoginRequest carries the Google ID token obtained by the dashboard frontend
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required,min=16" example:"eyJhbGciOiJSUzI1NiIs..."`
}

// RefreshTokenRequest exchanges a refresh token for a fresh session
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,min=16"`
}

// OperatorDTO represents the signed-in operator in login responses
type OperatorDTO struct {
	Email   string `json:"email" example:"operator@example.com"`
	Name    string `json:"name,omitempty" example:"Jane Operator"`
	Picture string `json:"picture,omitempty"`
}

// SessionDTO represents the token pair handed to the dashboard
type SessionDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"86400"`
	CreatedAt    string `json:"created_at"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Operator OperatorDTO `json:"operator"`
	Session  SessionDTO  `json:"session"`
}

// Common error codes for auth operations
const (
	ErrorEmailNotAllowed = "EMAIL_NOT_ALLOWED"
	ErrorInvalidIDToken  = "INVALID_ID_TOKEN"
	ErrorSessionExpired  = "SESSION_EXPIRED"
	ErrorSessionRevoked  = "SESSION_REVOKED"
)
