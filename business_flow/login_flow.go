package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/opsdash/opsdash/app/dto"
	"github.com/opsdash/opsdash/app/services"
	"github.com/opsdash/opsdash/models"
	"github.com/opsdash/opsdash/repository"
	"github.com/opsdash/opsdash/utils"
	"gorm.io/gorm"
)

// LoginFlow handles operator authentication against the configured allow-list
type LoginFlow interface {
	GoogleLogin(ctx context.Context, request *dto.GoogleLoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	Logout(ctx context.Context, accessToken string, metadata *ClientMetadata) error
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	sessionRepo   repository.OperatorSessionRepository
	auditRepo     repository.AuditLogRepository
	tokenService  services.TokenService
	verifier      services.GoogleVerifier
	allowedEmails map[string]bool
	db            *gorm.DB
}

// NewLoginFlow creates a new login flow instance. The allow-list comes from
// configuration; emails are matched case insensitively.
func NewLoginFlow(
	sessionRepo repository.OperatorSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	verifier services.GoogleVerifier,
	allowedEmails []string,
	db *gorm.DB,
) LoginFlow {
	allowed := make(map[string]bool, len(allowedEmails))
	for _, email := range allowedEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allowed[email] = true
		}
	}
	return &LoginFlowImpl{
		sessionRepo:   sessionRepo,
		auditRepo:     auditRepo,
		tokenService:  tokenService,
		verifier:      verifier,
		allowedEmails: allowed,
		db:            db,
	}
}

// GoogleLogin verifies the ID token with Google, checks the allow-list, and
// opens a new operator session
func (lf *LoginFlowImpl) GoogleLogin(ctx context.Context, request *dto.GoogleLoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	identity, err := lf.verifier.Verify(ctx, request.IDToken)
	if err != nil {
		lf.logAuthEvent(ctx, "", models.AuditActionLoginDenied, "ID token verification failed", false, err, metadata)
		return nil, NewBusinessError("INVALID_ID_TOKEN", "Google ID token is invalid", ErrInvalidIDToken)
	}

	if !lf.allowedEmails[identity.Email] {
		lf.logAuthEvent(ctx, identity.Email, models.AuditActionLoginDenied, "Email is not on the operator allow-list", false, ErrEmailNotAllowed, metadata)
		return nil, NewBusinessError("EMAIL_NOT_ALLOWED", "Email is not on the operator allow-list", ErrEmailNotAllowed)
	}

	resp, err := lf.withLoginTransaction(ctx, func(ctx context.Context) (*dto.LoginResponse, error) {
		session, err := lf.createSession(ctx, identity.Email, metadata)
		if err != nil {
			return nil, err
		}
		return &dto.LoginResponse{
			Operator: dto.OperatorDTO{
				Email:   identity.Email,
				Name:    identity.Name,
				Picture: identity.Picture,
			},
			Session: ToSessionDTO(*session),
		}, nil
	})
	if err != nil {
		lf.logAuthEvent(ctx, identity.Email, models.AuditActionLoginDenied, "Login failed", false, err, metadata)
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	lf.logAuthEvent(ctx, identity.Email, models.AuditActionLoginSuccess, "Operator logged in", true, nil, metadata)
	return resp, nil
}

// Refresh trades a valid refresh token for a fresh session. The old session
// is revoked so each refresh token works once.
func (lf *LoginFlowImpl) Refresh(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	session, err := lf.sessionRepo.ByRefreshToken(ctx, request.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "Failed to load session", err)
	}
	if session == nil {
		return nil, NewBusinessError("SESSION_NOT_FOUND", "Session not found", ErrSessionNotFound)
	}
	if !utils.IsTrue(session.IsActive) {
		return nil, NewBusinessError("SESSION_REVOKED", "Session has been revoked", ErrSessionRevoked)
	}

	claims, err := lf.tokenService.ValidateToken(request.RefreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, NewBusinessError("SESSION_EXPIRED", "Session has expired", ErrSessionExpired)
	}

	resp, err := lf.withLoginTransaction(ctx, func(ctx context.Context) (*dto.LoginResponse, error) {
		if err := lf.sessionRepo.Revoke(ctx, session.ID); err != nil {
			return nil, err
		}
		fresh, err := lf.createSession(ctx, session.OperatorEmail, metadata)
		if err != nil {
			return nil, err
		}
		return &dto.LoginResponse{
			Operator: dto.OperatorDTO{Email: session.OperatorEmail},
			Session:  ToSessionDTO(*fresh),
		}, nil
	})
	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "Refresh failed", err)
	}

	return resp, nil
}

// Logout revokes the session behind an access token
func (lf *LoginFlowImpl) Logout(ctx context.Context, accessToken string, metadata *ClientMetadata) error {
	session, err := lf.sessionRepo.BySessionToken(ctx, accessToken)
	if err != nil {
		return NewBusinessError("LOGOUT_FAILED", "Failed to load session", err)
	}
	if session == nil {
		return NewBusinessError("SESSION_NOT_FOUND", "Session not found", ErrSessionNotFound)
	}

	if err := lf.sessionRepo.Revoke(ctx, session.ID); err != nil {
		return NewBusinessError("LOGOUT_FAILED", "Failed to revoke session", err)
	}

	lf.logAuthEvent(ctx, session.OperatorEmail, models.AuditActionLogout, "Operator logged out", true, nil, metadata)
	return nil
}

// Private helper methods

func (lf *LoginFlowImpl) createSession(ctx context.Context, operatorEmail string, metadata *ClientMetadata) (*models.OperatorSession, error) {
	accessToken, refreshToken, err := lf.tokenService.GenerateTokens(operatorEmail)
	if err != nil {
		return nil, err
	}

	session := &models.OperatorSession{
		OperatorEmail:  operatorEmail,
		SessionToken:   accessToken,
		RefreshToken:   &refreshToken,
		IsActive:       utils.ToPtr(true),
		CreatedAt:      utils.UTCNow(),
		LastAccessedAt: utils.UTCNow(),
		ExpiresAt:      utils.UTCNowAdd(utils.SessionTimeout),
	}
	if metadata != nil {
		session.IPAddress = utils.NilIfEmpty(&metadata.IPAddress)
		session.UserAgent = utils.NilIfEmpty(&metadata.UserAgent)
	}

	if err := lf.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (lf *LoginFlowImpl) logAuthEvent(ctx context.Context, operatorEmail, action, description string, success bool, cause error, metadata *ClientMetadata) {
	audit := &models.AuditLog{
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(success),
	}
	if operatorEmail != "" {
		audit.OperatorEmail = &operatorEmail
	}
	if cause != nil {
		errMsg := fmt.Sprintf("%v", cause)
		audit.ErrorMessage = &errMsg
	}
	if metadata != nil {
		audit.IPAddress = utils.NilIfEmpty(&metadata.IPAddress)
		if metadata.RequestID != "" {
			audit.RequestID = &metadata.RequestID
		}
	}
	_ = lf.auditRepo.Save(ctx, audit)
}

func (lf *LoginFlowImpl) withLoginTransaction(ctx context.Context, fn func(context.Context) (*dto.LoginResponse, error)) (*dto.LoginResponse, error) {
	var result *dto.LoginResponse
	var fnErr error

	err := repository.WithTransaction(ctx, lf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
