package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/opsdash/opsdash/app/dto"
	businessflow "github.com/opsdash/opsdash/business_flow"
	"github.com/opsdash/opsdash/utils"
)

// ProfileHandlerInterface defines the contract for profile handlers
type ProfileHandlerInterface interface {
	ListProfiles(c fiber.Ctx) error
	GetProfile(c fiber.Ctx) error
	CreateProfile(c fiber.Ctx) error
	UpdateProfile(c fiber.Ctx) error
	DeleteProfile(c fiber.Ctx) error
	GetAssignments(c fiber.Ctx) error
	UpdateAssignments(c fiber.Ctx) error
}

// ProfileHandler handles social profile HTTP requests
type ProfileHandler struct {
	flow      businessflow.ProfileFlow
	validator *validator.Validate
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(flow businessflow.ProfileFlow) *ProfileHandler {
	return &ProfileHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *ProfileHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ProfileHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListProfiles returns a page of profiles with assignments
// @Summary List profiles
// @Tags Profiles
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListProfilesResponse} "Profiles retrieved"
// @Router /api/v1/profiles [get]
func (h *ProfileHandler) ListProfiles(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "100"))

	result, err := h.flow.ListProfiles(h.createRequestContext(c, "/api/v1/profiles"), page, pageSize)
	if err != nil {
		log.Println("List profiles failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list profiles", "LIST_PROFILES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Profiles retrieved", result)
}

// GetProfile returns one profile with its assignments
// @Summary Get profile
// @Tags Profiles
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileDTO} "Profile retrieved"
// @Failure 404 {object} dto.APIResponse "Profile not found"
// @Router /api/v1/profiles/{id} [get]
func (h *ProfileHandler) GetProfile(c fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.flow.GetProfile(h.createRequestContext(c, "/api/v1/profiles/:id"), id)
	if err != nil {
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}

		log.Println("Get profile failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get profile", "GET_PROFILE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Profile retrieved", result)
}

// CreateProfile creates a new social profile
// @Summary Create profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Param request body dto.CreateProfileRequest true "Profile data"
// @Success 201 {object} dto.APIResponse{data=dto.ProfileDTO} "Profile created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/profiles [post]
func (h *ProfileHandler) CreateProfile(c fiber.Ctx) error {
	var req dto.CreateProfileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	operatorEmail, _ := c.Locals("operator_email").(string)
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.flow.CreateProfile(h.createRequestContext(c, "/api/v1/profiles"), &req, operatorEmail, metadata)
	if err != nil {
		log.Println("Create profile failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create profile", "CREATE_PROFILE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Profile created", result)
}

// UpdateProfile updates an existing profile
// @Summary Update profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param request body dto.UpdateProfileRequest true "Profile data"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileDTO} "Profile updated"
// @Failure 404 {object} dto.APIResponse "Profile not found"
// @Router /api/v1/profiles/{id} [put]
func (h *ProfileHandler) UpdateProfile(c fiber.Ctx) error {
	id := c.Params("id")

	var req dto.UpdateProfileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.flow.UpdateProfile(h.createRequestContext(c, "/api/v1/profiles/:id"), id, &req, metadata)
	if err != nil {
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}

		log.Println("Update profile failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update profile", "UPDATE_PROFILE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Profile updated", result)
}

// DeleteProfile removes a profile with its assignments and tasks
// @Summary Delete profile
// @Tags Profiles
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} dto.APIResponse "Profile deleted"
// @Failure 404 {object} dto.APIResponse "Profile not found"
// @Router /api/v1/profiles/{id} [delete]
func (h *ProfileHandler) DeleteProfile(c fiber.Ctx) error {
	id := c.Params("id")

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	if err := h.flow.DeleteProfile(h.createRequestContext(c, "/api/v1/profiles/:id"), id, metadata); err != nil {
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}

		log.Println("Delete profile failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete profile", "DELETE_PROFILE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Profile deleted", nil)
}

// GetAssignments returns the group role assignments of a profile
// @Summary Get assignments
// @Tags Profiles
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.AssignmentDTO} "Assignments retrieved"
// @Failure 404 {object} dto.APIResponse "Profile not found"
// @Router /api/v1/profiles/{id}/groups [get]
func (h *ProfileHandler) GetAssignments(c fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.flow.GetAssignments(h.createRequestContext(c, "/api/v1/profiles/:id/groups"), id)
	if err != nil {
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}

		log.Println("Get assignments failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get assignments", "GET_ASSIGNMENTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Assignments retrieved", result)
}

// UpdateAssignments replaces the full assignment set of a profile
// @Summary Update assignments
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param request body dto.UpdateAssignmentsRequest true "Assignment set"
// @Success 200 {object} dto.APIResponse{data=[]dto.AssignmentDTO} "Assignments updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Profile or group not found"
// @Router /api/v1/profiles/{id}/groups [put]
func (h *ProfileHandler) UpdateAssignments(c fiber.Ctx) error {
	id := c.Params("id")

	var req dto.UpdateAssignmentsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.flow.UpdateAssignments(h.createRequestContext(c, "/api/v1/profiles/:id/groups"), id, &req, metadata)
	if err != nil {
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		if businessflow.IsGroupNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Group not found", "GROUP_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidRole(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Role must be admin or engagement", "INVALID_ROLE", nil)
		}
		if businessflow.IsDuplicateGroupRole(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Profile already assigned to this group", "DUPLICATE_GROUP", nil)
		}

		log.Println("Update assignments failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update assignments", "UPDATE_ASSIGNMENTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Assignments updated", result)
}

func (h *ProfileHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *ProfileHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
