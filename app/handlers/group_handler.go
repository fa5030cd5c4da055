package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/opsdash/opsdash/app/dto"
	businessflow "github.com/opsdash/opsdash/business_flow"
	"github.com/opsdash/opsdash/utils"
)

// GroupHandlerInterface defines the contract for group handlers
type GroupHandlerInterface interface {
	ListGroups(c fiber.Ctx) error
	AddGroup(c fiber.Ctx) error
	SeedGroups(c fiber.Ctx) error
}

// GroupHandler handles Facebook group HTTP requests
type GroupHandler struct {
	flow      businessflow.GroupFlow
	validator *validator.Validate
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(flow businessflow.GroupFlow) *GroupHandler {
	return &GroupHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *GroupHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *GroupHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListGroups returns all groups with per-role assignment counts
// @Summary List groups
// @Tags Groups
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListGroupsResponse} "Groups retrieved"
// @Router /api/v1/groups [get]
func (h *GroupHandler) ListGroups(c fiber.Ctx) error {
	result, err := h.flow.ListGroups(h.createRequestContext(c, "/api/v1/groups"))
	if err != nil {
		log.Println("List groups failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list groups", "LIST_GROUPS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Groups retrieved", result)
}

// AddGroup registers a new Facebook group
// @Summary Add group
// @Tags Groups
// @Accept json
// @Produce json
// @Param request body dto.CreateGroupRequest true "Group data"
// @Success 201 {object} dto.APIResponse{data=dto.GroupDTO} "Group created"
// @Failure 409 {object} dto.APIResponse "Group URL already exists"
// @Router /api/v1/groups [post]
func (h *GroupHandler) AddGroup(c fiber.Ctx) error {
	var req dto.CreateGroupRequest
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

	result, err := h.flow.AddGroup(h.createRequestContext(c, "/api/v1/groups"), &req, metadata)
	if err != nil {
		if businessflow.IsGroupURLExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Group URL already exists", "GROUP_URL_EXISTS", nil)
		}

		log.Println("Add group failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to add group", "ADD_GROUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Group created", result)
}

// SeedGroups inserts the starter group set if the table is empty
// @Summary Seed groups
// @Tags Groups
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SeedGroupsResponse} "Seeding finished"
// @Router /api/v1/groups/seed [post]
func (h *GroupHandler) SeedGroups(c fiber.Ctx) error {
	operatorEmail, _ := c.Locals("operator_email").(string)
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.flow.SeedGroups(h.createRequestContext(c, "/api/v1/groups/seed"), operatorEmail, metadata)
	if err != nil {
		log.Println("Seed groups failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to seed groups", "SEED_GROUPS_FAILED", nil)
	}

	message := "Groups seeded"
	if !result.Seeded {
		message = "Groups already seeded, skipping"
	}
	return h.SuccessResponse(c, fiber.StatusOK, message, result)
}

func (h *GroupHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *GroupHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
