package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/opsdash/opsdash/app/dto"
	"github.com/opsdash/opsdash/app/middleware"
	businessflow "github.com/opsdash/opsdash/business_flow"
	"github.com/opsdash/opsdash/utils"
)

// TaskHandlerInterface defines the contract for task handlers
type TaskHandlerInterface interface {
	GenerateTasks(c fiber.Ctx) error
	ListTasks(c fiber.Ctx) error
	CompleteTask(c fiber.Ctx) error
	DeletePendingByProfile(c fiber.Ctx) error
}

// TaskHandler handles task board HTTP requests
type TaskHandler struct {
	flow      businessflow.TaskFlow
	validator *validator.Validate
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(flow businessflow.TaskFlow) *TaskHandler {
	return &TaskHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *TaskHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TaskHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GenerateTasks wipes pending tasks and rebuilds the board
// @Summary Generate tasks
// @Description Delete all pending tasks and regenerate them from the current assignments of active profiles
// @Tags Tasks
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.GenerateTasksResponse} "Tasks generated"
// @Router /api/v1/tasks/generate [post]
func (h *TaskHandler) GenerateTasks(c fiber.Ctx) error {
	operatorEmail, _ := c.Locals("operator_email").(string)
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	// Generation touches every assignment, give it more room than a plain read
	result, err := h.flow.GenerateTasks(h.createRequestContextWithTimeout(c, "/api/v1/tasks/generate", 2*time.Minute), operatorEmail, metadata)
	if err != nil {
		middleware.RecordTaskGeneration(0, err)
		log.Println("Generate tasks failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate tasks", "GENERATE_TASKS_FAILED", nil)
	}
	middleware.RecordTaskGeneration(result.TasksCreated, nil)

	return h.SuccessResponse(c, fiber.StatusOK, "Tasks generated", result)
}

// ListTasks returns a page of tasks sorted by display order
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Param profile_id query string false "Filter by profile"
// @Param status query string false "Filter by status" Enums(pending, completed)
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListTasksResponse} "Tasks retrieved"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(c fiber.Ctx) error {
	var req dto.ListTasksRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.flow.ListTasks(h.createRequestContext(c, "/api/v1/tasks"), &req)
	if err != nil {
		log.Println("List tasks failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list tasks", "LIST_TASKS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tasks retrieved", result)
}

// CompleteTask flips one task to completed
// @Summary Complete task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.APIResponse{data=dto.TaskDTO} "Task completed"
// @Failure 404 {object} dto.APIResponse "Task not found"
// @Failure 409 {object} dto.APIResponse "Task already completed"
// @Router /api/v1/tasks/{id}/complete [post]
func (h *TaskHandler) CompleteTask(c fiber.Ctx) error {
	id := c.Params("id")

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.flow.CompleteTask(h.createRequestContext(c, "/api/v1/tasks/:id/complete"), id, metadata)
	if err != nil {
		if businessflow.IsTaskNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Task not found", "TASK_NOT_FOUND", nil)
		}
		if businessflow.IsTaskAlreadyCompleted(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Task is already completed", "TASK_ALREADY_COMPLETED", nil)
		}

		log.Println("Complete task failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to complete task", "COMPLETE_TASK_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Task completed", result)
}

// DeletePendingByProfile clears the pending board of one profile
// @Summary Delete pending tasks of a profile
// @Tags Tasks
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} dto.APIResponse{data=dto.DeletePendingTasksResponse} "Pending tasks deleted"
// @Failure 404 {object} dto.APIResponse "Profile not found"
// @Router /api/v1/profiles/{id}/tasks/pending [delete]
func (h *TaskHandler) DeletePendingByProfile(c fiber.Ctx) error {
	id := c.Params("id")

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.flow.DeletePendingByProfile(h.createRequestContext(c, "/api/v1/profiles/:id/tasks/pending"), id, metadata)
	if err != nil {
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}

		log.Println("Delete pending tasks failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete pending tasks", "DELETE_PENDING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Pending tasks deleted", result)
}

func (h *TaskHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *TaskHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
