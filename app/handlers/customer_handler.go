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

// CustomerHandlerInterface defines the contract for customer handlers
type CustomerHandlerInterface interface {
	ListCustomers(c fiber.Ctx) error
	GetCustomer(c fiber.Ctx) error
	CreateCustomer(c fiber.Ctx) error
	UpdateCustomer(c fiber.Ctx) error
	DeleteCustomer(c fiber.Ctx) error
	ExportCustomers(c fiber.Ctx) error
}

// CustomerHandler handles customer tracking HTTP requests
type CustomerHandler struct {
	flow      businessflow.CustomerFlow
	validator *validator.Validate
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(flow businessflow.CustomerFlow) *CustomerHandler {
	return &CustomerHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *CustomerHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CustomerHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListCustomers returns a page of customers
// @Summary List customers
// @Tags Customers
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListCustomersResponse} "Customers retrieved"
// @Router /api/v1/customers [get]
func (h *CustomerHandler) ListCustomers(c fiber.Ctx) error {
	var req dto.ListCustomersRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	result, err := h.flow.ListCustomers(h.createRequestContext(c, "/api/v1/customers"), &req)
	if err != nil {
		if businessflow.IsInvalidCustomerStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Customer status is not recognized", "INVALID_CUSTOMER_STATUS", nil)
		}

		log.Println("List customers failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list customers", "LIST_CUSTOMERS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Customers retrieved", result)
}

// GetCustomer returns one customer
// @Summary Get customer
// @Tags Customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} dto.APIResponse{data=dto.CustomerDTO} "Customer retrieved"
// @Failure 404 {object} dto.APIResponse "Customer not found"
// @Router /api/v1/customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.flow.GetCustomer(h.createRequestContext(c, "/api/v1/customers/:id"), id)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}

		log.Println("Get customer failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get customer", "GET_CUSTOMER_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Customer retrieved", result)
}

// CreateCustomer creates a new customer record
// @Summary Create customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.CreateCustomerRequest true "Customer data"
// @Success 201 {object} dto.APIResponse{data=dto.CustomerDTO} "Customer created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/customers [post]
func (h *CustomerHandler) CreateCustomer(c fiber.Ctx) error {
	var req dto.CreateCustomerRequest
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

	result, err := h.flow.CreateCustomer(h.createRequestContext(c, "/api/v1/customers"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidCustomerStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Customer status is not recognized", "INVALID_CUSTOMER_STATUS", nil)
		}

		log.Println("Create customer failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create customer", "CREATE_CUSTOMER_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Customer created", result)
}

// UpdateCustomer updates an existing customer record
// @Summary Update customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Param request body dto.UpdateCustomerRequest true "Customer data"
// @Success 200 {object} dto.APIResponse{data=dto.CustomerDTO} "Customer updated"
// @Failure 404 {object} dto.APIResponse "Customer not found"
// @Router /api/v1/customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c fiber.Ctx) error {
	id := c.Params("id")

	var req dto.UpdateCustomerRequest
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

	result, err := h.flow.UpdateCustomer(h.createRequestContext(c, "/api/v1/customers/:id"), id, &req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidCustomerStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Customer status is not recognized", "INVALID_CUSTOMER_STATUS", nil)
		}

		log.Println("Update customer failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update customer", "UPDATE_CUSTOMER_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Customer updated", result)
}

// DeleteCustomer removes a customer record
// @Summary Delete customer
// @Tags Customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} dto.APIResponse "Customer deleted"
// @Failure 404 {object} dto.APIResponse "Customer not found"
// @Router /api/v1/customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c fiber.Ctx) error {
	id := c.Params("id")

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	if err := h.flow.DeleteCustomer(h.createRequestContext(c, "/api/v1/customers/:id"), id, metadata); err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}

		log.Println("Delete customer failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete customer", "DELETE_CUSTOMER_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Customer deleted", nil)
}

// ExportCustomers downloads every customer as a spreadsheet
// @Summary Export customers
// @Tags Customers
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {string} string "Excel file"
// @Router /api/v1/customers/export [get]
func (h *CustomerHandler) ExportCustomers(c fiber.Ctx) error {
	filename, data, err := h.flow.ExportCustomersXLSX(h.createRequestContextWithTimeout(c, "/api/v1/customers/export", 60*time.Second))
	if err != nil {
		log.Println("Export customers failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate Excel", "EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

func (h *CustomerHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *CustomerHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
