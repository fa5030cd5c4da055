package businessflow

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/opsdash/opsdash/app/dto"
	"github.com/opsdash/opsdash/models"
	"github.com/opsdash/opsdash/repository"
	"github.com/opsdash/opsdash/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// CustomerFlow handles customer tracking operations
type CustomerFlow interface {
	ListCustomers(ctx context.Context, request *dto.ListCustomersRequest) (*dto.ListCustomersResponse, error)
	GetCustomer(ctx context.Context, id string) (*dto.CustomerDTO, error)
	CreateCustomer(ctx context.Context, request *dto.CreateCustomerRequest, metadata *ClientMetadata) (*dto.CustomerDTO, error)
	UpdateCustomer(ctx context.Context, id string, request *dto.UpdateCustomerRequest, metadata *ClientMetadata) (*dto.CustomerDTO, error)
	DeleteCustomer(ctx context.Context, id string, metadata *ClientMetadata) error
	ExportCustomersXLSX(ctx context.Context) (string, []byte, error)
}

// CustomerFlowImpl implements the customer business flow
type CustomerFlowImpl struct {
	customerRepo repository.CustomerRepository
	db           *gorm.DB
}

// NewCustomerFlow creates a new customer flow instance
func NewCustomerFlow(customerRepo repository.CustomerRepository, db *gorm.DB) CustomerFlow {
	return &CustomerFlowImpl{
		customerRepo: customerRepo,
		db:           db,
	}
}

// ListCustomers returns a page of customers, optionally filtered by status
func (cf *CustomerFlowImpl) ListCustomers(ctx context.Context, request *dto.ListCustomersRequest) (*dto.ListCustomersResponse, error) {
	page := request.Page
	if page < 1 {
		page = 1
	}
	pageSize := request.PageSize
	if pageSize < 1 || pageSize > 500 {
		pageSize = 100
	}

	filter := models.CustomerFilter{}
	if request.Status != "" {
		if !models.IsValidCustomerStatus(request.Status) {
			return nil, NewBusinessError("INVALID_CUSTOMER_STATUS", "Customer status is not recognized", ErrInvalidCustomerStatus)
		}
		filter.Status = &request.Status
	}

	total, err := cf.customerRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_CUSTOMERS_FAILED", "Failed to count customers", err)
	}

	customers, err := cf.customerRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_CUSTOMERS_FAILED", "Failed to list customers", err)
	}

	out := make([]dto.CustomerDTO, 0, len(customers))
	for _, c := range customers {
		out = append(out, ToCustomerDTO(*c))
	}

	return &dto.ListCustomersResponse{
		Customers: out,
		Pagination: dto.Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}, nil
}

// GetCustomer returns one customer
func (cf *CustomerFlowImpl) GetCustomer(ctx context.Context, id string) (*dto.CustomerDTO, error) {
	customer, err := cf.customerRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_CUSTOMER_FAILED", "Failed to load customer", err)
	}
	if customer == nil {
		return nil, NewBusinessError("CUSTOMER_NOT_FOUND", "Customer not found", ErrCustomerNotFound)
	}

	item := ToCustomerDTO(*customer)
	return &item, nil
}

// CreateCustomer creates a new customer record
func (cf *CustomerFlowImpl) CreateCustomer(ctx context.Context, request *dto.CreateCustomerRequest, metadata *ClientMetadata) (*dto.CustomerDTO, error) {
	if !models.IsValidCustomerStatus(request.Status) {
		return nil, NewBusinessError("INVALID_CUSTOMER_STATUS", "Customer status is not recognized", ErrInvalidCustomerStatus)
	}

	customer := &models.Customer{
		ID:                 uuid.New().String(),
		Name:               request.Name,
		Status:             request.Status,
		FacebookProfileURL: utils.NilIfEmpty(&request.FacebookProfileURL),
		ContactProfile:     utils.NilIfEmpty(&request.ContactProfile),
		Email:              utils.NilIfEmpty(&request.Email),
		GroupsPurchased:    request.GroupsPurchased,
		CreatedAt:          utils.UTCNow(),
		UpdatedAt:          utils.UTCNow(),
	}
	if customer.GroupsPurchased == nil {
		customer.GroupsPurchased = []string{}
	}

	if err := cf.customerRepo.Save(ctx, customer); err != nil {
		return nil, NewBusinessError("CREATE_CUSTOMER_FAILED", "Failed to save customer", err)
	}

	item := ToCustomerDTO(*customer)
	return &item, nil
}

// UpdateCustomer updates an existing customer record
func (cf *CustomerFlowImpl) UpdateCustomer(ctx context.Context, id string, request *dto.UpdateCustomerRequest, metadata *ClientMetadata) (*dto.CustomerDTO, error) {
	if !models.IsValidCustomerStatus(request.Status) {
		return nil, NewBusinessError("INVALID_CUSTOMER_STATUS", "Customer status is not recognized", ErrInvalidCustomerStatus)
	}

	existing, err := cf.customerRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("UPDATE_CUSTOMER_FAILED", "Failed to load customer", err)
	}
	if existing == nil {
		return nil, NewBusinessError("CUSTOMER_NOT_FOUND", "Customer not found", ErrCustomerNotFound)
	}

	existing.Name = request.Name
	existing.Status = request.Status
	existing.FacebookProfileURL = utils.NilIfEmpty(&request.FacebookProfileURL)
	existing.ContactProfile = utils.NilIfEmpty(&request.ContactProfile)
	existing.Email = utils.NilIfEmpty(&request.Email)
	existing.GroupsPurchased = request.GroupsPurchased
	if existing.GroupsPurchased == nil {
		existing.GroupsPurchased = []string{}
	}

	if err := cf.customerRepo.Update(ctx, existing); err != nil {
		return nil, NewBusinessError("UPDATE_CUSTOMER_FAILED", "Failed to update customer", err)
	}

	updated, err := cf.customerRepo.ByID(ctx, id)
	if err != nil || updated == nil {
		return nil, NewBusinessError("UPDATE_CUSTOMER_FAILED", "Failed to reload customer", err)
	}

	item := ToCustomerDTO(*updated)
	return &item, nil
}

// DeleteCustomer removes a customer record
func (cf *CustomerFlowImpl) DeleteCustomer(ctx context.Context, id string, metadata *ClientMetadata) error {
	existing, err := cf.customerRepo.ByID(ctx, id)
	if err != nil {
		return NewBusinessError("DELETE_CUSTOMER_FAILED", "Failed to load customer", err)
	}
	if existing == nil {
		return NewBusinessError("CUSTOMER_NOT_FOUND", "Customer not found", ErrCustomerNotFound)
	}

	if err := cf.customerRepo.Delete(ctx, id); err != nil {
		return NewBusinessError("DELETE_CUSTOMER_FAILED", "Failed to delete customer", err)
	}
	return nil
}

// ExportCustomersXLSX builds a spreadsheet of every customer
func (cf *CustomerFlowImpl) ExportCustomersXLSX(ctx context.Context) (string, []byte, error) {
	customers, err := cf.customerRepo.ByFilter(ctx, models.CustomerFilter{}, "created_at ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_CUSTOMERS_FAILED", "Failed to load customers", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Customers"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"id", "name", "status", "facebook_profile_url", "contact_profile", "email", "groups_purchased", "created_at", "updated_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, c := range customers {
		record := []any{
			c.ID,
			c.Name,
			c.Status,
			utils.Deref(c.FacebookProfileURL),
			utils.Deref(c.ContactProfile),
			utils.Deref(c.Email),
			strings.Join(c.GroupsPurchased, ", "),
			c.CreatedAt.Format("2006-01-02 15:04:05"),
			c.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return "customers.xlsx", buf.Bytes(), nil
}
