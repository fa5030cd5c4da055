// Package tests contains integration tests for the customer flow
package tests

import (
	"bytes"
	"context"
	"testing"

	"github.com/opsdash/opsdash/app/dto"
	businessflow "github.com/opsdash/opsdash/business_flow"
	"github.com/opsdash/opsdash/models"
	"github.com/opsdash/opsdash/repository"
	testingutil "github.com/opsdash/opsdash/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestCustomerFlow(testDB *testingutil.TestDB) businessflow.CustomerFlow {
	customerRepo := repository.NewCustomerRepository(testDB.DB)
	return businessflow.NewCustomerFlow(customerRepo, testDB.DB)
}

func TestCustomerFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestCustomerFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "tests")

		t.Run("CreateCustomerWithGroups", func(t *testing.T) {
			created, err := flow.CreateCustomer(context.Background(), &dto.CreateCustomerRequest{
				Name:            "Acme Pets",
				Status:          models.CustomerStatusPaidFewGroups,
				Email:           "owner@acmepets.com",
				GroupsPurchased: []string{"Dog Lovers Daily", "Cat Corner"},
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, created)

			assert.NotEmpty(t, created.ID)
			assert.Equal(t, models.CustomerStatusPaidFewGroups, created.Status)
			assert.Equal(t, []string{"Dog Lovers Daily", "Cat Corner"}, created.GroupsPurchased)

			// Group list must round-trip through storage
			got, err := flow.GetCustomer(context.Background(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{"Dog Lovers Daily", "Cat Corner"}, got.GroupsPurchased)
		})

		t.Run("CreateCustomerWithUnknownStatusFails", func(t *testing.T) {
			_, err := flow.CreateCustomer(context.Background(), &dto.CreateCustomerRequest{
				Name:   "Bad Status Inc",
				Status: "churned",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidCustomerStatus(err))
		})

		t.Run("CreateCustomerDefaultsGroupsToEmptyList", func(t *testing.T) {
			created, err := flow.CreateCustomer(context.Background(), &dto.CreateCustomerRequest{
				Name:   "No Groups Yet",
				Status: models.CustomerStatusNegotiating,
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, created.GroupsPurchased)
			assert.Empty(t, created.GroupsPurchased)
		})

		t.Run("UpdateCustomerReplacesFields", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer("Before Update", models.CustomerStatusNegotiating)
			require.NoError(t, err)

			updated, err := flow.UpdateCustomer(context.Background(), customer.ID, &dto.UpdateCustomerRequest{
				Name:            "After Update",
				Status:          models.CustomerStatusPaidFull,
				GroupsPurchased: []string{"All Groups Bundle"},
			}, metadata)
			require.NoError(t, err)

			assert.Equal(t, "After Update", updated.Name)
			assert.Equal(t, models.CustomerStatusPaidFull, updated.Status)
			assert.Equal(t, []string{"All Groups Bundle"}, updated.GroupsPurchased)
		})

		t.Run("UpdateCustomerWithUnknownStatusFails", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer("Stable Customer", models.CustomerStatusNegotiating)
			require.NoError(t, err)

			_, err = flow.UpdateCustomer(context.Background(), customer.ID, &dto.UpdateCustomerRequest{
				Name:   "Stable Customer",
				Status: "vip",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidCustomerStatus(err))
		})

		t.Run("GetUnknownCustomerFails", func(t *testing.T) {
			_, err := flow.GetCustomer(context.Background(), "00000000-0000-0000-0000-000000000000")
			require.Error(t, err)
			assert.True(t, businessflow.IsCustomerNotFound(err))
		})

		t.Run("DeleteCustomer", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer("Doomed Customer", models.CustomerStatusNegotiating)
			require.NoError(t, err)

			require.NoError(t, flow.DeleteCustomer(context.Background(), customer.ID, metadata))

			_, err = flow.GetCustomer(context.Background(), customer.ID)
			require.Error(t, err)
			assert.True(t, businessflow.IsCustomerNotFound(err))

			err = flow.DeleteCustomer(context.Background(), customer.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCustomerNotFound(err))
		})

		t.Run("ListCustomersFiltersByStatus", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			_, err := fixtures.CreateTestCustomer("Negotiating One", models.CustomerStatusNegotiating)
			require.NoError(t, err)
			_, err = fixtures.CreateTestCustomer("Negotiating Two", models.CustomerStatusNegotiating)
			require.NoError(t, err)
			_, err = fixtures.CreateTestCustomer("Paid One", models.CustomerStatusPaidFull)
			require.NoError(t, err)

			all, err := flow.ListCustomers(context.Background(), &dto.ListCustomersRequest{Page: 1, PageSize: 100})
			require.NoError(t, err)
			assert.Len(t, all.Customers, 3)
			assert.Equal(t, int64(3), all.Pagination.Total)

			negotiating, err := flow.ListCustomers(context.Background(), &dto.ListCustomersRequest{
				Status:   models.CustomerStatusNegotiating,
				Page:     1,
				PageSize: 100,
			})
			require.NoError(t, err)
			assert.Len(t, negotiating.Customers, 2)
		})

		t.Run("ListCustomersWithUnknownStatusFails", func(t *testing.T) {
			_, err := flow.ListCustomers(context.Background(), &dto.ListCustomersRequest{Status: "bogus"})
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidCustomerStatus(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCustomerExport(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestCustomerFlow(testDB)

		t.Run("ExportProducesReadableWorkbook", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			first, err := fixtures.CreateTestCustomer("Export One", models.CustomerStatusNegotiating)
			require.NoError(t, err)
			_, err = fixtures.CreateTestCustomer("Export Two", models.CustomerStatusPaidFull)
			require.NoError(t, err)

			filename, data, err := flow.ExportCustomersXLSX(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "customers.xlsx", filename)
			require.NotEmpty(t, data)

			xl, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer func() { _ = xl.Close() }()

			rows, err := xl.GetRows("Customers")
			require.NoError(t, err)
			require.Len(t, rows, 3)

			assert.Equal(t, "id", rows[0][0])
			assert.Equal(t, "name", rows[0][1])
			assert.Equal(t, "status", rows[0][2])

			assert.Equal(t, first.ID, rows[1][0])
			assert.Equal(t, "Export One", rows[1][1])
			assert.Equal(t, models.CustomerStatusNegotiating, rows[1][2])
		})

		t.Run("ExportWithNoCustomersYieldsHeaderOnly", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			filename, data, err := flow.ExportCustomersXLSX(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "customers.xlsx", filename)

			xl, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer func() { _ = xl.Close() }()

			rows, err := xl.GetRows("Customers")
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})

		return nil
	})
	require.NoError(t, err)
}
