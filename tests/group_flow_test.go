// Package tests contains integration tests for the group flow
package tests

import (
	"context"
	"testing"

	"github.com/opsdash/opsdash/app/dto"
	businessflow "github.com/opsdash/opsdash/business_flow"
	"github.com/opsdash/opsdash/models"
	"github.com/opsdash/opsdash/repository"
	testingutil "github.com/opsdash/opsdash/testing"
	"github.com/opsdash/opsdash/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGroupFlow(testDB *testingutil.TestDB) businessflow.GroupFlow {
	groupRepo := repository.NewFacebookGroupRepository(testDB.DB)
	pgRepo := repository.NewProfileGroupRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	return businessflow.NewGroupFlow(groupRepo, pgRepo, auditRepo, nil, testDB.DB)
}

func TestGroupFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestGroupFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "tests")

		t.Run("AddGroupAndListIt", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			created, err := flow.AddGroup(context.Background(), &dto.CreateGroupRequest{
				Name: "Dog Lovers Daily",
				URL:  "https://www.facebook.com/groups/doglovers",
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, created)
			assert.NotZero(t, created.ID)
			assert.Equal(t, "Dog Lovers Daily", created.Name)

			listed, err := flow.ListGroups(context.Background())
			require.NoError(t, err)
			require.Len(t, listed.Groups, 1)
			assert.Equal(t, created.ID, listed.Groups[0].ID)
			assert.Zero(t, listed.Groups[0].AdminCount)
			assert.Zero(t, listed.Groups[0].EngagementCount)
		})

		t.Run("DuplicateURLIsRejected", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			_, err := flow.AddGroup(context.Background(), &dto.CreateGroupRequest{
				Name: "Original",
				URL:  "https://www.facebook.com/groups/unique-once",
			}, metadata)
			require.NoError(t, err)

			_, err = flow.AddGroup(context.Background(), &dto.CreateGroupRequest{
				Name: "Copycat",
				URL:  "https://www.facebook.com/groups/unique-once",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsGroupURLExists(err))
		})

		t.Run("ListGroupsTalliesRoleCounts", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			group, err := fixtures.CreateTestGroup("Tallied Group")
			require.NoError(t, err)

			admin1, err := fixtures.CreateTestProfile("Admin One")
			require.NoError(t, err)
			admin2, err := fixtures.CreateTestProfile("Admin Two")
			require.NoError(t, err)
			engagement, err := fixtures.CreateTestProfile("Engagement One")
			require.NoError(t, err)

			_, err = fixtures.AssignRole(admin1.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)
			_, err = fixtures.AssignRole(admin2.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)
			_, err = fixtures.AssignRole(engagement.ID, group.ID, models.RoleEngagement)
			require.NoError(t, err)

			listed, err := flow.ListGroups(context.Background())
			require.NoError(t, err)
			require.Len(t, listed.Groups, 1)
			assert.Equal(t, int64(2), listed.Groups[0].AdminCount)
			assert.Equal(t, int64(1), listed.Groups[0].EngagementCount)
		})

		t.Run("SeedGroupsInsertsStarterSet", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			result, err := flow.SeedGroups(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)
			assert.True(t, result.Seeded)
			assert.Equal(t, 15, result.Created)

			listed, err := flow.ListGroups(context.Background())
			require.NoError(t, err)
			assert.Len(t, listed.Groups, 15)

			auditRepo := repository.NewAuditLogRepository(testDB.DB)
			entries, err := auditRepo.ListByAction(context.Background(), models.AuditActionGroupsSeeded, 10, 0)
			require.NoError(t, err)
			require.NotEmpty(t, entries)
			assert.True(t, utils.IsTrue(entries[0].Success))
		})

		t.Run("SeedGroupsIsIdempotent", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			first, err := flow.SeedGroups(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)
			require.True(t, first.Seeded)

			second, err := flow.SeedGroups(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)
			assert.False(t, second.Seeded)
			assert.Zero(t, second.Created)

			listed, err := flow.ListGroups(context.Background())
			require.NoError(t, err)
			assert.Len(t, listed.Groups, 15)
		})

		t.Run("SeedGroupsSkipsWhenAnyGroupExists", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			_, err := fixtures.CreateTestGroup("Pre-existing Group")
			require.NoError(t, err)

			result, err := flow.SeedGroups(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)
			assert.False(t, result.Seeded)

			listed, err := flow.ListGroups(context.Background())
			require.NoError(t, err)
			assert.Len(t, listed.Groups, 1)
		})

		return nil
	})
	require.NoError(t, err)
}
