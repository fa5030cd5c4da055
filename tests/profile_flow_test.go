// Package tests contains integration tests for the profile flow
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

func newTestProfileFlow(testDB *testingutil.TestDB) businessflow.ProfileFlow {
	profileRepo := repository.NewSocialProfileRepository(testDB.DB)
	groupRepo := repository.NewFacebookGroupRepository(testDB.DB)
	pgRepo := repository.NewProfileGroupRepository(testDB.DB)
	taskRepo := repository.NewTaskRepository(testDB.DB)

	return businessflow.NewProfileFlow(profileRepo, groupRepo, pgRepo, taskRepo, nil, testDB.DB)
}

func TestProfileFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestProfileFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "tests")

		t.Run("CreateProfileWithAllFields", func(t *testing.T) {
			created, err := flow.CreateProfile(context.Background(), &dto.CreateProfileRequest{
				AdspowerID:  "kxq2v8p",
				Name:        "Jane Ops",
				Gmail:       "jane.ops@gmail.com",
				Proxy:       "socks5://10.0.0.1:1080",
				FacebookURL: "https://facebook.com/jane.ops",
			}, "ops@example.com", metadata)
			require.NoError(t, err)
			require.NotNil(t, created)

			assert.NotEmpty(t, created.ID)
			assert.Equal(t, "Jane Ops", created.Name)
			assert.Equal(t, "kxq2v8p", created.AdspowerID)
			require.NotNil(t, created.Gmail)
			assert.Equal(t, "jane.ops@gmail.com", *created.Gmail)
			assert.True(t, utils.IsTrue(created.Active))
		})

		t.Run("CreateProfileOmitsEmptyOptionalFields", func(t *testing.T) {
			created, err := flow.CreateProfile(context.Background(), &dto.CreateProfileRequest{
				AdspowerID: "bare01",
				Name:       "Bare Profile",
			}, "ops@example.com", metadata)
			require.NoError(t, err)

			assert.Nil(t, created.Gmail)
			assert.Nil(t, created.Proxy)
			assert.Nil(t, created.FacebookURL)

			// Empty strings must land as NULL, not as empty text
			profileRepo := repository.NewSocialProfileRepository(testDB.DB)
			stored, err := profileRepo.ByID(context.Background(), created.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Nil(t, stored.Gmail)
			assert.Nil(t, stored.Proxy)
		})

		t.Run("CreateProfileRequiresOperator", func(t *testing.T) {
			_, err := flow.CreateProfile(context.Background(), &dto.CreateProfileRequest{
				AdspowerID: "noop01",
				Name:       "No Operator",
			}, "", metadata)
			require.Error(t, err)
		})

		t.Run("GetProfileReturnsAssignments", func(t *testing.T) {
			profile, err := fixtures.CreateTestProfile("Assigned Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Assigned Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)

			got, err := flow.GetProfile(context.Background(), profile.ID)
			require.NoError(t, err)
			require.Len(t, got.Assignments, 1)
			assert.Equal(t, group.ID, got.Assignments[0].GroupID)
			assert.Equal(t, "Assigned Group", got.Assignments[0].GroupName)
			assert.Equal(t, models.RoleAdmin, got.Assignments[0].Role)
		})

		t.Run("GetUnknownProfileFails", func(t *testing.T) {
			_, err := flow.GetProfile(context.Background(), "00000000-0000-0000-0000-000000000000")
			require.Error(t, err)
			assert.True(t, businessflow.IsProfileNotFound(err))
		})

		t.Run("UpdateProfileReplacesFields", func(t *testing.T) {
			profile, err := fixtures.CreateTestProfile("Before Update")
			require.NoError(t, err)

			updated, err := flow.UpdateProfile(context.Background(), profile.ID, &dto.UpdateProfileRequest{
				AdspowerID: "updated1",
				Name:       "After Update",
				Gmail:      "after@gmail.com",
				Active:     utils.ToPtr(false),
			}, metadata)
			require.NoError(t, err)

			assert.Equal(t, "After Update", updated.Name)
			assert.Equal(t, "updated1", updated.AdspowerID)
			require.NotNil(t, updated.Gmail)
			assert.Equal(t, "after@gmail.com", *updated.Gmail)
			assert.False(t, utils.IsTrue(updated.Active))
		})

		t.Run("UpdateProfileClearsOptionalField", func(t *testing.T) {
			created, err := flow.CreateProfile(context.Background(), &dto.CreateProfileRequest{
				AdspowerID: "clear01",
				Name:       "Clear Me",
				Gmail:      "keep@gmail.com",
			}, "ops@example.com", metadata)
			require.NoError(t, err)

			updated, err := flow.UpdateProfile(context.Background(), created.ID, &dto.UpdateProfileRequest{
				AdspowerID: "clear01",
				Name:       "Clear Me",
			}, metadata)
			require.NoError(t, err)
			assert.Nil(t, updated.Gmail)
		})

		t.Run("ListProfilesPaginates", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			for i := 0; i < 5; i++ {
				_, err := fixtures.CreateTestProfile("Page Profile")
				require.NoError(t, err)
			}

			page, err := flow.ListProfiles(context.Background(), 1, 3)
			require.NoError(t, err)
			assert.Len(t, page.Profiles, 3)
			assert.Equal(t, int64(5), page.Pagination.Total)

			rest, err := flow.ListProfiles(context.Background(), 2, 3)
			require.NoError(t, err)
			assert.Len(t, rest.Profiles, 2)
		})

		t.Run("DeleteProfileCascadesTasksAndAssignments", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Doomed Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Doomed Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)

			taskFlow, taskRepo := newTestTaskFlow(testDB, 3)
			_, err = taskFlow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)
			require.NotEmpty(t, tasksForProfile(t, taskRepo, profile.ID))

			require.NoError(t, flow.DeleteProfile(context.Background(), profile.ID, metadata))

			_, err = flow.GetProfile(context.Background(), profile.ID)
			require.Error(t, err)
			assert.True(t, businessflow.IsProfileNotFound(err))

			assert.Empty(t, tasksForProfile(t, taskRepo, profile.ID))

			pgRepo := repository.NewProfileGroupRepository(testDB.DB)
			assignments, err := pgRepo.ListByProfile(context.Background(), profile.ID)
			require.NoError(t, err)
			assert.Empty(t, assignments)
		})

		t.Run("DeleteUnknownProfileFails", func(t *testing.T) {
			err := flow.DeleteProfile(context.Background(), "00000000-0000-0000-0000-000000000000", metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsProfileNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestProfileAssignments(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestProfileFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "tests")

		t.Run("UpdateAssignmentsReplacesTheFullSet", func(t *testing.T) {
			profile, err := fixtures.CreateTestProfile("Replace Profile")
			require.NoError(t, err)
			groupA, err := fixtures.CreateTestGroup("Group A")
			require.NoError(t, err)
			groupB, err := fixtures.CreateTestGroup("Group B")
			require.NoError(t, err)

			_, err = fixtures.AssignRole(profile.ID, groupA.ID, models.RoleAdmin)
			require.NoError(t, err)

			assignments, err := flow.UpdateAssignments(context.Background(), profile.ID, &dto.UpdateAssignmentsRequest{
				Assignments: []dto.AssignmentDTO{
					{GroupID: groupB.ID, Role: models.RoleEngagement},
				},
			}, metadata)
			require.NoError(t, err)

			require.Len(t, assignments, 1)
			assert.Equal(t, groupB.ID, assignments[0].GroupID)
			assert.Equal(t, models.RoleEngagement, assignments[0].Role)
		})

		t.Run("EmptySetClearsAllAssignments", func(t *testing.T) {
			profile, err := fixtures.CreateTestProfile("Cleared Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Cleared Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)

			assignments, err := flow.UpdateAssignments(context.Background(), profile.ID, &dto.UpdateAssignmentsRequest{
				Assignments: []dto.AssignmentDTO{},
			}, metadata)
			require.NoError(t, err)
			assert.Empty(t, assignments)
		})

		t.Run("InvalidRoleIsRejected", func(t *testing.T) {
			profile, err := fixtures.CreateTestProfile("Bad Role Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Bad Role Group")
			require.NoError(t, err)

			_, err = flow.UpdateAssignments(context.Background(), profile.ID, &dto.UpdateAssignmentsRequest{
				Assignments: []dto.AssignmentDTO{
					{GroupID: group.ID, Role: "moderator"},
				},
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidRole(err))
		})

		t.Run("DuplicateGroupIsRejected", func(t *testing.T) {
			profile, err := fixtures.CreateTestProfile("Dup Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Dup Group")
			require.NoError(t, err)

			_, err = flow.UpdateAssignments(context.Background(), profile.ID, &dto.UpdateAssignmentsRequest{
				Assignments: []dto.AssignmentDTO{
					{GroupID: group.ID, Role: models.RoleAdmin},
					{GroupID: group.ID, Role: models.RoleEngagement},
				},
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsDuplicateGroupRole(err))
		})

		t.Run("UnknownGroupIsRejected", func(t *testing.T) {
			profile, err := fixtures.CreateTestProfile("Ghost Group Profile")
			require.NoError(t, err)

			_, err = flow.UpdateAssignments(context.Background(), profile.ID, &dto.UpdateAssignmentsRequest{
				Assignments: []dto.AssignmentDTO{
					{GroupID: 999999, Role: models.RoleAdmin},
				},
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsGroupNotFound(err))
		})

		t.Run("RejectedSetLeavesExistingAssignmentsIntact", func(t *testing.T) {
			profile, err := fixtures.CreateTestProfile("Intact Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Intact Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)

			_, err = flow.UpdateAssignments(context.Background(), profile.ID, &dto.UpdateAssignmentsRequest{
				Assignments: []dto.AssignmentDTO{
					{GroupID: 999999, Role: models.RoleAdmin},
				},
			}, metadata)
			require.Error(t, err)

			assignments, err := flow.GetAssignments(context.Background(), profile.ID)
			require.NoError(t, err)
			require.Len(t, assignments, 1)
			assert.Equal(t, group.ID, assignments[0].GroupID)
		})

		t.Run("AssignmentsForUnknownProfileFail", func(t *testing.T) {
			_, err := flow.UpdateAssignments(context.Background(), "00000000-0000-0000-0000-000000000000", &dto.UpdateAssignmentsRequest{}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsProfileNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
