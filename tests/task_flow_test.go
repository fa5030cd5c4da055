// Package tests contains integration tests for the task generation flow
package tests

import (
	"context"
	"math/rand"
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

// actionCountRanges maps the task kinds that carry an action count to their
// allowed range.
var actionCountRanges = map[string][2]int{
	models.TaskTypeCommentGroup:   {2, 3},
	models.TaskTypeLikeGroupPost:  {2, 4},
	models.TaskTypeLikeComment:    {1, 3},
	models.TaskTypeLikeFeed:       {3, 5},
	models.TaskTypeCommentPosts:   {2, 3},
	models.TaskTypeAnswerComments: {1, 3},
	models.TaskTypeLikePosts:      {2, 4},
	models.TaskTypeInviteFriends:  {3, 5},
	models.TaskTypeAddFriends:     {3, 5},
}

func newTestTaskFlow(testDB *testingutil.TestDB, seed int64) (businessflow.TaskFlow, repository.TaskRepository) {
	taskRepo := repository.NewTaskRepository(testDB.DB)
	profileRepo := repository.NewSocialProfileRepository(testDB.DB)
	groupRepo := repository.NewFacebookGroupRepository(testDB.DB)
	pgRepo := repository.NewProfileGroupRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	flow := businessflow.NewTaskFlow(
		taskRepo,
		profileRepo,
		groupRepo,
		pgRepo,
		auditRepo,
		rand.New(rand.NewSource(seed)),
		testDB.DB,
	)
	return flow, taskRepo
}

func tasksForProfile(t *testing.T, taskRepo repository.TaskRepository, profileID string) []*models.Task {
	t.Helper()
	tasks, err := taskRepo.ByFilter(context.Background(), models.TaskFilter{ProfileID: &profileID}, "", 0, 0)
	require.NoError(t, err)
	return tasks
}

func TestTaskGeneration(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, taskRepo := newTestTaskFlow(testDB, 42)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "tests")

		t.Run("AdminProfileGetsGroupAndProfileBatches", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Admin Profile")
			require.NoError(t, err)

			groupA, err := fixtures.CreateTestGroup("Group A")
			require.NoError(t, err)
			groupB, err := fixtures.CreateTestGroup("Group B")
			require.NoError(t, err)

			_, err = fixtures.AssignRole(profile.ID, groupA.ID, models.RoleAdmin)
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, groupB.ID, models.RoleAdmin)
			require.NoError(t, err)

			result, err := flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)
			require.NotNil(t, result)

			// 4 group tasks per admin assignment plus 3 profile tasks
			assert.Equal(t, 2*4+3, result.TasksCreated)

			tasks := tasksForProfile(t, taskRepo, profile.ID)
			assert.Len(t, tasks, 11)

			byType := make(map[string]int)
			for _, task := range tasks {
				byType[task.TaskType]++
				assert.Equal(t, models.TaskStatusPending, task.Status)
				assert.GreaterOrEqual(t, task.TaskOrder, 0)
				assert.Less(t, task.TaskOrder, utils.TaskOrderBound)
			}
			assert.Equal(t, 2, byType[models.TaskTypeApprovePost])
			assert.Equal(t, 2, byType[models.TaskTypeCommentGroup])
			assert.Equal(t, 2, byType[models.TaskTypeLikeGroupPost])
			assert.Equal(t, 2, byType[models.TaskTypeLikeComment])
			assert.Equal(t, 1, byType[models.TaskTypeSchedulePost])
			assert.Equal(t, 1, byType[models.TaskTypeAnswerDM])
			assert.Equal(t, 1, byType[models.TaskTypeLikeFeed])
		})

		t.Run("EngagementProfileGetsGroupAndProfileBatches", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Engagement Profile")
			require.NoError(t, err)

			for _, name := range []string{"Group A", "Group B", "Group C"} {
				group, err := fixtures.CreateTestGroup(name)
				require.NoError(t, err)
				_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleEngagement)
				require.NoError(t, err)
			}

			result, err := flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			// 4 group tasks per engagement assignment plus 1 profile task
			assert.Equal(t, 3*4+1, result.TasksCreated)

			tasks := tasksForProfile(t, taskRepo, profile.ID)
			byType := make(map[string]int)
			for _, task := range tasks {
				byType[task.TaskType]++
			}
			assert.Equal(t, 3, byType[models.TaskTypeCommentPosts])
			assert.Equal(t, 3, byType[models.TaskTypeAnswerComments])
			assert.Equal(t, 3, byType[models.TaskTypeLikePosts])
			assert.Equal(t, 3, byType[models.TaskTypeInviteFriends])
			assert.Equal(t, 1, byType[models.TaskTypeAddFriends])
		})

		t.Run("ProfileWithBothRolesGetsBothBatches", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Dual Role Profile")
			require.NoError(t, err)

			groupA, err := fixtures.CreateTestGroup("Group A")
			require.NoError(t, err)
			groupB, err := fixtures.CreateTestGroup("Group B")
			require.NoError(t, err)

			_, err = fixtures.AssignRole(profile.ID, groupA.ID, models.RoleAdmin)
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, groupB.ID, models.RoleEngagement)
			require.NoError(t, err)

			result, err := flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			// One admin batch (4+3) plus one engagement batch (4+1)
			assert.Equal(t, 7+5, result.TasksCreated)
		})

		t.Run("ActionCountsStayWithinBounds", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Bounds Profile")
			require.NoError(t, err)

			groupA, err := fixtures.CreateTestGroup("Group A")
			require.NoError(t, err)
			groupB, err := fixtures.CreateTestGroup("Group B")
			require.NoError(t, err)

			_, err = fixtures.AssignRole(profile.ID, groupA.ID, models.RoleAdmin)
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, groupB.ID, models.RoleEngagement)
			require.NoError(t, err)

			// Run a few times so the ranges actually get exercised
			for i := 0; i < 10; i++ {
				_, err = flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
				require.NoError(t, err)

				for _, task := range tasksForProfile(t, taskRepo, profile.ID) {
					bounds, hasCount := actionCountRanges[task.TaskType]
					if !hasCount {
						assert.Nil(t, task.ActionCount, "task type %s should carry no count", task.TaskType)
						continue
					}
					require.NotNil(t, task.ActionCount, "task type %s should carry a count", task.TaskType)
					assert.GreaterOrEqual(t, *task.ActionCount, bounds[0], "task type %s", task.TaskType)
					assert.LessOrEqual(t, *task.ActionCount, bounds[1], "task type %s", task.TaskType)
				}
			}
		})

		t.Run("GroupTasksCarryGroupTarget", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Target Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Target Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)

			_, err = flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			groupScoped := map[string]bool{
				models.TaskTypeApprovePost:   true,
				models.TaskTypeCommentGroup:  true,
				models.TaskTypeLikeGroupPost: true,
				models.TaskTypeLikeComment:   true,
			}

			for _, task := range tasksForProfile(t, taskRepo, profile.ID) {
				if groupScoped[task.TaskType] {
					require.NotNil(t, task.TargetGroupID)
					assert.Equal(t, group.ID, *task.TargetGroupID)
					require.NotNil(t, task.TargetURL)
					assert.Equal(t, group.URL, *task.TargetURL)
				} else {
					assert.Nil(t, task.TargetGroupID)
					assert.Nil(t, task.TargetURL)
				}
			}
		})

		t.Run("RegenerationReplacesPendingKeepsCompleted", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Regen Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Regen Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)

			_, err = flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			firstRun := tasksForProfile(t, taskRepo, profile.ID)
			require.Len(t, firstRun, 7)

			completedID := firstRun[0].ID
			_, err = flow.CompleteTask(context.Background(), completedID, metadata)
			require.NoError(t, err)

			result, err := flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)
			assert.Equal(t, 7, result.TasksCreated)

			secondRun := tasksForProfile(t, taskRepo, profile.ID)
			assert.Len(t, secondRun, 8)

			survivors := 0
			for _, task := range secondRun {
				if task.ID == completedID {
					survivors++
					assert.Equal(t, models.TaskStatusCompleted, task.Status)
					continue
				}
				assert.Equal(t, models.TaskStatusPending, task.Status)
			}
			assert.Equal(t, 1, survivors)
		})

		t.Run("RemovedAssignmentDropsOutOnNextRun", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Shrinking Profile")
			require.NoError(t, err)
			groupA, err := fixtures.CreateTestGroup("Kept Group")
			require.NoError(t, err)
			groupB, err := fixtures.CreateTestGroup("Dropped Group")
			require.NoError(t, err)

			_, err = fixtures.AssignRole(profile.ID, groupA.ID, models.RoleAdmin)
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, groupB.ID, models.RoleAdmin)
			require.NoError(t, err)

			first, err := flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)
			require.Equal(t, 2*4+3, first.TasksCreated)

			profileFlow := newTestProfileFlow(testDB)
			_, err = profileFlow.UpdateAssignments(context.Background(), profile.ID, &dto.UpdateAssignmentsRequest{
				Assignments: []dto.AssignmentDTO{
					{GroupID: groupA.ID, Role: models.RoleAdmin},
				},
			}, metadata)
			require.NoError(t, err)

			second, err := flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)
			assert.Equal(t, 1*4+3, second.TasksCreated)

			for _, task := range tasksForProfile(t, taskRepo, profile.ID) {
				if task.TargetGroupID == nil {
					continue
				}
				assert.Equal(t, groupA.ID, *task.TargetGroupID)
			}
		})

		t.Run("InactiveProfileProducesNothing", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateInactiveProfile("Inactive Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Some Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)

			result, err := flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			assert.Equal(t, 0, result.TasksCreated)
			assert.Empty(t, tasksForProfile(t, taskRepo, profile.ID))
		})

		t.Run("ProfileWithNoAssignmentsProducesNothing", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Unassigned Profile")
			require.NoError(t, err)

			result, err := flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			assert.Equal(t, 0, result.TasksCreated)
			assert.Empty(t, tasksForProfile(t, taskRepo, profile.ID))
		})

		t.Run("GenerationWritesAuditLog", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Audited Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Audited Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleEngagement)
			require.NoError(t, err)

			_, err = flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			auditRepo := repository.NewAuditLogRepository(testDB.DB)
			entries, err := auditRepo.ListByAction(context.Background(), models.AuditActionTasksGenerated, 10, 0)
			require.NoError(t, err)
			require.NotEmpty(t, entries)
			assert.True(t, utils.IsTrue(entries[0].Success))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTaskBoard(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, taskRepo := newTestTaskFlow(testDB, 7)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "tests")

		t.Run("CompleteTaskFlipsStatus", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Board Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Board Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)

			_, err = flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			tasks := tasksForProfile(t, taskRepo, profile.ID)
			require.NotEmpty(t, tasks)

			completed, err := flow.CompleteTask(context.Background(), tasks[0].ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.TaskStatusCompleted, completed.Status)
			assert.NotNil(t, completed.CompletedAt)
		})

		t.Run("CompleteTaskTwiceFails", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Double Complete")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Double Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleEngagement)
			require.NoError(t, err)

			_, err = flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			tasks := tasksForProfile(t, taskRepo, profile.ID)
			require.NotEmpty(t, tasks)

			_, err = flow.CompleteTask(context.Background(), tasks[0].ID, metadata)
			require.NoError(t, err)

			_, err = flow.CompleteTask(context.Background(), tasks[0].ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsTaskAlreadyCompleted(err))
		})

		t.Run("CompleteUnknownTaskFails", func(t *testing.T) {
			_, err := flow.CompleteTask(context.Background(), "00000000-0000-0000-0000-000000000000", metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsTaskNotFound(err))
		})

		t.Run("DeletePendingByProfileClearsOnlyThatProfile", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			first, err := fixtures.CreateTestProfile("First Profile")
			require.NoError(t, err)
			second, err := fixtures.CreateTestProfile("Second Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Shared Group")
			require.NoError(t, err)

			_, err = fixtures.AssignRole(first.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)
			_, err = fixtures.AssignRole(second.ID, group.ID, models.RoleEngagement)
			require.NoError(t, err)

			_, err = flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			deleted, err := flow.DeletePendingByProfile(context.Background(), first.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, int64(7), deleted.Deleted)

			assert.Empty(t, tasksForProfile(t, taskRepo, first.ID))
			assert.Len(t, tasksForProfile(t, taskRepo, second.ID), 5)
		})

		t.Run("DeletePendingKeepsCompleted", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Keeper Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Keeper Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)

			_, err = flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			tasks := tasksForProfile(t, taskRepo, profile.ID)
			require.Len(t, tasks, 7)
			_, err = flow.CompleteTask(context.Background(), tasks[0].ID, metadata)
			require.NoError(t, err)

			deleted, err := flow.DeletePendingByProfile(context.Background(), profile.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, int64(6), deleted.Deleted)

			remaining := tasksForProfile(t, taskRepo, profile.ID)
			require.Len(t, remaining, 1)
			assert.Equal(t, models.TaskStatusCompleted, remaining[0].Status)
		})

		t.Run("DeletePendingForUnknownProfileFails", func(t *testing.T) {
			_, err := flow.DeletePendingByProfile(context.Background(), "00000000-0000-0000-0000-000000000000", metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsProfileNotFound(err))
		})

		t.Run("ListTasksSortsByDisplayOrderAndJoinsProfileName", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Listed Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Listed Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleAdmin)
			require.NoError(t, err)

			_, err = flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			listed, err := flow.ListTasks(context.Background(), &dto.ListTasksRequest{Page: 1, PageSize: 100})
			require.NoError(t, err)
			require.Len(t, listed.Tasks, 7)
			assert.Equal(t, int64(7), listed.Pagination.Total)

			for i := 1; i < len(listed.Tasks); i++ {
				assert.LessOrEqual(t, listed.Tasks[i-1].Order, listed.Tasks[i].Order)
			}
			for _, task := range listed.Tasks {
				assert.Equal(t, "Listed Profile", task.ProfileName)
			}
		})

		t.Run("ListTasksFiltersByStatusAndProfile", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile("Filtered Profile")
			require.NoError(t, err)
			group, err := fixtures.CreateTestGroup("Filtered Group")
			require.NoError(t, err)
			_, err = fixtures.AssignRole(profile.ID, group.ID, models.RoleEngagement)
			require.NoError(t, err)

			_, err = flow.GenerateTasks(context.Background(), "ops@example.com", metadata)
			require.NoError(t, err)

			tasks := tasksForProfile(t, taskRepo, profile.ID)
			require.Len(t, tasks, 5)
			_, err = flow.CompleteTask(context.Background(), tasks[0].ID, metadata)
			require.NoError(t, err)

			pending, err := flow.ListTasks(context.Background(), &dto.ListTasksRequest{
				ProfileID: profile.ID,
				Status:    models.TaskStatusPending,
				Page:      1,
				PageSize:  100,
			})
			require.NoError(t, err)
			assert.Len(t, pending.Tasks, 4)

			completed, err := flow.ListTasks(context.Background(), &dto.ListTasksRequest{
				ProfileID: profile.ID,
				Status:    models.TaskStatusCompleted,
				Page:      1,
				PageSize:  100,
			})
			require.NoError(t, err)
			assert.Len(t, completed.Tasks, 1)
		})

		return nil
	})
	require.NoError(t, err)
}
