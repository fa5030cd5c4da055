package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opsdash/opsdash/app/dto"
	"github.com/opsdash/opsdash/models"
	"github.com/opsdash/opsdash/repository"
	"github.com/opsdash/opsdash/utils"
	"gorm.io/gorm"
)

// taskSpec describes one task kind emitted by the generation routine. A nil
// count range means the task carries no action count.
type taskSpec struct {
	taskType string
	minCount int
	maxCount int
	hasCount bool
}

// Task kinds emitted per admin assignment (one batch per group)
var adminGroupSpecs = []taskSpec{
	{taskType: models.TaskTypeApprovePost},
	{taskType: models.TaskTypeCommentGroup, minCount: 2, maxCount: 3, hasCount: true},
	{taskType: models.TaskTypeLikeGroupPost, minCount: 2, maxCount: 4, hasCount: true},
	{taskType: models.TaskTypeLikeComment, minCount: 1, maxCount: 3, hasCount: true},
}

// Task kinds emitted once per profile holding any admin assignment
var adminProfileSpecs = []taskSpec{
	{taskType: models.TaskTypeSchedulePost},
	{taskType: models.TaskTypeAnswerDM},
	{taskType: models.TaskTypeLikeFeed, minCount: 3, maxCount: 5, hasCount: true},
}

// Task kinds emitted per engagement assignment (one batch per group)
var engagementGroupSpecs = []taskSpec{
	{taskType: models.TaskTypeCommentPosts, minCount: 2, maxCount: 3, hasCount: true},
	{taskType: models.TaskTypeAnswerComments, minCount: 1, maxCount: 3, hasCount: true},
	{taskType: models.TaskTypeLikePosts, minCount: 2, maxCount: 4, hasCount: true},
	{taskType: models.TaskTypeInviteFriends, minCount: 3, maxCount: 5, hasCount: true},
}

// Task kinds emitted once per profile holding any engagement assignment
var engagementProfileSpecs = []taskSpec{
	{taskType: models.TaskTypeAddFriends, minCount: 3, maxCount: 5, hasCount: true},
}

// TaskFlow handles task generation and the task board operations
type TaskFlow interface {
	GenerateTasks(ctx context.Context, operatorEmail string, metadata *ClientMetadata) (*dto.GenerateTasksResponse, error)
	ListTasks(ctx context.Context, request *dto.ListTasksRequest) (*dto.ListTasksResponse, error)
	CompleteTask(ctx context.Context, id string, metadata *ClientMetadata) (*dto.TaskDTO, error)
	DeletePendingByProfile(ctx context.Context, profileID string, metadata *ClientMetadata) (*dto.DeletePendingTasksResponse, error)
}

// TaskFlowImpl implements the task business flow
type TaskFlowImpl struct {
	taskRepo    repository.TaskRepository
	profileRepo repository.SocialProfileRepository
	groupRepo   repository.FacebookGroupRepository
	pgRepo      repository.ProfileGroupRepository
	auditRepo   repository.AuditLogRepository
	rng         *rand.Rand
	mu          sync.Mutex // serializes generation runs; rng is not goroutine safe
	db          *gorm.DB
}

// NewTaskFlow creates a new task flow instance. A nil rng gets a time-seeded
// source; tests pass a fixed seed for reproducible counts.
func NewTaskFlow(
	taskRepo repository.TaskRepository,
	profileRepo repository.SocialProfileRepository,
	groupRepo repository.FacebookGroupRepository,
	pgRepo repository.ProfileGroupRepository,
	auditRepo repository.AuditLogRepository,
	rng *rand.Rand,
	db *gorm.DB,
) TaskFlow {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &TaskFlowImpl{
		taskRepo:    taskRepo,
		profileRepo: profileRepo,
		groupRepo:   groupRepo,
		pgRepo:      pgRepo,
		auditRepo:   auditRepo,
		rng:         rng,
		db:          db,
	}
}

// GenerateTasks wipes all pending tasks and rebuilds the board from the
// current assignments of active profiles. The delete and the inserts share
// one transaction so the board never shows a half-generated state.
func (tf *TaskFlowImpl) GenerateTasks(ctx context.Context, operatorEmail string, metadata *ClientMetadata) (*dto.GenerateTasksResponse, error) {
	tf.mu.Lock()
	defer tf.mu.Unlock()

	assignments, err := tf.pgRepo.ListForActiveProfiles(ctx)
	if err != nil {
		return nil, NewBusinessError("GENERATE_TASKS_FAILED", "Failed to load assignments", err)
	}

	groupURLs, err := tf.groupURLs(ctx)
	if err != nil {
		return nil, NewBusinessError("GENERATE_TASKS_FAILED", "Failed to load groups", err)
	}

	tasks := tf.buildTasks(assignments, groupURLs)

	err = repository.WithTransaction(ctx, tf.db, func(ctx context.Context) error {
		if err := tf.taskRepo.DeletePending(ctx); err != nil {
			return err
		}
		return tf.taskRepo.SaveBatch(ctx, tasks)
	})
	if err != nil {
		return nil, NewBusinessError("GENERATE_TASKS_FAILED", "Failed to persist generated tasks", err)
	}

	tf.logGenerated(ctx, operatorEmail, len(tasks), metadata)

	return &dto.GenerateTasksResponse{
		TasksCreated: len(tasks),
		GeneratedAt:  utils.UTCNowRFC3339(),
	}, nil
}

// ListTasks returns a page of tasks sorted by their random display order
func (tf *TaskFlowImpl) ListTasks(ctx context.Context, request *dto.ListTasksRequest) (*dto.ListTasksResponse, error) {
	page := request.Page
	if page < 1 {
		page = 1
	}
	pageSize := request.PageSize
	if pageSize < 1 || pageSize > 500 {
		pageSize = 200
	}

	filter := models.TaskFilter{}
	if request.ProfileID != "" {
		filter.ProfileID = &request.ProfileID
	}
	if request.Status != "" {
		filter.Status = &request.Status
	}

	total, err := tf.taskRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_TASKS_FAILED", "Failed to count tasks", err)
	}

	tasks, err := tf.taskRepo.ByFilter(ctx, filter, "task_order ASC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_TASKS_FAILED", "Failed to list tasks", err)
	}

	names, err := tf.profileNames(ctx)
	if err != nil {
		return nil, NewBusinessError("LIST_TASKS_FAILED", "Failed to load profiles", err)
	}

	out := make([]dto.TaskDTO, 0, len(tasks))
	for _, task := range tasks {
		item := ToTaskDTO(*task)
		item.ProfileName = names[task.ProfileID]
		out = append(out, item)
	}

	return &dto.ListTasksResponse{
		Tasks: out,
		Pagination: dto.Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}, nil
}

// CompleteTask flips one task to completed
func (tf *TaskFlowImpl) CompleteTask(ctx context.Context, id string, metadata *ClientMetadata) (*dto.TaskDTO, error) {
	task, err := tf.taskRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("COMPLETE_TASK_FAILED", "Failed to load task", err)
	}
	if task == nil {
		return nil, NewBusinessError("TASK_NOT_FOUND", "Task not found", ErrTaskNotFound)
	}
	if task.IsCompleted() {
		return nil, NewBusinessError("TASK_ALREADY_COMPLETED", "Task is already completed", ErrTaskAlreadyCompleted)
	}

	if err := tf.taskRepo.Complete(ctx, id); err != nil {
		return nil, NewBusinessError("COMPLETE_TASK_FAILED", "Failed to complete task", err)
	}

	updated, err := tf.taskRepo.ByID(ctx, id)
	if err != nil || updated == nil {
		return nil, NewBusinessError("COMPLETE_TASK_FAILED", "Failed to reload task", err)
	}

	item := ToTaskDTO(*updated)
	return &item, nil
}

// DeletePendingByProfile clears the remaining board of one profile. The
// dashboard uses this as its "complete all" action.
func (tf *TaskFlowImpl) DeletePendingByProfile(ctx context.Context, profileID string, metadata *ClientMetadata) (*dto.DeletePendingTasksResponse, error) {
	profile, err := tf.profileRepo.ByID(ctx, profileID)
	if err != nil {
		return nil, NewBusinessError("DELETE_PENDING_FAILED", "Failed to load profile", err)
	}
	if profile == nil {
		return nil, NewBusinessError("PROFILE_NOT_FOUND", "Profile not found", ErrProfileNotFound)
	}

	deleted, err := tf.taskRepo.DeletePendingByProfile(ctx, profileID)
	if err != nil {
		return nil, NewBusinessError("DELETE_PENDING_FAILED", "Failed to delete pending tasks", err)
	}

	return &dto.DeletePendingTasksResponse{Deleted: deleted}, nil
}

// Private helper methods

// buildTasks expands the assignment set into the full task list. Group
// batches come out per assignment; profile batches come out once per profile
// per role.
func (tf *TaskFlowImpl) buildTasks(assignments []*models.ProfileGroup, groupURLs map[uint]string) []*models.Task {
	var tasks []*models.Task

	adminProfiles := make(map[string]bool)
	engagementProfiles := make(map[string]bool)

	for _, a := range assignments {
		var specs []taskSpec
		switch a.Role {
		case models.RoleAdmin:
			specs = adminGroupSpecs
			adminProfiles[a.ProfileID] = true
		case models.RoleEngagement:
			specs = engagementGroupSpecs
			engagementProfiles[a.ProfileID] = true
		default:
			continue
		}

		groupID := a.GroupID
		for _, spec := range specs {
			task := tf.newTask(a.ProfileID, spec)
			task.TargetGroupID = &groupID
			if url, ok := groupURLs[groupID]; ok {
				task.TargetURL = &url
			}
			tasks = append(tasks, task)
		}
	}

	for _, a := range assignments {
		if adminProfiles[a.ProfileID] {
			adminProfiles[a.ProfileID] = false
			for _, spec := range adminProfileSpecs {
				tasks = append(tasks, tf.newTask(a.ProfileID, spec))
			}
		}
		if engagementProfiles[a.ProfileID] {
			engagementProfiles[a.ProfileID] = false
			for _, spec := range engagementProfileSpecs {
				tasks = append(tasks, tf.newTask(a.ProfileID, spec))
			}
		}
	}

	return tasks
}

func (tf *TaskFlowImpl) newTask(profileID string, spec taskSpec) *models.Task {
	task := &models.Task{
		ID:        uuid.New().String(),
		ProfileID: profileID,
		TaskType:  spec.taskType,
		Status:    models.TaskStatusPending,
		TaskOrder: tf.rng.Intn(utils.TaskOrderBound),
		CreatedAt: utils.UTCNow(),
	}
	if spec.hasCount {
		count := spec.minCount + tf.rng.Intn(spec.maxCount-spec.minCount+1)
		task.ActionCount = &count
	}
	return task
}

func (tf *TaskFlowImpl) groupURLs(ctx context.Context) (map[uint]string, error) {
	groups, err := tf.groupRepo.ByFilter(ctx, models.FacebookGroupFilter{}, "", 0, 0)
	if err != nil {
		return nil, err
	}
	urls := make(map[uint]string, len(groups))
	for _, g := range groups {
		urls[g.ID] = g.URL
	}
	return urls, nil
}

func (tf *TaskFlowImpl) profileNames(ctx context.Context) (map[string]string, error) {
	profiles, err := tf.profileRepo.ByFilter(ctx, models.SocialProfileFilter{}, "", 0, 0)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.Name
	}
	return names, nil
}

func (tf *TaskFlowImpl) logGenerated(ctx context.Context, operatorEmail string, created int, metadata *ClientMetadata) {
	description := fmt.Sprintf("Generated %d tasks", created)
	audit := &models.AuditLog{
		Action:      models.AuditActionTasksGenerated,
		Description: &description,
		Success:     utils.ToPtr(true),
	}
	if operatorEmail != "" {
		audit.OperatorEmail = &operatorEmail
	}
	if metadata != nil {
		audit.IPAddress = utils.NilIfEmpty(&metadata.IPAddress)
		if metadata.RequestID != "" {
			audit.RequestID = &metadata.RequestID
		}
	}
	if bs, err := json.Marshal(map[string]int{"tasks_created": created}); err == nil {
		audit.Metadata = bs
	}
	_ = tf.auditRepo.Save(ctx, audit)
}
