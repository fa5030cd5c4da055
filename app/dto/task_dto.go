package dto

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID            string  `json:"id"`
	ProfileID     string  `json:"profile_id"`
	ProfileName   string  `json:"profile_name,omitempty"`
	TaskType      string  `json:"task_type"`
	Status        string  `json:"status"`
	TargetGroupID *uint   `json:"target_group_id,omitempty"`
	TargetURL     *string `json:"target_url,omitempty"`
	Order         int     `json:"order"`
	ActionCount   *int    `json:"action_count,omitempty"`
	CreatedAt     string  `json:"created_at"`
	CompletedAt   *string `json:"completed_at,omitempty"`
}

// ListTasksRequest carries the query filters of the task listing endpoint
type ListTasksRequest struct {
	ProfileID string `query:"profile_id" validate:"omitempty,uuid4"`
	Status    string `query:"status" validate:"omitempty,oneof=pending completed"`
	Page      int    `query:"page" validate:"omitempty,min=1"`
	PageSize  int    `query:"page_size" validate:"omitempty,min=1,max=500"`
}

// ListTasksResponse wraps a page of tasks
type ListTasksResponse struct {
	Tasks      []TaskDTO  `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

// GenerateTasksResponse reports the outcome of a generation run
type GenerateTasksResponse struct {
	TasksCreated int    `json:"tasks_created"`
	GeneratedAt  string `json:"generated_at"`
}

// DeletePendingTasksResponse reports how many pending tasks went away
type DeletePendingTasksResponse struct {
	Deleted int64 `json:"deleted"`
}
