// Package models contains domain entities and business models for the operations dashboard
package models

import (
	"time"
)

// Task status constants
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// Admin task kinds
const (
	TaskTypeApprovePost   = "approve_post"
	TaskTypeCommentGroup  = "comment_group"
	TaskTypeLikeGroupPost = "like_group_post"
	TaskTypeLikeComment   = "like_comment"
	TaskTypeSchedulePost  = "schedule_post"
	TaskTypeAnswerDM      = "answer_dm"
	TaskTypeLikeFeed      = "like_feed"
)

// Engagement task kinds
const (
	TaskTypeCommentPosts   = "comment_posts"
	TaskTypeAnswerComments = "answer_comments"
	TaskTypeLikePosts      = "like_posts"
	TaskTypeInviteFriends  = "invite_friends"
	TaskTypeAddFriends     = "add_friends"
)

// Task is an ephemeral unit of manual work assigned to a profile. Pending
// tasks are wiped and regenerated by the daily generation routine.
type Task struct {
	ID            string  `gorm:"size:36;primaryKey" json:"id"`
	ProfileID     string  `gorm:"size:36;not null;index:idx_tasks_profile_id" json:"profile_id"`
	TaskType      string  `gorm:"size:32;not null" json:"task_type"`
	Status        string  `gorm:"size:16;not null;default:pending;index:idx_tasks_status" json:"status"`
	TargetGroupID *uint   `gorm:"index:idx_tasks_target_group_id" json:"target_group_id,omitempty"`
	TargetURL     *string `gorm:"size:512" json:"target_url,omitempty"`

	// TaskOrder is a random value in [0, 1_000_000) used only to shuffle the
	// display order; lower sorts first, ties broken arbitrarily.
	TaskOrder   int  `gorm:"column:task_order;not null;default:0" json:"order"`
	ActionCount *int `json:"action_count,omitempty"`

	CreatedAt   time.Time  `gorm:"default:CURRENT_TIMESTAMP;index:idx_tasks_created_at" json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Profile     SocialProfile  `gorm:"foreignKey:ProfileID;references:ID" json:"-"`
	TargetGroup *FacebookGroup `gorm:"foreignKey:TargetGroupID;references:ID" json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}

// TaskFilter represents filter criteria for task queries
type TaskFilter struct {
	ID            *string
	ProfileID     *string
	TaskType      *string
	Status        *string
	TargetGroupID *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (t *Task) IsPending() bool {
	return t.Status == TaskStatusPending
}

func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}
