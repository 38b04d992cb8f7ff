package dto

import "time"

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" binding:"task_priority"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeIDs []int      `json:"assignee_ids" binding:"omitempty,dive,gt=0"`
	TagIDs      []int      `json:"tag_ids" binding:"omitempty,dive,gt=0"`
}

type UpdateTaskRequest struct {
	Title        *string    `json:"title" binding:"omitempty,max=255"`
	Description  *string    `json:"description"`
	Priority     *string    `json:"priority" binding:"omitempty,task_priority"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
	TagIDs       *[]int     `json:"tag_ids" binding:"omitempty,dive,gt=0"`
}

type TaskQuery struct {
	Status string `form:"status" binding:"task_status"`
	Filter string `form:"filter" binding:"omitempty,oneof=All Mine"`
}
