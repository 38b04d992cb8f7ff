package dto

type AssignRequest struct {
	UserID int    `json:"user_id" binding:"required,gt=0"`
	Role   string `json:"role" binding:"task_role"`
}

type AssignmentRoleRequest struct {
	Role string `json:"role" binding:"required,task_role"`
}

type AssigneeEntry struct {
	UserID int    `json:"user_id" binding:"required,gt=0"`
	Role   string `json:"role" binding:"required,task_role"`
}

type ReassignRequest struct {
	Assignees []AssigneeEntry `json:"assignees" binding:"required,dive"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required,task_status"`
}
