package dto

import "time"

type CreateProjectRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

type UpdateProjectRequest struct {
	Title          *string    `json:"title" binding:"omitempty,max=255"`
	Description    *string    `json:"description"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	ClearStartDate bool       `json:"clear_start_date"`
	ClearEndDate   bool       `json:"clear_end_date"`
	Status         *string    `json:"status" binding:"omitempty,oneof=Active Archived Complete"`
}

type AddMemberRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Role       string `json:"role" binding:"project_role"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,project_role"`
}
