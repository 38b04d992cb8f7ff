package dto

import "time"

type CreateEventRequest struct {
	Type           string     `json:"type" binding:"required,event_type"`
	Title          string     `json:"title" binding:"required,max=255"`
	Description    string     `json:"description"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        time.Time  `json:"end_date" binding:"required"`
	ProjectID      *int       `json:"project_id" binding:"omitempty,gt=0"`
	TaskID         *int       `json:"task_id" binding:"omitempty,gt=0"`
	ParticipantIDs []int      `json:"participant_ids" binding:"omitempty,dive,gt=0"`
}

type UpdateEventRequest struct {
	Title          *string    `json:"title" binding:"omitempty,max=255"`
	Description    *string    `json:"description"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	ParticipantIDs *[]int     `json:"participant_ids" binding:"omitempty,dive,gt=0"`
}

type RescheduleRequest struct {
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

type EventQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00" time_utc:"1"`
	To   *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00" time_utc:"1"`
}
