package model

import (
	"time"
)

const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
	StatusBlocked    = "Blocked"
	StatusArchived   = "Archived"
)

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

type Tasks struct {
	TaskID       int        `gorm:"column:task_id;primaryKey;autoIncrement" json:"task_id"`
	ProjectID    int        `gorm:"column:project_id;not null;index" json:"project_id"`
	Title        string     `gorm:"column:title;type:varchar(100);not null" json:"title"`
	Description  string     `gorm:"column:description;type:text" json:"description"`
	Status       string     `gorm:"column:status;type:varchar(20);default:'To Do';not null" json:"status"`
	Priority     string     `gorm:"column:priority;type:varchar(10);default:'Medium';not null" json:"priority"`
	DueDate      *time.Time `gorm:"column:due_date" json:"due_date"`
	CreateBy     int        `gorm:"column:create_by" json:"created_by"`
	ReminderSent bool       `gorm:"column:reminder_sent;default:false" json:"-"`
	CreateAt     time.Time  `gorm:"column:create_at;autoCreateTime" json:"created_at"`
	UpdateAt     time.Time  `gorm:"column:update_at;autoUpdateTime" json:"updated_at"`

	// Relations
	Project     Project      `gorm:"foreignKey:ProjectID;references:ProjectID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
	Tags        []Tag        `gorm:"many2many:task_tags;joinForeignKey:TaskID;joinReferences:TagID" json:"tags"`
	Assignments []Assignment `gorm:"foreignKey:TaskID;references:TaskID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"assignments,omitempty"`
}

func (Tasks) TableName() string {
	return "tasks"
}

func ValidTaskStatus(s string) bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone, StatusBlocked, StatusArchived:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
