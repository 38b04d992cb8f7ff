package model

import (
	"time"
)

const (
	AssignOwner       = "Owner"
	AssignContributor = "Contributor"
	AssignReviewer    = "Reviewer"
)

type Assignment struct {
	AssignmentID int       `gorm:"column:assignment_id;primaryKey;autoIncrement" json:"assignment_id"`
	TaskID       int       `gorm:"column:task_id;not null;uniqueIndex:idx_task_user" json:"task_id"`
	UserID       int       `gorm:"column:user_id;not null;uniqueIndex:idx_task_user;index" json:"user_id"`
	Role         string    `gorm:"column:role;type:varchar(20);default:'Contributor';not null" json:"role"`
	AssignedAt   time.Time `gorm:"column:assigned_at;autoCreateTime" json:"assigned_at"`

	// Relations
	User User `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"user"`
}

func (Assignment) TableName() string {
	return "assignments"
}

func ValidAssignmentRole(r string) bool {
	switch r {
	case AssignOwner, AssignContributor, AssignReviewer:
		return true
	}
	return false
}
