package model

import (
	"time"
)

const (
	ProjectActive   = "Active"
	ProjectArchived = "Archived"
	ProjectComplete = "Complete"
)

type Project struct {
	ProjectID   int        `gorm:"column:project_id;primaryKey;autoIncrement" json:"project_id"`
	Title       string     `gorm:"column:title;type:varchar(100);not null" json:"title"`
	Description string     `gorm:"column:description;type:text" json:"description"`
	StartDate   *time.Time `gorm:"column:start_date" json:"start_date"`
	EndDate     *time.Time `gorm:"column:end_date" json:"end_date"`
	Status      string     `gorm:"column:status;type:varchar(20);default:'Active';not null" json:"status"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relations
	Memberships []ProjectMembership `gorm:"foreignKey:ProjectID;references:ProjectID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
	Tags        []Tag               `gorm:"foreignKey:ProjectID;references:ProjectID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectActive, ProjectArchived, ProjectComplete:
		return true
	}
	return false
}
