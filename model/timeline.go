package model

import (
	"time"

	"gorm.io/datatypes"
)

// TimelineEntry is one line of a project's activity feed, newest first.
type TimelineEntry struct {
	TimelineID int            `gorm:"column:timeline_id;primaryKey;autoIncrement" json:"timeline_id"`
	ProjectID  int            `gorm:"column:project_id;not null;index" json:"project_id"`
	UserID     *int           `gorm:"column:user_id" json:"user_id"`
	Action     string         `gorm:"column:action;type:varchar(255);not null" json:"action"`
	Details    datatypes.JSON `gorm:"column:details" json:"details"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID;references:ProjectID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
}

func (TimelineEntry) TableName() string {
	return "timeline_entries"
}
