// model/calendar_event.go
package model

import (
	"time"
)

const (
	EventTypeDeadline = "Deadline"
	EventTypeMeeting  = "Meeting"
	EventTypeEvent    = "Event"
)

type CalendarEvent struct {
	EventID         int        `gorm:"column:event_id;primaryKey;autoIncrement" json:"event_id"`
	ProjectID       *int       `gorm:"column:project_id;index" json:"project_id"`
	TaskID          *int       `gorm:"column:task_id;index" json:"task_id"`
	CreatedBy       *int       `gorm:"column:created_by;index" json:"created_by"`
	Title           string     `gorm:"column:title;type:varchar(100);not null" json:"title"`
	Type            string     `gorm:"column:type;type:varchar(20);default:'Event';not null" json:"type"`
	Description     string     `gorm:"column:description;type:text" json:"description"`
	StartDate       *time.Time `gorm:"column:start_date" json:"start_date"`
	EndDate         time.Time  `gorm:"column:end_date;not null" json:"end_date"`
	IsAutoGenerated bool       `gorm:"column:is_auto_generated;default:false" json:"is_auto_generated"`

	// Relations
	Participants []User `gorm:"many2many:calendar_event_participants;joinForeignKey:EventID;joinReferences:UserID" json:"participants"`
}

func (CalendarEvent) TableName() string {
	return "calendar_events"
}

// HasParticipant reports whether userID is in the loaded participant set.
func (e CalendarEvent) HasParticipant(userID int) bool {
	for _, p := range e.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (e CalendarEvent) IsCreator(userID int) bool {
	return e.CreatedBy != nil && *e.CreatedBy == userID
}

// EventParticipant is the join row between an event and a participating user.
type EventParticipant struct {
	EventID int `gorm:"column:event_id;primaryKey"`
	UserID  int `gorm:"column:user_id;primaryKey"`
}

func (EventParticipant) TableName() string {
	return "calendar_event_participants"
}
