package model

import (
	"time"
)

type Notification struct {
	NotificationID int       `gorm:"column:notification_id;primaryKey;autoIncrement" json:"notification_id"`
	UserID         int       `gorm:"column:user_id;not null;index" json:"user_id"`
	Title          string    `gorm:"column:title;type:varchar(100)" json:"title"`
	Message        string    `gorm:"column:message;type:text" json:"message"`
	IsRead         bool      `gorm:"column:is_read;default:false;not null" json:"is_read"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
