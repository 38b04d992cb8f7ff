// model/comment.go
package model

import (
	"time"
)

type Comment struct {
	CommentID int       `gorm:"column:comment_id;primaryKey;autoIncrement" json:"comment_id"`
	TaskID    int       `gorm:"column:task_id;not null;index" json:"task_id"`
	UserID    int       `gorm:"column:user_id;not null" json:"user_id"`
	ParentID  *int      `gorm:"column:parent_id" json:"parent_id"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relations
	Task   Tasks    `gorm:"foreignKey:TaskID;references:TaskID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
	User   User     `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"user"`
	Parent *Comment `gorm:"foreignKey:ParentID;references:CommentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}
