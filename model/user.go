package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	UserID    int       `gorm:"column:user_id;primaryKey;autoIncrement" json:"user_id"`
	Username  string    `gorm:"column:username;type:varchar(150);uniqueIndex;not null" json:"username"`
	Email     *string   `gorm:"column:email;type:varchar(254);uniqueIndex" json:"email"`
	FirstName string    `gorm:"column:first_name;type:varchar(150)" json:"first_name"`
	LastName  string    `gorm:"column:last_name;type:varchar(150)" json:"last_name"`
	Password  string    `gorm:"column:password;type:varchar(255);not null" json:"-"`
	FCMToken  string    `gorm:"column:fcm_token;type:varchar(255)" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// BeforeSave keeps the optional email unique by storing blanks as NULL.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Email != nil && *u.Email == "" {
		u.Email = nil
	}
	return nil
}

// DisplayName falls back to the username when no real name is set.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}
