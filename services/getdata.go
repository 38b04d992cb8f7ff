package services

import (
	"dunzo/model"

	"gorm.io/gorm"
)

func GetUserdata(db *gorm.DB, userID int) (*model.User, error) {
	var user model.User
	if err := db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, lookup(err, "User")
	}
	return &user, nil
}

func GetTaskData(db *gorm.DB, taskID int) (*model.Tasks, error) {
	var task model.Tasks
	if err := db.Where("task_id = ?", taskID).First(&task).Error; err != nil {
		return nil, lookup(err, "Task")
	}
	return &task, nil
}

func GetEventData(db *gorm.DB, eventID int) (*model.CalendarEvent, error) {
	var event model.CalendarEvent
	if err := db.Preload("Participants").Where("event_id = ?", eventID).First(&event).Error; err != nil {
		return nil, lookup(err, "Event")
	}
	return &event, nil
}
