package services

import (
	"errors"
	"time"

	"dunzo/model"

	"gorm.io/gorm"
)

// endOfDay moves a due date to 23:59:59 of the same day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// syncTaskDeadline keeps the generated Deadline of a task in line with its
// due date. A task without a due date has no Deadline.
func syncTaskDeadline(tx *gorm.DB, task *model.Tasks) error {
	var event model.CalendarEvent
	err := tx.Where("task_id = ? AND type = ? AND is_auto_generated = ?", task.TaskID, model.EventTypeDeadline, true).First(&event).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if task.DueDate == nil {
		if !found {
			return nil
		}
		return purgeEvents(tx, "event_id = ?", event.EventID)
	}

	title := "Deadline: " + task.Title
	end := endOfDay(*task.DueDate)
	if found {
		return tx.Model(&event).Updates(map[string]any{"title": title, "end_date": end}).Error
	}
	projectID, taskID := task.ProjectID, task.TaskID
	event = model.CalendarEvent{
		ProjectID:       &projectID,
		TaskID:          &taskID,
		Title:           title,
		Type:            model.EventTypeDeadline,
		Description:     task.Description,
		EndDate:         end,
		IsAutoGenerated: true,
	}
	return tx.Omit("Participants").Create(&event).Error
}

// syncProjectDeadline does the same for a project's end date.
func syncProjectDeadline(tx *gorm.DB, project *model.Project) error {
	var event model.CalendarEvent
	err := tx.Where("project_id = ? AND task_id IS NULL AND type = ? AND is_auto_generated = ?",
		project.ProjectID, model.EventTypeDeadline, true).First(&event).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if project.EndDate == nil {
		if !found {
			return nil
		}
		return purgeEvents(tx, "event_id = ?", event.EventID)
	}

	title := "Project deadline: " + project.Title
	end := endOfDay(*project.EndDate)
	if found {
		return tx.Model(&event).Updates(map[string]any{"title": title, "end_date": end}).Error
	}
	projectID := project.ProjectID
	event = model.CalendarEvent{
		ProjectID:       &projectID,
		Title:           title,
		Type:            model.EventTypeDeadline,
		Description:     project.Description,
		EndDate:         end,
		IsAutoGenerated: true,
	}
	return tx.Omit("Participants").Create(&event).Error
}

// purgeEvents deletes the matching events together with their participant rows.
func purgeEvents(tx *gorm.DB, query string, args ...any) error {
	ids := tx.Model(&model.CalendarEvent{}).Select("event_id").Where(query, args...)
	if err := tx.Where("event_id IN (?)", ids).Delete(&model.EventParticipant{}).Error; err != nil {
		return err
	}
	return tx.Where(query, args...).Delete(&model.CalendarEvent{}).Error
}
