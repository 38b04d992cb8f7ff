package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"dunzo/model"

	"gorm.io/gorm"
)

const reminderWindow = 24 * time.Hour

type reminderPush struct {
	tokens []string
	title  string
	body   string
	taskID int
}

// SendDeadlineReminders notifies the assignees of open tasks due within the
// next day. Each task is reminded once per due date.
func (p *Planner) SendDeadlineReminders(ctx context.Context) (int, error) {
	now := p.now()
	out := newOutbox()
	var pushes []reminderPush
	var reminded int

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tasks []model.Tasks
		err := forUpdate(tx).
			Where("due_date IS NOT NULL AND due_date >= ? AND due_date <= ?", now, now.Add(reminderWindow)).
			Where("status NOT IN ?", []string{model.StatusDone, model.StatusArchived}).
			Where("reminder_sent = ?", false).
			Find(&tasks).Error
		if err != nil {
			return err
		}
		for _, task := range tasks {
			var assignees []model.Assignment
			if err := tx.Preload("User").Where("task_id = ?", task.TaskID).Find(&assignees).Error; err != nil {
				return err
			}
			title := "Deadline Approaching"
			body := fmt.Sprintf("%q is due on %s", task.Title, task.DueDate.Format("02 Jan 2006 15:04"))
			push := reminderPush{title: title, body: body, taskID: task.TaskID}
			for _, a := range assignees {
				if err := out.record(tx, a.UserID, title, body); err != nil {
					return err
				}
				if a.User.FCMToken != "" {
					push.tokens = append(push.tokens, a.User.FCMToken)
				}
			}
			if err := tx.Model(&model.Tasks{}).Where("task_id = ?", task.TaskID).Update("reminder_sent", true).Error; err != nil {
				return err
			}
			if len(push.tokens) > 0 {
				pushes = append(pushes, push)
			}
			reminded++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	p.flush(ctx, out)
	if p.mirror != nil {
		for _, push := range pushes {
			data := map[string]string{"task_id": strconv.Itoa(push.taskID)}
			if err := p.mirror.Multicast(ctx, push.tokens, push.title, push.body, data); err != nil {
				log.Printf("Warning: failed to push reminder for task %d: %v", push.taskID, err)
			}
		}
	}
	return reminded, nil
}
