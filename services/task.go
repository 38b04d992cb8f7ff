package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dunzo/model"

	"gorm.io/gorm"
)

// Task list filters.
const (
	TaskFilterAll  = "All"
	TaskFilterMine = "Mine"
)

type TaskInput struct {
	ProjectID   int
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	AssigneeIDs []int
	TagIDs      []int
}

type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *string
	DueDate     *time.Time
	// ClearDueDate removes the due date and its Deadline event.
	ClearDueDate bool
	TagIDs       *[]int
}

func projectTags(tx *gorm.DB, projectID int, ids []int) ([]model.Tag, error) {
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}
	var tags []model.Tag
	if err := tx.Where("project_id = ? AND tag_id IN ?", projectID, ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	found := make(map[int]bool, len(tags))
	for _, t := range tags {
		found[t.TagID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, validation("Tag %d does not belong to this project", id)
		}
	}
	return tags, nil
}

// CreateTask creates a task in a project. The creator becomes its Owner and
// the extra assignees join as Contributors.
func (p *Planner) CreateTask(ctx context.Context, requester int, in TaskInput) (*model.Tasks, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, validation("Title is required")
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if !model.ValidPriority(in.Priority) {
		return nil, validation("Invalid priority: %s", in.Priority)
	}

	out := newOutbox()
	task := model.Tasks{
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      model.StatusToDo,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreateBy:    requester,
	}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, in.ProjectID); err != nil {
			return err
		}
		if _, err := requireMember(tx, in.ProjectID, requester, "Only project members can create tasks"); err != nil {
			return err
		}
		tags, err := projectTags(tx, in.ProjectID, in.TagIDs)
		if err != nil {
			return err
		}
		for _, id := range in.AssigneeIDs {
			role, err := roleOf(tx, in.ProjectID, id)
			if err != nil {
				return err
			}
			if role == "" {
				return invalid("User %d is not a member of this project", id)
			}
		}

		if err := tx.Omit("Tags", "Assignments", "Project").Create(&task).Error; err != nil {
			return err
		}
		owner := model.Assignment{TaskID: task.TaskID, UserID: requester, Role: model.AssignOwner}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}
		seen := map[int]bool{requester: true}
		for _, id := range in.AssigneeIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			a := model.Assignment{TaskID: task.TaskID, UserID: id, Role: model.AssignContributor}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
			if err := out.notify(tx, id, "Assigned to a Task",
				fmt.Sprintf("You have been assigned to %q as %s", task.Title, model.AssignContributor)); err != nil {
				return err
			}
		}
		if len(tags) > 0 {
			if err := tx.Model(&task).Omit("Tags.*").Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		if err := syncTaskDeadline(tx, &task); err != nil {
			return err
		}
		out.touch(task.ProjectID)
		return recordTimeline(tx, task.ProjectID, requester, fmt.Sprintf("Created task %s", task.Title),
			map[string]any{"task_id": task.TaskID})
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	return p.loadTask(ctx, task.TaskID)
}

func (p *Planner) loadTask(ctx context.Context, taskID int) (*model.Tasks, error) {
	var task model.Tasks
	err := p.db.WithContext(ctx).
		Preload("Tags").
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("assignment_id") }).
		Preload("Assignments.User").
		Where("task_id = ?", taskID).First(&task).Error
	if err != nil {
		return nil, lookup(err, "Task")
	}
	return &task, nil
}

// ListTasks returns the project's tasks, optionally narrowed by status and
// to tasks the requester is assigned to.
func (p *Planner) ListTasks(ctx context.Context, projectID, requester int, status, filterType string) ([]model.Tasks, error) {
	db := p.db.WithContext(ctx)
	if _, err := findProject(db, projectID); err != nil {
		return nil, err
	}
	if _, err := requireMember(db, projectID, requester, "You are not a member of this project"); err != nil {
		return nil, err
	}
	q := db.Preload("Tags").Preload("Assignments.User").Where("project_id = ?", projectID)
	if status != "" {
		if !model.ValidTaskStatus(status) {
			return nil, validation("Invalid status: %s", status)
		}
		q = q.Where("status = ?", status)
	}
	switch filterType {
	case "", TaskFilterAll:
	case TaskFilterMine:
		mine := db.Model(&model.Assignment{}).Select("task_id").Where("user_id = ?", requester)
		q = q.Where("task_id IN (?)", mine)
	default:
		return nil, validation("Invalid filter type: %s", filterType)
	}
	var tasks []model.Tasks
	if err := q.Order("create_at DESC").Order("task_id DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns a task with its tags and assignees. Members only.
func (p *Planner) GetTask(ctx context.Context, taskID, requester int) (*model.Tasks, error) {
	task, err := p.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(p.db.WithContext(ctx), task.ProjectID, requester, "You are not a member of this project"); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask edits task details. Status goes through UpdateStatus.
func (p *Planner) UpdateTask(ctx context.Context, taskID, requester int, in TaskUpdate) (*model.Tasks, error) {
	if in.ClearDueDate && in.DueDate != nil {
		return nil, validation("Cannot set and clear the due date at once")
	}
	out := newOutbox()
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if _, err := requireMember(tx, task.ProjectID, requester, "Only project members can edit this task"); err != nil {
			return err
		}

		changes := map[string]any{}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return validation("Title is required")
			}
			task.Title = title
			changes["title"] = title
		}
		if in.Description != nil {
			task.Description = *in.Description
			changes["description"] = *in.Description
		}
		if in.Priority != nil {
			if !model.ValidPriority(*in.Priority) {
				return validation("Invalid priority: %s", *in.Priority)
			}
			task.Priority = *in.Priority
			changes["priority"] = *in.Priority
		}
		if in.DueDate != nil {
			task.DueDate = in.DueDate
			changes["due_date"] = *in.DueDate
			changes["reminder_sent"] = false
		}
		if in.ClearDueDate {
			task.DueDate = nil
			changes["due_date"] = nil
			changes["reminder_sent"] = false
		}
		if in.TagIDs != nil {
			tags, err := projectTags(tx, task.ProjectID, *in.TagIDs)
			if err != nil {
				return err
			}
			tagged := tx.Model(task).Omit("Tags.*").Association("Tags")
			if len(tags) == 0 {
				err = tagged.Clear()
			} else {
				err = tagged.Replace(tags)
			}
			if err != nil {
				return err
			}
		}
		if len(changes) > 0 {
			if err := tx.Model(task).Omit("Tags", "Assignments", "Project").Updates(changes).Error; err != nil {
				return err
			}
		}
		if in.DueDate != nil || in.ClearDueDate || in.Title != nil {
			if err := syncTaskDeadline(tx, task); err != nil {
				return err
			}
		}
		out.touch(task.ProjectID)
		return recordTimeline(tx, task.ProjectID, requester, fmt.Sprintf("Updated task %s", task.Title),
			map[string]any{"task_id": taskID})
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	return p.loadTask(ctx, taskID)
}

// DeleteTask deletes a task. Allowed for its Owner and for project Leaders
// and Managers.
func (p *Planner) DeleteTask(ctx context.Context, taskID, requester int) error {
	out := newOutbox()
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		rows, err := lockAssignments(tx, taskID)
		if err != nil {
			return err
		}
		role, err := roleOf(tx, task.ProjectID, requester)
		if err != nil {
			return err
		}
		if !isOwner(rows, requester) && !model.CanManageMembers(role) {
			return denied("Only the task Owner or a project Leader or Manager can delete this task")
		}
		if err := purgeTask(tx, taskID); err != nil {
			return err
		}
		out.touch(task.ProjectID)
		return recordTimeline(tx, task.ProjectID, requester, fmt.Sprintf("Deleted task %s", task.Title),
			map[string]any{"task_id": taskID})
	})
	if err != nil {
		return err
	}
	p.flush(ctx, out)
	return nil
}

func purgeTask(tx *gorm.DB, taskID int) error {
	if err := tx.Where("task_id = ?", taskID).Delete(&model.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("task_id = ?", taskID).Delete(&model.Assignment{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&model.Tasks{TaskID: taskID}).Association("Tags").Clear(); err != nil {
		return err
	}
	if err := purgeEvents(tx, "task_id = ?", taskID); err != nil {
		return err
	}
	return tx.Where("task_id = ?", taskID).Delete(&model.Tasks{}).Error
}
