package services

import (
	"context"
	"fmt"
	"slices"

	"dunzo/model"

	"gorm.io/gorm"
)

// AssignmentInput is one row of a full reassignment.
type AssignmentInput struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}

func lockAssignments(tx *gorm.DB, taskID int) ([]model.Assignment, error) {
	var rows []model.Assignment
	if err := forUpdate(tx).Where("task_id = ?", taskID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func ownerOf(rows []model.Assignment) *model.Assignment {
	for i := range rows {
		if rows[i].Role == model.AssignOwner {
			return &rows[i]
		}
	}
	return nil
}

func assignmentOf(rows []model.Assignment, userID int) *model.Assignment {
	for i := range rows {
		if rows[i].UserID == userID {
			return &rows[i]
		}
	}
	return nil
}

func isOwner(rows []model.Assignment, userID int) bool {
	owner := ownerOf(rows)
	return owner != nil && owner.UserID == userID
}

// Assign creates or updates target's assignment on the task.
func (p *Planner) Assign(ctx context.Context, taskID, requester, target int, role string) (*model.Assignment, error) {
	if role == "" {
		role = model.AssignContributor
	}
	if !model.ValidAssignmentRole(role) {
		return nil, validation("Invalid role: %s", role)
	}

	out := newOutbox()
	var assignment model.Assignment
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if _, err := requireMember(tx, task.ProjectID, requester, "Only project members can assign users to this task"); err != nil {
			return err
		}
		var user model.User
		if err := tx.Where("user_id = ?", target).First(&user).Error; err != nil {
			return lookup(err, "User")
		}
		targetRole, err := roleOf(tx, task.ProjectID, target)
		if err != nil {
			return err
		}
		if targetRole == "" {
			return invalid("%s is not a member of this project", user.Username)
		}

		rows, err := lockAssignments(tx, taskID)
		if err != nil {
			return err
		}
		if role == model.AssignOwner && ownerOf(rows) != nil {
			return conflict("Task already has an Owner")
		}
		existing := assignmentOf(rows, target)
		if existing != nil && existing.Role == model.AssignOwner && requester != target {
			return denied("Only the task Owner can change their own role")
		}

		if existing != nil {
			if err := tx.Model(existing).Update("role", role).Error; err != nil {
				return err
			}
			existing.Role = role
			assignment = *existing
		} else {
			assignment = model.Assignment{TaskID: taskID, UserID: target, Role: role}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}
		assignment.User = user

		if err := out.notify(tx, target, "Assigned to a Task",
			fmt.Sprintf("You have been assigned to %q as %s", task.Title, role)); err != nil {
			return err
		}
		out.touch(task.ProjectID)
		return recordTimeline(tx, task.ProjectID, requester,
			fmt.Sprintf("Assigned %s to %s as %s", user.Username, task.Title, role),
			map[string]any{"task_id": taskID, "user_id": target, "role": role})
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	return &assignment, nil
}

// Unassign removes target from the task. Anyone may unassign themselves;
// removing others is reserved to the task Owner.
func (p *Planner) Unassign(ctx context.Context, taskID, requester, target int) error {
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
		existing := assignmentOf(rows, target)
		if existing == nil {
			return notFound("Assignment not found")
		}
		if target != requester && !isOwner(rows, requester) {
			return denied("Only the task Owner can unassign other users")
		}
		if err := tx.Delete(existing).Error; err != nil {
			return err
		}
		if target != requester {
			if err := out.notify(tx, target, "Unassigned from a Task",
				fmt.Sprintf("You have been removed from %q", task.Title)); err != nil {
				return err
			}
		}
		out.touch(task.ProjectID)
		return recordTimeline(tx, task.ProjectID, requester, fmt.Sprintf("Unassigned a user from %s", task.Title),
			map[string]any{"task_id": taskID, "user_id": target})
	})
	if err != nil {
		return err
	}
	p.flush(ctx, out)
	return nil
}

// UpdateStatus changes the task status. Only the current Owner may do it.
func (p *Planner) UpdateStatus(ctx context.Context, taskID, requester int, status string) (*model.Tasks, error) {
	if !model.ValidTaskStatus(status) {
		return nil, validation("Invalid status: %s", status)
	}

	out := newOutbox()
	var task *model.Tasks
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = lockTask(tx, taskID)
		if err != nil {
			return err
		}
		rows, err := lockAssignments(tx, taskID)
		if err != nil {
			return err
		}
		if !isOwner(rows, requester) {
			return denied("Only the task Owner can change its status")
		}
		if task.Status == status {
			return nil
		}
		old := task.Status
		if err := tx.Model(task).Update("status", status).Error; err != nil {
			return err
		}
		task.Status = status
		out.touch(task.ProjectID)
		return recordTimeline(tx, task.ProjectID, requester,
			fmt.Sprintf("Moved %s from %s to %s", task.Title, old, status),
			map[string]any{"task_id": taskID, "from": old, "to": status})
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	return task, nil
}

// ReassignAll replaces the whole assignment set of the task. The new set
// must hold exactly one Owner.
func (p *Planner) ReassignAll(ctx context.Context, taskID, requester int, set []AssignmentInput) ([]model.Assignment, error) {
	set = slices.Clone(set)
	seen := make(map[int]bool, len(set))
	owners := 0
	for i := range set {
		if set[i].Role == "" {
			set[i].Role = model.AssignContributor
		}
		if !model.ValidAssignmentRole(set[i].Role) {
			return nil, validation("Invalid role: %s", set[i].Role)
		}
		if seen[set[i].UserID] {
			return nil, validation("User %d appears more than once", set[i].UserID)
		}
		seen[set[i].UserID] = true
		if set[i].Role == model.AssignOwner {
			owners++
		}
	}

	out := newOutbox()
	var result []model.Assignment
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		rows, err := lockAssignments(tx, taskID)
		if err != nil {
			return err
		}
		if !isOwner(rows, requester) {
			return denied("Only the task Owner can reassign this task")
		}
		if owners != 1 {
			return invalid("A task must have exactly one Owner")
		}
		for _, a := range set {
			role, err := roleOf(tx, task.ProjectID, a.UserID)
			if err != nil {
				return err
			}
			if role == "" {
				return invalid("User %d is not a member of this project", a.UserID)
			}
		}

		if err := tx.Where("task_id = ?", taskID).Delete(&model.Assignment{}).Error; err != nil {
			return err
		}
		for _, a := range set {
			row := model.Assignment{TaskID: taskID, UserID: a.UserID, Role: a.Role}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			if assignmentOf(rows, a.UserID) == nil {
				if err := out.notify(tx, a.UserID, "Assigned to a Task",
					fmt.Sprintf("You have been assigned to %q as %s", task.Title, a.Role)); err != nil {
					return err
				}
			}
		}
		if err := tx.Preload("User").Where("task_id = ?", taskID).Order("assignment_id").Find(&result).Error; err != nil {
			return err
		}
		out.touch(task.ProjectID)
		return recordTimeline(tx, task.ProjectID, requester, fmt.Sprintf("Reassigned %s", task.Title),
			map[string]any{"task_id": taskID, "assignments": set})
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	return result, nil
}

// ChangeAssignmentRole lets the Owner change another assignee's role.
// Promoting someone to Owner hands ownership over; the previous Owner
// becomes a Contributor.
func (p *Planner) ChangeAssignmentRole(ctx context.Context, taskID, requester, target int, role string) (*model.Assignment, error) {
	if !model.ValidAssignmentRole(role) {
		return nil, validation("Invalid role: %s", role)
	}

	out := newOutbox()
	var assignment model.Assignment
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		rows, err := lockAssignments(tx, taskID)
		if err != nil {
			return err
		}
		if !isOwner(rows, requester) {
			return denied("Only the task Owner can change assignment roles")
		}
		existing := assignmentOf(rows, target)
		if existing == nil {
			return notFound("Assignment not found")
		}
		if existing.Role == role {
			assignment = *existing
			return nil
		}
		if role == model.AssignOwner && target != requester {
			current := ownerOf(rows)
			if err := tx.Model(current).Update("role", model.AssignContributor).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(existing).Update("role", role).Error; err != nil {
			return err
		}
		existing.Role = role
		assignment = *existing

		if target != requester {
			if err := out.notify(tx, target, "Assignment Role Changed",
				fmt.Sprintf("Your role on %q is now %s", task.Title, role)); err != nil {
				return err
			}
		}
		out.touch(task.ProjectID)
		return recordTimeline(tx, task.ProjectID, requester, fmt.Sprintf("Changed an assignment on %s to %s", task.Title, role),
			map[string]any{"task_id": taskID, "user_id": target, "role": role})
	})
	if err != nil {
		return nil, err
	}
	if err := p.db.WithContext(ctx).Where("user_id = ?", assignment.UserID).First(&assignment.User).Error; err != nil {
		return nil, lookup(err, "User")
	}
	p.flush(ctx, out)
	return &assignment, nil
}

// ListAssignees returns the task's assignments with their users.
func (p *Planner) ListAssignees(ctx context.Context, taskID, requester int) ([]model.Assignment, error) {
	db := p.db.WithContext(ctx)
	task, err := GetTaskData(db, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(db, task.ProjectID, requester, "You are not a member of this project"); err != nil {
		return nil, err
	}
	var rows []model.Assignment
	if err := db.Preload("User").Where("task_id = ?", taskID).Order("assignment_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
