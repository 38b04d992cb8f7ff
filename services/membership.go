package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"dunzo/model"

	"gorm.io/gorm"
)

var roleRank = map[string]int{
	model.RoleLeader:  0,
	model.RoleManager: 1,
	model.RoleMember:  2,
}

// AddMember adds the user found by username or email to the project.
func (p *Planner) AddMember(ctx context.Context, projectID, requester int, identifier, role string) (*model.ProjectMembership, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, validation("Username or email is required")
	}
	if role == "" {
		role = model.RoleMember
	}
	if !model.ValidProjectRole(role) {
		return nil, validation("Invalid role: %s", role)
	}

	out := newOutbox()
	var membership model.ProjectMembership
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		reqRole, err := roleOf(tx, projectID, requester)
		if err != nil {
			return err
		}
		if !model.CanManageMembers(reqRole) {
			return denied("Only Leaders or Managers can add members")
		}
		if role == model.RoleLeader && reqRole != model.RoleLeader {
			return denied("Only a Leader can add another Leader")
		}

		var target model.User
		if err := tx.Where("username = ? OR email = ?", identifier, identifier).First(&target).Error; err != nil {
			return lookup(err, "User")
		}
		existing, err := roleOf(tx, projectID, target.UserID)
		if err != nil {
			return err
		}
		if existing != "" {
			return conflict("%s is already a member of this project", target.Username)
		}

		membership = model.ProjectMembership{ProjectID: projectID, UserID: target.UserID, Role: role}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		membership.User = target

		if err := out.notify(tx, target.UserID, "Invited to Project",
			fmt.Sprintf("You have been added to %s as %s", project.Title, role)); err != nil {
			return err
		}
		out.touch(projectID)
		return recordTimeline(tx, projectID, requester, fmt.Sprintf("Added %s as %s", target.Username, role),
			map[string]any{"user_id": target.UserID, "role": role})
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	return &membership, nil
}

// RemoveMember removes target from the project. Users may always leave,
// except the last Leader.
func (p *Planner) RemoveMember(ctx context.Context, projectID, requester, target int) error {
	out := newOutbox()
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		var membership model.ProjectMembership
		if err := forUpdate(tx).Preload("User").Where("project_id = ? AND user_id = ?", projectID, target).First(&membership).Error; err != nil {
			return lookup(err, "Membership")
		}

		if target == requester {
			if membership.Role == model.RoleLeader {
				leaders, err := countLeaders(tx, projectID)
				if err != nil {
					return err
				}
				if leaders <= 1 {
					return invalid("Cannot leave the project as its sole Leader")
				}
			}
		} else {
			reqRole, err := roleOf(tx, projectID, requester)
			if err != nil {
				return err
			}
			if !model.CanManageMembers(reqRole) {
				return denied("Only Leaders or Managers can remove members")
			}
			if reqRole == model.RoleManager && membership.Role == model.RoleLeader {
				return denied("Managers cannot remove a Leader")
			}
		}

		if err := detachMember(tx, projectID, target); err != nil {
			return err
		}
		if err := tx.Delete(&membership).Error; err != nil {
			return err
		}

		if target != requester {
			if err := out.notify(tx, target, "Removed from the Project",
				fmt.Sprintf("You have been removed from %s", project.Title)); err != nil {
				return err
			}
		}
		out.touch(projectID)
		out.evict(projectID, target)
		action := fmt.Sprintf("Removed %s", membership.User.Username)
		if target == requester {
			action = fmt.Sprintf("%s left the project", membership.User.Username)
		}
		return recordTimeline(tx, projectID, requester, action, map[string]any{"user_id": target})
	})
	if err != nil {
		return err
	}
	p.flush(ctx, out)
	return nil
}

// ChangeRole sets target's role. Only Leaders may do this and the project
// always keeps at least one Leader.
func (p *Planner) ChangeRole(ctx context.Context, projectID, requester, target int, newRole string) (*model.ProjectMembership, error) {
	if !model.ValidProjectRole(newRole) {
		return nil, validation("Invalid role: %s", newRole)
	}

	out := newOutbox()
	var membership model.ProjectMembership
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		reqRole, err := roleOf(tx, projectID, requester)
		if err != nil {
			return err
		}
		if reqRole != model.RoleLeader {
			return denied("Only a Leader can change member roles")
		}
		if err := forUpdate(tx).Preload("User").Where("project_id = ? AND user_id = ?", projectID, target).First(&membership).Error; err != nil {
			return lookup(err, "Membership")
		}
		if membership.Role == newRole {
			return nil
		}
		if membership.Role == model.RoleLeader {
			leaders, err := countLeaders(tx, projectID)
			if err != nil {
				return err
			}
			if leaders <= 1 {
				return invalid("Project must keep at least one Leader")
			}
		}

		old := membership.Role
		if err := tx.Model(&membership).Update("role", newRole).Error; err != nil {
			return err
		}
		membership.Role = newRole
		if target != requester {
			if err := out.notify(tx, target, "Role Changed",
				fmt.Sprintf("Your role in %s is now %s", project.Title, newRole)); err != nil {
				return err
			}
		}
		out.touch(projectID)
		return recordTimeline(tx, projectID, requester,
			fmt.Sprintf("Changed %s from %s to %s", membership.User.Username, old, newRole),
			map[string]any{"user_id": target, "from": old, "to": newRole})
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	return &membership, nil
}

// ListMembers returns the members ordered Leader, Manager, Member, then username.
func (p *Planner) ListMembers(ctx context.Context, projectID, requester int) ([]model.ProjectMembership, error) {
	db := p.db.WithContext(ctx)
	if _, err := findProject(db, projectID); err != nil {
		return nil, err
	}
	if _, err := requireMember(db, projectID, requester, "You are not a member of this project"); err != nil {
		return nil, err
	}
	var members []model.ProjectMembership
	if err := db.Preload("User").Where("project_id = ?", projectID).Find(&members).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(members, func(i, j int) bool {
		ri, rj := roleRank[members[i].Role], roleRank[members[j].Role]
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(members[i].User.Username) < strings.ToLower(members[j].User.Username)
	})
	return members, nil
}

// countLeaders locks the Leader rows of the project and returns how many exist.
func countLeaders(tx *gorm.DB, projectID int) (int, error) {
	var leaders []model.ProjectMembership
	if err := forUpdate(tx).Where("project_id = ? AND role = ?", projectID, model.RoleLeader).Find(&leaders).Error; err != nil {
		return 0, err
	}
	return len(leaders), nil
}

// detachMember drops the user's assignments on the project's tasks and
// their seat in the project's meetings.
func detachMember(tx *gorm.DB, projectID, userID int) error {
	projectTasks := tx.Model(&model.Tasks{}).Select("task_id").Where("project_id = ?", projectID)
	if err := tx.Where("user_id = ? AND task_id IN (?)", userID, projectTasks).Delete(&model.Assignment{}).Error; err != nil {
		return err
	}
	projectMeetings := tx.Model(&model.CalendarEvent{}).Select("event_id").
		Where("project_id = ? AND type = ?", projectID, model.EventTypeMeeting)
	return tx.Where("user_id = ? AND event_id IN (?)", userID, projectMeetings).Delete(&model.EventParticipant{}).Error
}

func findProject(db *gorm.DB, projectID int) (*model.Project, error) {
	var project model.Project
	if err := db.Where("project_id = ?", projectID).First(&project).Error; err != nil {
		return nil, lookup(err, "Project")
	}
	return &project, nil
}
