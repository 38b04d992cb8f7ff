package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dunzo/model"

	"gorm.io/gorm"
)

// Project list filters.
const (
	FilterActive   = "Active"
	FilterArchived = "Archived"
	FilterComplete = "Complete"
	FilterAll      = "All"
	FilterLeader   = "Leader"
)

type ProjectInput struct {
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

type ProjectUpdate struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *string
	// The clear flags unset the matching date. Clearing the end date drops
	// the project's Deadline event.
	ClearStartDate bool
	ClearEndDate   bool
}

// ProjectSummary is a project with the requester's role in it.
type ProjectSummary struct {
	model.Project
	Role string `json:"role"`
}

type ProjectDetail struct {
	model.Project
	Role      string                    `json:"role"`
	Members   []model.ProjectMembership `json:"members"`
	Tags      []model.Tag               `json:"tags"`
	TaskCount int64                     `json:"task_count"`
	DoneCount int64                     `json:"done_count"`
}

func checkProjectDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return validation("End date cannot be before start date")
	}
	return nil
}

// CreateProject creates a project led by the requester.
func (p *Planner) CreateProject(ctx context.Context, requester int, in ProjectInput) (*model.Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, validation("Title is required")
	}
	if err := checkProjectDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	out := newOutbox()
	project := model.Project{
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      model.ProjectActive,
	}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := GetUserdata(tx, requester); err != nil {
			return err
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		leader := model.ProjectMembership{ProjectID: project.ProjectID, UserID: requester, Role: model.RoleLeader}
		if err := tx.Create(&leader).Error; err != nil {
			return err
		}
		if err := syncProjectDeadline(tx, &project); err != nil {
			return err
		}
		out.touch(project.ProjectID)
		return recordTimeline(tx, project.ProjectID, requester, fmt.Sprintf("Created project %s", project.Title), nil)
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	return &project, nil
}

// ListProjects returns the requester's projects. An empty or unknown
// filter falls back to Active.
func (p *Planner) ListProjects(ctx context.Context, requester int, filter string) ([]ProjectSummary, error) {
	db := p.db.WithContext(ctx)

	var memberships []model.ProjectMembership
	mq := db.Where("user_id = ?", requester)
	if filter == FilterLeader {
		mq = mq.Where("role = ?", model.RoleLeader)
	}
	if err := mq.Find(&memberships).Error; err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []ProjectSummary{}, nil
	}
	roles := make(map[int]string, len(memberships))
	ids := make([]int, 0, len(memberships))
	for _, m := range memberships {
		roles[m.ProjectID] = m.Role
		ids = append(ids, m.ProjectID)
	}

	pq := db.Where("project_id IN ?", ids)
	switch filter {
	case FilterAll, FilterLeader:
	case FilterArchived, FilterComplete:
		pq = pq.Where("status = ?", filter)
	default:
		pq = pq.Where("status = ?", model.ProjectActive)
	}
	var projects []model.Project
	if err := pq.Order("created_at DESC").Order("project_id DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	summaries := make([]ProjectSummary, 0, len(projects))
	for _, pr := range projects {
		summaries = append(summaries, ProjectSummary{Project: pr, Role: roles[pr.ProjectID]})
	}
	return summaries, nil
}

// GetProject returns the project with its members, tags and task counts.
func (p *Planner) GetProject(ctx context.Context, projectID, requester int) (*ProjectDetail, error) {
	db := p.db.WithContext(ctx)
	project, err := findProject(db, projectID)
	if err != nil {
		return nil, err
	}
	role, err := requireMember(db, projectID, requester, "You are not a member of this project")
	if err != nil {
		return nil, err
	}
	members, err := p.ListMembers(ctx, projectID, requester)
	if err != nil {
		return nil, err
	}
	detail := &ProjectDetail{Project: *project, Role: role, Members: members}
	if err := db.Where("project_id = ?", projectID).Order("name").Find(&detail.Tags).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Tasks{}).Where("project_id = ?", projectID).Count(&detail.TaskCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Tasks{}).Where("project_id = ? AND status = ?", projectID, model.StatusDone).Count(&detail.DoneCount).Error; err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateProject changes project fields. Leader only.
func (p *Planner) UpdateProject(ctx context.Context, projectID, requester int, in ProjectUpdate) (*model.Project, error) {
	if in.ClearStartDate && in.StartDate != nil {
		return nil, validation("Cannot set and clear the start date at once")
	}
	if in.ClearEndDate && in.EndDate != nil {
		return nil, validation("Cannot set and clear the end date at once")
	}
	out := newOutbox()
	var project *model.Project
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		project, err = lockProject(tx, projectID)
		if err != nil {
			return err
		}
		role, err := roleOf(tx, projectID, requester)
		if err != nil {
			return err
		}
		if role != model.RoleLeader {
			return denied("Only a Leader can update this project")
		}

		changes := map[string]any{}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return validation("Title is required")
			}
			project.Title = title
			changes["title"] = title
		}
		if in.Description != nil {
			project.Description = *in.Description
			changes["description"] = *in.Description
		}
		if in.StartDate != nil {
			project.StartDate = in.StartDate
			changes["start_date"] = *in.StartDate
		}
		if in.EndDate != nil {
			project.EndDate = in.EndDate
			changes["end_date"] = *in.EndDate
		}
		if in.ClearStartDate {
			project.StartDate = nil
			changes["start_date"] = nil
		}
		if in.ClearEndDate {
			project.EndDate = nil
			changes["end_date"] = nil
		}
		if in.Status != nil {
			if !model.ValidProjectStatus(*in.Status) {
				return validation("Invalid status: %s", *in.Status)
			}
			project.Status = *in.Status
			changes["status"] = *in.Status
		}
		if err := checkProjectDates(project.StartDate, project.EndDate); err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(project).Updates(changes).Error; err != nil {
			return err
		}
		if in.EndDate != nil || in.ClearEndDate || in.Title != nil {
			if err := syncProjectDeadline(tx, project); err != nil {
				return err
			}
		}
		out.touch(projectID)
		return recordTimeline(tx, projectID, requester, "Updated project details", changes)
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	return project, nil
}

// DeleteProject removes the project and everything hanging off it. Leader only.
func (p *Planner) DeleteProject(ctx context.Context, projectID, requester int) error {
	out := newOutbox()
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		role, err := roleOf(tx, projectID, requester)
		if err != nil {
			return err
		}
		if role != model.RoleLeader {
			return denied("Only a Leader can delete this project")
		}

		var members []model.ProjectMembership
		if err := tx.Where("project_id = ? AND user_id <> ?", projectID, requester).Find(&members).Error; err != nil {
			return err
		}
		for _, m := range members {
			if err := out.notify(tx, m.UserID, "Project Deleted",
				fmt.Sprintf("%s has been deleted", project.Title)); err != nil {
				return err
			}
		}
		out.touch(projectID)
		return purgeProject(tx, projectID)
	})
	if err != nil {
		return err
	}
	p.flush(ctx, out)
	return nil
}

func purgeProject(tx *gorm.DB, projectID int) error {
	var taskIDs []int
	if err := tx.Model(&model.Tasks{}).Where("project_id = ?", projectID).Pluck("task_id", &taskIDs).Error; err != nil {
		return err
	}
	for _, id := range taskIDs {
		if err := purgeTask(tx, id); err != nil {
			return err
		}
	}
	if err := purgeEvents(tx, "project_id = ?", projectID); err != nil {
		return err
	}
	if err := tx.Where("project_id = ?", projectID).Delete(&model.Tag{}).Error; err != nil {
		return err
	}
	if err := tx.Where("project_id = ?", projectID).Delete(&model.TimelineEntry{}).Error; err != nil {
		return err
	}
	if err := tx.Where("project_id = ?", projectID).Delete(&model.ProjectMembership{}).Error; err != nil {
		return err
	}
	return tx.Where("project_id = ?", projectID).Delete(&model.Project{}).Error
}
