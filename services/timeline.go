package services

import (
	"context"

	"dunzo/model"
)

const defaultTimelineLimit = 50

// ListTimeline returns the project's activity, newest first.
func (p *Planner) ListTimeline(ctx context.Context, projectID, requester, limit int) ([]model.TimelineEntry, error) {
	db := p.db.WithContext(ctx)
	if _, err := findProject(db, projectID); err != nil {
		return nil, err
	}
	if _, err := requireMember(db, projectID, requester, "You are not a member of this project"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTimelineLimit
	}
	var entries []model.TimelineEntry
	err := db.Where("project_id = ?", projectID).
		Order("created_at DESC").Order("timeline_id DESC").
		Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
