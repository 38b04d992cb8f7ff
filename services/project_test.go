package services

import (
	"context"
	"testing"

	"dunzo/model"
)

func TestCreateProject(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	alice := seedUser(t, p, "alice")

	_, err := p.CreateProject(ctx, alice.UserID, ProjectInput{Title: "  "})
	wantKind(t, err, ErrValidation)

	start, end := date(2025, 3, 1, 0), date(2025, 2, 1, 0)
	_, err = p.CreateProject(ctx, alice.UserID, ProjectInput{Title: "Bad", StartDate: &start, EndDate: &end})
	wantKind(t, err, ErrValidation)

	end = date(2025, 6, 30, 0)
	project, err := p.CreateProject(ctx, alice.UserID, ProjectInput{Title: "Website", StartDate: &start, EndDate: &end})
	wantKind(t, err, nil)
	if project.Status != model.ProjectActive {
		t.Fatalf("status = %s, want Active", project.Status)
	}
	if roleIn(t, p, project.ProjectID, alice.UserID) != model.RoleLeader {
		t.Fatal("creator should lead the project")
	}
	var deadline model.CalendarEvent
	if err := p.db.Where("project_id = ? AND task_id IS NULL AND type = ?", project.ProjectID, model.EventTypeDeadline).First(&deadline).Error; err != nil {
		t.Fatalf("project deadline missing: %v", err)
	}
}

func TestListProjectsFilters(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	alice := seedUser(t, p, "alice")
	bob := seedUser(t, p, "bob")

	active := seedProject(t, p, alice.UserID, "Active one")
	archived := seedProject(t, p, alice.UserID, "Old one")
	joined := seedProject(t, p, bob.UserID, "Bob's")
	seedMember(t, p, joined.ProjectID, alice.UserID, model.RoleMember)
	status := model.ProjectArchived
	if _, err := p.UpdateProject(ctx, archived.ProjectID, alice.UserID, ProjectUpdate{Status: &status}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	tests := []struct {
		filter string
		want   int
	}{
		{"", 2},
		{FilterActive, 2},
		{FilterArchived, 1},
		{FilterComplete, 0},
		{FilterAll, 3},
		{FilterLeader, 2},
		{"bogus", 2},
	}
	for _, tt := range tests {
		t.Run("filter "+tt.filter, func(t *testing.T) {
			got, err := p.ListProjects(ctx, alice.UserID, tt.filter)
			wantKind(t, err, nil)
			if len(got) != tt.want {
				t.Fatalf("got %d projects, want %d", len(got), tt.want)
			}
		})
	}

	got, err := p.ListProjects(ctx, alice.UserID, FilterAll)
	wantKind(t, err, nil)
	roles := map[int]string{}
	for _, s := range got {
		roles[s.ProjectID] = s.Role
	}
	if roles[active.ProjectID] != model.RoleLeader || roles[joined.ProjectID] != model.RoleMember {
		t.Fatalf("roles = %v", roles)
	}
}

func TestProjectDetailAndUpdate(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	alice := seedUser(t, p, "alice")
	bob := seedUser(t, p, "bob")
	outsider := seedUser(t, p, "outsider")
	project := seedProject(t, p, alice.UserID, "Website")
	seedMember(t, p, project.ProjectID, bob.UserID, model.RoleManager)
	seedTask(t, p, project.ProjectID, alice.UserID, "One")

	detail, err := p.GetProject(ctx, project.ProjectID, bob.UserID)
	wantKind(t, err, nil)
	if detail.Role != model.RoleManager || len(detail.Members) != 2 || detail.TaskCount != 1 {
		t.Fatalf("detail = %+v", detail)
	}
	_, err = p.GetProject(ctx, project.ProjectID, outsider.UserID)
	wantKind(t, err, ErrPermissionDenied)
	_, err = p.GetProject(ctx, 999, alice.UserID)
	wantKind(t, err, ErrNotFound)

	title := "Website v2"
	_, err = p.UpdateProject(ctx, project.ProjectID, bob.UserID, ProjectUpdate{Title: &title})
	wantKind(t, err, ErrPermissionDenied)
	bad := "Paused"
	_, err = p.UpdateProject(ctx, project.ProjectID, alice.UserID, ProjectUpdate{Status: &bad})
	wantKind(t, err, ErrValidation)
	updated, err := p.UpdateProject(ctx, project.ProjectID, alice.UserID, ProjectUpdate{Title: &title})
	wantKind(t, err, nil)
	if updated.Title != title {
		t.Fatalf("title = %s", updated.Title)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	mirror := &fakeMirror{}
	p := newTestPlanner(t, WithMirror(mirror))
	alice := seedUser(t, p, "alice")
	bob := seedUser(t, p, "bob")
	project := seedProject(t, p, alice.UserID, "Website")
	seedMember(t, p, project.ProjectID, bob.UserID, model.RoleManager)
	task := seedTask(t, p, project.ProjectID, alice.UserID, "One")
	if _, err := p.PostComment(ctx, task.TaskID, bob.UserID, "hello", nil); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := p.CreateTag(ctx, project.ProjectID, alice.UserID, "urgent", "#ff0000"); err != nil {
		t.Fatalf("tag: %v", err)
	}

	wantKind(t, p.DeleteProject(ctx, project.ProjectID, bob.UserID), ErrPermissionDenied)
	wantKind(t, p.DeleteProject(ctx, project.ProjectID, alice.UserID), nil)

	for _, m := range []any{&model.Project{}, &model.ProjectMembership{}, &model.Tasks{}, &model.Tag{}, &model.TimelineEntry{}, &model.CalendarEvent{}} {
		var n int64
		p.db.Model(m).Where("project_id = ?", project.ProjectID).Count(&n)
		if n != 0 {
			t.Fatalf("%T: %d rows left", m, n)
		}
	}
	var comments int64
	p.db.Model(&model.Comment{}).Count(&comments)
	if comments != 0 {
		t.Fatalf("%d comments left", comments)
	}
	last := mirror.published[len(mirror.published)-1]
	if last.UserID != bob.UserID || last.Title != "Project Deleted" {
		t.Fatalf("last notification = %+v", last)
	}
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	alice := seedUser(t, p, "alice")
	bob := seedUser(t, p, "bob")
	outsider := seedUser(t, p, "outsider")
	project := seedProject(t, p, alice.UserID, "Website")
	other := seedProject(t, p, alice.UserID, "Other")
	seedMember(t, p, project.ProjectID, bob.UserID, model.RoleMember)
	tag, err := p.CreateTag(ctx, project.ProjectID, alice.UserID, "ui", "")
	wantKind(t, err, nil)
	foreign, err := p.CreateTag(ctx, other.ProjectID, alice.UserID, "backend", "#00f")
	wantKind(t, err, nil)

	tests := []struct {
		name      string
		requester int
		in        TaskInput
		wantErr   error
	}{
		{"outsider", outsider.UserID, TaskInput{ProjectID: project.ProjectID, Title: "x"}, ErrPermissionDenied},
		{"missing project", alice.UserID, TaskInput{ProjectID: 999, Title: "x"}, ErrNotFound},
		{"blank title", alice.UserID, TaskInput{ProjectID: project.ProjectID}, ErrValidation},
		{"bad priority", alice.UserID, TaskInput{ProjectID: project.ProjectID, Title: "x", Priority: "Urgent"}, ErrValidation},
		{"foreign tag", alice.UserID, TaskInput{ProjectID: project.ProjectID, Title: "x", TagIDs: []int{foreign.TagID}}, ErrValidation},
		{"non member assignee", alice.UserID, TaskInput{ProjectID: project.ProjectID, Title: "x", AssigneeIDs: []int{outsider.UserID}}, ErrInvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.CreateTask(ctx, tt.requester, tt.in)
			wantKind(t, err, tt.wantErr)
		})
	}

	task, err := p.CreateTask(ctx, bob.UserID, TaskInput{
		ProjectID:   project.ProjectID,
		Title:       "Landing page",
		AssigneeIDs: []int{alice.UserID, bob.UserID},
		TagIDs:      []int{tag.TagID},
	})
	wantKind(t, err, nil)
	if task.Status != model.StatusToDo || task.Priority != model.PriorityMedium {
		t.Fatalf("task = %+v", task)
	}
	if len(task.Tags) != 1 || task.Tags[0].HexColor != defaultTagColor {
		t.Fatalf("tags = %+v", task.Tags)
	}
	roles := map[int]string{}
	for _, a := range task.Assignments {
		roles[a.UserID] = a.Role
	}
	if roles[bob.UserID] != model.AssignOwner || roles[alice.UserID] != model.AssignContributor || len(roles) != 2 {
		t.Fatalf("roles = %v", roles)
	}
}

func TestListAndUpdateTasks(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	alice := seedUser(t, p, "alice")
	bob := seedUser(t, p, "bob")
	project := seedProject(t, p, alice.UserID, "Website")
	seedMember(t, p, project.ProjectID, bob.UserID, model.RoleMember)
	mine := seedTask(t, p, project.ProjectID, bob.UserID, "Bob's")
	seedTask(t, p, project.ProjectID, alice.UserID, "Alice's")
	if _, err := p.UpdateStatus(ctx, mine.TaskID, bob.UserID, model.StatusInProgress); err != nil {
		t.Fatalf("status: %v", err)
	}

	all, err := p.ListTasks(ctx, project.ProjectID, bob.UserID, "", "")
	wantKind(t, err, nil)
	if len(all) != 2 {
		t.Fatalf("got %d tasks", len(all))
	}
	own, err := p.ListTasks(ctx, project.ProjectID, bob.UserID, "", TaskFilterMine)
	wantKind(t, err, nil)
	if len(own) != 1 || own[0].TaskID != mine.TaskID {
		t.Fatalf("mine = %+v", own)
	}
	busy, err := p.ListTasks(ctx, project.ProjectID, alice.UserID, model.StatusInProgress, TaskFilterAll)
	wantKind(t, err, nil)
	if len(busy) != 1 {
		t.Fatalf("in progress = %d", len(busy))
	}
	_, err = p.ListTasks(ctx, project.ProjectID, alice.UserID, "Nope", "")
	wantKind(t, err, ErrValidation)

	priority := model.PriorityHigh
	updated, err := p.UpdateTask(ctx, mine.TaskID, alice.UserID, TaskUpdate{Priority: &priority})
	wantKind(t, err, nil)
	if updated.Priority != model.PriorityHigh || updated.Status != model.StatusInProgress {
		t.Fatalf("task = %+v", updated)
	}

	// A plain Member who does not own the task cannot delete it.
	other := seedTask(t, p, project.ProjectID, alice.UserID, "Alice's second")
	wantKind(t, p.DeleteTask(ctx, other.TaskID, bob.UserID), ErrPermissionDenied)
	// The Leader can delete any task.
	wantKind(t, p.DeleteTask(ctx, mine.TaskID, alice.UserID), nil)
	_, err = p.GetTask(ctx, mine.TaskID, alice.UserID)
	wantKind(t, err, ErrNotFound)
}
