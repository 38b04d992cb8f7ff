package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dunzo/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeMirror struct {
	mu        sync.Mutex
	published []model.Notification
	tokens    []string
	multicast [][]string
	removed   []int
	purged    []int
}

func (m *fakeMirror) Publish(_ context.Context, n model.Notification, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, n)
	m.tokens = append(m.tokens, token)
	return nil
}

func (m *fakeMirror) Multicast(_ context.Context, tokens []string, _, _ string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.multicast = append(m.multicast, tokens)
	return nil
}

func (m *fakeMirror) Remove(_ context.Context, n model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, n.NotificationID)
	return nil
}

func (m *fakeMirror) PurgeUser(_ context.Context, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purged = append(m.purged, userID)
	return nil
}

type fakeHub struct {
	mu           sync.Mutex
	projects     []int
	disconnected [][2]int
}

func (h *fakeHub) Disconnect(projectID, userID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected = append(h.disconnected, [2]int{projectID, userID})
}

func (h *fakeHub) BroadcastRefresh(projectID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.projects = append(h.projects, projectID)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestPlanner(t *testing.T, opts ...Option) *Planner {
	t.Helper()
	return NewPlanner(openTestDB(t), opts...)
}

func seedUser(t *testing.T, p *Planner, username string) model.User {
	t.Helper()
	email := username + "@example.com"
	user := model.User{Username: username, Email: &email, Password: "x"}
	if err := p.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func seedProject(t *testing.T, p *Planner, leader int, title string) model.Project {
	t.Helper()
	project, err := p.CreateProject(context.Background(), leader, ProjectInput{Title: title})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return *project
}

func seedMember(t *testing.T, p *Planner, projectID, userID int, role string) {
	t.Helper()
	m := model.ProjectMembership{ProjectID: projectID, UserID: userID, Role: role}
	if err := p.db.Create(&m).Error; err != nil {
		t.Fatalf("seed membership: %v", err)
	}
}

func seedTask(t *testing.T, p *Planner, projectID, creator int, title string) model.Tasks {
	t.Helper()
	task, err := p.CreateTask(context.Background(), creator, TaskInput{ProjectID: projectID, Title: title})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return *task
}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if kind == nil {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want %v", err, kind)
	}
}

func roleIn(t *testing.T, p *Planner, projectID, userID int) string {
	t.Helper()
	role, err := roleOf(p.db, projectID, userID)
	if err != nil {
		t.Fatalf("role lookup: %v", err)
	}
	return role
}

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }
