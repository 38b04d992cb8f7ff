package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dunzo/middleware"
	"dunzo/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setup(t *testing.T) (*services.Planner, *Hub, *httptest.Server) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := services.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hub := NewHub(nil)
	planner := services.NewPlanner(db, services.WithBroadcaster(hub))
	router := gin.New()
	RealtimeController(router, planner, hub)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return planner, hub, srv
}

func dial(t *testing.T, srv *httptest.Server, projectID, userID int) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	token, err := middleware.CreateAccessToken(userID)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	url := fmt.Sprintf("ws%s/ws/%d?token=%s", strings.TrimPrefix(srv.URL, "http"), projectID, token)
	return websocket.DefaultDialer.Dial(url, nil)
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestMembersReceiveRefresh(t *testing.T) {
	ctx := context.Background()
	planner, hub, srv := setup(t)
	alice, err := planner.Register(ctx, services.RegisterInput{Username: "alice", Password: "password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	project, err := planner.CreateProject(ctx, alice.UserID, services.ProjectInput{Title: "Website"})
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	conn, _, err := dial(t, srv, project.ProjectID, alice.UserID)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if msg := readMessage(t, conn); msg["type"] != "connected" {
		t.Fatalf("first message = %v", msg)
	}
	if hub.Clients(project.ProjectID) != 1 {
		t.Fatalf("clients = %d", hub.Clients(project.ProjectID))
	}

	if _, err := planner.CreateTask(ctx, alice.UserID, services.TaskInput{ProjectID: project.ProjectID, Title: "Landing"}); err != nil {
		t.Fatalf("task: %v", err)
	}
	msg := readMessage(t, conn)
	if msg["type"] != "refresh" || msg["project_id"] != float64(project.ProjectID) {
		t.Fatalf("message = %v", msg)
	}
}

func TestNonMembersAreRejected(t *testing.T) {
	ctx := context.Background()
	planner, hub, srv := setup(t)
	alice, _ := planner.Register(ctx, services.RegisterInput{Username: "alice", Password: "password123"})
	bob, _ := planner.Register(ctx, services.RegisterInput{Username: "bob", Password: "password123"})
	project, err := planner.CreateProject(ctx, alice.UserID, services.ProjectInput{Title: "Website"})
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	_, resp, err := dial(t, srv, project.ProjectID, bob.UserID)
	if err == nil {
		t.Fatal("non-member connected")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("response = %v", resp)
	}
	if hub.Clients(project.ProjectID) != 0 {
		t.Fatal("rejected client registered")
	}
}

func TestRemovedMemberIsDisconnected(t *testing.T) {
	ctx := context.Background()
	planner, hub, srv := setup(t)
	alice, _ := planner.Register(ctx, services.RegisterInput{Username: "alice", Password: "password123"})
	bob, _ := planner.Register(ctx, services.RegisterInput{Username: "bob", Password: "password123"})
	project, err := planner.CreateProject(ctx, alice.UserID, services.ProjectInput{Title: "Website"})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if _, err := planner.AddMember(ctx, project.ProjectID, alice.UserID, "bob", ""); err != nil {
		t.Fatalf("add bob: %v", err)
	}

	aliceConn, _, err := dial(t, srv, project.ProjectID, alice.UserID)
	if err != nil {
		t.Fatalf("dial alice: %v", err)
	}
	defer aliceConn.Close()
	readMessage(t, aliceConn)
	bobConn, _, err := dial(t, srv, project.ProjectID, bob.UserID)
	if err != nil {
		t.Fatalf("dial bob: %v", err)
	}
	defer bobConn.Close()
	readMessage(t, bobConn)

	if err := planner.RemoveMember(ctx, project.ProjectID, alice.UserID, bob.UserID); err != nil {
		t.Fatalf("remove bob: %v", err)
	}
	if msg := readMessage(t, bobConn); msg["type"] != "removed" {
		t.Fatalf("bob got %v", msg)
	}
	bobConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := bobConn.ReadMessage(); err == nil {
		t.Fatal("bob's connection is still open")
	}

	// Alice stays connected and keeps receiving updates.
	if msg := readMessage(t, aliceConn); msg["type"] != "refresh" {
		t.Fatalf("alice got %v", msg)
	}
	if _, err := planner.CreateTask(ctx, alice.UserID, services.TaskInput{ProjectID: project.ProjectID, Title: "Landing"}); err != nil {
		t.Fatalf("task: %v", err)
	}
	if msg := readMessage(t, aliceConn); msg["type"] != "refresh" {
		t.Fatalf("alice got %v", msg)
	}
	if hub.Clients(project.ProjectID) != 1 {
		t.Fatalf("clients = %d, want 1", hub.Clients(project.ProjectID))
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	hub := NewHub([]string{"http://localhost:5173"})
	hub.BroadcastRefresh(1)
	hub.Disconnect(1, 7)
	if hub.Clients(1) != 0 {
		t.Fatal("unexpected clients")
	}
}
