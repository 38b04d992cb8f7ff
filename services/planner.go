package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"dunzo/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Mirror copies notifications to an external store and pushes them to devices.
type Mirror interface {
	Publish(ctx context.Context, n model.Notification, fcmToken string) error
	Multicast(ctx context.Context, tokens []string, title, body string, data map[string]string) error
	Remove(ctx context.Context, n model.Notification) error
	PurgeUser(ctx context.Context, userID int) error
}

// Broadcaster tells connected clients that a project changed and drops the
// connections of users who lost access to it.
type Broadcaster interface {
	BroadcastRefresh(projectID int)
	Disconnect(projectID, userID int)
}

// Planner applies the membership, assignment and calendar rules on top of
// the relational store. Every mutating call runs in one transaction.
type Planner struct {
	db     *gorm.DB
	mirror Mirror
	hub    Broadcaster
	now    func() time.Time
}

type Option func(*Planner)

func WithMirror(m Mirror) Option {
	return func(p *Planner) { p.mirror = m }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(p *Planner) { p.hub = b }
}

// WithClock overrides time.Now, used by the reminder job tests.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

func NewPlanner(db *gorm.DB, opts ...Option) *Planner {
	p := &Planner{db: db, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Planner) DB() *gorm.DB {
	return p.db
}

// Migrate creates or updates every table the planner uses.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&model.CalendarEvent{}, "Participants", &model.EventParticipant{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.ProjectMembership{},
		&model.Tag{},
		&model.Tasks{},
		&model.Assignment{},
		&model.Comment{},
		&model.CalendarEvent{},
		&model.Notification{},
		&model.TimelineEntry{},
	)
}

// outbox collects side effects that must only leave the process after commit.
type outbox struct {
	notes    []pendingNote
	projects map[int]struct{}
	evicted  []eviction
}

type eviction struct {
	projectID int
	userID    int
}

type pendingNote struct {
	note model.Notification
	push bool
}

func newOutbox() *outbox {
	return &outbox{projects: make(map[int]struct{})}
}

func (o *outbox) notify(tx *gorm.DB, userID int, title, message string) error {
	return o.store(tx, userID, title, message, true)
}

// record stores the notification but leaves device delivery to the caller.
func (o *outbox) record(tx *gorm.DB, userID int, title, message string) error {
	return o.store(tx, userID, title, message, false)
}

func (o *outbox) store(tx *gorm.DB, userID int, title, message string, push bool) error {
	n := model.Notification{UserID: userID, Title: title, Message: message}
	if err := tx.Create(&n).Error; err != nil {
		return err
	}
	o.notes = append(o.notes, pendingNote{note: n, push: push})
	return nil
}

func (o *outbox) touch(projectID int) {
	o.projects[projectID] = struct{}{}
}

// evict queues closing the user's live connections to the project.
func (o *outbox) evict(projectID, userID int) {
	o.evicted = append(o.evicted, eviction{projectID: projectID, userID: userID})
}

func (p *Planner) flush(ctx context.Context, o *outbox) {
	if p.mirror != nil {
		for _, pn := range o.notes {
			token := ""
			if pn.push {
				var user model.User
				if err := p.db.WithContext(ctx).Select("user_id, fcm_token").Where("user_id = ?", pn.note.UserID).First(&user).Error; err == nil {
					token = user.FCMToken
				}
			}
			if err := p.mirror.Publish(ctx, pn.note, token); err != nil {
				log.Printf("Warning: failed to mirror notification %d: %v", pn.note.NotificationID, err)
			}
		}
	}
	if p.hub != nil {
		for _, ev := range o.evicted {
			p.hub.Disconnect(ev.projectID, ev.userID)
		}
		for projectID := range o.projects {
			p.hub.BroadcastRefresh(projectID)
		}
	}
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func lockProject(tx *gorm.DB, projectID int) (*model.Project, error) {
	var project model.Project
	if err := forUpdate(tx).Where("project_id = ?", projectID).First(&project).Error; err != nil {
		return nil, lookup(err, "Project")
	}
	return &project, nil
}

func lockTask(tx *gorm.DB, taskID int) (*model.Tasks, error) {
	var task model.Tasks
	if err := forUpdate(tx).Where("task_id = ?", taskID).First(&task).Error; err != nil {
		return nil, lookup(err, "Task")
	}
	return &task, nil
}

// roleOf returns the requester's project role, or "" when not a member.
func roleOf(tx *gorm.DB, projectID, userID int) (string, error) {
	var m model.ProjectMembership
	err := tx.Select("role").Where("project_id = ? AND user_id = ?", projectID, userID).Limit(1).Find(&m).Error
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

func requireMember(tx *gorm.DB, projectID, userID int, msg string) (string, error) {
	role, err := roleOf(tx, projectID, userID)
	if err != nil {
		return "", err
	}
	if role == "" {
		return "", denied("%s", msg)
	}
	return role, nil
}

func recordTimeline(tx *gorm.DB, projectID, actor int, action string, details map[string]any) error {
	entry := model.TimelineEntry{ProjectID: projectID, Action: action}
	if actor != 0 {
		entry.UserID = &actor
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return err
		}
		entry.Details = datatypes.JSON(raw)
	}
	return tx.Create(&entry).Error
}

// IsMember is used by the realtime endpoint before subscribing a client.
func (p *Planner) IsMember(ctx context.Context, projectID, userID int) (bool, error) {
	role, err := roleOf(p.db.WithContext(ctx), projectID, userID)
	if err != nil {
		return false, err
	}
	return role != "", nil
}
