package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"dunzo/model"

	"gorm.io/gorm"
)

// Display colours per event type.
const (
	ColorDeadline = "#dc3545"
	ColorMeeting  = "#007bff"
	ColorEvent    = "#28a745"
)

// EventPolicy holds the rules that differ between event types.
type EventPolicy interface {
	Type() string
	Color() string
	CanEdit(ev *model.CalendarEvent, userID int) error
	CanDelete(ev *model.CalendarEvent, userID int) error
	CanReschedule(ev *model.CalendarEvent, userID int) error

	creatable() error
	// participants resolves the requested participant ids into the final set.
	participants(tx *gorm.DB, ev *model.CalendarEvent, ids []int) ([]model.User, error)
}

var policies = map[string]EventPolicy{
	model.EventTypeDeadline: deadlinePolicy{},
	model.EventTypeEvent:    personalPolicy{},
	model.EventTypeMeeting:  meetingPolicy{},
}

// PolicyFor returns the rules of an event type.
func PolicyFor(eventType string) (EventPolicy, error) {
	policy, ok := policies[eventType]
	if !ok {
		return nil, validation("Invalid event type: %s", eventType)
	}
	return policy, nil
}

type deadlinePolicy struct{}

func (deadlinePolicy) Type() string  { return model.EventTypeDeadline }
func (deadlinePolicy) Color() string { return ColorDeadline }

func (deadlinePolicy) creatable() error {
	return invalid("Cannot manually create Deadlines")
}

func (deadlinePolicy) participants(*gorm.DB, *model.CalendarEvent, []int) ([]model.User, error) {
	return nil, invalid("Deadlines have no participants")
}

func (deadlinePolicy) CanEdit(*model.CalendarEvent, int) error {
	return denied("Deadline events cannot be edited")
}

func (deadlinePolicy) CanDelete(*model.CalendarEvent, int) error {
	return denied("Deadline events cannot be deleted")
}

func (deadlinePolicy) CanReschedule(*model.CalendarEvent, int) error {
	return denied("Deadline events cannot be rescheduled")
}

// personalPolicy covers plain Events: the creator is the only participant.
type personalPolicy struct{}

func (personalPolicy) Type() string     { return model.EventTypeEvent }
func (personalPolicy) Color() string    { return ColorEvent }
func (personalPolicy) creatable() error { return nil }

func (personalPolicy) participants(tx *gorm.DB, ev *model.CalendarEvent, ids []int) ([]model.User, error) {
	if ev.CreatedBy == nil {
		return nil, nil
	}
	for _, id := range ids {
		if id != *ev.CreatedBy {
			return nil, invalid("Personal events cannot have other participants")
		}
	}
	return usersByID(tx, []int{*ev.CreatedBy})
}

func (personalPolicy) CanEdit(ev *model.CalendarEvent, userID int) error {
	if !ev.IsCreator(userID) {
		return denied("Only the event creator can edit this event")
	}
	return nil
}

func (personalPolicy) CanDelete(ev *model.CalendarEvent, userID int) error {
	if !ev.IsCreator(userID) {
		return denied("Only the event creator can delete this event")
	}
	return nil
}

func (personalPolicy) CanReschedule(ev *model.CalendarEvent, userID int) error {
	if !ev.IsCreator(userID) {
		return denied("Only the event creator can reschedule this event")
	}
	return nil
}

// meetingPolicy: participants come from the project membership and any of
// them may change the meeting.
type meetingPolicy struct{}

func (meetingPolicy) Type() string     { return model.EventTypeMeeting }
func (meetingPolicy) Color() string    { return ColorMeeting }
func (meetingPolicy) creatable() error { return nil }

func (meetingPolicy) participants(tx *gorm.DB, ev *model.CalendarEvent, ids []int) ([]model.User, error) {
	if ev.ProjectID == nil {
		return nil, invalid("Meetings must be linked to a project")
	}
	projectID := *ev.ProjectID

	seen := make(map[int]bool)
	var final []int
	if ev.CreatedBy != nil {
		role, err := roleOf(tx, projectID, *ev.CreatedBy)
		if err != nil {
			return nil, err
		}
		if role != "" {
			seen[*ev.CreatedBy] = true
			final = append(final, *ev.CreatedBy)
		}
	}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		role, err := roleOf(tx, projectID, id)
		if err != nil {
			return nil, err
		}
		if role == "" {
			return nil, invalid("User %d is not a member of this project", id)
		}
		seen[id] = true
		final = append(final, id)
	}
	return usersByID(tx, final)
}

func (meetingPolicy) CanEdit(ev *model.CalendarEvent, userID int) error {
	if !ev.IsCreator(userID) && !ev.HasParticipant(userID) {
		return denied("Only the meeting creator or participants can edit this meeting")
	}
	return nil
}

func (meetingPolicy) CanDelete(ev *model.CalendarEvent, userID int) error {
	if !ev.IsCreator(userID) && !ev.HasParticipant(userID) {
		return denied("Only the meeting creator or participants can delete this meeting")
	}
	return nil
}

func (meetingPolicy) CanReschedule(ev *model.CalendarEvent, userID int) error {
	if !ev.IsCreator(userID) && !ev.HasParticipant(userID) {
		return denied("Only the meeting creator or participants can reschedule this meeting")
	}
	return nil
}

func usersByID(tx *gorm.DB, ids []int) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	if err := tx.Where("user_id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		found := make(map[int]bool, len(users))
		for _, u := range users {
			found[u.UserID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, notFound("User %d not found", id)
			}
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

// EventInput is a user-initiated calendar event.
type EventInput struct {
	Type           string
	Title          string
	Description    string
	StartDate      *time.Time
	EndDate        time.Time
	ProjectID      *int
	TaskID         *int
	ParticipantIDs []int
}

// EventUpdate holds the fields an edit may change; nil means unchanged.
type EventUpdate struct {
	Title          *string
	Description    *string
	StartDate      *time.Time
	EndDate        *time.Time
	ParticipantIDs *[]int
}

// EventView is an event as seen by one requester.
type EventView struct {
	model.CalendarEvent
	Color     string `json:"color"`
	CanEdit   bool   `json:"can_edit"`
	CanDelete bool   `json:"can_delete"`
}

func viewOf(ev model.CalendarEvent, requester int) EventView {
	v := EventView{CalendarEvent: ev}
	if policy, err := PolicyFor(ev.Type); err == nil {
		v.Color = policy.Color()
		v.CanEdit = policy.CanEdit(&ev, requester) == nil
		v.CanDelete = policy.CanDelete(&ev, requester) == nil
	}
	return v
}

func checkDates(start *time.Time, end time.Time) error {
	if start != nil && !start.Before(end) {
		return invalid("Start date must be before end date")
	}
	return nil
}

func checkLinked(ev *model.CalendarEvent, participants []model.User) error {
	if ev.ProjectID == nil && ev.TaskID == nil && len(participants) == 0 {
		return invalid("Event must be linked to a project, task, or user")
	}
	return nil
}

// resolveLinks fills the project from the task and checks the creator
// belongs to the linked project.
func resolveLinks(tx *gorm.DB, ev *model.CalendarEvent, requester int) error {
	if ev.TaskID != nil {
		task, err := GetTaskData(tx, *ev.TaskID)
		if err != nil {
			return err
		}
		if ev.ProjectID == nil {
			projectID := task.ProjectID
			ev.ProjectID = &projectID
		} else if *ev.ProjectID != task.ProjectID {
			return validation("Task does not belong to the given project")
		}
	}
	if ev.ProjectID != nil {
		if _, err := findProject(tx, *ev.ProjectID); err != nil {
			return err
		}
		if _, err := requireMember(tx, *ev.ProjectID, requester, "You must be a member of the project to add events to it"); err != nil {
			return err
		}
	}
	return nil
}

func replaceParticipants(tx *gorm.DB, eventID int, users []model.User) error {
	if err := tx.Where("event_id = ?", eventID).Delete(&model.EventParticipant{}).Error; err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}
	rows := make([]model.EventParticipant, 0, len(users))
	for _, u := range users {
		rows = append(rows, model.EventParticipant{EventID: eventID, UserID: u.UserID})
	}
	return tx.Create(&rows).Error
}

// notifyMeeting tells every participant except actor about a meeting change.
func notifyMeeting(tx *gorm.DB, out *outbox, ev *model.CalendarEvent, actor int, title, message string) error {
	if ev.Type != model.EventTypeMeeting {
		return nil
	}
	for _, u := range ev.Participants {
		if u.UserID == actor {
			continue
		}
		if err := out.notify(tx, u.UserID, title, message); err != nil {
			return err
		}
	}
	return nil
}

// CreateEvent creates a user event. Deadlines are never created this way.
func (p *Planner) CreateEvent(ctx context.Context, requester int, in EventInput) (*EventView, error) {
	policy, err := PolicyFor(in.Type)
	if err != nil {
		return nil, err
	}
	if err := policy.creatable(); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, validation("Title is required")
	}
	if in.EndDate.IsZero() {
		return nil, validation("End date is required")
	}
	if err := checkDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	out := newOutbox()
	creator := requester
	event := model.CalendarEvent{
		ProjectID:   in.ProjectID,
		TaskID:      in.TaskID,
		CreatedBy:   &creator,
		Title:       in.Title,
		Type:        policy.Type(),
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := resolveLinks(tx, &event, requester); err != nil {
			return err
		}
		users, err := policy.participants(tx, &event, in.ParticipantIDs)
		if err != nil {
			return err
		}
		if err := checkLinked(&event, users); err != nil {
			return err
		}
		if err := tx.Omit("Participants").Create(&event).Error; err != nil {
			return err
		}
		if err := replaceParticipants(tx, event.EventID, users); err != nil {
			return err
		}
		event.Participants = users

		if err := notifyMeeting(tx, out, &event, requester, "Meeting Scheduled",
			fmt.Sprintf("You have been invited to %q on %s", event.Title, event.EndDate.Format(time.RFC1123))); err != nil {
			return err
		}
		if event.ProjectID == nil {
			return nil
		}
		out.touch(*event.ProjectID)
		return recordTimeline(tx, *event.ProjectID, requester, fmt.Sprintf("Scheduled %s %s", strings.ToLower(event.Type), event.Title),
			map[string]any{"event_id": event.EventID})
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	view := viewOf(event, requester)
	return &view, nil
}

// UpdateEvent edits an event the requester may edit under its type's rules.
func (p *Planner) UpdateEvent(ctx context.Context, eventID, requester int, in EventUpdate) (*EventView, error) {
	out := newOutbox()
	var event *model.CalendarEvent
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = lockEvent(tx, eventID)
		if err != nil {
			return err
		}
		policy, err := PolicyFor(event.Type)
		if err != nil {
			return err
		}
		if err := policy.CanEdit(event, requester); err != nil {
			return err
		}

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return validation("Title is required")
			}
			event.Title = title
		}
		if in.Description != nil {
			event.Description = *in.Description
		}
		if in.StartDate != nil {
			event.StartDate = in.StartDate
		}
		if in.EndDate != nil {
			event.EndDate = *in.EndDate
		}
		if err := checkDates(event.StartDate, event.EndDate); err != nil {
			return err
		}

		users := event.Participants
		if in.ParticipantIDs != nil {
			users, err = policy.participants(tx, event, *in.ParticipantIDs)
			if err != nil {
				return err
			}
		}
		if err := checkLinked(event, users); err != nil {
			return err
		}

		if err := tx.Model(event).Omit("Participants").Updates(map[string]any{
			"title":       event.Title,
			"description": event.Description,
			"start_date":  event.StartDate,
			"end_date":    event.EndDate,
		}).Error; err != nil {
			return err
		}
		if in.ParticipantIDs != nil {
			if err := replaceParticipants(tx, event.EventID, users); err != nil {
				return err
			}
			event.Participants = users
		}

		if err := notifyMeeting(tx, out, event, requester, "Meeting Updated",
			fmt.Sprintf("%q has been updated", event.Title)); err != nil {
			return err
		}
		if event.ProjectID != nil {
			out.touch(*event.ProjectID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	view := viewOf(*event, requester)
	return &view, nil
}

// RescheduleEvent moves an event to a new time window.
func (p *Planner) RescheduleEvent(ctx context.Context, eventID, requester int, start, end time.Time) (*EventView, error) {
	out := newOutbox()
	var event *model.CalendarEvent
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = lockEvent(tx, eventID)
		if err != nil {
			return err
		}
		policy, err := PolicyFor(event.Type)
		if err != nil {
			return err
		}
		if err := policy.CanReschedule(event, requester); err != nil {
			return err
		}
		if !start.Before(end) {
			return invalid("Start date must be before end date")
		}
		if err := tx.Model(event).Omit("Participants").Updates(map[string]any{"start_date": start, "end_date": end}).Error; err != nil {
			return err
		}
		event.StartDate = &start
		event.EndDate = end

		if err := notifyMeeting(tx, out, event, requester, "Meeting Rescheduled",
			fmt.Sprintf("%q now takes place on %s", event.Title, start.Format(time.RFC1123))); err != nil {
			return err
		}
		if event.ProjectID != nil {
			out.touch(*event.ProjectID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	view := viewOf(*event, requester)
	return &view, nil
}

// DeleteEvent removes an event the requester may delete under its type's rules.
func (p *Planner) DeleteEvent(ctx context.Context, eventID, requester int) error {
	out := newOutbox()
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, eventID)
		if err != nil {
			return err
		}
		policy, err := PolicyFor(event.Type)
		if err != nil {
			return err
		}
		if err := policy.CanDelete(event, requester); err != nil {
			return err
		}
		if err := purgeEvents(tx, "event_id = ?", eventID); err != nil {
			return err
		}
		if err := notifyMeeting(tx, out, event, requester, "Meeting Cancelled",
			fmt.Sprintf("%q has been cancelled", event.Title)); err != nil {
			return err
		}
		if event.ProjectID == nil {
			return nil
		}
		out.touch(*event.ProjectID)
		return recordTimeline(tx, *event.ProjectID, requester, fmt.Sprintf("Deleted %s %s", strings.ToLower(event.Type), event.Title),
			map[string]any{"event_id": eventID})
	})
	if err != nil {
		return err
	}
	p.flush(ctx, out)
	return nil
}

// GetEvent returns an event visible to the requester.
func (p *Planner) GetEvent(ctx context.Context, eventID, requester int) (*EventView, error) {
	db := p.db.WithContext(ctx)
	event, err := GetEventData(db, eventID)
	if err != nil {
		return nil, err
	}
	visible := event.IsCreator(requester) || event.HasParticipant(requester)
	// Project members see the shared events of the project, never someone
	// else's personal Event.
	shared := event.Type == model.EventTypeDeadline || event.Type == model.EventTypeMeeting
	if !visible && shared && event.ProjectID != nil {
		role, err := roleOf(db, *event.ProjectID, requester)
		if err != nil {
			return nil, err
		}
		visible = role != ""
	}
	if !visible {
		return nil, denied("You don't have permission to view this event")
	}
	view := viewOf(*event, requester)
	return &view, nil
}

// ListEvents returns the requester's calendar: events they created or take
// part in plus the Deadlines and Meetings of their projects. from and to
// bound the window when set.
func (p *Planner) ListEvents(ctx context.Context, requester int, from, to *time.Time) ([]EventView, error) {
	db := p.db.WithContext(ctx)
	participating := db.Model(&model.EventParticipant{}).Select("event_id").Where("user_id = ?", requester)
	memberOf := db.Model(&model.ProjectMembership{}).Select("project_id").Where("user_id = ?", requester)

	q := db.Preload("Participants").Where(
		db.Where("created_by = ?", requester).
			Or("event_id IN (?)", participating).
			Or("project_id IN (?) AND type IN ?", memberOf, []string{model.EventTypeDeadline, model.EventTypeMeeting}),
	)
	if from != nil {
		q = q.Where("end_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("COALESCE(start_date, end_date) <= ?", *to)
	}

	var events []model.CalendarEvent
	if err := q.Order("end_date").Order("event_id").Find(&events).Error; err != nil {
		return nil, err
	}
	views := make([]EventView, 0, len(events))
	for _, ev := range events {
		views = append(views, viewOf(ev, requester))
	}
	return views, nil
}

func lockEvent(tx *gorm.DB, eventID int) (*model.CalendarEvent, error) {
	var event model.CalendarEvent
	if err := forUpdate(tx).Preload("Participants").Where("event_id = ?", eventID).First(&event).Error; err != nil {
		return nil, lookup(err, "Event")
	}
	return &event, nil
}
