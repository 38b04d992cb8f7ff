package services

import (
	"context"
	"testing"

	"dunzo/model"
)

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	mirror := &fakeMirror{}
	hub := &fakeHub{}
	p := newTestPlanner(t, WithMirror(mirror), WithBroadcaster(hub))

	alice := seedUser(t, p, "alice")
	bob := seedUser(t, p, "bob")
	carol := seedUser(t, p, "carol")
	dave := seedUser(t, p, "dave")
	project := seedProject(t, p, alice.UserID, "Launch")
	seedMember(t, p, project.ProjectID, bob.UserID, model.RoleMember)
	seedMember(t, p, project.ProjectID, carol.UserID, model.RoleManager)

	tests := []struct {
		name       string
		requester  int
		identifier string
		role       string
		wantErr    error
	}{
		{"member cannot add", bob.UserID, "dave", "", ErrPermissionDenied},
		{"outsider cannot add", dave.UserID, "dave", "", ErrPermissionDenied},
		{"unknown user", alice.UserID, "nobody", "", ErrNotFound},
		{"already a member", alice.UserID, "bob", "", ErrConflict},
		{"manager cannot add leader", carol.UserID, "dave", model.RoleLeader, ErrPermissionDenied},
		{"invalid role", alice.UserID, "dave", "Boss", ErrValidation},
		{"blank identifier", alice.UserID, "  ", "", ErrValidation},
		{"manager adds by email", carol.UserID, "dave@example.com", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := p.AddMember(ctx, project.ProjectID, tt.requester, tt.identifier, tt.role)
			wantKind(t, err, tt.wantErr)
			if tt.wantErr == nil {
				if m.UserID != dave.UserID || m.Role != model.RoleMember {
					t.Fatalf("membership = %+v, want dave as Member", m)
				}
			}
		})
	}

	_, err := p.AddMember(ctx, 999, alice.UserID, "dave", "")
	wantKind(t, err, ErrNotFound)

	if len(mirror.published) != 1 || mirror.published[0].UserID != dave.UserID {
		t.Fatalf("published = %+v, want one notification for dave", mirror.published)
	}
	if mirror.published[0].Title != "Invited to Project" {
		t.Fatalf("title = %q", mirror.published[0].Title)
	}
	found := false
	for _, id := range hub.projects {
		if id == project.ProjectID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a refresh broadcast for the project")
	}
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)

	alice := seedUser(t, p, "alice")
	bob := seedUser(t, p, "bob")
	carol := seedUser(t, p, "carol")
	erin := seedUser(t, p, "erin")
	project := seedProject(t, p, alice.UserID, "Launch")
	seedMember(t, p, project.ProjectID, bob.UserID, model.RoleMember)
	seedMember(t, p, project.ProjectID, carol.UserID, model.RoleMember)
	seedMember(t, p, project.ProjectID, erin.UserID, model.RoleManager)

	// A Member cannot remove someone else.
	wantKind(t, p.RemoveMember(ctx, project.ProjectID, bob.UserID, carol.UserID), ErrPermissionDenied)
	// A Manager cannot remove a Leader.
	wantKind(t, p.RemoveMember(ctx, project.ProjectID, erin.UserID, alice.UserID), ErrPermissionDenied)
	// The sole Leader cannot leave.
	wantKind(t, p.RemoveMember(ctx, project.ProjectID, alice.UserID, alice.UserID), ErrInvalidOperation)
	// Unknown membership.
	wantKind(t, p.RemoveMember(ctx, project.ProjectID, alice.UserID, 999), ErrNotFound)

	// Anyone else may leave.
	wantKind(t, p.RemoveMember(ctx, project.ProjectID, bob.UserID, bob.UserID), nil)
	if roleIn(t, p, project.ProjectID, bob.UserID) != "" {
		t.Fatal("bob should have left")
	}
	// A Manager may remove a Member.
	wantKind(t, p.RemoveMember(ctx, project.ProjectID, erin.UserID, carol.UserID), nil)
	if roleIn(t, p, project.ProjectID, carol.UserID) != "" {
		t.Fatal("carol should have been removed")
	}
	if roleIn(t, p, project.ProjectID, alice.UserID) != model.RoleLeader {
		t.Fatal("alice must still lead")
	}
}

func TestRemoveMemberScenario(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)

	a := seedUser(t, p, "a")
	b := seedUser(t, p, "b")
	c := seedUser(t, p, "c")
	project := seedProject(t, p, a.UserID, "P")
	if roleIn(t, p, project.ProjectID, a.UserID) != model.RoleLeader {
		t.Fatal("creator should be Leader")
	}
	if _, err := p.AddMember(ctx, project.ProjectID, a.UserID, "b", model.RoleMember); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if _, err := p.AddMember(ctx, project.ProjectID, a.UserID, "c", ""); err != nil {
		t.Fatalf("add c: %v", err)
	}
	wantKind(t, p.RemoveMember(ctx, project.ProjectID, b.UserID, c.UserID), ErrPermissionDenied)
}

func TestRemoveMemberDropsAssignmentsAndMeetings(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)

	alice := seedUser(t, p, "alice")
	bob := seedUser(t, p, "bob")
	project := seedProject(t, p, alice.UserID, "Launch")
	seedMember(t, p, project.ProjectID, bob.UserID, model.RoleMember)
	task := seedTask(t, p, project.ProjectID, alice.UserID, "Write copy")
	if _, err := p.Assign(ctx, task.TaskID, alice.UserID, bob.UserID, ""); err != nil {
		t.Fatalf("assign: %v", err)
	}
	meeting, err := p.CreateEvent(ctx, alice.UserID, EventInput{
		Type:           model.EventTypeMeeting,
		Title:          "Sync",
		ProjectID:      &project.ProjectID,
		StartDate:      timePtr(date(2025, 1, 10, 9)),
		EndDate:        date(2025, 1, 10, 10),
		ParticipantIDs: []int{bob.UserID},
	})
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}

	wantKind(t, p.RemoveMember(ctx, project.ProjectID, alice.UserID, bob.UserID), nil)

	var count int64
	p.db.Model(&model.Assignment{}).Where("user_id = ?", bob.UserID).Count(&count)
	if count != 0 {
		t.Fatalf("bob still holds %d assignments", count)
	}
	ev, err := GetEventData(p.db, meeting.EventID)
	if err != nil {
		t.Fatalf("load meeting: %v", err)
	}
	if ev.HasParticipant(bob.UserID) {
		t.Fatal("bob should no longer attend the meeting")
	}
	if !ev.HasParticipant(alice.UserID) {
		t.Fatal("alice should still attend the meeting")
	}
}

func TestRemoveMemberClosesLiveConnections(t *testing.T) {
	ctx := context.Background()
	hub := &fakeHub{}
	p := newTestPlanner(t, WithBroadcaster(hub))

	alice := seedUser(t, p, "alice")
	bob := seedUser(t, p, "bob")
	carol := seedUser(t, p, "carol")
	project := seedProject(t, p, alice.UserID, "Launch")
	seedMember(t, p, project.ProjectID, bob.UserID, model.RoleMember)
	seedMember(t, p, project.ProjectID, carol.UserID, model.RoleMember)

	// A refused removal must not cut anyone off.
	wantKind(t, p.RemoveMember(ctx, project.ProjectID, carol.UserID, bob.UserID), ErrPermissionDenied)
	if len(hub.disconnected) != 0 {
		t.Fatalf("disconnected = %v after a denied removal", hub.disconnected)
	}

	wantKind(t, p.RemoveMember(ctx, project.ProjectID, alice.UserID, bob.UserID), nil)
	wantKind(t, p.RemoveMember(ctx, project.ProjectID, carol.UserID, carol.UserID), nil)
	want := [][2]int{{project.ProjectID, bob.UserID}, {project.ProjectID, carol.UserID}}
	if len(hub.disconnected) != len(want) {
		t.Fatalf("disconnected = %v, want %v", hub.disconnected, want)
	}
	for i := range want {
		if hub.disconnected[i] != want[i] {
			t.Fatalf("disconnected = %v, want %v", hub.disconnected, want)
		}
	}
}

func TestChangeRole(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)

	alice := seedUser(t, p, "alice")
	bob := seedUser(t, p, "bob")
	erin := seedUser(t, p, "erin")
	project := seedProject(t, p, alice.UserID, "Launch")
	seedMember(t, p, project.ProjectID, bob.UserID, model.RoleMember)
	seedMember(t, p, project.ProjectID, erin.UserID, model.RoleManager)

	_, err := p.ChangeRole(ctx, project.ProjectID, erin.UserID, bob.UserID, model.RoleManager)
	wantKind(t, err, ErrPermissionDenied)

	_, err = p.ChangeRole(ctx, project.ProjectID, alice.UserID, alice.UserID, model.RoleMember)
	wantKind(t, err, ErrInvalidOperation)

	_, err = p.ChangeRole(ctx, project.ProjectID, alice.UserID, bob.UserID, "Boss")
	wantKind(t, err, ErrValidation)

	_, err = p.ChangeRole(ctx, project.ProjectID, alice.UserID, 999, model.RoleMember)
	wantKind(t, err, ErrNotFound)

	m, err := p.ChangeRole(ctx, project.ProjectID, alice.UserID, bob.UserID, model.RoleLeader)
	wantKind(t, err, nil)
	if m.Role != model.RoleLeader {
		t.Fatalf("role = %s, want Leader", m.Role)
	}

	// With two Leaders alice can step down.
	_, err = p.ChangeRole(ctx, project.ProjectID, alice.UserID, alice.UserID, model.RoleMember)
	wantKind(t, err, nil)
	// bob is now the only Leader and cannot step down.
	_, err = p.ChangeRole(ctx, project.ProjectID, bob.UserID, bob.UserID, model.RoleManager)
	wantKind(t, err, ErrInvalidOperation)
}

func TestLeaderCountNeverReachesZero(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)

	users := make([]model.User, 4)
	for i, name := range []string{"u0", "u1", "u2", "u3"} {
		users[i] = seedUser(t, p, name)
	}
	project := seedProject(t, p, users[0].UserID, "P")
	for _, u := range users[1:] {
		seedMember(t, p, project.ProjectID, u.UserID, model.RoleMember)
	}

	ops := []func(){
		func() { p.ChangeRole(ctx, project.ProjectID, users[0].UserID, users[1].UserID, model.RoleLeader) },
		func() { p.RemoveMember(ctx, project.ProjectID, users[0].UserID, users[0].UserID) },
		func() { p.ChangeRole(ctx, project.ProjectID, users[1].UserID, users[1].UserID, model.RoleMember) },
		func() { p.RemoveMember(ctx, project.ProjectID, users[1].UserID, users[1].UserID) },
		func() { p.ChangeRole(ctx, project.ProjectID, users[1].UserID, users[2].UserID, model.RoleManager) },
		func() { p.RemoveMember(ctx, project.ProjectID, users[2].UserID, users[1].UserID) },
		func() { p.ChangeRole(ctx, project.ProjectID, users[1].UserID, users[3].UserID, model.RoleLeader) },
		func() { p.RemoveMember(ctx, project.ProjectID, users[3].UserID, users[1].UserID) },
		func() { p.ChangeRole(ctx, project.ProjectID, users[3].UserID, users[3].UserID, model.RoleMember) },
	}
	for i, op := range ops {
		op()
		leaders, err := countLeaders(p.db, project.ProjectID)
		if err != nil {
			t.Fatalf("count leaders: %v", err)
		}
		if leaders == 0 {
			t.Fatalf("no Leader left after step %d", i)
		}
	}
}

func TestListMembersOrder(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)

	zed := seedUser(t, p, "zed")
	amy := seedUser(t, p, "amy")
	bea := seedUser(t, p, "bea")
	cal := seedUser(t, p, "cal")
	outsider := seedUser(t, p, "outsider")
	project := seedProject(t, p, zed.UserID, "P")
	seedMember(t, p, project.ProjectID, cal.UserID, model.RoleMember)
	seedMember(t, p, project.ProjectID, bea.UserID, model.RoleManager)
	seedMember(t, p, project.ProjectID, amy.UserID, model.RoleMember)

	members, err := p.ListMembers(ctx, project.ProjectID, amy.UserID)
	wantKind(t, err, nil)
	var got []string
	for _, m := range members {
		got = append(got, m.User.Username)
	}
	want := []string{"zed", "bea", "amy", "cal"}
	if len(got) != len(want) {
		t.Fatalf("members = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("members = %v, want %v", got, want)
		}
	}

	_, err = p.ListMembers(ctx, project.ProjectID, outsider.UserID)
	wantKind(t, err, ErrPermissionDenied)
}
