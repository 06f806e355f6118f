package app_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"ttx-deepfake/internal/app"
	"ttx-deepfake/internal/domain"
)

type recordingSink struct {
	mu      sync.Mutex
	notices []app.Notice
	full    bool
}

func (s *recordingSink) Deliver(n app.Notice) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.notices = append(s.notices, n)
	return true
}

func (s *recordingSink) types() []app.NoticeType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]app.NoticeType, 0, len(s.notices))
	for _, n := range s.notices {
		out = append(out, n.Type)
	}
	return out
}

func newTestRegistry() *app.Registry {
	now := t0
	var mu sync.Mutex
	return app.NewRegistryWithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	})
}

func TestRegistryRoleAndActivity(t *testing.T) {
	reg := newTestRegistry()
	info := reg.Connect("c1")
	if info.Role != domain.RoleUnclaimed || !info.ConnectedAt.Equal(info.LastActivityAt) {
		t.Fatalf("unexpected fresh connection %+v", info)
	}

	ident := &domain.Identity{UserID: "u1", Name: "Alice", Email: "alice@example.com"}
	registered, err := reg.Register("c1", domain.RoleClient, ident)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.UserName != "Alice" || registered.Role != domain.RoleClient {
		t.Fatalf("identity not attached: %+v", registered)
	}

	if !reg.Touch("c1") {
		t.Fatalf("touch should find the connection")
	}
	touched, _ := reg.Get("c1")
	if !touched.LastActivityAt.After(registered.LastActivityAt) || !touched.ConnectedAt.Equal(info.ConnectedAt) {
		t.Fatalf("touch should only move LastActivityAt: %+v", touched)
	}

	again, _ := reg.Register("c1", domain.RoleAdmin, nil)
	if again.Role != domain.RoleAdmin || again.UserID != "" {
		t.Fatalf("expected last role to win, got %+v", again)
	}

	if _, err := reg.Register("missing", domain.RoleClient, nil); !errors.Is(err, domain.ErrConnectionNotFound) {
		t.Fatalf("expected ErrConnectionNotFound, got %v", err)
	}
	if _, err := reg.Register("c1", domain.RoleUnclaimed, nil); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if reg.Touch("missing") {
		t.Fatalf("touch of unknown connection should report false")
	}
}

func TestRegistryListsClientsOnly(t *testing.T) {
	reg := newTestRegistry()
	reg.Connect("admin")
	reg.Connect("b")
	reg.Connect("a")
	reg.Connect("idle")
	_, _ = reg.Register("admin", domain.RoleAdmin, nil)
	_, _ = reg.Register("b", domain.RoleClient, nil)
	_, _ = reg.Register("a", domain.RoleClient, nil)

	list := reg.List()
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Fatalf("expected clients in connect order, got %+v", list)
	}
	if admins := reg.Admins(); len(admins) != 1 || admins[0].ID != "admin" {
		t.Fatalf("unexpected admins %+v", admins)
	}
}

func TestRouterForwardsOnlyToWatchingAdmins(t *testing.T) {
	reg := newTestRegistry()
	router := app.NewRouter(reg, nil)

	watcher, bystander, clientSink := &recordingSink{}, &recordingSink{}, &recordingSink{}
	for id, sink := range map[domain.ConnectionID]*recordingSink{"a1": watcher, "a2": bystander, "c1": clientSink} {
		reg.Connect(id)
		router.Attach(id, sink)
	}
	reg.Connect("c2")
	_, _ = reg.Register("a1", domain.RoleAdmin, nil)
	_, _ = reg.Register("a2", domain.RoleAdmin, nil)
	_, _ = reg.Register("c1", domain.RoleClient, nil)
	_, _ = reg.Register("c2", domain.RoleClient, nil)

	if err := router.Watch("a1", "c1"); err != nil {
		t.Fatalf("watch: %v", err)
	}

	d := router.Publish(display("ransom", 0, "q0"), "c1")
	if d.Delivered != 1 || d.Reason != app.DropNone {
		t.Fatalf("expected one delivery, got %+v", d)
	}
	d = router.Publish(display("ransom", 0, "q0"), "c2")
	if d.Delivered != 0 || d.Reason != app.DropNoWatcher {
		t.Fatalf("expected no watcher for c2, got %+v", d)
	}

	// Both admins heard both connects; only a1 got the event.
	if got := watcher.types(); len(got) != 3 || got[2] != app.NoticeEvent {
		t.Fatalf("unexpected watcher notices %v", got)
	}
	if got := bystander.types(); len(got) != 2 {
		t.Fatalf("bystander should only see connects, got %v", got)
	}
	if got := clientSink.types(); len(got) != 0 {
		t.Fatalf("client must never receive admin-bound notices, got %v", got)
	}
	if watcher.notices[2].Client.ID != "c1" {
		t.Fatalf("event not attributed to origin: %+v", watcher.notices[2].Client)
	}
}

func TestRouterDropsUnknownOriginAndAdminEvents(t *testing.T) {
	reg := newTestRegistry()
	router := app.NewRouter(reg, nil)
	reg.Connect("a1")
	_, _ = reg.Register("a1", domain.RoleAdmin, nil)
	router.Attach("a1", &recordingSink{})

	if d := router.Publish(display("ransom", 0, "q"), "ghost"); d.Reason != app.DropUnknownOrigin {
		t.Fatalf("expected unknown origin drop, got %+v", d)
	}
	if d := router.Publish(display("ransom", 0, "q"), "a1"); d.Reason != app.DropNotClient {
		t.Fatalf("expected admin events not forwarded, got %+v", d)
	}
}

func TestRouterFullSinkLosesEvent(t *testing.T) {
	reg := newTestRegistry()
	router := app.NewRouter(reg, nil)
	slow := &recordingSink{}
	reg.Connect("a1")
	reg.Connect("c1")
	router.Attach("a1", slow)
	_, _ = reg.Register("a1", domain.RoleAdmin, nil)
	_, _ = reg.Register("c1", domain.RoleClient, nil)
	_ = router.Watch("a1", "c1")

	slow.full = true
	d := router.Publish(display("ransom", 0, "q"), "c1")
	if d.Delivered != 0 || d.Full != 1 {
		t.Fatalf("expected at-most-once drop, got %+v", d)
	}
	slow.full = false
	router.Publish(display("ransom", 1, "q"), "c1")
	if got := slow.types(); len(got) != 2 {
		t.Fatalf("dropped event must not be replayed, got %v", got)
	}
}

func TestRouterDisconnectNotifiesAllAdmins(t *testing.T) {
	reg := newTestRegistry()
	router := app.NewRouter(reg, nil)
	a1, a2 := &recordingSink{}, &recordingSink{}
	reg.Connect("a1")
	reg.Connect("a2")
	reg.Connect("c1")
	router.Attach("a1", a1)
	router.Attach("a2", a2)
	_, _ = reg.Register("a1", domain.RoleAdmin, nil)
	_, _ = reg.Register("a2", domain.RoleAdmin, nil)
	_, _ = reg.Register("c1", domain.RoleClient, nil)
	_ = router.Watch("a1", "c1")

	reg.Unregister("c1")

	for name, sink := range map[string]*recordingSink{"a1": a1, "a2": a2} {
		got := sink.types()
		if len(got) != 2 || got[1] != app.NoticeClientDisconnected {
			t.Fatalf("%s expected disconnect notice, got %v", name, got)
		}
	}
	if _, ok := router.Watching("a1"); ok {
		t.Fatalf("watch on a departed client should be dropped")
	}
}

func TestRouterWatchValidation(t *testing.T) {
	reg := newTestRegistry()
	router := app.NewRouter(reg, nil)
	reg.Connect("a1")
	reg.Connect("c1")
	_, _ = reg.Register("c1", domain.RoleClient, nil)

	if err := router.Watch("a1", "c1"); !errors.Is(err, domain.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	_, _ = reg.Register("a1", domain.RoleAdmin, nil)
	if err := router.Watch("a1", "a1"); !errors.Is(err, domain.ErrNotClient) {
		t.Fatalf("expected ErrNotClient, got %v", err)
	}
	if err := router.Watch("a1", "ghost"); !errors.Is(err, domain.ErrConnectionNotFound) {
		t.Fatalf("expected ErrConnectionNotFound, got %v", err)
	}
}
