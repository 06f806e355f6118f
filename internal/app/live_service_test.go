package app_test

import (
	"context"
	"errors"
	"testing"

	"ttx-deepfake/internal/app"
	"ttx-deepfake/internal/domain"
	"ttx-deepfake/internal/infra/memory"
)

func newTestLive(verifier app.TokenVerifier) *app.LiveService {
	reg := newTestRegistry()
	return app.NewLiveService(reg, app.NewRouter(reg, nil), memory.NewLedgerStore(), verifier, nil)
}

func TestLiveServiceMirrorsClientSession(t *testing.T) {
	live := newTestLive(nil)
	adminSink, clientSink := &recordingSink{}, &recordingSink{}
	admin := live.Connect(adminSink)
	client := live.Connect(clientSink)

	if _, err := live.Register(admin.ID, domain.RoleAdmin, ""); err != nil {
		t.Fatalf("admin register: %v", err)
	}
	if _, err := live.Register(client.ID, domain.RoleClient, ""); err != nil {
		t.Fatalf("client register: %v", err)
	}
	if clients := live.Clients(); len(clients) != 1 || clients[0].ID != client.ID {
		t.Fatalf("unexpected client list %+v", clients)
	}

	// Events before the watch still reach the ledger.
	live.HandleEvent(client.ID, display("ransom", 0, "q0"))

	view, err := live.Watch(admin.ID, client.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if len(view.Entries) != 1 || view.Client == nil || len(view.Chart) != 7 {
		t.Fatalf("unexpected initial view %+v", view)
	}

	d := live.HandleEvent(client.ID, domain.AnswerSelection{CardID: "ransom", QuestionIndex: 0, SelectedIndex: 1, SelectedText: "B"})
	if d.Delivered != 1 {
		t.Fatalf("expected relay to admin, got %+v", d)
	}
	live.HandleEvent(client.ID, domain.ResultsDisplay{CardID: "ransom", TotalScore: 4, MaxScore: 5})

	live.HandleEvent(client.ID, display("legal", 1, "l1"))

	view, _ = live.Session(client.ID)
	if !view.Chart[0].Completed || view.Chart[0].CorrectCount != 4 {
		t.Fatalf("chart not updated: %+v", view.Chart[0])
	}
	if rows := view.Rows["ransom"]; len(rows) != 1 || rows[0].Selected != "B" {
		t.Fatalf("unexpected ransom rows %+v", rows)
	}
	if rows := view.Rows["legal"]; len(rows) != 2 || rows[0].Question != app.NotAvailable || rows[1].Question != "l1" {
		t.Fatalf("expected placeholder row for legal, got %+v", rows)
	}

	live.Disconnect(client.ID)
	got := adminSink.types()
	if got[len(got)-1] != app.NoticeClientDisconnected {
		t.Fatalf("expected disconnect notice last, got %v", got)
	}

	view, err = live.Session(client.ID)
	if err != nil || view.Client != nil || len(view.Entries) != 2 {
		t.Fatalf("ledger should outlive the connection, got %+v %v", view, err)
	}
	if !live.Clear(client.ID) || live.Clear(client.ID) {
		t.Fatalf("clear should succeed exactly once")
	}
	if _, err := live.Session(client.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestLiveServiceIgnoresAdminEventsInLedger(t *testing.T) {
	live := newTestLive(nil)
	admin := live.Connect(&recordingSink{})
	_, _ = live.Register(admin.ID, domain.RoleAdmin, "")

	live.HandleEvent(admin.ID, display("ransom", 0, "q0"))
	if sessions := live.Sessions(); len(sessions) != 0 {
		t.Fatalf("admin events must not create ledgers, got %v", sessions)
	}
}

func TestLiveServiceAdminNeedsToken(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuth()
	live := newTestLive(auth)

	_, userToken, err := auth.Register(ctx, app.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	_, adminToken, err := auth.Register(ctx, app.RegisterInput{Name: "Fac", Email: "facilitator@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}

	conn := live.Connect(&recordingSink{})
	if _, err := live.Register(conn.ID, domain.RoleAdmin, ""); !errors.Is(err, domain.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin without token, got %v", err)
	}
	if _, err := live.Register(conn.ID, domain.RoleAdmin, userToken); !errors.Is(err, domain.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin for non-admin token, got %v", err)
	}
	if _, err := live.Register(conn.ID, domain.RoleClient, "garbage"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	info, err := live.Register(conn.ID, domain.RoleClient, userToken)
	if err != nil || info.UserEmail != "alice@example.com" {
		t.Fatalf("client register with identity failed: %+v %v", info, err)
	}
	if _, err := live.Register(conn.ID, domain.RoleAdmin, adminToken); err != nil || !live.IsAdmin(conn.ID) {
		t.Fatalf("admin register failed: %v", err)
	}
}
