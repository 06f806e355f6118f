package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ttx-deepfake/internal/domain"
)

func TestAccountStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "data", "ttx.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	created := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	user := domain.User{ID: "u1", Name: "Alice", Email: "alice@example.com", TeamRole: "legal", IsAdmin: true, PasswordHash: "hash", CreatedAt: created}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateUser(ctx, domain.User{ID: "u2", Email: "alice@example.com", CreatedAt: created}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}

	got, err := store.UserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("by email: %v", err)
	}
	if got.ID != user.ID || got.Email != user.Email || !got.IsAdmin || got.TeamRole != "legal" || !got.CreatedAt.Equal(created) {
		t.Fatalf("user mismatch:\n%+v\n%+v", got, user)
	}
	if _, err := store.UserByID(ctx, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	a := domain.Assessment{
		ID: "a1", UserID: "u1", TeamRole: "legal", CardID: "legal", TotalScore: 3, MaxScore: 5,
		Answers:     []domain.AnswerSummary{{QuestionIndex: 0, IsCorrect: true, SelectedAnswer: "Notify the regulator", CorrectAnswer: "Notify the regulator", HintsUsed: 1}},
		CompletedAt: created.Add(time.Hour),
	}
	if err := store.SaveAssessment(ctx, a); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveAssessment(ctx, domain.Assessment{ID: "a2", UserID: "ghost"}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected unknown user, got %v", err)
	}

	list, err := store.ListAssessments(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if list[0].Answers[0].HintsUsed != 1 || !list[0].CompletedAt.Equal(a.CompletedAt) {
		t.Fatalf("assessment mismatch %+v", list[0])
	}
	all, _ := store.ListAssessments(ctx, "")
	users, _ := store.ListUsers(ctx)
	if len(all) != 1 || len(users) != 1 {
		t.Fatalf("expected 1 assessment and 1 user, got %d/%d", len(all), len(users))
	}
}

func TestListAssessmentsOrdersByTime(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "ttx.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 10, 19, 10, 0, 5, 0, time.UTC)
	if err := store.CreateUser(ctx, domain.User{ID: "u1", Name: "Alice", Email: "alice@example.com", CreatedAt: base}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Whole-second and fractional times must sort by instant, not by text.
	for _, a := range []domain.Assessment{
		{ID: "late", UserID: "u1", CardID: "legal", CompletedAt: base.Add(500 * time.Millisecond)},
		{ID: "early", UserID: "u1", CardID: "legal", CompletedAt: base},
		{ID: "latest", UserID: "u1", CardID: "legal", CompletedAt: base.Add(time.Second)},
	} {
		if err := store.SaveAssessment(ctx, a); err != nil {
			t.Fatalf("save %s: %v", a.ID, err)
		}
	}

	list, err := store.ListAssessments(ctx, "u1")
	if err != nil || len(list) != 3 {
		t.Fatalf("list: %v %v", list, err)
	}
	if list[0].ID != "early" || list[1].ID != "late" || list[2].ID != "latest" {
		t.Fatalf("unexpected order %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}
	if !list[1].CompletedAt.Equal(base.Add(500 * time.Millisecond)) {
		t.Fatalf("fraction lost: %v", list[1].CompletedAt)
	}
}
