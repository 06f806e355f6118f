package app_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"ttx-deepfake/internal/app"
	"ttx-deepfake/internal/domain"
	"ttx-deepfake/internal/infra/memory"
)

func newTestAuth() (*app.AuthService, *memory.AccountStore) {
	accounts := memory.NewAccountStore()
	return app.NewAuthService(accounts, app.AuthConfig{
		Secret:      []byte("test-secret"),
		BcryptCost:  bcrypt.MinCost,
		AdminEmails: []string{"Facilitator@Example.com"},
	}), accounts
}

func TestRegisterLoginVerify(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuth()

	user, token, err := auth.Register(ctx, app.RegisterInput{Name: " Alice ", Email: "Alice@Example.com", Password: "pw", TeamRole: "finance"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "alice@example.com" || user.Name != "Alice" || user.IsAdmin {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.PasswordHash == "" || user.PasswordHash == "pw" {
		t.Fatalf("password not hashed")
	}

	ident, err := auth.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if ident.UserID != user.ID || ident.Email != user.Email || ident.IsAdmin {
		t.Fatalf("unexpected identity %+v", ident)
	}

	if _, _, err := auth.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "nobody@example.com", "pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email should look like bad credentials, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "ALICE@example.com ", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, _, err := auth.Register(ctx, app.RegisterInput{Name: "Again", Email: "alice@example.com", Password: "x"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
	if _, _, err := auth.Register(ctx, app.RegisterInput{Email: "bob@example.com"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestAdminEmailsAndForgedTokens(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuth()

	_, token, err := auth.Register(ctx, app.RegisterInput{Name: "Fac", Email: "facilitator@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	ident, err := auth.Verify(token)
	if err != nil || !ident.IsAdmin {
		t.Fatalf("expected admin identity, got %+v %v", ident, err)
	}

	other := app.NewAuthService(memory.NewAccountStore(), app.AuthConfig{Secret: []byte("other-secret"), BcryptCost: bcrypt.MinCost})
	if _, err := other.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("token signed with another secret must fail, got %v", err)
	}
	if _, err := auth.Verify("not-a-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}
