package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"allconnect/internal/backend"
	"allconnect/internal/domain"
	"allconnect/internal/repository"
)

func setup(t *testing.T) (*Service, repository.Storage) {
	t.Helper()
	store := repository.NewMemoryStore()
	storage := repository.NewMemoryStorage(store)
	svc := NewService(repository.NewMemoryUsers(store), storage, NewIssuer("test-secret", time.Hour), zerolog.Nop())
	svc.cost = bcrypt.MinCost
	return svc, storage
}

var ana = RegisterInput{Email: " Ana@Example.com ", Password: "s3cretpass", FirstName: "Ana", LastName: "Mora"}

func TestRegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	svc, storage := setup(t)

	sess, err := svc.Register(ctx, ana)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.User.Email != "ana@example.com" || sess.User.Role != domain.RoleCustomer || sess.Token == "" {
		t.Fatalf("session %+v", sess)
	}
	if _, err := storage.Get(ctx, repository.AuthKey(sess.User.ID)); err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if _, err := svc.Register(ctx, ana); err != ErrEmailTaken {
		t.Fatalf("expected email taken, got %v", err)
	}

	if _, err := svc.Login(ctx, "ana@example.com", "wrong-pass"); err != ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	logged, err := svc.Login(ctx, "ANA@example.com", ana.Password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	got, err := svc.Authenticate(ctx, logged.Token)
	if err != nil || got.User.ID != sess.User.ID {
		t.Fatalf("authenticate: %+v %v", got, err)
	}
	me, err := svc.Me(ctx, sess.User.ID)
	if err != nil || me.LastLogin.IsZero() || me.PasswordHash != nil {
		t.Fatalf("me: %+v %v", me, err)
	}

	if err := svc.Logout(ctx, sess.User.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Authenticate(ctx, logged.Token); err != ErrNoSession {
		t.Fatalf("token must die with its session, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setup(t)
	cases := []RegisterInput{
		{Email: "not-an-email", Password: "longenough", FirstName: "A", LastName: "B"},
		{Email: "a@b.co", Password: "short", FirstName: "A", LastName: "B"},
		{Email: "a@b.co", Password: "longenough", FirstName: "  ", LastName: "B"},
	}
	for _, in := range cases {
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrInvalidRegistration) {
			t.Fatalf("%+v: expected invalid registration, got %v", in, err)
		}
	}
}

func TestAuthenticateRejectsTampered(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	sess, _ := svc.Register(ctx, ana)

	other := NewIssuer("other-secret", time.Hour)
	forged, _, _ := other.Issue(sess.User)
	if _, err := svc.Authenticate(ctx, forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	// a newer login replaces the session and retires the older token
	svc.issuer.now = func() time.Time { return time.Now().Add(5 * time.Second) }
	if _, err := svc.Login(ctx, ana.Email, ana.Password); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Authenticate(ctx, sess.Token); err != ErrInvalidToken {
		t.Fatalf("stale token accepted: %v", err)
	}
}

func TestIssuer_Expiry(t *testing.T) {
	iss := NewIssuer("k", time.Minute)
	base := time.Now()
	iss.now = func() time.Time { return base }
	tok, _, err := iss.Issue(domain.User{ID: 3, Email: "x@y.z", Role: domain.RoleAdminIT})
	if err != nil {
		t.Fatal(err)
	}
	c, err := iss.Parse(tok)
	if err != nil || c.Role != domain.RoleAdminIT {
		t.Fatalf("parse: %+v %v", c, err)
	}
	iss.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := iss.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted")
	}
}

type fakeBackend struct {
	loginErr error
}

func (f fakeBackend) Login(_ context.Context, email, _ string) (*backend.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &backend.AuthResponse{Token: "backend-token", UserID: 77, Email: email, Role: domain.RoleAdminNegocio}, nil
}

func (f fakeBackend) Register(context.Context, backend.RegisterRequest) (*backend.AuthResponse, error) {
	return nil, &backend.APIError{Status: 409, Message: "exists"}
}

func (f fakeBackend) Me(context.Context) (*domain.User, error) {
	return &domain.User{ID: 77, Email: "boss@allconnect.com", FirstName: "Boss", Role: domain.RoleAdminNegocio}, nil
}

func TestRemoteMode(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	svc.WithBackend(fakeBackend{})

	sess, err := svc.Login(ctx, "boss@allconnect.com", "whatever")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.BackendToken != "backend-token" || sess.User.ID != 77 || !sess.User.Role.IsAdmin() {
		t.Fatalf("session %+v", sess)
	}
	me, err := svc.Me(ctx, 77)
	if err != nil || me.FirstName != "Boss" {
		t.Fatalf("me: %+v %v", me, err)
	}
	if _, err := svc.Register(ctx, ana); err != ErrEmailTaken {
		t.Fatalf("expected email taken, got %v", err)
	}

	svc.WithBackend(fakeBackend{loginErr: &backend.APIError{Status: 401}})
	if _, err := svc.Login(ctx, "boss@allconnect.com", "bad"); err != ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}
