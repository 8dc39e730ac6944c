package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"allconnect/internal/backend"
	"allconnect/internal/domain"
	"allconnect/internal/repository"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidRegistration = errors.New("invalid registration data")
	ErrNoSession           = errors.New("session not found")
)

// Session is persisted under auth-storage:<customerId>
type Session struct {
	Token        string      `json:"token"`
	BackendToken string      `json:"backend_token,omitempty"`
	User         domain.User `json:"user"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

// Backend is the remote identity provider used instead of the local user store
type Backend interface {
	Login(ctx context.Context, email, password string) (*backend.AuthResponse, error)
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.AuthResponse, error)
	Me(ctx context.Context) (*domain.User, error)
}

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

type Service struct {
	users    repository.UserRepository
	remote   Backend
	storage  repository.Storage
	issuer   *Issuer
	validate *validator.Validate
	log      zerolog.Logger
	cost     int
}

// NewService builds the mock-mode service backed by users. Call WithBackend for remote mode.
func NewService(users repository.UserRepository, storage repository.Storage, issuer *Issuer, log zerolog.Logger) *Service {
	return &Service{
		users:    users,
		storage:  storage,
		issuer:   issuer,
		validate: validator.New(),
		log:      log.With().Str("component", "auth").Logger(),
		cost:     bcrypt.DefaultCost,
	}
}

func (s *Service) WithBackend(b Backend) *Service {
	s.remote = b
	return s
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegistration, err)
	}

	if s.remote != nil {
		resp, err := s.remote.Register(ctx, backend.RegisterRequest{Email: in.Email, Password: in.Password, FirstName: in.FirstName, LastName: in.LastName})
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		if err != nil {
			return nil, err
		}
		return s.startSession(ctx, resp.User(), resp.Token)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u := domain.User{Email: in.Email, FirstName: in.FirstName, LastName: in.LastName, Role: domain.RoleCustomer, PasswordHash: hash}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.log.Info().Int64("customer", u.ID).Msg("customer registered")
	return s.startSession(ctx, u, "")
}

// SeedUser creates an account directly, e.g. the bootstrap admin in mock mode.
func (s *Service) SeedUser(ctx context.Context, in RegisterInput, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u := domain.User{Email: strings.ToLower(strings.TrimSpace(in.Email)), FirstName: in.FirstName, LastName: in.LastName, Role: role, PasswordHash: hash}
	if err := s.users.Create(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if s.remote != nil {
		resp, err := s.remote.Login(ctx, email, password)
		if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		if err != nil {
			return nil, err
		}
		return s.startSession(ctx, resp.User(), resp.Token)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	u.LastLogin = time.Now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.startSession(ctx, *u, "")
}

func (s *Service) startSession(ctx context.Context, u domain.User, backendToken string) (*Session, error) {
	token, exp, err := s.issuer.Issue(u)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = nil
	sess := &Session{Token: token, BackendToken: backendToken, User: u, ExpiresAt: exp}
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Put(ctx, repository.AuthKey(u.ID), raw); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// Logout drops the persisted session; tokens issued for it stop working.
func (s *Service) Logout(ctx context.Context, customerID int64) error {
	err := s.storage.Delete(ctx, repository.AuthKey(customerID))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// Authenticate verifies token and requires it to be the customer's current session.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	id, _ := claims.CustomerID()
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Token != token {
		return nil, ErrInvalidToken
	}
	return sess, nil
}

func (s *Service) Me(ctx context.Context, customerID int64) (*domain.User, error) {
	sess, err := s.session(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if s.remote == nil {
		u, err := s.users.GetByID(ctx, customerID)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = nil
		return u, nil
	}
	u, err := s.remote.Me(backend.WithToken(ctx, sess.BackendToken))
	if err != nil {
		s.log.Warn().Err(err).Int64("customer", customerID).Msg("backend profile unavailable, using session copy")
		return &sess.User, nil
	}
	return u, nil
}

func (s *Service) session(ctx context.Context, customerID int64) (*Session, error) {
	raw, err := s.storage.Get(ctx, repository.AuthKey(customerID))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}
