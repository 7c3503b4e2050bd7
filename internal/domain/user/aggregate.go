package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "User"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidLogin       = errors.New("login is required")
	ErrDuplicateLogin     = errors.New("login already in use")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrUserDeactivated    = errors.New("user account is deactivated")
)

// User represents a user aggregate
type User struct {
	ID           string
	Login        string
	Email        string
	PasswordHash string
	Name         string
	Role         auth.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Service handles user domain operations
type Service struct {
	eventStore store.EventStoreInterface
}

// NewService creates a new user service
func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// NormalizeLogin is the form logins are stored and compared in
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// Register creates a new user with the given role
func (s *Service) Register(ctx context.Context, login, email, password, name string, role auth.Role) (*User, error) {
	login = NormalizeLogin(login)
	name = strings.TrimSpace(name)
	if login == "" {
		return nil, ErrInvalidLogin
	}
	if name == "" {
		return nil, ErrInvalidName
	}
	if !role.Valid() {
		return nil, auth.ErrInvalidRole
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	userID := uuid.New().String()
	now := time.Now()

	event := UserCreated{
		UserID:       userID,
		Login:        login,
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
	}

	_, err = s.eventStore.Append(ctx, userID, AggregateType, EventUserCreated, event)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:        userID,
		Login:     login,
		Email:     event.Email,
		Name:      name,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// RecordLogin records a user login event
func (s *Service) RecordLogin(ctx context.Context, userID, sessionID, ipAddress, userAgent string) error {
	event := UserLoggedIn{
		UserID:    userID,
		SessionID: sessionID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		LoggedAt:  time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserLoggedIn, event)
	return err
}

// RecordLogout records a user logout event
func (s *Service) RecordLogout(ctx context.Context, userID, sessionID string) error {
	event := UserLoggedOut{
		UserID:    userID,
		SessionID: sessionID,
		LoggedAt:  time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserLoggedOut, event)
	return err
}

// Update changes name, email and role
func (s *Service) Update(ctx context.Context, userID, name, email string, role auth.Role) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	if !role.Valid() {
		return auth.ErrInvalidRole
	}

	events := s.eventStore.GetEvents(userID)
	if len(events) == 0 {
		return ErrUserNotFound
	}

	event := UserUpdated{
		UserID:    userID,
		Name:      name,
		Email:     strings.TrimSpace(email),
		Role:      role,
		UpdatedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserUpdated, event)
	return err
}

// ChangePassword changes user password
func (s *Service) ChangePassword(ctx context.Context, userID, newPassword string) error {
	events := s.eventStore.GetEvents(userID)
	if len(events) == 0 {
		return ErrUserNotFound
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	event := UserPasswordChanged{
		UserID:       userID,
		PasswordHash: passwordHash,
		ChangedAt:    time.Now(),
	}

	_, err = s.eventStore.Append(ctx, userID, AggregateType, EventUserPasswordChanged, event)
	return err
}

// Deactivate deactivates a user account
func (s *Service) Deactivate(ctx context.Context, userID string) error {
	events := s.eventStore.GetEvents(userID)
	if len(events) == 0 {
		return ErrUserNotFound
	}

	event := UserDeactivated{
		UserID:        userID,
		DeactivatedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserDeactivated, event)
	return err
}

// Activate activates a user account
func (s *Service) Activate(ctx context.Context, userID string) error {
	events := s.eventStore.GetEvents(userID)
	if len(events) == 0 {
		return ErrUserNotFound
	}

	event := UserActivated{
		UserID:      userID,
		ActivatedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserActivated, event)
	return err
}
