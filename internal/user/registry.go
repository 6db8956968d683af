package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/device-inventory/internal/stamp"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry creates and lists users.
//
// Create holds a mutex across the duplicate check and the write, so two
// concurrent requests cannot register the same email.
type Registry struct {
	repo   Repository
	source stamp.Source
	logger Logger

	mu sync.Mutex
}

// NewRegistry creates a user registry.
func NewRegistry(repo Repository, source stamp.Source) *Registry {
	return &Registry{repo: repo, source: source, logger: noopLogger{}}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Create validates and stores a new user. Name, email, department and role
// are required; status defaults to "active" and join_date to now. Values
// are stored exactly as given, so email uniqueness is an exact match.
func (r *Registry) Create(ctx context.Context, in NewUser) (*User, error) {
	u := User{
		Name:       in.Name,
		Email:      in.Email,
		Department: in.Department,
		Role:       in.Role,
		Status:     in.Status,
	}
	if err := validate(u); err != nil {
		return nil, err
	}
	if strings.TrimSpace(u.Status) == "" {
		u.Status = DefaultStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	for _, e := range existing {
		if e.Email == u.Email {
			return nil, ErrEmailExists
		}
	}

	u.ID = r.source.NewID()
	u.JoinDate = r.source.Now()

	if err := r.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	r.logger.Info("user created", "user_id", u.ID, "department", u.Department)
	return &u, nil
}

// List returns all users.
func (r *Registry) List(ctx context.Context) ([]User, error) {
	users, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

func validate(u User) error {
	for _, f := range []struct{ name, value string }{
		{"name", u.Name},
		{"email", u.Email},
		{"department", u.Department},
		{"role", u.Role},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: missing required field: %s", ErrInvalidUser, f.name)
		}
	}
	return nil
}
