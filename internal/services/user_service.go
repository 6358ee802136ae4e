package services

import (
	"errors"
	"fmt"

	"github.com/isdelr/ender-tasks/internal/auth"
	"github.com/isdelr/ender-tasks/internal/models"
	"github.com/isdelr/ender-tasks/internal/store"
)

// UserFields are the columns of the user file.
var UserFields = []string{"id", "username", "password_hash"}

// LegacyUserColumns maps the "password" column of older user files onto
// password_hash.
var LegacyUserColumns = store.WithRenamedColumn("password", "password_hash")

// ErrInvalidCredentials is returned when no user matches a username and
// password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(username, password string) (int, error)
	ValidateCredentials(username, password string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	store  *store.Store
	hasher auth.PasswordHasher
}

// NewUserService creates a new UserService.
func NewUserService(s *store.Store, hasher auth.PasswordHasher) *UserService {
	return &UserService{store: s, hasher: hasher}
}

// CreateUser stores a new user with a hashed password and returns its id.
func (s *UserService) CreateUser(username, password string) (int, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, err
	}

	id, err := s.store.Insert(store.Record{
		"username":      username,
		"password_hash": hash,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// ValidateCredentials returns the first stored user whose username and
// password hash both match. Any mismatch yields ErrInvalidCredentials.
func (s *UserService) ValidateCredentials(username, password string) (models.User, error) {
	records, err := s.store.ScanAll()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to read users: %w", err)
	}

	for _, rec := range records {
		if rec["username"] != username {
			continue
		}
		if !s.hasher.Matches(rec["password_hash"], password) {
			continue
		}
		id, _ := rec.ID()
		return models.User{ID: id, Username: username}, nil
	}
	return models.User{}, ErrInvalidCredentials
}
