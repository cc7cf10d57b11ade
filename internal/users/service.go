package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrInvalidUsername indicates the username is empty or exceeds storage bounds.
	ErrInvalidUsername = errors.New("users: invalid username")

	errMissingDatabase = errors.New("users: database connection required")
)

const maxUsernameLength = 190

// ServiceConfig describes the dependencies required for user resolution.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service resolves usernames to stable user records.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs the user service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: cfg.Database, now: clock}, nil
}

// Resolve returns the user registered under the username, creating the
// record on first sight. A changed email address is written through.
func (s *Service) Resolve(ctx context.Context, rawUsername, rawEmail string) (*User, error) {
	username := normalize(rawUsername)
	if username == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidUsername)
	}
	if len(username) > maxUsernameLength {
		return nil, fmt.Errorf("%w: exceeds %d characters", ErrInvalidUsername, maxUsernameLength)
	}
	email := normalize(rawEmail)

	var user User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		user = User{ID: id.String(), Username: username, Email: email}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	if email != "" && email != user.Email {
		err := s.db.WithContext(ctx).Model(&User{}).
			Where("id = ?", user.ID).
			Update("email", email).Error
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	return &user, nil
}

// FindByID loads a user by its stable identifier, or nil when unknown.
func (s *Service) FindByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
