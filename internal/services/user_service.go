package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/models"
	"github.com/charlesng35/stackapp/pkg/crypto"
	apperrors "github.com/charlesng35/stackapp/pkg/errors"
)

// RegisterInput describes the fields accepted when a visitor signs up.
type RegisterInput struct {
	Email    string
	Password string
}

// UserService manages accounts: registration, credential checks and role administration.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Register creates an active account with a hashed password. Duplicate emails yield ErrEmailTaken,
// including when two registrations race past the pre-check.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := models.NormalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("user service: check email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:    email,
		Password: hashed,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}
	return user, nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equaliseTiming spends one bcrypt comparison so unknown emails cost as much as wrong passwords.
func equaliseTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = crypto.HashPassword("stackapp-timing-placeholder")
	})
	_ = crypto.VerifyPassword(dummyHash, password)
}

// Authenticate returns the active user matching the credentials. Unknown emails, wrong
// passwords and inactive accounts all produce ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		equaliseTiming(password)
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) || !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &user, nil
}

// GetByID loads a user with roles.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Preload("Roles").Take(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// List returns every user with roles, oldest first.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	if err := s.db.WithContext(ctx).Preload("Roles").Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}
	return users, nil
}

// SetRoles replaces the user's roles with the named ones. Unknown names fail the whole call.
func (s *UserService) SetRoles(ctx context.Context, userID string, roleNames []string) (*models.User, error) {
	ctx = ensureContext(ctx)
	names := normaliseNames(roleNames)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Take(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		roles := []models.Role{}
		if len(names) > 0 {
			if err := tx.Where("name IN ?", names).Find(&roles).Error; err != nil {
				return err
			}
			if len(roles) != len(names) {
				return ErrUnknownRole
			}
		}

		return tx.Model(&user).Association("Roles").Replace(roles)
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("user service: set roles: %w", err)
	}
	return s.GetByID(ctx, userID)
}

// SetActive toggles whether the user may sign in. Existing sessions of a deactivated user stop
// resolving on their next request.
func (s *UserService) SetActive(ctx context.Context, actorID, userID string, active bool) (*models.User, error) {
	ctx = ensureContext(ctx)
	if !active && actorID == userID {
		return nil, ErrSelfLockout
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("is_active", active)
	if result.Error != nil {
		return nil, fmt.Errorf("user service: set active: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.GetByID(ctx, userID)
}

// Delete removes the user together with their todos and role assignments.
func (s *UserService) Delete(ctx context.Context, actorID, userID string) error {
	ctx = ensureContext(ctx)
	if actorID == userID {
		return ErrSelfLockout
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Take(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("user service: load user: %w", err)
		}
		if err := tx.Model(&user).Association("Roles").Clear(); err != nil {
			return fmt.Errorf("user service: clear roles: %w", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Todo{}).Error; err != nil {
			return fmt.Errorf("user service: delete todos: %w", err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("user service: delete user: %w", err)
		}
		return nil
	})
}

// EnsureSuperuser provisions the bootstrap administrator. An existing account with the email is
// promoted without touching its password. The returned flag reports whether a row was created.
func (s *UserService) EnsureSuperuser(ctx context.Context, email, password string) (*models.User, bool, error) {
	ctx = ensureContext(ctx)
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, false, apperrors.NewBadRequest("bootstrap admin email is required")
	}

	var (
		user    models.User
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Take(&user, "email = ?", email).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if strings.TrimSpace(password) == "" {
				return apperrors.NewBadRequest("bootstrap admin password is required")
			}
			hashed, hashErr := crypto.HashPassword(password)
			if hashErr != nil {
				return hashErr
			}
			user = models.User{Email: email, Password: hashed, IsActive: true, IsSuperuser: true}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		default:
			if err := tx.Model(&user).Updates(map[string]any{"is_superuser": true, "is_active": true}).Error; err != nil {
				return err
			}
		}

		var admin models.Role
		if err := tx.Take(&admin, "name = ?", models.RoleAdmin).Error; err != nil {
			return fmt.Errorf("load admin role: %w", err)
		}
		return tx.Model(&user).Association("Roles").Append(&admin)
	})
	if err != nil {
		return nil, false, fmt.Errorf("user service: ensure superuser: %w", err)
	}

	loaded, err := s.GetByID(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}
	return loaded, created, nil
}
