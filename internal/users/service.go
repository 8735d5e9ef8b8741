package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/eliasfjaere/utlaan-backend/pkg/auth"
	"github.com/eliasfjaere/utlaan-backend/pkg/config"
	"github.com/eliasfjaere/utlaan-backend/pkg/db"
	"github.com/eliasfjaere/utlaan-backend/pkg/db/models"
	pkgerrors "github.com/eliasfjaere/utlaan-backend/pkg/errors"
	"github.com/eliasfjaere/utlaan-backend/pkg/logger"
	"github.com/eliasfjaere/utlaan-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines user administration and profile operations.
type Service interface {
	List(ctx context.Context, actor auth.Actor) ([]UserView, error)
	Create(ctx context.Context, actor auth.Actor, input CreateUserInput) (*UserView, error)
	ToggleAdmin(ctx context.Context, actor auth.Actor, id uuid.UUID) (*UserView, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	Profile(ctx context.Context, actor auth.Actor) (*UserView, error)
	UpdateProfile(ctx context.Context, actor auth.Actor, input UpdateProfileInput) (*UserView, error)
	EnsureBootstrapAdmin(ctx context.Context) error
}

type service struct {
	repo     Repository
	tx       txRunner
	password config.PasswordConfig
	boot     config.BootstrapConfig
	logg     *logger.Logger
}

// NewService builds a users service with the required dependencies.
func NewService(repo Repository, tx txRunner, password config.PasswordConfig, boot config.BootstrapConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, password: password, boot: boot, logg: logg}, nil
}

func requireAdmin(actor auth.Actor) error {
	if !actor.Known() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "administrator access required")
	}
	return nil
}

func (s *service) List(ctx context.Context, actor auth.Actor) ([]UserView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	views := make([]UserView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, toView(&account))
	}
	return views, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateUserInput) (*UserView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      input.IsAdmin,
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if db.IsUniqueViolation(err, "users_username_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	view := toView(created)
	return &view, nil
}

func (s *service) ToggleAdmin(ctx context.Context, actor auth.Actor, id uuid.UUID) (*UserView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if id == actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cannot change your own admin access")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	if err := s.repo.Update(ctx, id, map[string]any{"is_admin": !user.IsAdmin}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle admin flag")
	}
	user.IsAdmin = !user.IsAdmin
	view := toView(user)
	return &view, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.UserID {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete your own account")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByID(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		loans, err := repo.CountLoansForUser(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count user loans")
		}
		if loans > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "user has registered loans")
		}

		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
		}
		return nil
	})
}

func (s *service) Profile(ctx context.Context, actor auth.Actor) (*UserView, error) {
	if !actor.Known() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	view := toView(user)
	return &view, nil
}

func (s *service) UpdateProfile(ctx context.Context, actor auth.Actor, input UpdateProfileInput) (*UserView, error) {
	if !actor.Known() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}

	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "current password is incorrect")
	}

	updates := map[string]any{"username": username}
	if input.NewPassword != "" {
		if len(input.NewPassword) < minPasswordLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		if input.NewPassword != input.ConfirmPassword {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "password confirmation does not match")
		}
		hash, err := security.HashPassword(input.NewPassword, s.password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		updates["password_hash"] = hash
	}

	if err := s.repo.Update(ctx, user.ID, updates); err != nil {
		if db.IsUniqueViolation(err, "users_username_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}

	updated, err := s.repo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
	}
	view := toView(updated)
	return &view, nil
}

// EnsureBootstrapAdmin seeds the configured admin account when the users
// table is empty, so the API is reachable after first deploy.
func (s *service) EnsureBootstrapAdmin(ctx context.Context) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	if s.boot.AdminPassword == "" {
		return fmt.Errorf("users table is empty and no bootstrap admin password is configured")
	}

	hash, err := security.HashPassword(s.boot.AdminPassword, s.password)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}
	admin := &models.User{
		ID:           uuid.New(),
		Username:     s.boot.AdminUsername,
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if _, err := s.repo.Create(ctx, admin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("seeded bootstrap admin %q", admin.Username))
	}
	return nil
}

func toView(user *models.User) UserView {
	return UserView{
		ID:          user.ID,
		Username:    user.Username,
		IsAdmin:     user.IsAdmin,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
