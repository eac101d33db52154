package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/sakif/openlecture/internal/apperror"
	"github.com/sakif/openlecture/internal/auth"
	"github.com/sakif/openlecture/internal/authz"
	"github.com/sakif/openlecture/internal/model"
	"github.com/sakif/openlecture/internal/repository"
)

const MaxFullNameLength = 200

// UserService manages accounts.
type UserService struct {
	users     repository.Collection[model.User]
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(users repository.Collection[model.User], passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{users: users, passwords: passwords, logger: logger}
}

// CreateUserInput is the admin create body. Password is optional; without
// it the account can only log in through GitHub.
type CreateUserInput struct {
	Email    string
	FullName string
	Role     string
	Password string
}

// ReplaceUserInput is the admin full-replace body.
type ReplaceUserInput struct {
	Email    string
	FullName string
	Role     string
}

// PatchUserInput holds optional fields; nil means "leave unchanged".
// Role and IsDeleted are only honoured for admins.
type PatchUserInput struct {
	Email     *string
	FullName  *string
	Role      *string
	IsDeleted *bool
}

// List returns every non-deleted user. Admin only.
func (s *UserService) List(ctx context.Context, caller authz.Identity) ([]model.User, error) {
	if err := authz.Require(authz.AdminOnly, "", caller, "list users"); err != nil {
		return nil, err
	}

	all, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	out := make([]model.User, 0, len(all))
	for _, u := range all {
		if !u.IsDeleted {
			out = append(out, u)
		}
	}
	sortByCreated(out, func(u model.User) time.Time { return u.CreatedAt })
	return out, nil
}

// Me returns the caller's own record.
func (s *UserService) Me(ctx context.Context, caller authz.Identity) (*model.User, error) {
	if err := authz.Require(authz.Any, "", caller, "view your profile"); err != nil {
		return nil, err
	}
	return s.live(ctx, caller.SubjectID)
}

// Get returns one user to its owner or an admin.
func (s *UserService) Get(ctx context.Context, caller authz.Identity, userID string) (*model.User, error) {
	u, err := s.live(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.OwnerOrAdmin, u.ID, caller, "view this user"); err != nil {
		return nil, err
	}
	return u, nil
}

// Create adds an account on behalf of an admin. Ordinary sign-up goes
// through AuthService.Register.
func (s *UserService) Create(ctx context.Context, caller authz.Identity, in CreateUserInput) (*model.User, error) {
	if err := authz.Require(authz.AdminOnly, "", caller, "create users"); err != nil {
		return nil, err
	}

	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	fullName, err := validateFullName(in.FullName)
	if err != nil {
		return nil, err
	}
	role, err := parseRole(in.Role, authz.RoleStudent)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	u := &model.User{
		ID:              model.NewID(model.PrefixUser),
		Email:           email,
		NormalizedEmail: model.NormalizeEmail(email),
		FullName:        fullName,
		Role:            role,
		CreatedAt:       now(),
	}
	if in.Password != "" {
		if err := s.setPassword(u, in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.users.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.String("id", u.ID),
		slog.String("role", string(u.Role)),
		slog.String("by", caller.SubjectID),
	)
	return u, nil
}

// Replace overwrites email, fullName and role. Admin only.
func (s *UserService) Replace(ctx context.Context, caller authz.Identity, userID string, in ReplaceUserInput) (*model.User, error) {
	if err := authz.Require(authz.AdminOnly, "", caller, "replace users"); err != nil {
		return nil, err
	}

	u, err := s.live(ctx, userID)
	if err != nil {
		return nil, err
	}

	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	fullName, err := validateFullName(in.FullName)
	if err != nil {
		return nil, err
	}
	role, err := parseRole(in.Role, "")
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, email, u.ID); err != nil {
		return nil, err
	}

	u.Email = email
	u.NormalizedEmail = model.NormalizeEmail(email)
	u.FullName = fullName
	u.Role = role
	u.UpdatedAt = stamp()

	if err := s.users.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("replacing user %s: %w", u.ID, err)
	}
	return u, nil
}

// Patch applies a partial update. Owners may change their name and email;
// role and isDeleted are applied only when an admin asks. A soft-deleted
// user can only be patched by an admin (to restore it).
func (s *UserService) Patch(ctx context.Context, caller authz.Identity, userID string, in PatchUserInput) (*model.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted && !caller.IsAdmin() {
		return nil, apperror.NotFound("user", userID)
	}
	if err := authz.Require(authz.OwnerOrAdmin, u.ID, caller, "update this user"); err != nil {
		return nil, err
	}

	if in.FullName != nil {
		fullName, err := validateFullName(*in.FullName)
		if err != nil {
			return nil, err
		}
		u.FullName = fullName
	}
	if in.Email != nil {
		email, err := validateEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		if err := s.ensureEmailFree(ctx, email, u.ID); err != nil {
			return nil, err
		}
		u.Email = email
		u.NormalizedEmail = model.NormalizeEmail(email)
	}
	if caller.IsAdmin() {
		if in.Role != nil {
			role, err := parseRole(*in.Role, "")
			if err != nil {
				return nil, err
			}
			u.Role = role
		}
		if in.IsDeleted != nil {
			if !*in.IsDeleted && u.IsDeleted {
				// Restoring must not create a second live holder of the email.
				if err := s.ensureEmailFree(ctx, u.Email, u.ID); err != nil {
					return nil, err
				}
			}
			u.IsDeleted = *in.IsDeleted
		}
	}
	u.UpdatedAt = stamp()

	if err := s.users.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("patching user %s: %w", u.ID, err)
	}
	return u, nil
}

// Delete soft-deletes the user.
func (s *UserService) Delete(ctx context.Context, caller authz.Identity, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := authz.Require(authz.OwnerOrAdmin, u.ID, caller, "delete this user"); err != nil {
		return err
	}

	u.IsDeleted = true
	u.UpdatedAt = stamp()
	if err := s.users.Put(ctx, u); err != nil {
		return fmt.Errorf("deleting user %s: %w", u.ID, err)
	}

	s.logger.Info("user deleted", slog.String("id", u.ID), slog.String("by", caller.SubjectID))
	return nil
}

// FindByEmail returns the non-deleted user holding email, or NotFound.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	normalized := model.NormalizeEmail(email)
	all, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("looking up user by email: %w", err)
	}
	for i := range all {
		if !all[i].IsDeleted && all[i].NormalizedEmail == normalized {
			return &all[i], nil
		}
	}
	return nil, apperror.NotFound("user", normalized)
}

// live loads a user and hides soft-deleted ones.
func (s *UserService) live(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, apperror.NotFound("user", userID)
	}
	return u, nil
}

// ensureEmailFree fails with Conflict when another non-deleted user
// already holds email. exceptID is the user being updated, if any.
func (s *UserService) ensureEmailFree(ctx context.Context, email, exceptID string) error {
	holder, err := s.FindByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if holder.ID == exceptID {
		return nil
	}
	return apperror.Conflict("email", "email already registered")
}

func (s *UserService) setPassword(u *model.User, password string) error {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return apperror.ValidationFailed("password", err.Error())
	}
	u.PasswordHash = hash
	u.PasswordUpdatedAt = stamp()
	return nil
}

func validateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperror.ValidationFailed("email", "email is not a valid address")
	}
	return email, nil
}

func validateFullName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if len(name) > MaxFullNameLength {
		return "", apperror.ValidationFailed("fullName",
			fmt.Sprintf("full name must be %d characters or less", MaxFullNameLength))
	}
	return name, nil
}

// parseRole validates a role input. An empty input yields def, or a
// validation error when def is RoleNone.
func parseRole(raw string, def authz.Role) (authz.Role, error) {
	if strings.TrimSpace(raw) == "" && def != authz.RoleNone {
		return def, nil
	}
	role, ok := authz.ParseRole(raw)
	if !ok {
		return authz.RoleNone, apperror.ValidationFailed("role", "role must be Student or Admin")
	}
	return role, nil
}
