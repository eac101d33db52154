package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/openlecture/internal/apperror"
	"github.com/sakif/openlecture/internal/auth"
	"github.com/sakif/openlecture/internal/authz"
	"github.com/sakif/openlecture/internal/model"
	"github.com/sakif/openlecture/internal/repository"
)

// errBadCredentials is the single answer to every failed login, so a
// caller cannot tell an unknown email from a wrong password.
var errBadCredentials = apperror.Unauthenticated("invalid email or password")

// AuthService registers accounts and turns credentials into tokens.
//
//	AuthHandler (HTTP) → AuthService → UserService / users collection
//	                                 ↘ TokenService (JWT)
type AuthService struct {
	users     *UserService
	store     repository.Collection[model.User]
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users *UserService,
	store repository.Collection[model.User],
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		store:     store,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput is the self sign-up body.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// AuthResult bundles the user and the token issued for it.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a Student account with a password.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	fullName, err := validateFullName(in.FullName)
	if err != nil {
		return nil, err
	}
	if err := s.users.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	u := &model.User{
		ID:              model.NewID(model.PrefixUser),
		Email:           email,
		NormalizedEmail: model.NormalizeEmail(email),
		FullName:        fullName,
		Role:            authz.RoleStudent,
		CreatedAt:       now(),
	}
	if err := s.users.setPassword(u, in.Password); err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered", slog.String("id", u.ID))
	return u, nil
}

// Login verifies an email and password and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.passwords.Verify(u.PasswordHash, password); err != nil {
		s.logger.Debug("login rejected", slog.String("userID", u.ID), slog.String("reason", err.Error()))
		return nil, errBadCredentials
	}

	return s.issue(u)
}

// LoginWithGitHub maps a GitHub profile onto the non-deleted user holding
// its verified email, creating a passwordless Student on first login.
func (s *AuthService) LoginWithGitHub(ctx context.Context, profile *auth.GitHubProfile) (*AuthResult, error) {
	if profile == nil || profile.Email == "" {
		return nil, apperror.ValidationFailed("email", "GitHub account has no verified email")
	}

	u, err := s.users.FindByEmail(ctx, profile.Email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		u = &model.User{
			ID:              model.NewID(model.PrefixUser),
			Email:           strings.TrimSpace(profile.Email),
			NormalizedEmail: model.NormalizeEmail(profile.Email),
			FullName:        strings.TrimSpace(profile.Name),
			Role:            authz.RoleStudent,
			CreatedAt:       now(),
		}
		if err := s.store.Put(ctx, u); err != nil {
			return nil, fmt.Errorf("creating GitHub user: %w", err)
		}
		s.logger.Info("user registered via GitHub",
			slog.String("id", u.ID),
			slog.String("login", profile.Login),
		)
	case err != nil:
		return nil, err
	}

	return s.issue(u)
}

func (s *AuthService) issue(u *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(IdentityOf(u))
	if err != nil {
		return nil, fmt.Errorf("issuing token for user %s: %w", u.ID, err)
	}
	return &AuthResult{User: u, Token: token}, nil
}

// IdentityOf is the identity a token for u carries.
func IdentityOf(u *model.User) authz.Identity {
	return authz.Identity{
		SubjectID:   u.ID,
		Role:        u.Role,
		DisplayName: u.FullName,
		Email:       u.Email,
	}
}
