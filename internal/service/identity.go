// Package service — identity and task business logic.
//
// IdentityService is the business logic layer for accounts. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → IdentityService (business rules) → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt)
//	                   ↘ TokenService (JWT)
//
// KEY RESPONSIBILITIES:
//   - Validate and normalize registration input, hash the password, create
//     the account, and issue the first token
//   - Authenticate logins without leaking which accounts exist
//   - Encapsulate all identity rules in one place, away from HTTP concerns
//   - Be easily testable with fake dependencies
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/taskify/internal/apperror"
	"github.com/sakif/taskify/internal/auth"
	"github.com/sakif/taskify/internal/model"
	"github.com/sakif/taskify/internal/repository"
)

const (
	minPasswordLength = 8
	maxEmailLength    = 254
)

// IdentityService handles account business logic.
//
// DEPENDENCIES (injected via NewIdentityService):
//   - users      repository.UserRepository  → read/write user records
//   - passwords  *auth.PasswordService      → bcrypt hashing and verification
//   - tokens     *auth.TokenService         → issue JWTs on register/login
//   - logger     *slog.Logger               → structured logging
type IdentityService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

// NewIdentityService creates an IdentityService with all required
// dependencies. Call this in server.go when wiring the dependency graph.
func NewIdentityService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *IdentityService {
	return &IdentityService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// AuthResult is returned by Register and Login.
// It bundles the user record and the issued JWT together so the caller
// (the HTTP handler) can build the whole response in one step.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// RegisterInput carries the raw registration form fields. The service owns
// normalization and validation — handlers pass the input through untouched.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// Register creates a new account and signs it in.
//
// Steps:
//
//  1. Normalize the email (trim whitespace, lowercase) so "Bob@X.com" and
//     "bob@x.com " are the same account
//  2. Validate the email shape and the password rules
//  3. Pre-check for an existing account → friendly conflict error
//  4. Hash the password and insert the user
//  5. Issue the first JWT so registration doubles as login
//
// RACE ON STEP 3/4:
// Two concurrent registrations for the same email can both pass the
// pre-check. The repository translates the UNIQUE-index failure into the
// same ErrConflict, so the loser of the race sees exactly what the
// pre-check would have told it.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := NormalizeEmail(input.Email)

	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}
	if input.Password != input.ConfirmPassword {
		return nil, apperror.ValidationFailed("confirmPassword", "passwords do not match")
	}

	// Pre-check: a nicer error path than waiting for the UNIQUE index.
	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.Conflict("email is already registered")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/identity: checking email availability: %w", err)
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("service/identity: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// ErrConflict passes through for the duplicate-insert race;
		// anything else is an internal failure.
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/identity: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("email", user.Email),
	)

	return s.issueFor(user)
}

// Login authenticates an email/password pair.
//
// ANTI-ENUMERATION:
// Both failure modes — unknown email and wrong password — return the
// identical apperror.InvalidCredentials(). On an email miss we still burn
// one bcrypt comparison against a dummy hash so the two paths take
// comparable time; otherwise the fast "no such user" path would leak
// account existence through response timing.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyDummy(password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/identity: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.InvalidCredentials()
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))

	return s.issueFor(user)
}

// GetUser returns the account record for the given user ID.
// Used by the /api/me handler after the middleware validates the JWT.
func (s *IdentityService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/identity: fetching user %d: %w", userID, err)
	}
	return user, nil
}

// DeleteAccount permanently removes the user and, via the database's
// cascade rule, every task they own.
func (s *IdentityService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/identity: deleting user %d: %w", userID, err)
	}

	s.logger.Info("account deleted", slog.Int64("userID", userID))
	return nil
}

// issueFor mints a fresh JWT for the user and assembles the AuthResult.
func (s *IdentityService) issueFor(user *model.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/identity: issuing token for user %d: %w", user.ID, err)
	}

	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
// Every email that enters the system — registration, login, lookups —
// passes through here first, so the users.email column only ever stores
// the canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > maxEmailLength {
		return apperror.ValidationFailed("email", "email is too long")
	}
	// net/mail accepts "Name <a@b>" forms; requiring the parsed address to
	// round-trip to the input rejects those.
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperror.ValidationFailed("email", "email is not a valid address")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return apperror.ValidationFailed("password", "password is required")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	// bcrypt ignores everything past 72 bytes; rejecting here keeps the
	// stored hash honest about what it covers.
	if len(password) > 72 {
		return apperror.ValidationFailed("password", "password must be at most 72 bytes")
	}
	return nil
}
