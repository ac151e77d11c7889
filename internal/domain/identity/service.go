package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/periop/internal/platform/auth"
)

// MinPasswordLen is the shortest password accepted at signup.
const MinPasswordLen = 8

var ErrInvalidCredentials = errors.New("incorrect username or password")

// ValidationError reports a signup request that cannot be accepted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

type Service struct {
	users  UserRepository
	tokens *auth.TokenIssuer
	logger zerolog.Logger
	cost   int
}

func NewService(users UserRepository, tokens *auth.TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger, cost: bcrypt.DefaultCost}
}

// SetHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) SetHashCost(cost int) {
	s.cost = cost
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a clinician account.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, &ValidationError{Msg: "email is required"}
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, &ValidationError{Msg: "invalid email address"}
	}
	if len(req.Password) < MinPasswordLen {
		return nil, &ValidationError{Msg: fmt.Sprintf("password must be at least %d characters", MinPasswordLen)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, &ValidationError{Msg: "password is too long"}
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []string{auth.RoleClinician},
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID.String()).Msg("user signed up")
	return u, nil
}

// Login checks the password and issues an access token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Token, error) {
	email := normalizeEmail(req.Email)
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		// Equalize timing with the known-email path.
		_, _ = bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn().Str("user_id", u.ID.String()).Msg("failed login attempt")
		return nil, ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(u.ID.String(), u.Email, u.Roles)
	if err != nil {
		return nil, err
	}
	return &Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	}, nil
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}
