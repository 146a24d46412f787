package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sy17258/Book-Review-Platform/internal/auth"
	"github.com/sy17258/Book-Review-Platform/internal/domain"
	"github.com/sy17258/Book-Review-Platform/internal/event"
	"github.com/sy17258/Book-Review-Platform/internal/repository"
	apperrors "github.com/sy17258/Book-Review-Platform/pkg/errors"
)

const bcryptCost = 12

// SignupInput holds the parameters for creating an account.
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// AuthResult is a user together with their access token.
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// UserService implements account creation and session handling.
type UserService struct {
	users    repository.UserRepository
	jwt      *auth.JWTManager
	producer *event.Producer
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	jwt *auth.JWTManager,
	producer *event.Producer,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		jwt:      jwt,
		producer: producer,
		logger:   logger,
	}
}

// Signup creates a new account and returns it with a signed access token.
func (s *UserService) Signup(ctx context.Context, input *SignupInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if len(input.Password) < 6 {
		return nil, apperrors.InvalidInput("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.DisplayName())
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	if err := s.producer.PublishUserCreated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.created event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and returns the user with a fresh access token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.DisplayName())
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// CurrentUser resolves the profile for a validated token. When the profile
// row has not landed yet, the claims themselves stand in, with the email
// local-part as the display name.
func (s *UserService) CurrentUser(ctx context.Context, userID, email, name string) *domain.User {
	user, err := s.users.GetByID(ctx, userID)
	if err == nil {
		return user
	}

	s.logger.WarnContext(ctx, "profile lookup failed, serving token claims",
		slog.String("user_id", userID),
		slog.String("error", err.Error()),
	)

	fallback := &domain.User{ID: userID, Email: email, Name: name}
	fallback.Name = fallback.DisplayName()
	return fallback
}
