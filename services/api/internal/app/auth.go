package app

import (
	"context"
	"fmt"
	"strings"

	"articlehub/internal/util"
	"articlehub/pkg/auth"
	"articlehub/pkg/domain"
)

// UserRepository persists user records keyed by email.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, bool, error)
	HasEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, u domain.User) error
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// RegisterInput is the registration payload. Empty optional fields are stored as null.
type RegisterInput struct {
	Email     string
	Password  string
	Name      string
	BirthDate string
	Gender    string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string
	User  domain.UserSummary
}

// AuthService handles registration and login.
type AuthService struct {
	users  UserRepository
	tokens TokenIssuer
	newID  func() string
}

func NewAuthService(users UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens, newID: util.NewID}
}

// Register creates a user when the email is unused. The existence check and the
// write are not atomic; concurrent registrations of one email end with the last write.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return domain.User{}, ErrEmailAndPasswordRequired
	}
	exists, err := s.users.HasEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, ErrEmailAlreadyExists
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: hash,
		Name:         domain.StringPtr(strings.TrimSpace(in.Name)),
		BirthDate:    domain.StringPtr(strings.TrimSpace(in.BirthDate)),
		Gender:       domain.StringPtr(strings.TrimSpace(in.Gender)),
	}
	if err := s.users.Save(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, ok, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}
	if !ok {
		return LoginResult{}, ErrUserNotFound
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return LoginResult{}, ErrIncorrectPassword
	}
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{Token: token, User: user.Summary()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
