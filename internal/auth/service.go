package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gfi/datareview/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
	maxPasswordLength = 200
	bcryptInputLimit  = 72
)

// userStore abstracts the persistence layer.
type userStore interface {
	CreateUser(ctx context.Context, user User) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}

// Service encapsulates registration and login use cases.
type Service struct {
	store    userStore
	cfg      config.AuthConfig
	nowFunc  func() time.Time
	idIssuer string
}

// NewService creates a Service with dependencies.
func NewService(store userStore, cfg config.AuthConfig) *Service {
	return &Service{
		store:    store,
		cfg:      cfg,
		nowFunc:  time.Now,
		idIssuer: "datareview",
	}
}

// RegisterInput carries data for user registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput carries login credentials. Identifier accepts either a
// username or an email address.
type LoginInput struct {
	Identifier string
	Password   string
}

// AuthResult contains the authenticated user and, on login, an access token.
type AuthResult struct {
	User              User
	AccessToken       string
	AccessTokenExpiry time.Time
}

// Register creates a new user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if err := validateRegistration(username, email, input.Password); err != nil {
		return AuthResult{}, err
	}

	hashedPassword, err := hashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{User: user.SafeUser()}, nil
}

// Login authenticates credentials and issues an access token. The
// identifier is treated as an email when it contains "@", otherwise as
// a username.
func (s *Service) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	var (
		user User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.store.FindByEmail(ctx, identifier)
	} else {
		user, err = s.store.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	token, expiry, err := s.generateAccessToken(user, s.nowFunc())
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		User:              user.SafeUser(),
		AccessToken:       token,
		AccessTokenExpiry: expiry,
	}, nil
}

func (s *Service) generateAccessToken(user User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.cfg.AccessTokenTTL)
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"iss":      s.idIssuer,
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
		"username": user.Username,
		"email":    user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func hashPassword(password string, cost int) (string, error) {
	if len(password) > bcryptInputLimit {
		password = password[:bcryptInputLimit]
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func validateRegistration(username, email, password string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return fmt.Errorf("%w: username must be between %d and %d characters",
			ErrInvalidArgument, minUsernameLength, maxUsernameLength)
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Contains(email, " ") {
		return fmt.Errorf("%w: invalid email address", ErrInvalidArgument)
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be between %d and %d characters",
			ErrInvalidArgument, minPasswordLength, maxPasswordLength)
	}
	return nil
}
