package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quetzal/dto"
	"quetzal/model"
	"quetzal/repository"
	"quetzal/services"
	"quetzal/utils"
)

var (
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrPasswordChangeRequired = errors.New("password change required")
	ErrTwoFactorRequired      = errors.New("two-factor code required")
	ErrInvalidRole            = errors.New("role must be staff or student")
)

type AuthService struct {
	Users        repository.UsersStore
	Tokens       *services.TokenService
	Blacklist    services.TokenBlacklist
	StaffEmail   string
	StudentEmail string
	Issuer       string

	now func() time.Time
}

func NewAuthService(users repository.UsersStore, tokens *services.TokenService, blacklist services.TokenBlacklist, staffEmail, studentEmail, issuer string) *AuthService {
	return &AuthService{
		Users:        users,
		Tokens:       tokens,
		Blacklist:    blacklist,
		StaffEmail:   staffEmail,
		StudentEmail: studentEmail,
		Issuer:       issuer,
		now:          time.Now,
	}
}

// EmailForRole maps a role to the shared account email it signs in as.
func (s *AuthService) EmailForRole(role model.Role) string {
	if role == model.RoleStaff {
		return s.StaffEmail
	}
	return s.StudentEmail
}

// Login checks credentials and issues a token. A password equal to the
// username marks an account that has never changed its initial password.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := services.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password for %s: %w", user.Username, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if req.Password == user.Username {
		return nil, ErrPasswordChangeRequired
	}

	if user.TOTPSecret != "" {
		if strings.TrimSpace(req.TOTPCode) == "" {
			return nil, ErrTwoFactorRequired
		}
		if !services.ValidateTOTP(strings.TrimSpace(req.TOTPCode), user.TOTPSecret, s.now()) {
			return nil, ErrInvalidCredentials
		}
	}

	claims := model.Claims{
		Username: user.Username,
		Email:    s.EmailForRole(user.Role),
		Role:     user.Role,
	}
	token, expiresAt, err := s.Tokens.GenerateJWT(claims)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Message:   "Login successful",
		Token:     token,
		ExpiresAt: expiresAt,
		User: dto.UserResponse{
			Username: claims.Username,
			Role:     claims.Role,
			Email:    claims.Email,
		},
	}, nil
}

// ChangePassword replaces the password after checking the current one.
// Accounts still on a legacy hash are moved to argon2 here.
func (s *AuthService) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error {
	if err := utils.ValidateNewPassword(req.Username, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	user, err := s.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if !services.ComparePasswords(user.PasswordHash, req.CurrentPassword) {
		return ErrInvalidCredentials
	}

	hash, err := services.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.Users.UpdatePassword(ctx, user.Username, hash)
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	if err := s.Blacklist.Blacklist(ctx, token, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// CreateUser adds an account. An empty password defaults to the username,
// which forces a change on first login. When withTOTP is set the returned
// string is the otpauth URL for the new secret.
func (s *AuthService) CreateUser(ctx context.Context, username string, role model.Role, password string, withTOTP bool) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, "", errors.New("username is required")
	}
	if role != model.RoleStaff && role != model.RoleStudent {
		return nil, "", ErrInvalidRole
	}
	if password == "" {
		password = username
	}

	hash, err := services.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Role:         role,
		PasswordHash: hash,
	}

	var otpURL string
	if withTOTP {
		secret, url, err := services.GenerateTOTPSecret(s.Issuer, username)
		if err != nil {
			return nil, "", err
		}
		user.TOTPSecret = secret
		otpURL = url
	}

	if err := s.Users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	return user, otpURL, nil
}

// SetPassword overwrites a password without checking the old one. Used by
// the admin CLI.
func (s *AuthService) SetPassword(ctx context.Context, username, password string) error {
	if len(password) < utils.MinPasswordLength {
		return utils.ErrPasswordTooShort
	}
	hash, err := services.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.Users.UpdatePassword(ctx, username, hash)
}
