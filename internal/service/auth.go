package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const defaultAccessTTL = 24 * time.Hour

// Welcomer greets a freshly created account. Failures stay inside.
type Welcomer interface {
	SendWelcome(ctx context.Context, address, username string)
}

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	AccessTTL time.Duration
	Welcome   Welcomer
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

type LoginResult struct {
	User        *models.User
	AccessToken string
	AccessExp   time.Time
	IsAdmin     bool
}

// Signup requires a verified email in the verification session, and a
// verified phone only when a phone number is given.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest, v *tokens.VerificationClaims) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password required: %w", ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", ErrValidation)
	}

	if exists, err := s.Repo.EmailExists(ctx, req.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	}
	if exists, err := s.Repo.UsernameExists(ctx, req.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("username already taken: %w", ErrConflict)
	}

	if v == nil || !v.EmailVerified || (v.VerifiedEmail != "" && v.VerifiedEmail != req.Email) {
		return nil, fmt.Errorf("please verify your email with OTP before signing up: %w", ErrValidation)
	}
	phoneVerified := false
	if req.Phone != "" {
		if !v.PhoneVerified || (v.VerifiedPhone != "" && v.VerifiedPhone != req.Phone) {
			return nil, fmt.Errorf("please verify your phone number with OTP before signing up: %w", ErrValidation)
		}
		phoneVerified = true
	}

	pwHash, err := pkg_hash.HashPassword(req.Password)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:      req.Username,
		Email:         req.Email,
		PasswordHash:  pwHash,
		Role:          models.RoleUser,
		Phone:         req.Phone,
		FullName:      req.FullName,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Pincode:       req.Pincode,
		EmailVerified: true,
		PhoneVerified: phoneVerified,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	l.Info("user_registered", "user_id", user.ID, "username", user.Username)
	if s.Welcome != nil {
		s.Welcome.SendWelcome(ctx, user.Email, user.Username)
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password required: %w", ErrValidation)
	}

	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown user")
			return nil, fmt.Errorf("invalid username or password: %w", ErrUnauthorized)
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, fmt.Errorf("invalid username or password: %w", ErrUnauthorized)
	}

	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	accessExp := time.Now().Add(ttl)
	accessToken, err := tokens.NewAccessToken(user.ID, user.Role, accessExp, s.JWTSecret)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	return &LoginResult{
		User:        user,
		AccessToken: accessToken,
		AccessExp:   accessExp,
		IsAdmin:     user.Role == models.RoleAdmin,
	}, nil
}
