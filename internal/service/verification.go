package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/otp"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	MsgEmailRegistered = "Email is already registered."
	MsgInvalidPhone    = "Please enter a valid 10-digit phone number."
	MsgNoPendingOTP    = "No pending OTP found. Please request a new OTP."
	MsgEmailOTPSent    = "OTP sent to your email. Please check your inbox."
	MsgPhoneOTPSent    = "OTP sent to your phone via SMS."
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// VerificationService drives contact verification before signup. It works
// on the caller's verification claims and returns the updated copy; storing
// them (a signed cookie) is up to the caller.
type VerificationService struct {
	Repo       *repo.GormRepo
	Store      *otp.Store
	Dispatcher *notify.Dispatcher
}

func (s *VerificationService) SendEmailOTP(ctx context.Context, v tokens.VerificationClaims, email string) (tokens.VerificationClaims, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return v, fmt.Errorf("invalid email: %w", ErrValidation)
	}
	exists, err := s.Repo.EmailExists(ctx, email)
	if err != nil {
		return v, err
	}
	if exists {
		return v, fmt.Errorf("%s: %w", MsgEmailRegistered, ErrConflict)
	}

	if _, err := s.Dispatcher.IssueEmail(ctx, email); err != nil {
		return v, err
	}
	v.PendingEmail = email
	return v, nil
}

func (s *VerificationService) SendPhoneOTP(ctx context.Context, v tokens.VerificationClaims, phone string) (tokens.VerificationClaims, error) {
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return v, fmt.Errorf("%s: %w", MsgInvalidPhone, ErrValidation)
	}

	if _, err := s.Dispatcher.IssuePhone(ctx, phone); err != nil {
		return v, err
	}
	v.PendingPhone = phone
	return v, nil
}

// Verify checks code against the pending contact of kind ("email" or
// "phone"). The otp.Result message is returned on success and failure alike.
func (s *VerificationService) Verify(_ context.Context, v tokens.VerificationClaims, kind, code string) (tokens.VerificationClaims, otp.Result, error) {
	var key string
	switch kind {
	case "email":
		key = v.PendingEmail
	case "phone":
		key = v.PendingPhone
	default:
		return v, otp.Result{Message: otp.MsgInvalidInput}, fmt.Errorf("unknown verification type %q: %w", kind, ErrValidation)
	}
	if key == "" {
		return v, otp.Result{Message: MsgNoPendingOTP}, fmt.Errorf("no pending otp: %w", ErrNotFound)
	}

	res, err := s.Store.Verify(key, strings.TrimSpace(code))
	if err != nil {
		return v, res, mapOTPError(err)
	}

	if kind == "email" {
		v.EmailVerified = true
		v.VerifiedEmail = key
		v.PendingEmail = ""
	} else {
		v.PhoneVerified = true
		v.VerifiedPhone = key
		v.PendingPhone = ""
	}
	return v, res, nil
}

// Reset drops any outstanding codes and returns empty claims.
func (s *VerificationService) Reset(_ context.Context, v tokens.VerificationClaims) tokens.VerificationClaims {
	if v.PendingEmail != "" {
		s.Store.Clear(v.PendingEmail)
	}
	if v.PendingPhone != "" {
		s.Store.Clear(v.PendingPhone)
	}
	return tokens.VerificationClaims{}
}

func mapOTPError(err error) error {
	switch {
	case errors.Is(err, otp.ErrInvalidInput), errors.Is(err, otp.ErrInvalidCode):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, otp.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, otp.ErrExpired), errors.Is(err, otp.ErrTooManyAttempts):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
