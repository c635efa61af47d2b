package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// VerificationClaims carry the signup verification state between requests:
// which contacts have an OTP pending and which ones were proven.
type VerificationClaims struct {
	PendingEmail  string `json:"pending_email,omitempty"`
	PendingPhone  string `json:"pending_phone,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	PhoneVerified bool   `json:"phone_verified"`
	VerifiedEmail string `json:"verified_email,omitempty"`
	VerifiedPhone string `json:"verified_phone,omitempty"`
	jwt.RegisteredClaims
}

// Verified reports whether either contact was proven.
func (c *VerificationClaims) Verified() bool {
	return c.EmailVerified || c.PhoneVerified
}

func NewVerificationToken(c VerificationClaims, exp time.Time, secret []byte) (string, error) {
	c.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

func VerificationClaimsFromToken(tokenStr string, secret []byte) (*VerificationClaims, error) {
	var claims VerificationClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc(secret))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}
