package config

import (
	"errors"
	"fmt"
)

var ErrMissing = errors.New("missing required env")

// Validate reports every required setting that is absent, not only the first.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("%w DATABASE_URL", ErrMissing))
	}
	if len(c.JWTAccessSecret) == 0 {
		errs = append(errs, fmt.Errorf("%w JWT_SECRET", ErrMissing))
	}
	if len(c.VerificationSecret) == 0 {
		errs = append(errs, fmt.Errorf("%w VERIFICATION_SECRET", ErrMissing))
	}
	switch c.DatabaseDriver {
	case "", "pgx", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	return errors.Join(errs...)
}
