package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrValidation      = errors.New("validation")       // 400
	ErrUnauthorized    = errors.New("unauthorized")     // 401
	ErrPaymentRejected = errors.New("payment rejected") // 402
	ErrNotFound        = errors.New("not found")        // 404
	ErrConflict        = errors.New("conflict")         // 409
)

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
