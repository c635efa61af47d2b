// Package otp keeps short-lived one-time codes keyed by a contact identifier
// (an email address or a phone number).
//
// A Store is an explicitly owned, single-process cache: construct it at start
// up, optionally run its sweeper, and drop it at shutdown. All operations on
// the same key are serialized; different keys never wait on each other beyond
// a short bookkeeping lock.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	CodeLength  = 6
	DefaultTTL  = 5 * time.Minute
	MaxAttempts = 3
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("otp not found")
	ErrExpired         = errors.New("otp expired")
	ErrTooManyAttempts = errors.New("too many failed attempts")
	ErrInvalidCode     = errors.New("invalid otp")
)

const (
	MsgInvalidInput    = "Invalid input parameters"
	MsgNotFound        = "OTP not found or expired. Please request a new OTP."
	MsgExpired         = "OTP has expired. Please request a new OTP."
	MsgTooManyAttempts = "Too many failed attempts. Please request a new OTP."
	MsgVerified        = "OTP verified successfully!"
)

// Record is a snapshot of a stored code.
type Record struct {
	Code      string
	ExpiresAt time.Time
	Attempts  int
}

func (r *Record) expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Result is what a caller shows to the user after Verify.
type Result struct {
	Success   bool
	Message   string
	Remaining int
}

type Store struct {
	ttl     time.Duration
	now     func() time.Time
	random  io.Reader
	locks   keyedMutex
	records sync.Map
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithRandom(r io.Reader) Option {
	return func(s *Store) { s.random = r }
}

func New(opts ...Option) *Store {
	s := &Store{
		ttl:    DefaultTTL,
		now:    time.Now,
		random: rand.Reader,
		locks:  keyedMutex{locks: make(map[string]*refLock)},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) TTL() time.Duration { return s.ttl }

// GenerateCode draws CodeLength independent decimal digits. Leading zeros are kept.
func GenerateCode(r io.Reader) (string, error) {
	var b strings.Builder
	b.Grow(CodeLength)
	ten := big.NewInt(10)
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(r, ten)
		if err != nil {
			return "", fmt.Errorf("generate otp digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// Issue generates a fresh code for key and replaces any previous one.
func (s *Store) Issue(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key: %w", ErrInvalidInput)
	}
	code, err := GenerateCode(s.random)
	if err != nil {
		return "", err
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	s.records.Store(key, &Record{Code: code, ExpiresAt: s.now().Add(s.ttl)})
	return code, nil
}

// Verify checks submitted against the live code for key. Every call that
// reaches the comparison consumes one attempt; a match consumes the record.
func (s *Store) Verify(key, submitted string) (Result, error) {
	if key == "" || submitted == "" {
		return Result{Message: MsgInvalidInput}, ErrInvalidInput
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	v, ok := s.records.Load(key)
	if !ok {
		return Result{Message: MsgNotFound}, ErrNotFound
	}
	rec := v.(*Record)

	if rec.expired(s.now()) {
		s.records.Delete(key)
		return Result{Message: MsgExpired}, ErrExpired
	}
	if rec.Attempts >= MaxAttempts {
		s.records.Delete(key)
		return Result{Message: MsgTooManyAttempts}, ErrTooManyAttempts
	}

	rec.Attempts++
	if rec.Code == submitted {
		s.records.Delete(key)
		return Result{Success: true, Message: MsgVerified}, nil
	}

	left := MaxAttempts - rec.Attempts
	return Result{
		Message:   fmt.Sprintf("Invalid OTP. %d attempts remaining.", left),
		Remaining: left,
	}, ErrInvalidCode
}

// Has reports whether a live code exists for key, evicting it if it expired.
func (s *Store) Has(key string) bool {
	if key == "" {
		return false
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	v, ok := s.records.Load(key)
	if !ok {
		return false
	}
	if v.(*Record).expired(s.now()) {
		s.records.Delete(key)
		return false
	}
	return true
}

// Peek returns a copy of the record without evicting or counting an attempt.
func (s *Store) Peek(key string) (Record, bool) {
	unlock := s.locks.Lock(key)
	defer unlock()

	v, ok := s.records.Load(key)
	if !ok {
		return Record{}, false
	}
	return *v.(*Record), true
}

func (s *Store) Clear(key string) {
	if key == "" {
		return
	}
	unlock := s.locks.Lock(key)
	defer unlock()

	s.records.Delete(key)
}

// Sweep drops every expired record and returns how many were removed.
func (s *Store) Sweep() int {
	removed := 0
	now := s.now()
	s.records.Range(func(k, _ any) bool {
		key := k.(string)
		unlock := s.locks.Lock(key)
		if v, ok := s.records.Load(key); ok && v.(*Record).expired(now) {
			s.records.Delete(key)
			removed++
		}
		unlock()
		return true
	})
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	l := logging.FromContext(ctx).With("component", "otp.sweeper")
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Info("otp_sweeper_stopped")
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				l.Debug("otp_sweep", "removed", n)
			}
		}
	}
}
