// README: OTP service issues and verifies short numeric codes.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var (
	ErrInvalidCode = errors.New("invalid otp")
	ErrNotIssued   = errors.New("otp not issued or expired")
)

const codeDigits = 4

type Service struct {
	store Store
	ttl   time.Duration
}

func NewService(store Store, ttl time.Duration) *Service {
	return &Service{store: store, ttl: ttl}
}

// Issue replaces any previous code for key.
func (s *Service) Issue(ctx context.Context, key string) (string, error) {
	code, err := newCode()
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, key, code, s.ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Peek returns the live code without consuming it.
func (s *Service) Peek(ctx context.Context, key string) (string, error) {
	code, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotIssued
	}
	return code, nil
}

// Verify checks code without consuming it; callers Discard after the guarded action succeeds.
func (s *Service) Verify(ctx context.Context, key, code string) error {
	want, err := s.Peek(ctx, key)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(code)) != 1 {
		return ErrInvalidCode
	}
	return nil
}

func (s *Service) Discard(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
