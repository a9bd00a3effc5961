package lookup

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
)

// CaseSource resolves a case by its public code. Satisfied by the casefile
// service.
type CaseSource interface {
	SnapshotByCode(ctx context.Context, caseCode string) (*casefile.Case, error)
}

// CodeSender delivers the one-time code to the citizen's registered contact.
// Production wires an SMS or email gateway; development logs the code.
type CodeSender interface {
	Send(ctx context.Context, caseCode, code string) error
}

// LogSender writes the code to the log instead of delivering it. Development
// only.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, caseCode, code string) error {
	s.Logger.InfoContext(ctx, "lookup verification code issued",
		"case_code", caseCode,
		"otp", code,
	)
	return nil
}

// Service runs the anonymous lookup flow: request a code, verify it, read
// the case.
type Service struct {
	cases  CaseSource
	store  ChallengeStore
	sender CodeSender
	ttl    time.Duration
	logger *slog.Logger
}

func NewService(cases CaseSource, store ChallengeStore, sender CodeSender, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{cases: cases, store: store, sender: sender, ttl: ttl, logger: logger}
}

// Request starts a verification challenge for the given case code. Whether
// the case exists is deliberately not revealed to the caller: an unknown
// code gets the same response as a known one.
func (s *Service) Request(ctx context.Context, caseCode string) error {
	if _, err := s.cases.SnapshotByCode(ctx, caseCode); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.logger.InfoContext(ctx, "lookup requested for unknown case", "case_code", caseCode)
			return nil
		}
		return err
	}

	code, err := newOTPCode()
	if err != nil {
		return err
	}
	now := time.Now()
	challenge := Challenge{
		CaseCode:  caseCode,
		Code:      code,
		State:     StateSent,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Put(ctx, challenge, s.ttl); err != nil {
		return err
	}
	return s.sender.Send(ctx, caseCode, code)
}

// Resend reissues the code for an active challenge, resetting the attempt
// budget and the TTL. Without an active challenge it behaves like Request.
func (s *Service) Resend(ctx context.Context, caseCode string) error {
	challenge, err := s.store.Get(ctx, caseCode)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.Request(ctx, caseCode)
		}
		return err
	}
	if challenge.State == StateVerified {
		return nil
	}
	code, err := newOTPCode()
	if err != nil {
		return err
	}
	now := time.Now()
	challenge.Code = code
	challenge.Attempts = 0
	challenge.IssuedAt = now
	challenge.ExpiresAt = now.Add(s.ttl)
	if err := s.store.Put(ctx, challenge, s.ttl); err != nil {
		return err
	}
	return s.sender.Send(ctx, caseCode, code)
}

// Verify checks the citizen's code and, on success, releases the case
// snapshot. A challenge burns after maxAttempts wrong guesses.
func (s *Service) Verify(ctx context.Context, caseCode, code string) (*casefile.Case, error) {
	challenge, err := s.store.Get(ctx, caseCode)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "no active verification for this case code")
		}
		return nil, err
	}

	if challenge.Attempts >= maxAttempts {
		if err := s.store.Delete(ctx, caseCode); err != nil {
			return nil, err
		}
		return nil, dErrors.Wrap(dErrors.CodeUnauthorized, "verification attempts exhausted", sentinel.ErrAlreadyUsed)
	}

	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) != 1 {
		challenge.Attempts++
		remaining := time.Until(challenge.ExpiresAt)
		if remaining <= 0 {
			remaining = time.Second
		}
		if err := s.store.Put(ctx, challenge, remaining); err != nil {
			return nil, err
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "verification code does not match")
	}

	challenge.State = StateVerified
	remaining := time.Until(challenge.ExpiresAt)
	if remaining <= 0 {
		remaining = time.Second
	}
	if err := s.store.Put(ctx, challenge, remaining); err != nil {
		return nil, err
	}
	return s.cases.SnapshotByCode(ctx, caseCode)
}

// Snapshot returns the case for a code whose challenge has already been
// verified and has not yet expired.
func (s *Service) Snapshot(ctx context.Context, caseCode string) (*casefile.Case, error) {
	challenge, err := s.store.Get(ctx, caseCode)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeForbidden, "case code has not been verified")
		}
		return nil, err
	}
	if challenge.State != StateVerified {
		return nil, dErrors.New(dErrors.CodeForbidden, "case code has not been verified")
	}
	return s.cases.SnapshotByCode(ctx, caseCode)
}

// newOTPCode draws a uniform six-digit code.
func newOTPCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("could not generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", binary.BigEndian.Uint32(buf[:])%1_000_000), nil
}
