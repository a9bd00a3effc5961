package staff

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
)

const accessTokenTTL = 8 * time.Hour

// Service handles staff login and account seeding.
type Service struct {
	store  Store
	tokens *JWTService
	logger *slog.Logger
}

func NewService(store Store, tokens *JWTService, logger *slog.Logger) *Service {
	return &Service{store: store, tokens: tokens, logger: logger}
}

// Login verifies credentials and issues an access token. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if err := VerifyPassword(password, account.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.logger.WarnContext(ctx, "failed login attempt", "username", username)
		}
		return nil, err
	}

	expiresAt := time.Now().Add(accessTokenTTL)
	token, err := s.tokens.GenerateAccessToken(account.ID, account.DisplayName, accessTokenTTL)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "staff logged in", "staff_id", account.ID.String())
	return &Session{
		StaffID:     account.ID,
		DisplayName: account.DisplayName,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// Seed installs an operator account, hashing the given password. Existing
// usernames are left alone so restarts do not clobber accounts.
func (s *Service) Seed(ctx context.Context, username, displayName, password string) (*Account, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	account := &Account{
		ID:           id.StaffID(uuid.New()),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Create(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return s.store.FindByUsername(ctx, username)
		}
		return nil, err
	}
	return account, nil
}
