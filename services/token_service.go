package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"fmt"
	"log/slog"
	"time"
)

type ITokenService interface {
	SaveToken(ctx context.Context, identity domain.Identity, token string) (domain.DeviceToken, error)
}

var _ ITokenService = (*TokenService)(nil)

// TokenService keeps the single push registration of an account.
type TokenService struct {
	tokens contract.ITokenRepository
	log    *slog.Logger
	now    func() time.Time
}

func NewTokenService(tokens contract.ITokenRepository, log *slog.Logger) *TokenService {
	return &TokenService{tokens: tokens, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// SaveToken replaces whatever token the account had.
func (s *TokenService) SaveToken(ctx context.Context, identity domain.Identity, token string) (domain.DeviceToken, error) {
	saved, err := s.tokens.SaveToken(ctx, domain.DeviceToken{
		AccountID: identity.AccountID,
		Token:     token,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return domain.DeviceToken{}, fmt.Errorf("save device token: %w", err)
	}
	s.log.Debug("Device token saved", "account_id", identity.AccountID)
	return saved, nil
}
