package services

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
)

type IIdentityService interface {
	Authenticate(ctx context.Context, authorization string) (domain.Identity, error)
}

var _ IIdentityService = (*IdentityService)(nil)

// IdentityService turns a bearer token into the Identity every other
// operation runs under. Tokens are issued elsewhere and only verified here.
type IdentityService struct {
	verifier *auth.Verifier
	accounts contract.IAccountRepository
	log      *slog.Logger
}

func NewIdentityService(verifier *auth.Verifier, accounts contract.IAccountRepository, log *slog.Logger) *IdentityService {
	return &IdentityService{verifier: verifier, accounts: accounts, log: log}
}

// Authenticate never tells the caller why it failed: a bad token and an
// unknown account are both UNAUTHENTICATED.
func (s *IdentityService) Authenticate(ctx context.Context, authorization string) (domain.Identity, error) {
	claims, err := s.verifier.ValidateToken(authorization)
	if err != nil {
		s.log.Debug("Token rejected", "error", err)
		return domain.Identity{}, errors.ErrUnauthenticated
	}

	account, err := s.accounts.FindAccountByCredentials(ctx, claims.CredentialsID)
	if stderrors.Is(err, errors.ErrAccountNotFound) {
		s.log.Debug("No account for credentials", "credentials_id", claims.CredentialsID)
		return domain.Identity{}, errors.ErrUnauthenticated
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("find account by credentials: %w", err)
	}
	return domain.NewIdentity(claims.CredentialsID, account), nil
}
