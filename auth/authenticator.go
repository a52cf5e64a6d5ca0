package auth

import (
	"context"
	stderrors "errors"
	"log/slog"
	"nextext/contract"
	"nextext/domain"
	"nextext/errors"
	"strings"
)

// Authenticator resolves a bearer token to the account it was issued for.
type Authenticator struct {
	log    *slog.Logger
	tokens *TokenService
	users  contract.IUserRepository
}

func NewAuthenticator(log *slog.Logger, tokens *TokenService, users contract.IUserRepository) *Authenticator {
	return &Authenticator{log: log, tokens: tokens, users: users}
}

// Validate never fails: every problem is reported as a rejection reason.
func (a *Authenticator) Validate(ctx context.Context, credential string) domain.AuthResult {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.Rejected(domain.ReasonMissing)
	}

	claims, err := a.tokens.ValidateToken(credential)
	if err != nil {
		if stderrors.Is(err, errors.ErrTokenExpired) {
			return domain.Rejected(domain.ReasonExpired)
		}
		return domain.Rejected(domain.ReasonMalformed)
	}
	if claims.Subject == "" {
		return domain.Rejected(domain.ReasonUnknownSubject)
	}

	user, err := a.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			return domain.Rejected(domain.ReasonUserNotFound)
		}
		a.log.Error("User lookup failed during authentication", "subject", claims.Subject, "error", err)
		return domain.Rejected(domain.ReasonUnavailable)
	}
	if !user.IsActive {
		return domain.Rejected(domain.ReasonInactive)
	}
	return domain.Authenticated(user.ID)
}
