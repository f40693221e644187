package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/repository"
)

// Claims are the verified contents of a bearer token.
type Claims struct {
	TokenID   string
	UserID    int64
	ExpiresAt time.Time
}

// UseCase turns verified token claims into an Actor and maintains the
// revocation denylist.
type UseCase struct {
	directory   repository.Directory
	revocations repository.RevocationRepository
	logger      *zap.Logger
}

func New(directory repository.Directory, revocations repository.RevocationRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		directory:   directory,
		revocations: revocations,
		logger:      logger,
	}
}

// Authenticate rejects revoked tokens and disabled users, then resolves the
// actor's current role from the directory. The user is read on every call,
// so promotions, demotions and disabling apply to the next request.
func (uc *UseCase) Authenticate(ctx context.Context, claims Claims) (domain.Actor, error) {
	if claims.UserID <= 0 {
		return domain.Actor{}, domain.ErrUnauthorized
	}

	if claims.TokenID != "" && uc.revocations != nil {
		revoked, err := uc.revocations.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return domain.Actor{}, err
		}
		if revoked {
			return domain.Actor{}, domain.ErrTokenRevoked
		}
	}

	user, err := uc.directory.UserByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			uc.logger.Info("token for unknown user", zap.Int64("user_id", claims.UserID))
			return domain.Actor{}, domain.ErrUnauthorized
		}
		return domain.Actor{}, err
	}
	if !user.IsActive() {
		uc.logger.Info("token for disabled user", zap.Int64("user_id", claims.UserID))
		return domain.Actor{}, domain.ErrUserDisabled
	}
	return domain.Actor{UserID: user.ID, Role: user.Role}, nil
}

// Revoke denies the token until it expires.
func (uc *UseCase) Revoke(ctx context.Context, claims Claims) error {
	if claims.TokenID == "" {
		return domain.ValidationError("token has no id")
	}
	if uc.revocations == nil {
		return domain.NewError(domain.ErrCodeInternal, "revocation store not configured")
	}
	err := uc.revocations.Revoke(ctx, &domain.RevokedToken{
		ID:        claims.TokenID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt,
		RevokedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	uc.logger.Info("token revoked", zap.Int64("user_id", claims.UserID), zap.String("token_id", claims.TokenID))
	return nil
}
