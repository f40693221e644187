package repository

import (
	"context"

	"github.com/fastygo/caseboard/domain"
)

type RevocationRepository interface {
	Revoke(ctx context.Context, token *domain.RevokedToken) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
