package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/repository"
)

type revocationRepository struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewRevocationRepository creates a Redis-backed token denylist. Entries
// expire together with the token they revoke; ttl is the fallback lifetime
// for tokens without an expiry.
func NewRevocationRepository(client *redislib.Client, ttl time.Duration) repository.RevocationRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &revocationRepository{
		client: client,
		prefix: "revoked:",
		ttl:    ttl,
	}
}

func (r *revocationRepository) Revoke(ctx context.Context, token *domain.RevokedToken) error {
	if token == nil || token.ID == "" {
		return domain.ErrInvalidPayload
	}

	if token.RevokedAt.IsZero() {
		token.RevokedAt = time.Now()
	}

	payload, err := json.Marshal(token)
	if err != nil {
		return err
	}

	ttl := time.Until(token.ExpiresAt)
	if token.ExpiresAt.IsZero() {
		ttl = r.ttl
	}
	if ttl <= 0 {
		// already expired, nothing left to deny
		return nil
	}

	return domain.StorageError("revoke token", r.client.Set(ctx, r.key(token.ID), payload, ttl).Err())
}

func (r *revocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, domain.StorageError("check token revocation", err)
	}
	return n > 0, nil
}

func (r *revocationRepository) key(id string) string {
	return fmt.Sprintf("%s%s", r.prefix, id)
}
