package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker keeps logged-out token ids until the token would have expired anyway.
type Revoker struct {
	rdb *redis.Client
}

func NewRevoker(rdb *redis.Client) *Revoker {
	return &Revoker{rdb: rdb}
}

func (r *Revoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, RevokedTokenKey(tokenID), "1", ttl).Err()
}

func (r *Revoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return Exists(ctx, r.rdb, RevokedTokenKey(tokenID))
}
