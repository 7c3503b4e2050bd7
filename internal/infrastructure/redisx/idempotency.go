package redisx

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ErrInProgress means another request with the same key has not finished yet.
var ErrInProgress = errors.New("request with this idempotency key is in progress")

// Idempotency remembers the result of a keyed request.
type Idempotency struct {
	rdb *redis.Client
}

func NewIdempotency(rdb *redis.Client) *Idempotency {
	return &Idempotency{rdb: rdb}
}

// Begin claims key. When a previous request already completed, its stored result is returned
// with claimed == false.
func (i *Idempotency) Begin(ctx context.Context, key string) (result string, claimed bool, err error) {
	ok, err := i.rdb.SetNX(ctx, key, pendingMarker, TTLIdempotencyPending).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}

	val, err := i.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return i.Begin(ctx, key)
	}
	if err != nil {
		return "", false, err
	}
	if val == pendingMarker {
		return "", false, ErrInProgress
	}
	return val, false, nil
}

// Complete stores the result for the idempotency window.
func (i *Idempotency) Complete(ctx context.Context, key, result string) error {
	return i.rdb.Set(ctx, key, result, TTLIdempotency).Err()
}

// Abort releases the claim so the client may retry.
func (i *Idempotency) Abort(ctx context.Context, key string) error {
	return i.rdb.Del(ctx, key).Err()
}
