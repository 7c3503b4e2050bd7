package redisx

import (
	"fmt"
	"time"
)

const (
	// Checkout idempotency: idem:sale:checkout:{cashier_id}:{idempotency_key} -> sale_id
	KeyIdemCheckout = "idem:sale:checkout:%s:%s"

	// Revoked access tokens: auth:revoked:{token_id} -> "1", expires with the token
	KeyRevokedToken = "auth:revoked:%s"

	pendingMarker = "pending"
)

var (
	TTLIdempotency        = 24 * time.Hour
	TTLIdempotencyPending = 30 * time.Second
)

func CheckoutKey(cashierID, idempotencyKey string) string {
	return fmt.Sprintf(KeyIdemCheckout, cashierID, idempotencyKey)
}

func RevokedTokenKey(tokenID string) string {
	return fmt.Sprintf(KeyRevokedToken, tokenID)
}
