package api

import (
	"context"
	"net/http"

	"github.com/example/retail-pos/internal/api/middleware"
	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/query"
)

// IdempotencyStore remembers checkout results per Idempotency-Key.
type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (result string, claimed bool, err error)
	Complete(ctx context.Context, key, result string) error
	Abort(ctx context.Context, key string) error
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	idempotency  IdempotencyStore
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, idempotency IdempotencyStore) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		idempotency:  idempotency,
	}
}

// Health answers 200 when every check passes, 503 otherwise.
func Health(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				log.WithError(err).WithField("dependency", name).Warn("health check failed")
				status[name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "up"
		}
		respondJSON(w, code, map[string]any{"status": http.StatusText(code), "dependencies": status})
	}
}

func getUserID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}

func currentRole(r *http.Request) auth.Role {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return ""
	}
	return claims.Role
}

func isManager(r *http.Request) bool {
	return currentRole(r) == auth.RoleManager
}
