package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/example/retail-pos/internal/auth"
)

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Auth signs users in and out and keeps the session in step with the server.
type Auth struct {
	c *Client
}

func NewAuth(c *Client) *Auth {
	return &Auth{c: c}
}

// Login stores the token and user on success.
func (a *Auth) Login(ctx context.Context, login, password string) Result[User] {
	body := map[string]string{"login": login, "password": password}
	var out authResponse
	if err := a.c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return fail[User](err, "Login ou senha inválidos")
	}
	if a.c.session != nil {
		if err := a.c.session.Save(out.Token, out.User); err != nil {
			return fail[User](err, "Erro ao salvar sessão")
		}
	}
	return succeed(out.User)
}

// Register creates a user. The very first account is signed in straight away.
func (a *Auth) Register(ctx context.Context, in UserInput) Result[User] {
	var raw json.RawMessage
	if err := a.c.do(ctx, http.MethodPost, "/auth/register", in, &raw); err != nil {
		return failAll[User](err)
	}

	var signedIn authResponse
	if err := json.Unmarshal(raw, &signedIn); err == nil && signedIn.Token != "" {
		if a.c.session != nil {
			if err := a.c.session.Save(signedIn.Token, signedIn.User); err != nil {
				return fail[User](err, "Erro ao salvar sessão")
			}
		}
		return succeed(signedIn.User)
	}

	var created User
	if err := json.Unmarshal(raw, &created); err != nil {
		return fail[User](err, msgInternal)
	}
	return succeed(created)
}

// Logout always ends the local session, even when the server cannot be told.
func (a *Auth) Logout(ctx context.Context) Result[struct{}] {
	if a.c.session != nil && a.c.session.IsAuthenticated() {
		_ = a.c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	}
	if a.c.session != nil {
		if err := a.c.session.Clear(); err != nil {
			return fail[struct{}](err, "Erro ao encerrar sessão")
		}
	}
	return succeed(struct{}{})
}

func (a *Auth) Me(ctx context.Context) Result[User] {
	var out User
	if err := a.c.do(ctx, http.MethodGet, "/api/me", nil, &out); err != nil {
		return fail[User](err, "Erro ao carregar usuário")
	}
	return succeed(out)
}

func (a *Auth) ChangePassword(ctx context.Context, current, next string) Result[struct{}] {
	body := map[string]string{"current_password": current, "new_password": next}
	if err := a.c.do(ctx, http.MethodPost, "/api/me/password", body, nil); err != nil {
		return failAll[struct{}](err)
	}
	return succeed(struct{}{})
}

// Navigate asks the server where route leads for the signed-in user.
func (a *Auth) Navigate(ctx context.Context, route auth.Route) Result[auth.Route] {
	var out struct {
		Route auth.Route `json:"route"`
	}
	if err := a.c.do(ctx, http.MethodGet, "/api/navigate?route="+url.QueryEscape(string(route)), nil, &out); err != nil {
		return fail[auth.Route](err, msgInternal)
	}
	return succeed(out.Route)
}
