package api

import (
	"context"
	"net/http"
	"time"

	"github.com/example/retail-pos/internal/api/middleware"
	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/domain/user"
	"github.com/example/retail-pos/internal/query"
	"github.com/example/retail-pos/internal/readmodel"
)

// refreshCookiePath covers both /auth/refresh and /auth/logout
const refreshCookiePath = "/auth"

// TokenRevoker remembers logged-out access tokens until they expire.
type TokenRevoker interface {
	middleware.RevocationChecker
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	commands   *command.Handler
	queries    *query.Handler
	jwtService *auth.JWTService
	revoker    TokenRevoker
	policy     *auth.Policy
}

func NewAuthHandlers(commands *command.Handler, queries *query.Handler, jwtService *auth.JWTService, revoker TokenRevoker) *AuthHandlers {
	return &AuthHandlers{
		commands:   commands,
		queries:    queries,
		jwtService: jwtService,
		revoker:    revoker,
		policy:     auth.DefaultPolicy(),
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register. The token is also set as a cookie.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID            string       `json:"id"`
	Login         string       `json:"login"`
	Email         string       `json:"email,omitempty"`
	Name          string       `json:"name"`
	Role          auth.Role    `json:"role"`
	Active        bool         `json:"active"`
	AllowedRoutes []auth.Route `json:"allowed_routes,omitempty"`
	LastLoginAt   *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

func toUserResponse(u *readmodel.UserReadModel) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Login:       u.Login,
		Email:       u.Email,
		Name:        u.Name,
		Role:        auth.Role(u.Role),
		Active:      u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// Register creates a user. While no user exists the endpoint is public and the
// first account is always a manager; afterwards only managers may call it.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req command.RegisterUser
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	bootstrap := h.commands.NeedsBootstrap()
	if bootstrap {
		req.Role = string(auth.RoleManager)
	} else if !isManager(r) {
		respondJSONError(w, "only managers can register users", http.StatusForbidden)
		return
	}

	newUser, err := h.commands.RegisterUser(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := UserResponse{
		ID:        newUser.ID,
		Login:     newUser.Login,
		Email:     newUser.Email,
		Name:      newUser.Name,
		Role:      newUser.Role,
		Active:    newUser.IsActive,
		CreatedAt: newUser.CreatedAt,
	}
	if !bootstrap {
		respondJSON(w, http.StatusCreated, resp)
		return
	}

	// the first manager is signed in straight away
	token, expiresAt, err := h.issueTokens(w, r, newUser.ID, newUser.Login, newUser.Role)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp.AllowedRoutes = h.policy.AllowedRoutes(newUser.Role)
	respondJSON(w, http.StatusCreated, AuthResponse{Token: token, ExpiresAt: expiresAt, User: resp})
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	u, err := h.commands.Login(r.Context(), req.Login, req.Password, r.RemoteAddr, r.UserAgent())
	if err != nil {
		respondError(w, r, err)
		return
	}

	role := auth.Role(u.Role)
	token, expiresAt, err := h.issueTokens(w, r, u.ID, u.Login, role)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := toUserResponse(u)
	resp.AllowedRoutes = h.policy.AllowedRoutes(role)
	respondJSON(w, http.StatusOK, AuthResponse{Token: token, ExpiresAt: expiresAt, User: resp})
}

// Logout revokes the access token and the refresh cookie, each until it would have
// expired, and clears the cookies.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if ok {
		if h.revoker != nil {
			if err := h.revokeSession(r, claims); err != nil {
				log.WithError(err).WithField("user_id", claims.UserID).Error("token revocation failed")
				respondJSONError(w, "logout failed, try again", http.StatusServiceUnavailable)
				return
			}
		}
		h.commands.Logout(r.Context(), claims.UserID, claims.ID)
	}

	h.clearAuthCookies(w)
	respondMessage(w, "Logout successful")
}

func (h *AuthHandlers) revokeSession(r *http.Request, claims *auth.Claims) error {
	if claims.ExpiresAt != nil {
		if err := h.revoker.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			return err
		}
	}
	// a refresh cookie that is already invalid needs no revocation
	cookie, err := r.Cookie("refresh_token")
	if err != nil {
		return nil
	}
	refresh, err := h.jwtService.ValidateRefreshToken(cookie.Value)
	if err != nil || refresh.Subject != claims.UserID || refresh.ExpiresAt == nil {
		return nil
	}
	return h.revoker.Revoke(r.Context(), refresh.ID, refresh.ExpiresAt.Time)
}

// Refresh trades the refresh cookie for a new access token.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondJSONError(w, "No refresh token", http.StatusUnauthorized)
		return
	}

	refresh, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondError(w, r, err)
		return
	}
	if h.revoker != nil {
		revoked, err := h.revoker.IsRevoked(r.Context(), refresh.ID)
		if err != nil {
			log.WithError(err).Error("revocation lookup failed")
			respondJSONError(w, "authentication unavailable", http.StatusServiceUnavailable)
			return
		}
		if revoked {
			h.clearAuthCookies(w)
			respondJSONError(w, "token revoked", http.StatusUnauthorized)
			return
		}
	}

	u, ok := h.queries.GetUser(refresh.Subject)
	if !ok {
		h.clearAuthCookies(w)
		respondJSONError(w, "User not found", http.StatusUnauthorized)
		return
	}
	if !u.IsActive {
		h.clearAuthCookies(w)
		respondError(w, r, user.ErrUserDeactivated)
		return
	}

	token, expiresAt, err := h.issueTokens(w, r, u.ID, u.Login, auth.Role(u.Role))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AuthResponse{Token: token, ExpiresAt: expiresAt, User: toUserResponse(u)})
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, exists := h.queries.GetUser(claims.UserID)
	if !exists {
		respondJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	resp := toUserResponse(u)
	resp.AllowedRoutes = h.policy.AllowedRoutes(resp.Role)
	respondJSON(w, http.StatusOK, resp)
}

// Navigate resolves where the signed-in user ends up when opening ?route=.
func (h *AuthHandlers) Navigate(w http.ResponseWriter, r *http.Request) {
	route := auth.Route(r.URL.Query().Get("route"))
	var session *auth.Session
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		session = &auth.Session{UserID: claims.UserID, Role: claims.Role}
	}
	respondJSON(w, http.StatusOK, map[string]auth.Route{"route": h.policy.Resolve(session, route)})
}

// ChangePassword handles password change requests
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var cmd command.ChangePassword
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.UserID = middleware.GetUserID(r.Context())

	if err := h.commands.ChangePassword(r.Context(), cmd); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "Password changed successfully")
}

// Helper methods

func (h *AuthHandlers) issueTokens(w http.ResponseWriter, r *http.Request, userID, login string, role auth.Role) (string, time.Time, error) {
	accessToken, accessExpiry, err := h.jwtService.GenerateAccessToken(userID, login, role)
	if err != nil {
		return "", time.Time{}, err
	}
	refreshToken, refreshExpiry, err := h.jwtService.GenerateRefreshToken(userID)
	if err != nil {
		return "", time.Time{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     refreshCookiePath,
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	return accessToken, accessExpiry, nil
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
	})
}
