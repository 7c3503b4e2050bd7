package command

import (
	"context"

	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/domain/user"
	"github.com/example/retail-pos/internal/readmodel"
	"github.com/google/uuid"
)

// ============================================
// Users
// ============================================

// NeedsBootstrap reports whether no user exists yet, in which case the first
// registration is public and creates a manager.
func (h *Handler) NeedsBootstrap() bool {
	return h.queries.CountUsers() == 0
}

func (h *Handler) RegisterUser(ctx context.Context, cmd RegisterUser) (*user.User, error) {
	role, err := auth.ParseRole(cmd.Role)
	if err != nil {
		return nil, err
	}
	login := user.NormalizeLogin(cmd.Login)
	if login == "" {
		return nil, user.ErrInvalidLogin
	}
	if _, exists := h.queries.GetUserByLogin(login); exists {
		return nil, user.ErrDuplicateLogin
	}
	if _, exists := h.queries.GetUserByEmail(cmd.Email); exists {
		return nil, user.ErrDuplicateEmail
	}
	return h.userSvc.Register(ctx, login, cmd.Email, cmd.Password, cmd.Name, role)
}

func (h *Handler) UpdateUser(ctx context.Context, cmd UpdateUser) error {
	role, err := auth.ParseRole(cmd.Role)
	if err != nil {
		return err
	}
	if existing, ok := h.queries.GetUserByEmail(cmd.Email); ok && existing.ID != cmd.UserID {
		return user.ErrDuplicateEmail
	}
	return h.userSvc.Update(ctx, cmd.UserID, cmd.Name, cmd.Email, role)
}

// ChangePassword requires the current password.
func (h *Handler) ChangePassword(ctx context.Context, cmd ChangePassword) error {
	u, ok := h.queries.GetUser(cmd.UserID)
	if !ok {
		return user.ErrUserNotFound
	}
	if !auth.CheckPassword(cmd.CurrentPassword, u.PasswordHash) {
		return user.ErrInvalidCredentials
	}
	return h.userSvc.ChangePassword(ctx, cmd.UserID, cmd.NewPassword)
}

func (h *Handler) SetUserActive(ctx context.Context, userID, byUserID string, active bool) error {
	if active {
		return h.userSvc.Activate(ctx, userID)
	}
	if userID == byUserID {
		return ErrCannotDeactivateSelf
	}
	return h.userSvc.Deactivate(ctx, userID)
}

// Login checks credentials against the read model and records the login.
// Unknown login and wrong password fail the same way.
func (h *Handler) Login(ctx context.Context, login, password, ipAddress, userAgent string) (*readmodel.UserReadModel, error) {
	u, ok := h.queries.GetUserByLogin(user.NormalizeLogin(login))
	if !ok || !auth.CheckPassword(password, u.PasswordHash) {
		return nil, user.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, user.ErrUserDeactivated
	}

	// best-effort, a failed audit event does not fail the login
	if err := h.userSvc.RecordLogin(ctx, u.ID, uuid.New().String(), ipAddress, userAgent); err != nil {
		log.WithError(err).WithField("user_id", u.ID).Warn("recording login failed")
	}
	return u, nil
}

func (h *Handler) Logout(ctx context.Context, userID, sessionID string) {
	if err := h.userSvc.RecordLogout(ctx, userID, sessionID); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("recording logout failed")
	}
}
