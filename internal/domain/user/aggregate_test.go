package user

import (
	"context"
	"testing"

	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

func TestNormalizeLogin(t *testing.T) {
	assert.Equal(t, "maria.silva", NormalizeLogin("  Maria.Silva "))
	assert.Equal(t, "", NormalizeLogin("   "))
}

// ============================================
// Register Tests
// ============================================

func TestService_Register_Success(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	user, err := service.Register(ctx, " Caixa01 ", "caixa@loja.com.br", "password123", "Joana", auth.RoleCashier)

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "caixa01", user.Login)
	assert.Equal(t, auth.RoleCashier, user.Role)
	assert.True(t, user.IsActive)
	assert.Empty(t, user.PasswordHash)

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventUserCreated, eventStore.AppendCalls[0].EventType)
	data := eventStore.AppendCalls[0].Data.(UserCreated)
	assert.True(t, auth.CheckPassword("password123", data.PasswordHash))
}

func TestService_Register_EmailOptional(t *testing.T) {
	service, _ := newTestUserService()

	user, err := service.Register(context.Background(), "estoque", "", "password123", "Pedro", auth.RoleStockClerk)

	require.NoError(t, err)
	assert.Empty(t, user.Email)
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		password string
		userName string
		role     auth.Role
		wantErr  error
	}{
		{"empty login", "  ", "password123", "Test", auth.RoleManager, ErrInvalidLogin},
		{"empty name", "test", "password123", "", auth.RoleManager, ErrInvalidName},
		{"invalid role", "test", "password123", "Test", auth.Role("ADMIN"), auth.ErrInvalidRole},
		{"short password", "test", "short", "Test", auth.RoleManager, auth.ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, eventStore := newTestUserService()

			user, err := service.Register(context.Background(), tt.login, "", tt.password, tt.userName, tt.role)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, user)
			assert.Empty(t, eventStore.AppendCalls)
		})
	}
}

// ============================================
// Update Tests
// ============================================

func TestService_Update_Success(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	userID := "user-123"
	_ = eventStore.AddEvent(userID, AggregateType, EventUserCreated, UserCreated{UserID: userID})

	err := service.Update(ctx, userID, " New Name ", "", auth.RoleManager)

	require.NoError(t, err)
	require.Len(t, eventStore.AppendCalls, 1)
	data := eventStore.AppendCalls[0].Data.(UserUpdated)
	assert.Equal(t, "New Name", data.Name)
	assert.Equal(t, auth.RoleManager, data.Role)
}

func TestService_Update_Validation(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	userID := "user-123"
	_ = eventStore.AddEvent(userID, AggregateType, EventUserCreated, UserCreated{UserID: userID})

	assert.ErrorIs(t, service.Update(ctx, userID, "", "", auth.RoleCashier), ErrInvalidName)
	assert.ErrorIs(t, service.Update(ctx, userID, "Name", "", ""), auth.ErrInvalidRole)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Update_UserNotFound(t *testing.T) {
	service, _ := newTestUserService()
	ctx := context.Background()

	err := service.Update(ctx, "non-existent", "New Name", "", auth.RoleCashier)

	assert.ErrorIs(t, err, ErrUserNotFound)
}

// ============================================
// Change Password Tests
// ============================================

func TestService_ChangePassword_Success(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	userID := "user-123"
	_ = eventStore.AddEvent(userID, AggregateType, EventUserCreated, UserCreated{UserID: userID})

	err := service.ChangePassword(ctx, userID, "newpassword123")

	require.NoError(t, err)
	assert.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventUserPasswordChanged, eventStore.AppendCalls[0].EventType)
}

func TestService_ChangePassword_ShortPassword(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	userID := "user-123"
	_ = eventStore.AddEvent(userID, AggregateType, EventUserCreated, UserCreated{UserID: userID})

	err := service.ChangePassword(ctx, userID, "short")

	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

func TestService_ChangePassword_UserNotFound(t *testing.T) {
	service, _ := newTestUserService()
	ctx := context.Background()

	err := service.ChangePassword(ctx, "non-existent", "newpassword123")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

// ============================================
// Login/Logout Recording Tests
// ============================================

func TestService_RecordLogin_Success(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	err := service.RecordLogin(ctx, "user-123", "session-456", "192.168.1.1", "Mozilla/5.0")

	require.NoError(t, err)
	assert.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventUserLoggedIn, eventStore.AppendCalls[0].EventType)

	// Verify event data
	data := eventStore.AppendCalls[0].Data.(UserLoggedIn)
	assert.Equal(t, "user-123", data.UserID)
	assert.Equal(t, "session-456", data.SessionID)
	assert.Equal(t, "192.168.1.1", data.IPAddress)
	assert.Equal(t, "Mozilla/5.0", data.UserAgent)
}

func TestService_RecordLogout_Success(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	err := service.RecordLogout(ctx, "user-123", "session-456")

	require.NoError(t, err)
	assert.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventUserLoggedOut, eventStore.AppendCalls[0].EventType)
}

// ============================================
// Deactivate/Activate Tests
// ============================================

func TestService_Deactivate_Success(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	userID := "user-123"
	_ = eventStore.AddEvent(userID, AggregateType, EventUserCreated, UserCreated{UserID: userID})

	err := service.Deactivate(ctx, userID)

	require.NoError(t, err)
	assert.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventUserDeactivated, eventStore.AppendCalls[0].EventType)
}

func TestService_Deactivate_UserNotFound(t *testing.T) {
	service, _ := newTestUserService()
	ctx := context.Background()

	err := service.Deactivate(ctx, "non-existent")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_Activate_Success(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	userID := "user-123"
	_ = eventStore.AddEvent(userID, AggregateType, EventUserCreated, UserCreated{UserID: userID})
	_ = eventStore.AddEvent(userID, AggregateType, EventUserDeactivated, UserDeactivated{UserID: userID})

	err := service.Activate(ctx, userID)

	require.NoError(t, err)
	assert.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventUserActivated, eventStore.AppendCalls[0].EventType)
}

func TestService_Activate_UserNotFound(t *testing.T) {
	service, _ := newTestUserService()
	ctx := context.Background()

	err := service.Activate(ctx, "non-existent")

	assert.ErrorIs(t, err, ErrUserNotFound)
}
