package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/storefront/internal/domain/user"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/testutil/memstore"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/jwt"
)

type fixture struct {
	sessions *memstore.Sessions
	jwt      *jwt.Manager
	register *RegisterUseCase
	login    *LoginUseCase
	refresh  *RefreshUseCase
	logout   *LogoutUseCase
}

func newFixture() *fixture {
	store := memstore.New()
	svc := user.NewServiceWithCost(store.Users(), bcrypt.MinCost)
	sessions := memstore.NewSessions()
	manager := jwt.NewManager("test-secret", 2*time.Hour, 24*time.Hour)
	auth := config.AuthConfig{AdminEmails: []string{"Ops@Example.com"}}

	return &fixture{
		sessions: sessions,
		jwt:      manager,
		register: NewRegisterUseCase(svc, auth),
		login:    NewLoginUseCase(svc, manager, sessions),
		refresh:  NewRefreshUseCase(manager),
		logout:   NewLogoutUseCase(sessions, manager),
	}
}

func TestRegisterAssignsRole(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	customer, err := f.register.Execute(ctx, RegisterRequest{Email: "alice@example.com", Password: "secret123", Nickname: "alice"})
	require.NoError(t, err)
	assert.Equal(t, string(user.RoleCustomer), customer.Role)

	admin, err := f.register.Execute(ctx, RegisterRequest{Email: "ops@example.com", Password: "secret123", Nickname: "ops"})
	require.NoError(t, err)
	assert.Equal(t, string(user.RoleAdmin), admin.Role)

	_, err = f.register.Execute(ctx, RegisterRequest{Email: "alice@example.com", Password: "secret123", Nickname: "again"})
	assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)
}

func TestLoginIssuesTokenWithRole(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.register.Execute(ctx, RegisterRequest{Email: "ops@example.com", Password: "secret123", Nickname: "ops"})
	require.NoError(t, err)

	resp, err := f.login.Execute(ctx, LoginRequest{Email: "ops@example.com", Password: "secret123", ClientIP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, int64(7200), resp.ExpiresIn)

	claims, err := f.jwt.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.True(t, f.sessions.HasSession(resp.User.ID))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.register.Execute(ctx, RegisterRequest{Email: "alice@example.com", Password: "secret123", Nickname: "alice"})
	require.NoError(t, err)

	_, err = f.login.Execute(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong1234"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)

	_, err = f.login.Execute(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
}

func TestRefreshAndLogout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.register.Execute(ctx, RegisterRequest{Email: "alice@example.com", Password: "secret123", Nickname: "alice"})
	require.NoError(t, err)
	resp, err := f.login.Execute(ctx, LoginRequest{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := f.refresh.Execute(ctx, resp.RefreshToken)
	require.NoError(t, err)
	claims, err := f.jwt.ParseToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(user.RoleCustomer), claims.Role)

	require.NoError(t, f.logout.Execute(ctx, resp.User.ID, resp.AccessToken))
	assert.False(t, f.sessions.HasSession(resp.User.ID))

	blocked, err := f.sessions.IsInBlacklist(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, blocked)
}
