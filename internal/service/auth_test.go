package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/school_bakery/internal/events"
	"github.com/Skotchmaster/school_bakery/internal/models"
	"github.com/Skotchmaster/school_bakery/internal/transport"
	"github.com/Skotchmaster/school_bakery/internal/validation"
	"github.com/Skotchmaster/school_bakery/pkg/tokens"
)

func strPtr(s string) *string { return &s }

func TestAuthService_Register(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	token, user, err := f.Auth.Register(ctx, transport.RegisterRequest{
		Username:  "ana",
		Password:  "pw123!",
		FullName:  "Ana Souza",
		Classroom: strPtr("7A"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEqual(t, "pw123!", user.PasswordHash)

	claims, err := tokens.ClaimsFromToken(token, f.Auth.Secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, "student", claims.Role)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)

	evs := f.Events.Events(events.TopicUsers)
	require.Len(t, evs, 1)
	assert.Equal(t, events.UserRegistered, evs[0].Event.(events.UserEvent).Type)

	_, _, err = f.Auth.Register(ctx, transport.RegisterRequest{Username: "ana", Password: "other1", FullName: "Ana 2"})
	require.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  transport.RegisterRequest
	}{
		{name: "short username", req: transport.RegisterRequest{Username: "an", Password: "pw123!", FullName: "Ana"}},
		{name: "short password", req: transport.RegisterRequest{Username: "ana", Password: "pw1", FullName: "Ana"}},
		{name: "missing full name", req: transport.RegisterRequest{Username: "ana", Password: "pw123!", FullName: "  "}},
	}
	for _, tt := range tests {
		_, _, err := f.Auth.Register(ctx, tt.req)
		require.ErrorIs(t, err, ErrValidation, tt.name)
		var verrs validation.Errors
		assert.True(t, errors.As(err, &verrs), tt.name)
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, registered, err := f.Auth.Register(ctx, transport.RegisterRequest{Username: "ana", Password: "pw123!", FullName: "Ana"})
	require.NoError(t, err)

	token, user, err := f.Auth.Login(ctx, transport.LoginRequest{Username: "ana", Password: "pw123!"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	id, err := f.Auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, id.UserID)

	_, _, wrongPw := f.Auth.Login(ctx, transport.LoginRequest{Username: "ana", Password: "nope!!"})
	_, _, noUser := f.Auth.Login(ctx, transport.LoginRequest{Username: "ghost", Password: "pw123!"})
	require.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	require.ErrorIs(t, noUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), noUser.Error())
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	id := tokens.Identity{UserID: uuid.New(), Username: "ana", Role: "student"}

	expired, err := tokens.Issue(f.Auth.Secret, id, time.Now().Add(-8*24*time.Hour), DefaultTokenTTL)
	require.NoError(t, err)
	forged, err := tokens.Issue([]byte("other-secret"), id, time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = f.Auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.Auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.Auth.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.Auth.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, err, tokens.ErrBadSignature)
}

func TestAuthService_RequireRole(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	admin := tokens.Identity{UserID: uuid.New(), Role: "admin"}
	student := tokens.Identity{UserID: uuid.New(), Role: "student"}

	require.NoError(t, f.Auth.RequireRole(admin, models.RoleAdmin))
	require.ErrorIs(t, f.Auth.RequireRole(student, models.RoleAdmin), ErrForbidden)
}

func TestAuthService_MeAndEnsureAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.Auth.EnsureAdmin(ctx, "diretora", "segredo1", "Diretora")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.Auth.EnsureAdmin(ctx, "diretora", "segredo1", "Diretora")
	require.NoError(t, err)
	assert.False(t, created)

	_, admin, err := f.Auth.Login(ctx, transport.LoginRequest{Username: "diretora", Password: "segredo1"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	me, err := f.Auth.Me(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Diretora", me.FullName)

	_, err = f.Auth.Me(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
