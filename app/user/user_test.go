package user

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"bitwise74/blog-api/internal/apperr"
	"bitwise74/blog-api/internal/apptest"
	"bitwise74/blog-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()

	u, err := Register(ctx, env.Deps, RegisterInput{Email: "a@b.com", Name: "A", Password: "secret"})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "A", u.Name)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2a$"))
	assert.Empty(t, u.PostIDs)
}

func TestRegisterInvalid(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     []string
	}{
		{"bad email", "not-an-email", "secret", []string{"Email is invalid"}},
		{"short password", "a@b.com", "abc", []string{"Password is too short"}},
		{"empty password", "a@b.com", "", []string{"Password is too short"}},
		{"both", "nope", "1", []string{"Email is invalid", "Password is too short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := apptest.New(t)
			ctx := context.Background()

			_, err := Register(ctx, env.Deps, RegisterInput{Email: tt.email, Name: "A", Password: tt.password})
			require.Error(t, err)

			var e *apperr.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, apperr.KindInvalidInput, e.Kind)
			assert.Equal(t, http.StatusUnprocessableEntity, e.Status)

			var msgs []string
			for _, fe := range e.Data {
				msgs = append(msgs, fe.Message)
			}
			assert.Equal(t, tt.want, msgs)

			exists, err := env.Deps.Store.EmailExists(ctx, tt.email)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()

	_, err := Register(ctx, env.Deps, RegisterInput{Email: "a@b.com", Name: "A", Password: "secret"})
	require.NoError(t, err)

	_, err = Register(ctx, env.Deps, RegisterInput{Email: "a@b.com", Name: "B", Password: "secret2"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(err))
	assert.Equal(t, "User exists already!", err.Error())

	u, err := env.Deps.Store.UserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "A", u.Name)
}

func TestLogin(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()

	u, err := Register(ctx, env.Deps, RegisterInput{Email: "a@b.com", Name: "A", Password: "secret"})
	require.NoError(t, err)

	data, err := Login(ctx, env.Deps, "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, data.UserID)

	claims, err := env.Deps.Tokens.Parse(data.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, int64(3600), claims.ExpiresAt.Unix()-claims.IssuedAt.Unix())
}

func TestLoginFailures(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()

	_, err := Register(ctx, env.Deps, RegisterInput{Email: "a@b.com", Name: "A", Password: "secret"})
	require.NoError(t, err)

	data, err := Login(ctx, env.Deps, "a@b.com", "wrong!")
	assert.Nil(t, data)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(err))

	data, err = Login(ctx, env.Deps, "nobody@b.com", "secret")
	assert.Nil(t, data)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Equal(t, "User not found.", err.Error())
}

func TestCurrentUser(t *testing.T) {
	env := apptest.New(t)
	u := env.User(t, "a@b.com")

	_, err := CurrentUser(context.Background(), env.Deps)
	assert.True(t, apperr.IsKind(err, apperr.KindNotAuthenticated))
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(err))

	got, err := CurrentUser(apptest.As(u), env.Deps)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = CurrentUser(apptest.As(&model.User{ID: "ghost"}), env.Deps)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUpdateStatus(t *testing.T) {
	env := apptest.New(t)
	u := env.User(t, "a@b.com")
	p := env.Post(t, u.ID, "first")
	ctx := apptest.As(u)

	cached, err := env.Deps.Store.PostByID(ctx, p.ID)
	require.NoError(t, err)
	env.Deps.Cache.Set(ctx, cached)

	got, err := UpdateStatus(ctx, env.Deps, "Busy")
	require.NoError(t, err)
	assert.Equal(t, "Busy", got.Status)

	_, ok := env.Deps.Cache.Get(ctx, p.ID)
	assert.False(t, ok, "posts of the user must be evicted")

	stored, err := env.Deps.Store.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Busy", stored.Status)

	_, err = UpdateStatus(context.Background(), env.Deps, "x")
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(err))

	_, err = UpdateStatus(apptest.As(&model.User{ID: "ghost"}), env.Deps, "x")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
