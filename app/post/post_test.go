package post

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"bitwise74/blog-api/internal/apperr"
	"bitwise74/blog-api/internal/apptest"
	"bitwise74/blog-api/internal/events"
	"bitwise74/blog-api/internal/model"
	"bitwise74/blog-api/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func messages(t *testing.T, err error) []string {
	t.Helper()

	var e *apperr.Error
	require.ErrorAs(t, err, &e)

	var out []string
	for _, fe := range e.Data {
		out = append(out, fe.Message)
	}

	return out
}

func TestCreate(t *testing.T) {
	env := apptest.New(t)
	u := env.User(t, "a@b.com")
	ctx := apptest.As(u)

	p, err := Create(ctx, env.Deps, Input{Title: "Hello", Content: "World", ImageURL: strPtr("images/a.png")})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "images/a.png", p.ImageURL)
	require.NotNil(t, p.Creator)
	assert.Equal(t, u.ID, p.Creator.ID)
	assert.False(t, p.CreatedAt.IsZero())

	stored, err := env.Deps.Store.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringSlice{p.ID}, stored.PostIDs)

	assert.Equal(t, []events.Action{events.PostCreated}, env.Events.Actions())
}

func TestCreateUnauthenticated(t *testing.T) {
	env := apptest.New(t)

	_, err := Create(context.Background(), env.Deps, Input{Title: "Hello", Content: "World"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotAuthenticated))
	assert.Equal(t, http.StatusForbidden, apperr.Status(err))

	_, total, err := env.Deps.Store.ListPosts(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, env.Events.Sent)
}

func TestCreateInvalid(t *testing.T) {
	env := apptest.New(t)
	u := env.User(t, "a@b.com")

	_, err := Create(apptest.As(u), env.Deps, Input{Title: " ", Content: ""})
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.Status(err))
	assert.Equal(t, []string{"Title is invalid.", "Content is invalid."}, messages(t, err))
}

func TestCreateMissingUser(t *testing.T) {
	env := apptest.New(t)

	_, err := Create(apptest.As(&model.User{ID: "ghost"}), env.Deps, Input{Title: "a", Content: "b"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Equal(t, "User not found.", err.Error())
}

func TestCreateSurvivesEventFailure(t *testing.T) {
	env := apptest.New(t)
	env.Events.Fail = true
	u := env.User(t, "a@b.com")

	p, err := Create(apptest.As(u), env.Deps, Input{Title: "a", Content: "b"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
}

func TestList(t *testing.T) {
	env := apptest.New(t)
	u := env.User(t, "a@b.com")

	var created []*model.Post
	for _, title := range []string{"p1", "p2", "p3", "p4", "p5"} {
		created = append(created, env.Post(t, u.ID, title))
	}

	page, err := List(apptest.As(u), env.Deps, 2)
	require.NoError(t, err)

	assert.EqualValues(t, 5, page.Total)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, created[2].ID, page.Posts[0].ID)
	assert.Equal(t, created[3].ID, page.Posts[1].ID)
	require.NotNil(t, page.Posts[0].Creator)
	assert.Equal(t, u.ID, page.Posts[0].Creator.ID)

	last, err := List(apptest.As(u), env.Deps, 3)
	require.NoError(t, err)
	assert.Len(t, last.Posts, 1)

	empty, err := List(apptest.As(u), env.Deps, 9)
	require.NoError(t, err)
	assert.Empty(t, empty.Posts)
	assert.EqualValues(t, 5, empty.Total)
}

func TestListFailures(t *testing.T) {
	env := apptest.New(t)
	u := env.User(t, "a@b.com")

	_, err := List(context.Background(), env.Deps, 1)
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(err))

	_, err = List(apptest.As(u), env.Deps, 0)
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.Status(err))
	assert.Equal(t, []string{"Page must be 1 or greater"}, messages(t, err))
}

func TestGet(t *testing.T) {
	env := apptest.New(t)
	u := env.User(t, "a@b.com")
	p := env.Post(t, u.ID, "first")
	ctx := apptest.As(u)

	_, err := Get(context.Background(), env.Deps, p.ID)
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(err))

	_, err = Get(ctx, env.Deps, "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Equal(t, "Post not found.", err.Error())

	got, err := Get(ctx, env.Deps, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	require.NotNil(t, got.Creator)

	// Served from the cache once read
	_, ok := env.Deps.Cache.Get(ctx, p.ID)
	assert.True(t, ok)
}

func TestUpdate(t *testing.T) {
	env := apptest.New(t)
	u := env.User(t, "a@b.com")
	p := env.Post(t, u.ID, "first")
	ctx := apptest.As(u)

	_, err := Get(ctx, env.Deps, p.ID)
	require.NoError(t, err)

	got, err := Update(ctx, env.Deps, p.ID, Input{Title: "New", Content: "Body"})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, p.ImageURL, got.ImageURL, "image kept when not supplied")

	fresh, err := Get(ctx, env.Deps, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", fresh.Title, "cache must be invalidated")

	got, err = Update(ctx, env.Deps, p.ID, Input{Title: "New", Content: "Body", ImageURL: strPtr("images/b.png")})
	require.NoError(t, err)
	assert.Equal(t, "images/b.png", got.ImageURL)

	assert.Equal(t, []events.Action{events.PostUpdated, events.PostUpdated}, env.Events.Actions())
}

func TestUpdateFailures(t *testing.T) {
	env := apptest.New(t)
	owner := env.User(t, "a@b.com")
	other := env.User(t, "c@d.com")
	p := env.Post(t, owner.ID, "first")

	_, err := Update(context.Background(), env.Deps, p.ID, Input{Title: "a", Content: "b"})
	assert.Equal(t, http.StatusForbidden, apperr.Status(err))
	assert.True(t, apperr.IsKind(err, apperr.KindNotAuthenticated))

	_, err = Update(apptest.As(owner), env.Deps, p.ID, Input{Title: "a", Content: "b", ImageURL: strPtr("")})
	assert.Equal(t, []string{"Image is invalid."}, messages(t, err))

	_, err = Update(apptest.As(owner), env.Deps, "missing", Input{Title: "a", Content: "b"})
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))

	_, err = Update(apptest.As(other), env.Deps, p.ID, Input{Title: "a", Content: "b"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotAuthorized))
	assert.Equal(t, http.StatusForbidden, apperr.Status(err))

	stored, err := env.Deps.Store.PostByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Title)
}

func TestDeleteByOwner(t *testing.T) {
	env := apptest.New(t)
	u := env.User(t, "a@b.com")
	keep := env.Post(t, u.ID, "keep")
	p := env.Post(t, u.ID, "gone")
	ctx := apptest.As(u)

	_, err := Get(ctx, env.Deps, p.ID)
	require.NoError(t, err)

	ok, err := Delete(ctx, env.Deps, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = Get(ctx, env.Deps, p.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	stored, err := env.Deps.Store.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringSlice{keep.ID}, stored.PostIDs)

	assert.Equal(t, []string{p.ImageURL}, env.Images.Removed)
	assert.Equal(t, []events.Action{events.PostDeleted}, env.Events.Actions())
}

func TestDeleteByOther(t *testing.T) {
	env := apptest.New(t)
	owner := env.User(t, "a@b.com")
	other := env.User(t, "c@d.com")
	p := env.Post(t, owner.ID, "first")

	ok, err := Delete(apptest.As(other), env.Deps, p.ID)
	assert.False(t, ok)
	assert.True(t, apperr.IsKind(err, apperr.KindNotAuthorized))

	_, err = env.Deps.Store.PostByID(context.Background(), p.ID)
	assert.NoError(t, err)
	assert.Zero(t, env.Images.Count())
}

func TestDeleteFailures(t *testing.T) {
	env := apptest.New(t)
	u := env.User(t, "a@b.com")

	_, err := Delete(context.Background(), env.Deps, "x")
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(err))

	_, err = Delete(apptest.As(u), env.Deps, "missing")
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))
}

func TestDeleteImageFailureIsIgnored(t *testing.T) {
	env := apptest.New(t)
	env.Images.Fail = true
	u := env.User(t, "a@b.com")
	p := env.Post(t, u.ID, "first")

	ok, err := Delete(apptest.As(u), env.Deps, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, env.Images.Count())
}

func TestDeleteWithoutImage(t *testing.T) {
	env := apptest.New(t)
	u := env.User(t, "a@b.com")
	ctx := apptest.As(u)

	p := &model.Post{Title: "plain", Content: "content", CreatorID: u.ID}
	require.NoError(t, env.Deps.Store.CreatePost(ctx, p))

	ok, err := Delete(ctx, env.Deps, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, env.Images.Count())
	assert.Equal(t, []events.Action{events.PostDeleted}, env.Events.Actions())
}

func TestDeleteKeepsHiddenFiles(t *testing.T) {
	env := apptest.New(t)
	dir := t.TempDir()
	env.Deps.Images = storage.NewLocal(dir)

	secrets := []string{".env", ".git/config"}
	for _, name := range secrets {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("secret"), 0o644))
	}

	u := env.User(t, "a@b.com")
	ctx := apptest.As(u)

	for _, name := range secrets {
		p, err := Create(ctx, env.Deps, Input{Title: "t", Content: "c", ImageURL: strPtr(name)})
		require.NoError(t, err)

		ok, err := Delete(ctx, env.Deps, p.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
		assert.NoError(t, err, name)
	}
}
