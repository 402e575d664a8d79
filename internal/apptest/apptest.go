// Package apptest builds fully wired dependencies for operation tests:
// an in-memory sqlite store, fast bcrypt, in-process cache and recording
// fakes for image storage and events.
package apptest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bitwise74/blog-api/internal"
	"bitwise74/blog-api/internal/auth"
	"bitwise74/blog-api/internal/cache"
	"bitwise74/blog-api/internal/events"
	"bitwise74/blog-api/internal/model"
	"bitwise74/blog-api/internal/store/storetest"
	"bitwise74/blog-api/pkg/security"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const Secret = "test-secret"

// Images records every removal request
type Images struct {
	mu      sync.Mutex
	Removed []string
	Fail    bool
}

func (i *Images) Remove(_ context.Context, ref string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.Removed = append(i.Removed, ref)
	if i.Fail {
		return errors.New("storage unavailable")
	}

	return nil
}

func (i *Images) Count() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return len(i.Removed)
}

// Events records published events
type Events struct {
	mu   sync.Mutex
	Sent []events.PostEvent
	Fail bool
}

func (e *Events) Publish(_ context.Context, ev events.PostEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Fail {
		return errors.New("broker unavailable")
	}

	e.Sent = append(e.Sent, ev)
	return nil
}

func (e *Events) Actions() []events.Action {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]events.Action, len(e.Sent))
	for i, ev := range e.Sent {
		out[i] = ev.Action
	}

	return out
}

type Env struct {
	Deps   *internal.Deps
	Images *Images
	Events *Events
}

func New(t testing.TB) *Env {
	t.Helper()

	hasher, err := security.NewHasher("bcrypt", bcrypt.MinCost)
	require.NoError(t, err)

	tokens, err := security.NewTokenIssuer(Secret, 0)
	require.NoError(t, err)

	c := cache.NewMemory(0)
	t.Cleanup(func() { c.Close() })

	env := &Env{
		Images: &Images{},
		Events: &Events{},
	}

	env.Deps = &internal.Deps{
		Store:   storetest.New(t),
		Hasher:  hasher,
		Tokens:  tokens,
		Images:  env.Images,
		Cache:   c,
		Events:  env.Events,
		PerPage: internal.DefaultPerPage,
	}

	return env
}

// User stores an account directly, bypassing validation
func (e *Env) User(t testing.TB, email string) *model.User {
	t.Helper()

	hash, err := e.Deps.Hasher.Hash("secret")
	require.NoError(t, err)

	u := &model.User{Email: email, Name: "Test", PasswordHash: hash}
	require.NoError(t, e.Deps.Store.CreateUser(context.Background(), u))

	return u
}

// Post stores a post owned by creatorID
func (e *Env) Post(t testing.TB, creatorID, title string) *model.Post {
	t.Helper()

	p := &model.Post{Title: title, Content: "content of " + title, ImageURL: "images/" + title + ".png", CreatorID: creatorID}
	require.NoError(t, e.Deps.Store.CreatePost(context.Background(), p))

	return p
}

// As returns a context authenticated as u
func As(u *model.User) context.Context {
	return auth.WithInfo(context.Background(), auth.Info{IsAuth: true, UserID: u.ID, Email: u.Email})
}
