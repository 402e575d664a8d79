package service

import (
	"context"
	"testing"

	"bitwise74/blog-api/internal/model"
	"bitwise74/blog-api/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	u := &model.User{Email: "a@b.com", Name: "A", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, u))

	p := &model.Post{Title: "t", Content: "c", ImageURL: "i.png", CreatorID: u.ID}
	require.NoError(t, s.CreatePost(ctx, p))

	// Simulate a post removed without its reference
	ghost := &model.User{Email: "c@d.com", Name: "C", PasswordHash: "x", PostIDs: model.StringSlice{"missing", p.ID}}
	require.NoError(t, s.CreateUser(ctx, ghost))

	n, err := Reconcile(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.UserByID(ctx, ghost.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringSlice{p.ID}, got.PostIDs)

	n, err = Reconcile(ctx, s)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStartReconcilerRejectsBadSchedule(t *testing.T) {
	_, err := StartReconciler("not a schedule", storetest.New(t))
	assert.Error(t, err)
}

func TestStartReconciler(t *testing.T) {
	c, err := StartReconciler("", storetest.New(t))
	require.NoError(t, err)
	<-c.Stop().Done()
}
