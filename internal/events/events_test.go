package events

import (
	"context"
	"os"
	"testing"
	"time"

	"bitwise74/blog-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "post.created", PostCreated.Subject())
	assert.Equal(t, "post.updated", PostUpdated.Subject())
	assert.Equal(t, "post.deleted", PostDeleted.Subject())
}

func TestNewPostEvent(t *testing.T) {
	e := NewPostEvent(PostDeleted, &model.Post{ID: "p1", CreatorID: "u1", Title: "Hi"})

	assert.Equal(t, PostDeleted, e.Action)
	assert.Equal(t, "p1", e.PostID)
	assert.Equal(t, "u1", e.CreatorID)
	assert.Equal(t, "Hi", e.Title)
	assert.False(t, e.At.IsZero())
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), PostEvent{Action: PostCreated}))
}

func TestNATSRoundTrip(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("Skipping test - no NATS server configured")
	}

	n, err := NewNATS(url)
	require.NoError(t, err)
	defer n.Close()

	got := make(chan PostEvent, 1)
	sub, err := n.Subscribe(func(e PostEvent) { got <- e })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, n.Publish(context.Background(), NewPostEvent(PostCreated, &model.Post{ID: "p1", CreatorID: "u1"})))

	select {
	case e := <-got:
		assert.Equal(t, "p1", e.PostID)
		assert.Equal(t, PostCreated, e.Action)
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}
