// Package events publishes post lifecycle events to NATS
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bitwise74/blog-api/internal/model"

	"github.com/nats-io/nats.go"
)

type Action string

const (
	PostCreated Action = "created"
	PostUpdated Action = "updated"
	PostDeleted Action = "deleted"
)

// Subject returns the NATS subject of a post action, e.g. post.created
func (a Action) Subject() string {
	return "post." + string(a)
}

type PostEvent struct {
	Action    Action    `json:"action"`
	PostID    string    `json:"postId"`
	CreatorID string    `json:"creatorId"`
	Title     string    `json:"title"`
	At        time.Time `json:"at"`
}

func NewPostEvent(a Action, p *model.Post) PostEvent {
	return PostEvent{
		Action:    a,
		PostID:    p.ID,
		CreatorID: p.CreatorID,
		Title:     p.Title,
		At:        time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e PostEvent) error
}

// Nop drops every event. Used when no NATS server is configured.
type Nop struct{}

func (Nop) Publish(context.Context, PostEvent) error { return nil }

type NATS struct {
	nc *nats.Conn
}

func NewNATS(url string) (*NATS, error) {
	nc, err := nats.Connect(url, nats.Name("blog-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS, %w", err)
	}

	return &NATS{nc: nc}, nil
}

func (n *NATS) Publish(_ context.Context, e PostEvent) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event, %w", err)
	}

	if err := n.nc.Publish(e.Action.Subject(), b); err != nil {
		return fmt.Errorf("failed to publish %s, %w", e.Action.Subject(), err)
	}

	return nil
}

// Subscribe calls handler for every post event. Undecodable messages are
// skipped.
func (n *NATS) Subscribe(handler func(PostEvent)) (*nats.Subscription, error) {
	return n.nc.Subscribe("post.*", func(msg *nats.Msg) {
		var e PostEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			return
		}

		handler(e)
	})
}

func (n *NATS) Close() error {
	return n.nc.Drain()
}
