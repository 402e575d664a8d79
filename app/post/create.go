// Package post contains the post operations exposed through GraphQL
package post

import (
	"context"
	"errors"
	"net/http"

	"bitwise74/blog-api/internal"
	"bitwise74/blog-api/internal/apperr"
	"bitwise74/blog-api/internal/auth"
	"bitwise74/blog-api/internal/events"
	"bitwise74/blog-api/internal/model"
	"bitwise74/blog-api/internal/store"
	"bitwise74/blog-api/pkg/util"
	"bitwise74/blog-api/validators"

	"go.uber.org/zap"
)

const msgPostNotFound = "Post not found."

// Input is shared by create and update. A nil ImageURL leaves the image of
// an existing post untouched.
type Input struct {
	Title    string
	Content  string
	ImageURL *string
}

func Create(ctx context.Context, d *internal.Deps, in Input) (*model.Post, error) {
	requestID := util.RequestID(ctx)

	caller, err := auth.Require(ctx, http.StatusForbidden)
	if err != nil {
		return nil, err
	}

	if errs := validators.PostInput(in.Title, in.Content); len(errs) > 0 {
		return nil, apperr.InvalidInput(errs)
	}

	p := &model.Post{
		Title:     in.Title,
		Content:   in.Content,
		CreatorID: caller.UserID,
	}

	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}

	if err := d.Store.CreatePost(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found.")
		}

		zap.L().Error("Failed to create post", zap.Error(err), zap.String("requestID", requestID))
		return nil, apperr.Internal()
	}

	publish(ctx, d, events.PostCreated, p)

	return p, nil
}

// publish never fails the operation, the post is already persisted
func publish(ctx context.Context, d *internal.Deps, a events.Action, p *model.Post) {
	if err := d.Events.Publish(ctx, events.NewPostEvent(a, p)); err != nil {
		zap.L().Warn("Failed to publish post event",
			zap.Error(err),
			zap.String("subject", a.Subject()),
			zap.String("postID", p.ID),
			zap.String("requestID", util.RequestID(ctx)),
		)
	}
}
