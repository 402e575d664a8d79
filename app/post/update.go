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

func Update(ctx context.Context, d *internal.Deps, id string, in Input) (*model.Post, error) {
	caller, err := auth.Require(ctx, http.StatusForbidden)
	if err != nil {
		return nil, err
	}

	errs := validators.PostInput(in.Title, in.Content)
	errs = append(errs, validators.ImageURL(in.ImageURL)...)
	if len(errs) > 0 {
		return nil, apperr.InvalidInput(errs)
	}

	p, err := owned(ctx, d, caller, id)
	if err != nil {
		return nil, err
	}

	p.Title = in.Title
	p.Content = in.Content
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}

	if err := d.Store.UpdatePost(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(msgPostNotFound)
		}

		zap.L().Error("Failed to update post", zap.Error(err), zap.String("postID", id), zap.String("requestID", util.RequestID(ctx)))
		return nil, apperr.Internal()
	}

	d.Cache.Delete(ctx, p.ID)
	publish(ctx, d, events.PostUpdated, p)

	return p, nil
}
