package post

import (
	"context"
	"errors"
	"net/http"

	"bitwise74/blog-api/internal"
	"bitwise74/blog-api/internal/apperr"
	"bitwise74/blog-api/internal/auth"
	"bitwise74/blog-api/internal/model"
	"bitwise74/blog-api/internal/store"
	"bitwise74/blog-api/pkg/util"

	"go.uber.org/zap"
)

func Get(ctx context.Context, d *internal.Deps, id string) (*model.Post, error) {
	if _, err := auth.Require(ctx, http.StatusUnauthorized); err != nil {
		return nil, err
	}

	if p, ok := d.Cache.Get(ctx, id); ok {
		return p, nil
	}

	p, err := d.Store.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(msgPostNotFound)
		}

		zap.L().Error("Failed to fetch post", zap.Error(err), zap.String("postID", id), zap.String("requestID", util.RequestID(ctx)))
		return nil, apperr.Internal()
	}

	d.Cache.Set(ctx, p)

	return p, nil
}

// owned loads a post and checks that the caller created it. A post whose
// creator no longer exists is owned by nobody.
func owned(ctx context.Context, d *internal.Deps, caller auth.Info, id string) (*model.Post, error) {
	p, err := d.Store.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(msgPostNotFound)
		}

		zap.L().Error("Failed to fetch post", zap.Error(err), zap.String("postID", id), zap.String("requestID", util.RequestID(ctx)))
		return nil, apperr.Internal()
	}

	creatorID := ""
	if p.Creator != nil {
		creatorID = p.Creator.ID
	}

	if err := auth.RequireOwner(caller, creatorID); err != nil {
		return nil, err
	}

	return p, nil
}
