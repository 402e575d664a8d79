package post

import (
	"context"
	"errors"
	"net/http"

	"bitwise74/blog-api/internal"
	"bitwise74/blog-api/internal/apperr"
	"bitwise74/blog-api/internal/auth"
	"bitwise74/blog-api/internal/events"
	"bitwise74/blog-api/internal/store"
	"bitwise74/blog-api/pkg/util"

	"go.uber.org/zap"
)

// Delete removes a post owned by the caller. The stored image is removed
// after the post is gone; failing to remove it doesn't fail the request.
func Delete(ctx context.Context, d *internal.Deps, id string) (bool, error) {
	requestID := util.RequestID(ctx)

	caller, err := auth.Require(ctx, http.StatusUnauthorized)
	if err != nil {
		return false, err
	}

	if _, err := owned(ctx, d, caller, id); err != nil {
		return false, err
	}

	deleted, err := d.Store.DeletePost(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, apperr.NotFound(msgPostNotFound)
		}

		zap.L().Error("Failed to delete post", zap.Error(err), zap.String("postID", id), zap.String("requestID", requestID))
		return false, apperr.Internal()
	}

	d.Cache.Delete(ctx, id)

	if deleted.ImageURL != "" {
		if err := d.Images.Remove(ctx, deleted.ImageURL); err != nil {
			zap.L().Warn("Failed to remove post image",
				zap.Error(err),
				zap.String("image", deleted.ImageURL),
				zap.String("requestID", requestID),
			)
		}
	}

	publish(ctx, d, events.PostDeleted, deleted)

	return true, nil
}
