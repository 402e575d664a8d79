package user

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

// UpdateStatus replaces the status text of the caller. Cached posts embed
// their creator so they are evicted too.
func UpdateStatus(ctx context.Context, d *internal.Deps, status string) (*model.User, error) {
	caller, err := auth.Require(ctx, http.StatusUnauthorized)
	if err != nil {
		return nil, err
	}

	u, err := d.Store.SetUserStatus(ctx, caller.UserID, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found.")
		}

		zap.L().Error("Failed to update user status", zap.Error(err), zap.String("requestID", util.RequestID(ctx)))
		return nil, apperr.Internal()
	}

	d.Cache.Delete(ctx, u.PostIDs...)

	return u, nil
}
