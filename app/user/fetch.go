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

// CurrentUser returns the account of the authenticated caller
func CurrentUser(ctx context.Context, d *internal.Deps) (*model.User, error) {
	caller, err := auth.Require(ctx, http.StatusUnauthorized)
	if err != nil {
		return nil, err
	}

	u, err := d.Store.UserByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found.")
		}

		zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", util.RequestID(ctx)))
		return nil, apperr.Internal()
	}

	return u, nil
}
