package user

import (
	"context"
	"errors"

	"bitwise74/blog-api/internal"
	"bitwise74/blog-api/internal/apperr"
	"bitwise74/blog-api/internal/store"
	"bitwise74/blog-api/pkg/util"

	"go.uber.org/zap"
)

type AuthData struct {
	Token  string
	UserID string
}

func Login(ctx context.Context, d *internal.Deps, email, password string) (*AuthData, error) {
	requestID := util.RequestID(ctx)

	u, err := d.Store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found.")
		}

		zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", requestID))
		return nil, apperr.Internal()
	}

	ok, err := d.Hasher.Verify(password, u.PasswordHash)
	if err != nil {
		zap.L().Error("Failed to verify password", zap.Error(err), zap.String("requestID", requestID))
		return nil, apperr.Internal()
	}

	if !ok {
		return nil, apperr.Unauthorized("Password is incorrect!")
	}

	token, err := d.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		zap.L().Error("Failed to generate JWT auth token", zap.Error(err), zap.String("requestID", requestID))
		return nil, apperr.Internal()
	}

	return &AuthData{
		Token:  token,
		UserID: u.ID,
	}, nil
}
