// Package user contains the account operations exposed through GraphQL
package user

import (
	"context"
	"errors"

	"bitwise74/blog-api/internal"
	"bitwise74/blog-api/internal/apperr"
	"bitwise74/blog-api/internal/model"
	"bitwise74/blog-api/internal/store"
	"bitwise74/blog-api/pkg/util"
	"bitwise74/blog-api/validators"

	"go.uber.org/zap"
)

const msgUserExists = "User exists already!"

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Register creates a new account. The returned user carries the password
// hash, callers must not expose it.
func Register(ctx context.Context, d *internal.Deps, in RegisterInput) (*model.User, error) {
	requestID := util.RequestID(ctx)

	if errs := validators.Registration(in.Email, in.Password); len(errs) > 0 {
		zap.L().Debug("Invalid registration input", zap.Any("errors", errs), zap.String("requestID", requestID))
		return nil, apperr.InvalidInput(errs)
	}

	exists, err := d.Store.EmailExists(ctx, in.Email)
	if err != nil {
		zap.L().Error("Failed to check if user is registered", zap.Error(err), zap.String("requestID", requestID))
		return nil, apperr.Internal()
	}

	if exists {
		return nil, apperr.Conflict(msgUserExists)
	}

	hash, err := d.Hasher.Hash(in.Password)
	if err != nil {
		zap.L().Error("Failed to hash password", zap.Error(err), zap.String("requestID", requestID))
		return nil, apperr.Internal()
	}

	u := &model.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
	}

	if err := d.Store.CreateUser(ctx, u); err != nil {
		// Lost a race against a concurrent registration
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, apperr.Conflict(msgUserExists)
		}

		zap.L().Error("Failed to create user", zap.Error(err), zap.String("requestID", requestID))
		return nil, apperr.Internal()
	}

	return u, nil
}
