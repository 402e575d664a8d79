// Package auth carries the authentication state of a request through its
// context. It is filled by the JWT middleware and read by resolvers.
package auth

import (
	"context"

	"bitwise74/blog-api/internal/apperr"
)

type ctxKey struct{}

// Info mirrors the isAuth/userId pair set by the middleware
type Info struct {
	IsAuth bool
	UserID string
	Email  string
}

func WithInfo(ctx context.Context, i Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, i)
}

// FromContext returns the zero Info (not authenticated) when nothing was set
func FromContext(ctx context.Context) Info {
	i, _ := ctx.Value(ctxKey{}).(Info)
	return i
}

// Require returns the caller info or a NotAuthenticated error with the given
// status.
func Require(ctx context.Context, status int) (Info, error) {
	i := FromContext(ctx)
	if !i.IsAuth || i.UserID == "" {
		return Info{}, apperr.NotAuthenticated(status)
	}

	return i, nil
}

// RequireOwner fails with NotAuthorized unless creatorID is the caller
func RequireOwner(i Info, creatorID string) error {
	if creatorID == "" || creatorID != i.UserID {
		return apperr.NotAuthorized()
	}

	return nil
}
