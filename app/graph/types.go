package graph

import (
	"context"
	"time"

	"bitwise74/blog-api/app/post"
	"bitwise74/blog-api/app/user"
	"bitwise74/blog-api/internal"
	"bitwise74/blog-api/internal/apperr"
	"bitwise74/blog-api/internal/model"
	"bitwise74/blog-api/pkg/util"

	"github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

// ISO 8601 with milliseconds, always UTC
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

type postResolver struct {
	d *internal.Deps
	p *model.Post
}

func (r *postResolver) ID() graphql.ID {
	return graphql.ID(r.p.ID)
}

func (r *postResolver) Title() string {
	return r.p.Title
}

func (r *postResolver) Content() string {
	return r.p.Content
}

func (r *postResolver) ImageURL() string {
	return r.p.ImageURL
}

func (r *postResolver) Creator() (*userResolver, error) {
	if r.p.Creator == nil {
		return nil, apperr.NotFound("User not found.")
	}

	return &userResolver{d: r.d, u: r.p.Creator}, nil
}

func (r *postResolver) CreatedAt() string {
	return formatTime(r.p.CreatedAt)
}

func (r *postResolver) UpdatedAt() string {
	return formatTime(r.p.UpdatedAt)
}

// userResolver never exposes the password hash
type userResolver struct {
	d *internal.Deps
	u *model.User
}

func (r *userResolver) ID() graphql.ID {
	return graphql.ID(r.u.ID)
}

func (r *userResolver) Email() string {
	return r.u.Email
}

func (r *userResolver) Name() string {
	return r.u.Name
}

func (r *userResolver) Status() string {
	return r.u.Status
}

func (r *userResolver) Posts(ctx context.Context) ([]*postResolver, error) {
	posts, err := r.d.Store.PostsByIDs(ctx, r.u.PostIDs)
	if err != nil {
		zap.L().Error("Failed to fetch posts of user", zap.Error(err), zap.String("userID", r.u.ID), zap.String("requestID", util.RequestID(ctx)))
		return nil, apperr.Internal()
	}

	out := make([]*postResolver, len(posts))
	for i := range posts {
		out[i] = &postResolver{d: r.d, p: &posts[i]}
	}

	return out, nil
}

type authDataResolver struct {
	data *user.AuthData
}

func (r *authDataResolver) Token() string {
	return r.data.Token
}

func (r *authDataResolver) UserID() string {
	return r.data.UserID
}

type postDataResolver struct {
	d    *internal.Deps
	page *post.Page
}

func (r *postDataResolver) Posts() []*postResolver {
	out := make([]*postResolver, len(r.page.Posts))
	for i := range r.page.Posts {
		out[i] = &postResolver{d: r.d, p: &r.page.Posts[i]}
	}

	return out
}

func (r *postDataResolver) TotalPosts() int32 {
	return int32(r.page.Total)
}
