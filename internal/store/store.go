// Package store persists users and posts. Both implementations keep a
// user's post list consistent with the posts that exist: creating and
// deleting a post touches both records in one transaction.
package store

import (
	"context"
	"errors"

	"bitwise74/blog-api/internal/model"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idSize  = 16
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email is already registered")
)

type Store interface {
	// CreateUser assigns an ID when u has none
	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetUserStatus(ctx context.Context, id, status string) (*model.User, error)

	// CreatePost assigns the ID and timestamps of p, appends it to the
	// creator's post list and populates p.Creator. Returns ErrNotFound when
	// the creator doesn't exist.
	CreatePost(ctx context.Context, p *model.Post) error
	// PostByID returns the post with its creator populated. Creator is nil
	// when the referenced user is gone.
	PostByID(ctx context.Context, id string) (*model.Post, error)
	// ListPosts returns a page in the store's natural order and the total
	// number of posts.
	ListPosts(ctx context.Context, offset, limit int) ([]model.Post, int64, error)
	// PostsByIDs keeps the order of ids and skips missing posts
	PostsByIDs(ctx context.Context, ids []string) ([]model.Post, error)
	// UpdatePost writes title, content and image reference and refreshes
	// p.UpdatedAt.
	UpdatePost(ctx context.Context, p *model.Post) error
	// DeletePost removes the post and its reference in the creator's list
	DeletePost(ctx context.Context, id string) (*model.Post, error)

	// PruneDanglingRefs drops post IDs from user lists whose post no longer
	// exists. Returns the number of references removed.
	PruneDanglingRefs(ctx context.Context) (int, error)

	Close() error
}

func newID() (string, error) {
	return gonanoid.Generate(charset, idSize)
}

// orderByIDs returns posts in the order of ids, skipping unknown IDs
func orderByIDs(ids []string, posts []model.Post) []model.Post {
	byID := make(map[string]model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	out := make([]model.Post, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}

	return out
}
