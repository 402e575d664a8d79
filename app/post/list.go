package post

import (
	"context"
	"net/http"

	"bitwise74/blog-api/internal"
	"bitwise74/blog-api/internal/apperr"
	"bitwise74/blog-api/internal/auth"
	"bitwise74/blog-api/internal/model"
	"bitwise74/blog-api/pkg/util"
	"bitwise74/blog-api/validators"

	"go.uber.org/zap"
)

type Page struct {
	Posts []model.Post
	Total int64
}

// List returns the posts of a 1-based page in the store's natural order
func List(ctx context.Context, d *internal.Deps, page int) (*Page, error) {
	if _, err := auth.Require(ctx, http.StatusUnauthorized); err != nil {
		return nil, err
	}

	if errs := validators.Page(page); len(errs) > 0 {
		return nil, apperr.InvalidInput(errs)
	}

	perPage := d.PerPage
	if perPage <= 0 {
		perPage = internal.DefaultPerPage
	}

	posts, total, err := d.Store.ListPosts(ctx, (page-1)*perPage, perPage)
	if err != nil {
		zap.L().Error("Failed to list posts", zap.Error(err), zap.Int("page", page), zap.String("requestID", util.RequestID(ctx)))
		return nil, apperr.Internal()
	}

	return &Page{
		Posts: posts,
		Total: total,
	}, nil
}
