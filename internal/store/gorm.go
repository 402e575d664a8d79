package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitwise74/blog-api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		id, err := newID()
		if err != nil {
			return fmt.Errorf("failed to generate user ID, %w", err)
		}
		u.ID = id
	}

	if u.PostIDs == nil {
		u.PostIDs = model.StringSlice{}
	}

	err := s.db.WithContext(ctx).Create(u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}

		return fmt.Errorf("failed to create user, %w", err)
	}

	return nil
}

func (s *GormStore) UserByID(ctx context.Context, id string) (*model.User, error) {
	return userWhere(s.db.WithContext(ctx), "id = ?", id)
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return userWhere(s.db.WithContext(ctx), "email = ?", email)
}

func (s *GormStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).
		Model(model.User{}).
		Where("email = ?", email).
		Count(&count).
		Error
	if err != nil {
		return false, fmt.Errorf("failed to check if email is registered, %w", err)
	}

	return count > 0, nil
}

func (s *GormStore) SetUserStatus(ctx context.Context, id, status string) (*model.User, error) {
	db := s.db.WithContext(ctx)

	u, err := userWhere(db, "id = ?", id)
	if err != nil {
		return nil, err
	}

	err = db.
		Model(model.User{}).
		Where("id = ?", id).
		Update("status", status).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to update user status, %w", err)
	}

	u.Status = status
	return u, nil
}

func (s *GormStore) CreatePost(ctx context.Context, p *model.Post) error {
	id, err := newID()
	if err != nil {
		return fmt.Errorf("failed to generate post ID, %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		creator, err := lockUser(tx, p.CreatorID)
		if err != nil {
			return err
		}

		p.ID = id
		p.Creator = nil

		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return fmt.Errorf("failed to create post, %w", err)
		}

		creator.PostIDs = append(creator.PostIDs, p.ID)

		err = tx.
			Model(model.User{}).
			Where("id = ?", creator.ID).
			Update("post_ids", creator.PostIDs).
			Error
		if err != nil {
			return fmt.Errorf("failed to append post to user, %w", err)
		}

		p.Creator = creator
		return nil
	})
}

func (s *GormStore) PostByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post

	err := s.db.WithContext(ctx).
		Preload("Creator").
		Where("id = ?", id).
		First(&p).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to fetch post, %w", err)
	}

	return &p, nil
}

func (s *GormStore) ListPosts(ctx context.Context, offset, limit int) ([]model.Post, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(model.Post{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts, %w", err)
	}

	var posts []model.Post

	err := db.
		Preload("Creator").
		Offset(offset).
		Limit(limit).
		Find(&posts).
		Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts, %w", err)
	}

	return posts, total, nil
}

func (s *GormStore) PostsByIDs(ctx context.Context, ids []string) ([]model.Post, error) {
	if len(ids) == 0 {
		return []model.Post{}, nil
	}

	var posts []model.Post

	err := s.db.WithContext(ctx).
		Preload("Creator").
		Where("id IN ?", ids).
		Find(&posts).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts, %w", err)
	}

	return orderByIDs(ids, posts), nil
}

func (s *GormStore) UpdatePost(ctx context.Context, p *model.Post) error {
	now := time.Now()

	r := s.db.WithContext(ctx).
		Model(model.Post{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"title":      p.Title,
			"content":    p.Content,
			"image_url":  p.ImageURL,
			"updated_at": now,
		})
	if r.Error != nil {
		return fmt.Errorf("failed to update post, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	p.UpdatedAt = now
	return nil
}

func (s *GormStore) DeletePost(ctx context.Context, id string) (*model.Post, error) {
	var deleted model.Post

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&deleted).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return fmt.Errorf("failed to fetch post, %w", err)
		}

		if err := tx.Where("id = ?", id).Delete(model.Post{}).Error; err != nil {
			return fmt.Errorf("failed to delete post, %w", err)
		}

		creator, err := lockUser(tx, deleted.CreatorID)
		if err != nil {
			// Nothing to prune when the creator is gone
			if errors.Is(err, ErrNotFound) {
				return nil
			}

			return err
		}

		err = tx.
			Model(model.User{}).
			Where("id = ?", creator.ID).
			Update("post_ids", creator.PostIDs.Without(id)).
			Error
		if err != nil {
			return fmt.Errorf("failed to detach post from user, %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &deleted, nil
}

func (s *GormStore) PruneDanglingRefs(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)

	var userIDs []string

	err := db.
		Model(model.User{}).
		Where("post_ids <> ''").
		Pluck("id", &userIDs).
		Error
	if err != nil {
		return 0, fmt.Errorf("failed to query users to reconcile, %w", err)
	}

	pruned := 0

	for _, userID := range userIDs {
		n, err := s.pruneUser(db, userID)
		if err != nil {
			return pruned, err
		}

		pruned += n
	}

	return pruned, nil
}

// pruneUser rewrites one user's post list while holding the row lock
// CreatePost and DeletePost take, so concurrent appends are not lost.
func (s *GormStore) pruneUser(db *gorm.DB, userID string) (int, error) {
	pruned := 0

	err := db.Transaction(func(tx *gorm.DB) error {
		u, err := lockUser(tx, userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}

			return err
		}

		if len(u.PostIDs) == 0 {
			return nil
		}

		var existing []string

		err = tx.
			Model(model.Post{}).
			Where("id IN ?", []string(u.PostIDs)).
			Pluck("id", &existing).
			Error
		if err != nil {
			return fmt.Errorf("failed to query posts of user %s, %w", u.ID, err)
		}

		if len(existing) == len(u.PostIDs) {
			return nil
		}

		keep := model.StringSlice(orderIDs(u.PostIDs, existing))

		err = tx.
			Model(model.User{}).
			Where("id = ?", u.ID).
			Update("post_ids", keep).
			Error
		if err != nil {
			return fmt.Errorf("failed to prune posts of user %s, %w", u.ID, err)
		}

		pruned = len(u.PostIDs) - len(keep)
		return nil
	})

	return pruned, err
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func userWhere(db *gorm.DB, query string, args ...any) (*model.User, error) {
	var u model.User

	if err := db.Where(query, args...).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	return &u, nil
}

// lockUser reads a user with SELECT ... FOR UPDATE. The sqlite dialect
// drops the locking clause, there the immediate transaction already
// serializes writers.
func lockUser(tx *gorm.DB, id string) (*model.User, error) {
	return userWhere(tx.Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

// orderIDs keeps the entries of list that are present in existing
func orderIDs(list []string, existing []string) []string {
	set := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		set[id] = struct{}{}
	}

	out := make([]string, 0, len(existing))
	for _, id := range list {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}

	return out
}
