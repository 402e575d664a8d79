package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitwise74/blog-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection = "users"
	postsCollection = "posts"
)

// MongoStore keeps users and posts as documents. The user document embeds
// the list of its post IDs.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
	posts  *mongo.Collection

	// Transactions need a replica set. Without them the reconcile job is
	// what repairs a half-applied create/delete.
	transactions bool
}

func NewMongo(client *mongo.Client, database string, transactions bool) *MongoStore {
	db := client.Database(database)

	return &MongoStore{
		client:       client,
		users:        db.Collection(usersCollection),
		posts:        db.Collection(postsCollection),
		transactions: transactions,
	}
}

// EnsureIndexes creates the unique email index
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index, %w", err)
	}

	_, err = s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "creator", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create creator index, %w", err)
	}

	return nil
}

func (s *MongoStore) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session, %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})

	return err
}

func (s *MongoStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		id, err := newID()
		if err != nil {
			return fmt.Errorf("failed to generate user ID, %w", err)
		}
		u.ID = id
	}

	// $push fails on a null field
	if u.PostIDs == nil {
		u.PostIDs = model.StringSlice{}
	}

	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}

		return fmt.Errorf("failed to create user, %w", err)
	}

	return nil
}

func (s *MongoStore) UserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check if email is registered, %w", err)
	}

	return n > 0, nil
}

func (s *MongoStore) SetUserStatus(ctx context.Context, id, status string) (*model.User, error) {
	var u model.User

	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to update user status, %w", err)
	}

	return &u, nil
}

func (s *MongoStore) CreatePost(ctx context.Context, p *model.Post) error {
	id, err := newID()
	if err != nil {
		return fmt.Errorf("failed to generate post ID, %w", err)
	}

	return s.withTx(ctx, func(ctx context.Context) error {
		creator, err := s.findUser(ctx, bson.M{"_id": p.CreatorID})
		if err != nil {
			return err
		}

		now := time.Now().UTC().Truncate(time.Millisecond)

		p.ID = id
		p.CreatedAt = now
		p.UpdatedAt = now

		if _, err := s.posts.InsertOne(ctx, p); err != nil {
			return fmt.Errorf("failed to create post, %w", err)
		}

		_, err = s.users.UpdateOne(ctx,
			bson.M{"_id": creator.ID},
			bson.M{"$push": bson.M{"posts": p.ID}},
		)
		if err != nil {
			return fmt.Errorf("failed to append post to user, %w", err)
		}

		creator.PostIDs = append(creator.PostIDs, p.ID)
		p.Creator = creator
		return nil
	})
}

func (s *MongoStore) PostByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post

	if err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to fetch post, %w", err)
	}

	posts := []model.Post{p}
	if err := s.populate(ctx, posts); err != nil {
		return nil, err
	}

	return &posts[0], nil
}

func (s *MongoStore) ListPosts(ctx context.Context, offset, limit int) ([]model.Post, int64, error) {
	total, err := s.posts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts, %w", err)
	}

	cur, err := s.posts.Find(ctx, bson.M{},
		options.Find().
			SetSkip(int64(offset)).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts, %w", err)
	}

	posts := []model.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode posts, %w", err)
	}

	if err := s.populate(ctx, posts); err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (s *MongoStore) PostsByIDs(ctx context.Context, ids []string) ([]model.Post, error) {
	if len(ids) == 0 {
		return []model.Post{}, nil
	}

	cur, err := s.posts.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts, %w", err)
	}

	posts := []model.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts, %w", err)
	}

	if err := s.populate(ctx, posts); err != nil {
		return nil, err
	}

	return orderByIDs(ids, posts), nil
}

func (s *MongoStore) UpdatePost(ctx context.Context, p *model.Post) error {
	now := time.Now().UTC().Truncate(time.Millisecond)

	r, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{
			"title":     p.Title,
			"content":   p.Content,
			"imageUrl":  p.ImageURL,
			"updatedAt": now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update post, %w", err)
	}

	if r.MatchedCount == 0 {
		return ErrNotFound
	}

	p.UpdatedAt = now
	return nil
}

func (s *MongoStore) DeletePost(ctx context.Context, id string) (*model.Post, error) {
	var deleted model.Post

	err := s.withTx(ctx, func(ctx context.Context) error {
		if err := s.posts.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&deleted); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}

			return fmt.Errorf("failed to delete post, %w", err)
		}

		_, err := s.users.UpdateOne(ctx,
			bson.M{"_id": deleted.CreatorID},
			bson.M{"$pull": bson.M{"posts": id}},
		)
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

func (s *MongoStore) PruneDanglingRefs(ctx context.Context) (int, error) {
	cur, err := s.users.Find(ctx, bson.M{"posts.0": bson.M{"$exists": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to query users to reconcile, %w", err)
	}
	defer cur.Close(ctx)

	pruned := 0

	for cur.Next(ctx) {
		var u model.User
		if err := cur.Decode(&u); err != nil {
			return pruned, fmt.Errorf("failed to decode user, %w", err)
		}

		existing, err := s.posts.Distinct(ctx, "_id", bson.M{"_id": bson.M{"$in": []string(u.PostIDs)}})
		if err != nil {
			return pruned, fmt.Errorf("failed to query posts of user %s, %w", u.ID, err)
		}

		if len(existing) == len(u.PostIDs) {
			continue
		}

		keep := make([]string, 0, len(existing))
		for _, v := range existing {
			if id, ok := v.(string); ok {
				keep = append(keep, id)
			}
		}
		keep = orderIDs(u.PostIDs, keep)

		var missing []string
		for _, id := range u.PostIDs {
			if !model.StringSlice(keep).Contains(id) {
				missing = append(missing, id)
			}
		}

		// $pullAll leaves concurrently pushed IDs alone
		_, err = s.users.UpdateOne(ctx,
			bson.M{"_id": u.ID},
			bson.M{"$pullAll": bson.M{"posts": missing}},
		)
		if err != nil {
			return pruned, fmt.Errorf("failed to prune posts of user %s, %w", u.ID, err)
		}

		pruned += len(missing)
	}

	return pruned, cur.Err()
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User

	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	return &u, nil
}

// populate resolves the creator of every post with a single query
func (s *MongoStore) populate(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.CreatorID)
	}

	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("failed to fetch post creators, %w", err)
	}

	var users []model.User
	if err := cur.All(ctx, &users); err != nil {
		return fmt.Errorf("failed to decode post creators, %w", err)
	}

	byID := make(map[string]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	for i := range posts {
		posts[i].Creator = byID[posts[i].CreatorID]
	}

	return nil
}
