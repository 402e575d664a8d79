package app

import (
	"context"
	"fmt"

	"bitwise74/blog-api/aws"
	"bitwise74/blog-api/db"
	"bitwise74/blog-api/internal"
	"bitwise74/blog-api/internal/cache"
	"bitwise74/blog-api/internal/events"
	"bitwise74/blog-api/internal/storage"
	"bitwise74/blog-api/internal/store"
	"bitwise74/blog-api/pkg/security"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// newDeps connects everything the operations need according to the loaded
// configuration
func newDeps(ctx context.Context) (*internal.Deps, error) {
	d := &internal.Deps{
		PerPage: viper.GetInt("posts.per_page"),
	}

	s, err := newStore(ctx)
	if err != nil {
		return nil, err
	}
	d.Store = s

	hasher, err := security.NewHasher(viper.GetString("security.password_hash"), viper.GetInt("security.bcrypt_cost"))
	if err != nil {
		return nil, err
	}
	d.Hasher = hasher

	tokens, err := security.NewTokenIssuer(viper.GetString("security.jwt_secret"), viper.GetDuration("security.token_ttl"))
	if err != nil {
		return nil, err
	}
	d.Tokens = tokens

	images, err := newImageStore(ctx)
	if err != nil {
		return nil, err
	}
	d.Images = images

	switch viper.GetString("cache.type") {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		})

		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis, %w", err)
		}

		d.Cache = cache.NewRedis(rdb, viper.GetDuration("cache.ttl"))
	case "memory":
		d.Cache = cache.NewMemory(viper.GetDuration("cache.ttl"))
	default:
		d.Cache = cache.Nop{}
	}

	url := viper.GetString("nats.url")
	if url == "" {
		d.Events = events.Nop{}
		return d, nil
	}

	n, err := events.NewNATS(url)
	if err != nil {
		return nil, err
	}

	d.Events = n
	zap.L().Info("Publishing post events", zap.String("nats", url))

	// Every instance keeps its own memory cache, so changes made through
	// other instances have to evict here too
	if _, ok := d.Cache.(*cache.Memory); ok {
		if _, err := n.Subscribe(cache.Evictor(d.Cache)); err != nil {
			return nil, fmt.Errorf("failed to subscribe to post events, %w", err)
		}
	}

	return d, nil
}

func newStore(ctx context.Context) (store.Store, error) {
	driver := viper.GetString("db.driver")

	if driver == "mongo" {
		client, err := db.NewMongo(ctx, viper.GetString("db.dsn"))
		if err != nil {
			return nil, err
		}

		s := store.NewMongo(client, viper.GetString("db.mongo_database"), viper.GetBool("db.mongo_transactions"))
		if err := s.EnsureIndexes(ctx); err != nil {
			return nil, err
		}

		return s, nil
	}

	gdb, err := db.New(db.Options{
		Driver:   driver,
		DSN:      viper.GetString("db.dsn"),
		LogLevel: viper.GetString("app.log_level"),
	})
	if err != nil {
		return nil, err
	}

	return store.NewGorm(gdb), nil
}

func newImageStore(ctx context.Context) (storage.ImageStore, error) {
	if viper.GetString("storage.type") != "s3" {
		return storage.NewLocal(viper.GetString("storage.base_dir")), nil
	}

	c, err := aws.NewS3(ctx, aws.Options{
		AccessKey:       viper.GetString("aws.access_key_id"),
		SecretAccessKey: viper.GetString("aws.secret_access_key"),
		Region:          viper.GetString("aws.region"),
		Bucket:          viper.GetString("aws.bucket"),
		Endpoint:        viper.GetString("aws.endpoint"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
	}

	return storage.NewS3(c), nil
}
