package app

import (
	"context"
	"fmt"
	"time"

	"bitwise74/blog-api/app/graph"
	"bitwise74/blog-api/app/root"
	"bitwise74/blog-api/internal"
	"bitwise74/blog-api/internal/service"
	"bitwise74/blog-api/pkg/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxGraphQLBody = 1 << 20

type Options struct {
	Origins   []string
	RateLimit int
	// Responses caches whole HTTP responses, defaults to an in-memory store
	Responses persist.CacheStore
}

// NewRouter wires every dependency from the loaded configuration and
// starts the background jobs.
func NewRouter() (*gin.Engine, error) {
	ctx := context.Background()

	d, err := newDeps(ctx)
	if err != nil {
		return nil, err
	}

	schema, err := graph.NewSchema(d, viper.GetInt("graphql.max_depth"))
	if err != nil {
		return nil, err
	}

	// Runs for the lifetime of the process
	if _, err := service.StartReconciler(viper.GetString("reconcile.schedule"), d.Store); err != nil {
		return nil, fmt.Errorf("failed to start reconcile job, %w", err)
	}

	o := Options{
		Origins:   viper.GetStringSlice("host.cors"),
		RateLimit: viper.GetInt("security.rate_limit"),
	}

	if viper.GetString("cache.type") == "redis" {
		o.Responses, err = newResponseStore(ctx,
			viper.GetString("redis.addr"),
			viper.GetString("redis.password"),
			viper.GetInt("redis.db"),
		)
		if err != nil {
			return nil, err
		}
	}

	return NewEngine(d, schema, o), nil
}

// NewEngine registers all routes on a new gin engine
func NewEngine(d *internal.Deps, schema *graphql.Schema, o Options) *gin.Engine {
	if o.Responses == nil {
		o.Responses = persist.NewMemoryStore(time.Minute)
	}

	if len(o.Origins) == 0 {
		o.Origins = []string{"http://localhost:5173"}
	}

	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     o.Origins,
			AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
			RequestsPerSecond: o.RateLimit,
			Burst:             o.RateLimit * 2,
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	jwt := middleware.NewJWTMiddleware(d.Tokens)

	// POST /graphql		-> Executes a GraphQL query or mutation
	router.POST("/graphql",
		middleware.BodySizeLimiter(maxGraphQLBody),
		jwt,
		gin.WrapH(&relay.Handler{Schema: schema}),
	)

	m := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/validate		-> Validates a JWT token
		m.GET("/validate", jwt, middleware.RequireAuth(), root.Validate)

		// GET /api/schema		-> Returns the GraphQL schema
		m.GET("/schema", cacheFor(o.Responses, 5*60), root.Schema)
	}

	return router
}

func cacheFor(store persist.CacheStore, sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
