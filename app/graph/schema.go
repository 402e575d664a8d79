// Package graph binds the blog GraphQL schema to the user and post
// operations.
package graph

import (
	"context"
	_ "embed"
	"fmt"

	"bitwise74/blog-api/internal"
	"bitwise74/blog-api/pkg/util"

	"github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

//go:embed schema.graphql
var SDL string

type panicLogger struct{}

func (panicLogger) LogPanic(ctx context.Context, value any) {
	zap.L().Error("GraphQL resolver panicked", zap.Any("panic", value), zap.String("requestID", util.RequestID(ctx)))
}

// NewSchema parses the SDL and binds it to d. maxDepth limits query
// nesting, 0 disables the limit.
func NewSchema(d *internal.Deps, maxDepth int) (*graphql.Schema, error) {
	opts := []graphql.SchemaOpt{
		graphql.Logger(panicLogger{}),
	}

	if maxDepth > 0 {
		opts = append(opts, graphql.MaxDepth(maxDepth))
	}

	s, err := graphql.ParseSchema(SDL, &Resolver{d: d}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL schema, %w", err)
	}

	return s, nil
}
