// Package service contains background jobs that run next to the HTTP server
package service

import (
	"context"
	"fmt"
	"time"

	"bitwise74/blog-api/internal/store"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultReconcileSchedule = "@daily"

// Reconcile drops post references from user lists whose post no longer
// exists. Only needed when the store couldn't delete a post and its
// reference together.
func Reconcile(ctx context.Context, s store.Store) (int, error) {
	start := time.Now()

	n, err := s.PruneDanglingRefs(ctx)
	if err != nil {
		return n, fmt.Errorf("failed to prune dangling post references, %w", err)
	}

	if n > 0 {
		zap.L().Info("Pruned dangling post references", zap.Int("count", n), zap.Duration("took", time.Since(start)))
	}

	return n, nil
}

// StartReconciler runs Reconcile on schedule until the returned scheduler
// is stopped.
func StartReconciler(schedule string, s store.Store) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}

	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := Reconcile(ctx, s); err != nil {
			zap.L().Error("Reconcile job failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q, %w", schedule, err)
	}

	c.Start()
	zap.L().Debug("Reconcile job attached", zap.String("schedule", schedule))

	return c, nil
}
