package main

import (
	"context"

	"go.uber.org/zap"
)

type (
	httpServer interface {
		Shutdown(ctx context.Context) error
	}
	stopper interface {
		Stop()
	}
	drainer interface {
		Close()
	}
)

// sink is an event or report store released after the dispatcher drains.
type sink struct {
	name  string
	close func() error
}

// shutdown stops intake first, then drains queued events into the sinks
// before closing them.
func shutdown(ctx context.Context, srv httpServer, sched stopper, events drainer, sinks []sink, logger *zap.Logger) {
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
	if sched != nil {
		sched.Stop()
	}
	if events != nil {
		events.Close()
	}
	for i := len(sinks) - 1; i >= 0; i-- {
		if err := sinks[i].close(); err != nil {
			logger.Error("failed to close "+sinks[i].name, zap.Error(err))
		}
	}
}
