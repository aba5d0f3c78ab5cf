package workers

import (
	"context"
	"time"

	"linkhub/integrator/internal/common"
	"linkhub/integrator/internal/logging"
	"linkhub/integrator/internal/metrics"

	"golang.org/x/sync/errgroup"
)

// ActivationRegistry records activations and takes them over inline when
// the worker cannot consume the stream
type ActivationRegistry interface {
	ActivationRecorder
	DisableQueue()
}

// InitWorkers starts the background workers on g. Without a Redis queue
// activations are logged inline and no worker is needed.
func InitWorkers(
	ctx context.Context,
	g *errgroup.Group,
	redQ *common.RedisQueueService,
	registry ActivationRegistry,
	metricsReg *metrics.MetricsRegistry,
	numWorkers int,
) {
	if redQ == nil {
		return
	}

	worker := NewActivationWorker("activation", redQ, registry, metricsReg)
	monitor := NewActivationQueueMonitor(redQ, metricsReg)

	g.Go(func() error {
		runActivationWorker(ctx, worker, registry, numWorkers)
		return nil
	})
	g.Go(func() error {
		monitor.Start(ctx, 30*time.Second)
		return nil
	})
}

// runActivationWorker blocks until the worker stops. If it cannot start,
// the registry stops publishing so sync logs are still written.
func runActivationWorker(ctx context.Context, worker *ActivationWorker, registry ActivationRegistry, numWorkers int) {
	if err := worker.Start(ctx, numWorkers); err != nil {
		logging.Error("Activation worker failed to start", "error", err.Error())
		registry.DisableQueue()
	}
}
