package workers

import (
	"context"
	"time"

	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/logging"
	"linkhub/integrator/internal/metrics"
)

// QueueLengther reports the number of messages in a stream
type QueueLengther interface {
	GetQueueLength(ctx context.Context, streamName string) (int64, error)
}

// ActivationQueueMonitor publishes the activation stream backlog as a gauge
type ActivationQueueMonitor struct {
	queue   QueueLengther
	metrics *metrics.MetricsRegistry
}

func NewActivationQueueMonitor(queue QueueLengther, metricsReg *metrics.MetricsRegistry) *ActivationQueueMonitor {
	return &ActivationQueueMonitor{
		queue:   queue,
		metrics: metricsReg,
	}
}

// Start checks the stream every interval until ctx is done
func (m *ActivationQueueMonitor) Start(ctx context.Context, interval time.Duration) {
	logging.Info("Starting activation queue monitor", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	m.check(ctx)

	for {
		select {
		case <-ctx.Done():
			logging.Info("Activation queue monitor shutting down")
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *ActivationQueueMonitor) check(ctx context.Context) {
	length, err := m.queue.GetQueueLength(ctx, constants.ActivationStream)
	if err != nil {
		logging.Warn("Failed to read activation queue length", "error", err.Error())
		return
	}

	m.metrics.ActivationQueueLength.Set(float64(length))
	if length > 100 {
		logging.Warn("Activation queue backlog", "stream", constants.ActivationStream, "length", length)
	}
}
