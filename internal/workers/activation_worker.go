package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"linkhub/integrator/internal/common"
	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/logging"
	"linkhub/integrator/internal/metrics"
)

// ActivationQueue is the slice of RedisQueueService the worker consumes
type ActivationQueue interface {
	CreateConsumerGroup(ctx context.Context, streamName, groupName string) error
	DequeueActivation(ctx context.Context, streamName, groupName, consumerName string, blockTime time.Duration) (*common.ActivationEvent, string, error)
	Ack(ctx context.Context, streamName, groupName, messageID string) error
	ClaimStale(ctx context.Context, streamName, groupName, consumerName string, minIdleTime time.Duration) ([]*common.ActivationEvent, []string, error)
}

// ActivationRecorder writes the activate sync log for an event
type ActivationRecorder interface {
	RecordActivation(ctx context.Context, event *common.ActivationEvent) error
}

// ActivationWorker processes provider activation events from Redis
type ActivationWorker struct {
	workerID  string
	queue     ActivationQueue
	recorder  ActivationRecorder
	metrics   *metrics.MetricsRegistry
	blockTime time.Duration
	staleIdle time.Duration
}

func NewActivationWorker(workerID string, queue ActivationQueue, recorder ActivationRecorder, metricsReg *metrics.MetricsRegistry) *ActivationWorker {
	return &ActivationWorker{
		workerID:  workerID,
		queue:     queue,
		recorder:  recorder,
		metrics:   metricsReg,
		blockTime: 5 * time.Second,
		staleIdle: 2 * time.Minute,
	}
}

// Start runs numWorkers consumers plus a stale-message claimer until ctx is done
func (w *ActivationWorker) Start(ctx context.Context, numWorkers int) error {
	logging.Info("Starting activation workers", "count", numWorkers, "worker_id", w.workerID)

	if err := w.queue.CreateConsumerGroup(ctx, constants.ActivationStream, constants.ActivationConsumerGroup); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		consumer := fmt.Sprintf("%s-%d", w.workerID, i)
		go func() {
			defer wg.Done()
			w.processQueue(ctx, consumer)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.claimStaleMessages(ctx, w.workerID+"-claimer")
	}()

	wg.Wait()
	logging.Info("All activation workers stopped", "worker_id", w.workerID)
	return nil
}

func (w *ActivationWorker) processQueue(ctx context.Context, consumer string) {
	processed, failed := 0, 0

	for {
		select {
		case <-ctx.Done():
			logging.Info("Activation worker shutting down",
				"consumer", consumer, "processed", processed, "errors", failed)
			return
		default:
		}

		event, messageID, err := w.queue.DequeueActivation(ctx, constants.ActivationStream, constants.ActivationConsumerGroup, consumer, w.blockTime)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			if messageID != "" {
				// Undecodable message, drop it
				logging.Warn("Dropping malformed activation", "consumer", consumer, "message_id", messageID, "error", err.Error())
				w.ack(ctx, consumer, messageID)
				continue
			}
			logging.Warn("Activation dequeue failed", "consumer", consumer, "error", err.Error())
			sleepCtx(ctx, time.Second)
			continue
		}
		if event == nil {
			continue
		}

		if w.handle(ctx, consumer, event) {
			processed++
		} else {
			failed++
		}
		// Acknowledged either way so a bad event is not redelivered forever
		w.ack(ctx, consumer, messageID)
	}
}

// handle records one event and reports whether it succeeded
func (w *ActivationWorker) handle(ctx context.Context, consumer string, event *common.ActivationEvent) bool {
	if err := w.recorder.RecordActivation(ctx, event); err != nil {
		logging.Error("Failed to record activation",
			"consumer", consumer,
			"provider_id", event.ProviderID,
			"error", err.Error(),
		)
		w.metrics.ActivationsProcessed.WithLabelValues("error").Inc()
		return false
	}

	logging.Info("Activation recorded",
		"consumer", consumer,
		"provider_id", event.ProviderID,
		"provider_type", event.ProviderTypeID,
		"session_id", event.SessionID,
	)
	w.metrics.ActivationsProcessed.WithLabelValues("success").Inc()
	return true
}

func (w *ActivationWorker) ack(ctx context.Context, consumer, messageID string) {
	if err := w.queue.Ack(ctx, constants.ActivationStream, constants.ActivationConsumerGroup, messageID); err != nil {
		logging.Warn("Failed to acknowledge activation", "consumer", consumer, "message_id", messageID, "error", err.Error())
	}
}

// claimStaleMessages picks up events left pending by consumers that died
func (w *ActivationWorker) claimStaleMessages(ctx context.Context, consumer string) {
	ticker := time.NewTicker(w.staleIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			events, ids, err := w.queue.ClaimStale(ctx, constants.ActivationStream, constants.ActivationConsumerGroup, consumer, w.staleIdle)
			if err != nil {
				logging.Warn("Failed to claim stale activations", "error", err.Error())
				continue
			}
			for i, event := range events {
				w.handle(ctx, consumer, event)
				w.ack(ctx, consumer, ids[i])
			}
			if len(events) > 0 {
				logging.Info("Claimed stale activations", "count", len(events))
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
