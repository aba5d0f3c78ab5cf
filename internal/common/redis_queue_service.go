package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"linkhub/integrator/internal/logging"

	"github.com/redis/go-redis/v9"
)

// RedisQueueService provides queue functionality using Redis Streams
type RedisQueueService struct {
	client *redis.Client
}

// NewRedisQueueService creates a new Redis queue service
func NewRedisQueueService(client *redis.Client) *RedisQueueService {
	return &RedisQueueService{
		client: client,
	}
}

// ActivationEvent announces that a provider finished the setup wizard
type ActivationEvent struct {
	ProviderID     string    `json:"provider_id"`
	ProviderTypeID string    `json:"provider_type_id"`
	ProviderName   string    `json:"provider_name"`
	SessionID      string    `json:"session_id"`
	ActivatedAt    time.Time `json:"activated_at"`
}

// EnqueueActivation adds an activation event to the stream
func (s *RedisQueueService) EnqueueActivation(ctx context.Context, streamName string, event *ActivationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal activation event: %w", err)
	}

	// XADD stream_name * data <json>
	args := &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}

	if _, err := s.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}

	return nil
}

// DequeueActivation reads one event using a consumer group.
// Returns (nil, "", nil) when the block time elapses without a message.
func (s *RedisQueueService) DequeueActivation(ctx context.Context, streamName, groupName, consumerName string, blockTime time.Duration) (*ActivationEvent, string, error) {
	// XREADGROUP GROUP group consumer BLOCK milliseconds COUNT 1 STREAMS stream >
	args := &redis.XReadGroupArgs{
		Group:    groupName,
		Consumer: consumerName,
		Streams:  []string{streamName, ">"}, // ">" means new messages only
		Count:    1,
		Block:    blockTime,
	}

	streams, err := s.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read from stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, "", nil
	}

	msg := streams[0].Messages[0]
	event, err := decodeActivation(msg)
	if err != nil {
		return nil, msg.ID, err
	}
	return event, msg.ID, nil
}

func decodeActivation(msg redis.XMessage) (*ActivationEvent, error) {
	dataStr, ok := msg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid message format: data field missing")
	}

	var event ActivationEvent
	if err := json.Unmarshal([]byte(dataStr), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activation event: %w", err)
	}
	return &event, nil
}

// Ack acknowledges successful processing of a message
func (s *RedisQueueService) Ack(ctx context.Context, streamName, groupName, messageID string) error {
	return s.client.XAck(ctx, streamName, groupName, messageID).Err()
}

// CreateConsumerGroup creates a consumer group for the stream if it doesn't exist
func (s *RedisQueueService) CreateConsumerGroup(ctx context.Context, streamName, groupName string) error {
	// XGROUP CREATE stream group 0 MKSTREAM
	err := s.client.XGroupCreateMkStream(ctx, streamName, groupName, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		// Group already exists, this is fine
		return nil
	}
	return err
}

// GetQueueLength returns the number of messages in the stream
func (s *RedisQueueService) GetQueueLength(ctx context.Context, streamName string) (int64, error) {
	length, err := s.client.XLen(ctx, streamName).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return length, nil
}

// ClaimStale claims messages that have been pending for too long (likely from dead workers)
func (s *RedisQueueService) ClaimStale(ctx context.Context, streamName, groupName, consumerName string, minIdleTime time.Duration) ([]*ActivationEvent, []string, error) {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: streamName,
		Group:  groupName,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	var staleIDs []string
	for _, p := range pending {
		if p.Idle >= minIdleTime {
			staleIDs = append(staleIDs, p.ID)
		}
	}
	if len(staleIDs) == 0 {
		return nil, nil, nil
	}

	messages, err := s.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   streamName,
		Group:    groupName,
		Consumer: consumerName,
		MinIdle:  minIdleTime,
		Messages: staleIDs,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to claim stale messages: %w", err)
	}

	var events []*ActivationEvent
	var messageIDs []string
	for _, msg := range messages {
		event, err := decodeActivation(msg)
		if err != nil {
			logging.Warn("Skipping undecodable claimed message", "message_id", msg.ID, "error", err.Error())
			continue
		}
		events = append(events, event)
		messageIDs = append(messageIDs, msg.ID)
	}

	return events, messageIDs, nil
}
