package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/angelmondragon/nexus-commerce/pkg/logger"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox/idempotency"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox/registry"
)

const (
	consumerName   = "notifications"
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Consumer reads domain events from the broker and records the customer
// notifications they imply.
type Consumer struct {
	reader      MessageReader
	repo        Repository
	registry    *registry.EventRegistry
	idempotency *idempotency.Manager
	logg        *logger.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewConsumer builds a notification consumer.
func NewConsumer(reader MessageReader, repo Repository, reg *registry.EventRegistry, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if reader == nil {
		return nil, fmt.Errorf("message reader required")
	}
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if reg == nil {
		return nil, fmt.Errorf("event registry required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		reader:      reader,
		repo:        repo,
		registry:    reg,
		idempotency: manager,
		logg:        logg,
		sleep:       sleepContext,
	}, nil
}

// Run consumes until ctx is cancelled. A message is committed only after it
// was handled or found to be unprocessable; transient failures are retried
// in place so per-aggregate ordering holds.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}
		if err := c.handleWithRetry(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg kafkago.Message) error {
	backoff := initialBackoff
	for {
		result := c.process(ctx, msg)
		if !result.retry {
			return nil
		}
		if err := c.sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

type processResult struct {
	retry bool
}

func (c *Consumer) process(ctx context.Context, msg kafkago.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"partition": msg.Partition,
		"offset":    msg.Offset,
		"key":       string(msg.Key),
	})

	resolved, err := c.registry.Decode(msg.Value)
	if err != nil {
		c.logg.Error(logCtx, "dropping undecodable event", err)
		return processResult{}
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":   resolved.Envelope.EventID,
		"event_type": resolved.Envelope.EventType,
	})

	eventID, err := uuid.Parse(resolved.Envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{retry: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	notification, err := Build(resolved)
	if err != nil {
		c.logg.Error(logCtx, "failed to build notification", err)
		return processResult{}
	}
	if notification == nil {
		c.logg.Debug(logCtx, "event has no notification")
		return processResult{}
	}

	created, err := c.repo.Create(ctx, notification)
	if err != nil {
		c.logg.Error(logCtx, "notification insert failed", err)
		if delErr := c.idempotency.Delete(ctx, consumerName, eventID); delErr != nil {
			c.logg.Error(logCtx, "failed to clear idempotency key", delErr)
		}
		return processResult{retry: true}
	}
	if !created {
		c.logg.Info(logCtx, "notification already recorded")
		return processResult{}
	}
	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"user_id":           notification.UserID.String(),
		"notification_type": notification.Type,
	}), "notification recorded")
	return processResult{}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
