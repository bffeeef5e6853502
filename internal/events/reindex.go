package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"docchat-be/internal/pkg/apperrors"
	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/ingestion"
)

const ReindexTopic = "document.reindex"

// ReindexRequestMessage asks the consumer to retry the index upsert for a
// document whose parse already succeeded.
type ReindexRequestMessage struct {
	DocumentId string `json:"document_id"`
}

type ReindexPublisher struct {
	pubSub *gochannel.GoChannel
	log    logger.ILogger
}

func NewReindexPublisher(pubSub *gochannel.GoChannel, log logger.ILogger) *ReindexPublisher {
	return &ReindexPublisher{pubSub: pubSub, log: log}
}

func (p *ReindexPublisher) Publish(documentId string) error {
	payload, err := json.Marshal(ReindexRequestMessage{DocumentId: documentId})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pubSub.Publish(ReindexTopic, msg); err != nil {
		return err
	}

	p.log.Info("events.reindex", "reindex requested", map[string]interface{}{
		"document_id": documentId,
	})
	return nil
}

type ReindexConsumer struct {
	pubSub   *gochannel.GoChannel
	pipeline *ingestion.Pipeline
	log      logger.ILogger
}

func NewReindexConsumer(pubSub *gochannel.GoChannel, pipeline *ingestion.Pipeline, log logger.ILogger) *ReindexConsumer {
	return &ReindexConsumer{pubSub: pubSub, pipeline: pipeline, log: log}
}

func (c *ReindexConsumer) Consume(ctx context.Context) error {
	messages, err := c.pubSub.Subscribe(ctx, ReindexTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (c *ReindexConsumer) processMessage(ctx context.Context, msg *message.Message) {
	var payload ReindexRequestMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.log.Error("events.reindex", "failed to unmarshal message", map[string]interface{}{
			"error": err.Error(),
		})
		// Ack malformed messages to prevent infinite retry.
		msg.Ack()
		return
	}

	err := c.pipeline.Reindex(ctx, payload.DocumentId)
	if err == nil {
		msg.Ack()
		return
	}

	// A deleted document is a dead letter; anything else is retriable.
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
		c.log.Warn("events.reindex", "document gone before reindex", map[string]interface{}{
			"document_id": payload.DocumentId,
		})
		msg.Ack()
		return
	}

	c.log.Error("events.reindex", "reindex attempt failed", map[string]interface{}{
		"document_id": payload.DocumentId,
		"error":       err.Error(),
	})
	msg.Nack()
}
