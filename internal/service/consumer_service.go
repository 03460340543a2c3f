package service

import (
	"context"
	"encoding/json"

	"video-summary-be/internal/pkg/logger"
	"video-summary-be/pkg/events"
	pktNats "video-summary-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService writes every summary event to the audit log.
type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	auditLogger logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	auditLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		auditLogger: auditLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.auditLogger.Error("SUMMARY_AUDIT", "Failed to unmarshal message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	payload["event_type"] = msg.Metadata.Get("event_type")
	cs.auditLogger.Info("SUMMARY_AUDIT", "Summary completed", payload)
	msg.Ack()
}

const auditDurableName = "summary-audit"

// natsConsumerService is the audit consumer for the NATS bus. The durable
// consumer keeps events published while no instance is listening.
type natsConsumerService struct {
	subscriber  *pktNats.Subscriber
	auditLogger logger.ILogger
}

func NewNatsConsumerService(subscriber *pktNats.Subscriber, auditLogger logger.ILogger) IConsumerService {
	return &natsConsumerService{subscriber: subscriber, auditLogger: auditLogger}
}

func (cs *natsConsumerService) Consume(ctx context.Context) error {
	return cs.subscriber.Subscribe(ctx, events.SummaryCompletedType, auditDurableName, cs.handle)
}

func (cs *natsConsumerService) handle(_ context.Context, event events.Event) error {
	payload := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		payload[k] = v
	}
	payload["event_type"] = event.EventType()
	cs.auditLogger.Info("SUMMARY_AUDIT", "Summary completed", payload)
	return nil
}
