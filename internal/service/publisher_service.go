package service

import (
	"context"
	"encoding/json"

	"video-summary-be/pkg/events"
	pktNats "video-summary-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

// publisherService publishes onto the in-process watermill bus.
type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (ps *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", event.EventType())
	msg.SetContext(ctx)

	return ps.pubSub.Publish(ps.topicName, msg)
}

type natsPublisherService struct {
	publisher *pktNats.Publisher
}

func NewNatsPublisherService(publisher *pktNats.Publisher) IPublisherService {
	return &natsPublisherService{publisher: publisher}
}

func (ps *natsPublisherService) Publish(ctx context.Context, event events.Event) error {
	return ps.publisher.Publish(ctx, event)
}

type noopPublisherService struct{}

func NewNoopPublisherService() IPublisherService {
	return noopPublisherService{}
}

func (noopPublisherService) Publish(context.Context, events.Event) error {
	return nil
}
