package events

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"social-hub/domain/model"
	"social-hub/infrastructure/logger"
)

// StatusPublisher fans terminal post-status events out to the configured
// transports. Either client may be nil; a missing transport is skipped, not
// an error, so publishing never blocks the post pipeline.
type StatusPublisher struct {
	pubSubClient     *pubsub.Client
	serviceBusClient *azservicebus.Client
	topic            string
	queue            string
}

func NewStatusPublisher(pubSubClient *pubsub.Client, serviceBusClient *azservicebus.Client, topic, queue string) *StatusPublisher {
	return &StatusPublisher{
		pubSubClient:     pubSubClient,
		serviceBusClient: serviceBusClient,
		topic:            topic,
		queue:            queue,
	}
}

func (p *StatusPublisher) PublishStatus(ctx context.Context, event *model.PostStatusEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if p.pubSubClient != nil && p.topic != "" {
		if err := p.publishPubSub(ctx, payload); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while publishing status event to Pub/Sub")
		}
	}
	if p.serviceBusClient != nil && p.queue != "" {
		if err := p.publishServiceBus(ctx, payload); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while publishing status event to Service Bus")
		}
	}
	return nil
}

func (p *StatusPublisher) publishPubSub(ctx context.Context, payload []byte) error {
	topic := p.pubSubClient.Topic(p.topic)

	// Create the topic if it doesn't exist.
	exists, err := topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		if _, err = p.pubSubClient.CreateTopic(ctx, p.topic); err != nil {
			return err
		}
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server ID", serverID).Info("Status event published")
	return nil
}

func (p *StatusPublisher) publishServiceBus(ctx context.Context, payload []byte) error {
	sender, err := p.serviceBusClient.NewSender(p.queue, nil)
	if err != nil {
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing sender.")
		}
	}(sender, ctx)

	return sender.SendMessage(ctx, &azservicebus.Message{Body: payload}, nil)
}
