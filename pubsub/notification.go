// Package pubsub publishes trade notifications on a Google Cloud
// Pub/Sub topic.
package pubsub

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"

	"github.com/davison/tradedesk"
)

type NotificationService struct {
	logger             tradedesk.Logger
	notificationsTopic *pubsub.Topic
}

func NewNotificationService(
	ctx context.Context,
	logger tradedesk.Logger,
	projectID string,
	notificationsTopicID string,
) (*NotificationService, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &NotificationService{
		logger:             logger,
		notificationsTopic: client.Topic(notificationsTopicID),
	}, nil
}

func (ns *NotificationService) Publish(notification *tradedesk.Notification) {
	ns.publishOnNotificationsTopic(context.TODO(), notification)
}

func (ns *NotificationService) publishOnNotificationsTopic(
	ctx context.Context,
	notification *tradedesk.Notification,
) {
	topicLogger := ns.logger.WithField("topic", "notifications")

	messageData, err := json.Marshal(&notificationMessage{
		Instrument: notification.Instrument.String(),
		Payload:    notification.Payload,
	})
	if err != nil {
		topicLogger.Errorf("could not marshal notification: [%v]", err)
		return
	}

	ns.publishOnTopic(
		ctx,
		ns.notificationsTopic,
		messageData,
		topicLogger,
	)
}

func (ns *NotificationService) publishOnTopic(
	ctx context.Context,
	topic *pubsub.Topic,
	messageData []byte,
	topicLogger tradedesk.Logger,
) {
	result := topic.Publish(ctx, &pubsub.Message{
		Data: messageData,
	})

	go func() {
		id, err := result.Get(ctx)
		if err != nil {
			topicLogger.Errorf(
				"could not publish notification: [%v]",
				err,
			)
			return
		}

		topicLogger.Infof("published notification with ID: [%v]", id)
	}()
}

type notificationMessage struct {
	Instrument string
	Payload    string
}
