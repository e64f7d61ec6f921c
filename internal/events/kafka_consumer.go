package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/doglife-marketplace/service-booking/pkg/domain"
	"github.com/doglife-marketplace/service-booking/pkg/kafka"

	"github.com/google/uuid"
)

// BookingCompleter is the slice of the booking service this consumer needs.
type BookingCompleter interface {
	CompleteBookingByID(ctx context.Context, bookingID uuid.UUID) error
}

// ServiceEventConsumer listens to service.events from the external scheduler
// and marks bookings completed once the engagement has run to its end.
type ServiceEventConsumer struct {
	consumer  *kafka.Consumer
	completer BookingCompleter
	logger    *zap.Logger
}

// NewServiceEventConsumer creates a new ServiceEventConsumer.
func NewServiceEventConsumer(
	brokers []string,
	groupID string,
	completer BookingCompleter,
	logger *zap.Logger,
) *ServiceEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicServiceEvents, logger)
	return &ServiceEventConsumer{
		consumer:  consumer,
		completer: completer,
		logger:    logger,
	}
}

// Start begins consuming service events. This blocks until the context is cancelled.
func (c *ServiceEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *ServiceEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *ServiceEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from service topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case ServiceFinished:
		return c.handleServiceFinished(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled service event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *ServiceEventConsumer) handleServiceFinished(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt ServiceFinishedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse ServiceFinishedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing service finished event",
		zap.String("booking_id", evt.BookingID.String()),
	)

	if err := c.completer.CompleteBookingByID(ctx, evt.BookingID); err != nil {
		// A redelivered event lands on an already-completed booking; that is
		// a real state conflict, not a transient failure, so don't retry.
		if domain.IsCode(err, domain.CodeInvalidTransition) {
			c.logger.Warn("ignoring service finished event for non-accepted booking",
				zap.String("booking_id", evt.BookingID.String()),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to complete booking after service finished",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("booking completed after service finished",
		zap.String("booking_id", evt.BookingID.String()),
	)
	return nil
}
