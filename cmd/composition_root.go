package cmd

import (
	"log/slog"

	httpin "grubdash/internal/adapters/in/http"
	"grubdash/internal/adapters/in/queue"
	"grubdash/internal/adapters/out/kafka"
	"grubdash/internal/adapters/out/postgres/deliveryrepo"
	"grubdash/internal/adapters/out/postgres/orderrepo"
	redisout "grubdash/internal/adapters/out/redis"
	"grubdash/internal/core/application/processors/batching"
	"grubdash/internal/core/application/processors/deliveryevents"
	"grubdash/internal/core/application/processors/orderevents"
	"grubdash/internal/core/application/usecases/queries"
	"grubdash/internal/jobs"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot wires the adapters, processors and queries together. The
// Kafka publisher and the restaurant notifier are created once and shared;
// Close releases them.
type CompositionRoot struct {
	configs     Config
	gormDB      *gorm.DB
	redisClient *redis.Client
	logger      *slog.Logger

	publisher *kafka.Publisher
	notifier  *kafka.RestaurantNotifier
	presence  *redisout.Presence
	board     *redisout.BatchBoard
}

func NewCompositionRoot(configs Config, gormDB *gorm.DB, redisClient *redis.Client, logger *slog.Logger) *CompositionRoot {
	publisher := kafka.NewPublisher([]string{configs.KafkaHost})

	return &CompositionRoot{
		configs:     configs,
		gormDB:      gormDB,
		redisClient: redisClient,
		logger:      logger,
		publisher:   publisher,
		notifier:    kafka.NewRestaurantNotifier(publisher, configs.KafkaNotificationsTopic, logger),
		presence:    redisout.NewPresence(redisClient),
		board:       redisout.NewBatchBoard(redisClient),
	}
}

// Close shuts down the shared outbound adapters. The notifier is drained
// before the publisher closes so queued notifications still go out.
func (c *CompositionRoot) Close() error {
	c.notifier.Close()
	return c.publisher.Close()
}

// CreateOrderEventsDispatcher builds the dispatcher for the order events
// topic. The dp_confirmed entry is the delivery pipeline's fan-out landing
// back on the order side to link the delivery id.
func (c *CompositionRoot) CreateOrderEventsDispatcher() *queue.Dispatcher {
	processor := orderevents.NewProcessor(
		orderrepo.NewGormOrderRepository(c.gormDB),
		c.publisher,
		c.notifier,
		c.configs.KafkaOrderBatchingTopic,
		c.logger,
	)

	dispatcher := queue.NewDispatcher(c.logger)
	dispatcher.Register("payment_pending", processor.HandleCreated)
	dispatcher.Register("payment_confirmed", processor.HandlePaymentConfirmed)
	dispatcher.Register("payment_failed", processor.HandlePaymentFailed)
	dispatcher.Register("order_confirmed", processor.HandleConfirmed)
	dispatcher.Register("order_cancelled", processor.HandleCancelled)
	dispatcher.Register("ready_for_delivery", processor.HandleReadyForDelivery)
	dispatcher.Register("order_picked_up", processor.HandlePickedUp)
	dispatcher.Register("delivered", processor.HandleDelivered)
	dispatcher.Register("dp_confirmed", processor.HandleDeliveryLink)
	return dispatcher
}

// CreateDeliveryEventsDispatcher builds the dispatcher for the delivery
// events topic.
func (c *CompositionRoot) CreateDeliveryEventsDispatcher() *queue.Dispatcher {
	processor := deliveryevents.NewProcessor(
		deliveryrepo.NewGormDeliveryRepository(c.gormDB),
		c.publisher,
		c.presence,
		c.configs.KafkaOrderEventsTopic,
		c.logger,
	)

	dispatcher := queue.NewDispatcher(c.logger)
	dispatcher.Register("dp_assigned", processor.HandleAssigned)
	dispatcher.Register("dp_confirmed", processor.HandleConfirmed)
	dispatcher.Register("dp_order_received", processor.HandleOrderReceived)
	dispatcher.Register("dp_delivered", processor.HandleDelivered)
	return dispatcher
}

// CreateBatchingDispatcher builds the dispatcher for the order batching
// topic.
func (c *CompositionRoot) CreateBatchingDispatcher() *queue.Dispatcher {
	worker := batching.NewWorker(
		c.board,
		c.presence,
		c.publisher,
		c.configs.KafkaOrderBatchingTopic,
		c.configs.KafkaDeliveryEventsTopic,
		c.logger,
	)

	dispatcher := queue.NewDispatcher(c.logger)
	dispatcher.Register("dp_pending", worker.Handle)
	return dispatcher
}

func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(
		queries.NewGetCustomerOrdersQueryHandler(c.gormDB),
		queries.NewGetPartnerDeliveriesQueryHandler(c.gormDB),
	)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.presence,
		queries.NewGetStalledOrdersQueryHandler(c.gormDB),
		c.logger,
	)
}
