package config

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/swiftcart/order-system/order-service/application"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/order-service/handlers"
	"github.com/swiftcart/order-system/order-service/infrastructure"
	"github.com/swiftcart/order-system/shared/events"
	sharedinfra "github.com/swiftcart/order-system/shared/infrastructure"
	"github.com/swiftcart/order-system/shared/saga"
	"github.com/swiftcart/order-system/shared/telemetry"
)

type Dependencies struct {
	// Database (nil when the memory repository is in use)
	DB *sqlx.DB

	// Repositories
	OrderRepository domain.OrderRepository

	// Gateways
	PaymentClient *infrastructure.GuardedPaymentClient

	// Use Cases
	CreateOrder *application.CreateOrder
	GetOrder    *application.GetOrder
	CloseOrder  *application.CloseOrder

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Event pipeline
	OrderEventHandlers *handlers.OrderEventHandlers
	EventRouter        *saga.EventRouter
	ConsumerPipeline   events.EventHandler
	EventPublisher     events.Publisher
	EventSubscriber    events.Subscriber

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()

	redisClient *redis.Client
	closers     []func() error
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize telemetry first
	if config.Telemetry.Enabled {
		telConfig := telemetry.OrderServiceConfig.WithOTLPEndpoint(config.Telemetry.OTLPEndpoint)
		tel, telemetryShutdown, err := telemetry.Init(ctx, telConfig)
		if err != nil {
			log.Printf("Failed to initialize telemetry: %v", err)
			// Continue without telemetry rather than failing
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = telemetryShutdown
		}
	}

	// Initialize repositories
	if config.Database.Enabled {
		db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		deps.DB = db
		deps.closers = append(deps.closers, db.Close)
		deps.OrderRepository = infrastructure.NewPostgresOrderRepository(db)
	} else {
		deps.OrderRepository = infrastructure.NewMemoryOrderRepository()
	}

	// Initialize event transport
	if err := buildTransport(ctx, config, deps); err != nil {
		return nil, err
	}

	// Initialize gateways; the payment gateway only ever leaves here guarded.
	productGateway := infrastructure.NewHTTPProductGateway(config.Gateways.ProductServiceURL)
	deps.PaymentClient = infrastructure.NewGuardedPaymentClient(
		infrastructure.NewHTTPPaymentGateway(config.Gateways.PaymentServiceURL))

	// Initialize use cases
	deps.CreateOrder = application.NewCreateOrder(deps.OrderRepository, productGateway, deps.PaymentClient, deps.EventPublisher)
	deps.GetOrder = application.NewGetOrder(deps.OrderRepository)
	deps.CloseOrder = application.NewCloseOrder(deps.OrderRepository)

	// Initialize handlers
	deps.OrderHandlers = handlers.NewOrderHandlers(deps.CreateOrder, deps.GetOrder)
	deps.OrderEventHandlers = handlers.NewOrderEventHandlers(deps.CloseOrder)

	// Consumer pipeline: route by topic, dedupe replays, dead-letter what
	// keeps failing.
	processedStore := buildProcessedStore(config, deps)
	deps.EventRouter = saga.NewEventRouter()
	deps.EventRouter.Register(events.ShipmentArrangedTopic, deps.OrderEventHandlers)
	deps.ConsumerPipeline = saga.NewIdempotencyGuard(
		saga.NewDeadLetterRouter(deps.EventRouter, deps.EventPublisher, config.Saga.MaxDeliveryRetries),
		processedStore,
	)

	return deps, nil
}

// Subscribe binds the consumer pipeline to every topic this service reacts to
func (d *Dependencies) Subscribe(ctx context.Context) error {
	for _, topic := range d.EventRouter.Topics() {
		if err := d.EventSubscriber.Subscribe(ctx, topic, d.ConsumerPipeline); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}
	return nil
}

func buildTransport(ctx context.Context, config *Config, deps *Dependencies) error {
	switch config.Transport {
	case TransportSNSSQS:
		publisher, err := sharedinfra.NewSNSPublisherAdapter(ctx, config.AWS.SNSTopicArn)
		if err != nil {
			return fmt.Errorf("failed to create SNS publisher: %w", err)
		}
		subscriber := sharedinfra.NewSQSSubscriberAdapter(config.AWS.SQSQueueURL)
		deps.EventPublisher = publisher
		deps.EventSubscriber = subscriber
		deps.closers = append(deps.closers, publisher.Close, subscriber.Close)

	case TransportKafka:
		publisher := sharedinfra.NewKafkaEventPublisher(config.Kafka.Brokers)
		subscriber := sharedinfra.NewKafkaEventSubscriber(config.Kafka.Brokers, config.Kafka.GroupID)
		deps.EventPublisher = publisher
		deps.EventSubscriber = subscriber
		deps.closers = append(deps.closers, publisher.Close, subscriber.Close)

	case TransportMemory:
		broker := sharedinfra.NewMemoryBroker()
		deps.EventPublisher = broker
		deps.EventSubscriber = broker
		deps.closers = append(deps.closers, broker.Close)

	default:
		return fmt.Errorf("unknown transport %q", config.Transport)
	}
	return nil
}

func buildProcessedStore(config *Config, deps *Dependencies) saga.ProcessedStore {
	if !config.Redis.Enabled {
		return sharedinfra.NewMemoryProcessedStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	deps.redisClient = client
	deps.closers = append(deps.closers, client.Close)
	return sharedinfra.NewRedisProcessedStore(client)
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	for _, close := range d.closers {
		if err := close(); err != nil {
			errs = append(errs, err)
		}
	}

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
