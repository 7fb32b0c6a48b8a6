// Command demo runs the whole order flow in one process: all five services
// wired over the in-memory broker, one product seeded, one order placed. It
// prints the state of every aggregate once the choreography settles.
package main

import (
	"context"
	"fmt"
	"log"

	notifapp "github.com/swiftcart/order-system/notification-service/application"
	notifhandlers "github.com/swiftcart/order-system/notification-service/handlers"
	notifinfra "github.com/swiftcart/order-system/notification-service/infrastructure"
	orderapp "github.com/swiftcart/order-system/order-service/application"
	orderdomain "github.com/swiftcart/order-system/order-service/domain"
	orderhandlers "github.com/swiftcart/order-system/order-service/handlers"
	orderinfra "github.com/swiftcart/order-system/order-service/infrastructure"
	payapp "github.com/swiftcart/order-system/payment-service/application"
	payhandlers "github.com/swiftcart/order-system/payment-service/handlers"
	payinfra "github.com/swiftcart/order-system/payment-service/infrastructure"
	productapp "github.com/swiftcart/order-system/product-service/application"
	productdomain "github.com/swiftcart/order-system/product-service/domain"
	productinfra "github.com/swiftcart/order-system/product-service/infrastructure"
	"github.com/swiftcart/order-system/shared/events"
	sharedinfra "github.com/swiftcart/order-system/shared/infrastructure"
	"github.com/swiftcart/order-system/shared/models"
	"github.com/swiftcart/order-system/shared/saga"
	shipapp "github.com/swiftcart/order-system/shipping-service/application"
	shiphandlers "github.com/swiftcart/order-system/shipping-service/handlers"
	shipinfra "github.com/swiftcart/order-system/shipping-service/infrastructure"
)

const maxDeliveryRetries = 2

func main() {
	ctx := context.Background()
	broker := sharedinfra.NewMemoryBroker()
	defer broker.Close()

	// Product service
	productRepository := productinfra.NewMemoryProductRepository()
	catalog := productapp.NewProductCatalog(productRepository)
	product := seedProduct(ctx, productRepository)

	// Payment service
	paymentRepository := payinfra.NewMemoryPaymentRepository()
	processPayment := payapp.NewProcessPayment(paymentRepository, payinfra.NewSimulatedAuthorizer(), broker)
	subscribe(ctx, broker, payhandlers.NewPaymentEventHandlers(processPayment),
		events.OrderCreatedTopic)

	// Notification service
	notificationRepository := notifinfra.NewMemoryNotificationRepository()
	notify := notifapp.NewNotifyPaymentCompleted(notificationRepository, notifinfra.NewLogNotificationSender(), broker)
	subscribe(ctx, broker, notifhandlers.NewNotificationEventHandlers(notify),
		events.PaymentCompletedTopic)

	// Shipping service
	shipmentRepository := shipinfra.NewMemoryShipmentRepository()
	arrangeShipment := shipapp.NewArrangeShipment(shipmentRepository, broker)
	subscribe(ctx, broker, shiphandlers.NewShippingEventHandlers(arrangeShipment),
		events.ShippingRequestedTopic)

	// Order service
	orderRepository := orderinfra.NewMemoryOrderRepository()
	paymentClient := orderinfra.NewGuardedPaymentClient(&localPaymentGateway{processPayment: processPayment})
	createOrder := orderapp.NewCreateOrder(orderRepository, &localProductGateway{catalog: catalog}, paymentClient, broker)
	getOrder := orderapp.NewGetOrder(orderRepository)
	closeOrder := orderapp.NewCloseOrder(orderRepository)
	subscribe(ctx, broker, orderhandlers.NewOrderEventHandlers(closeOrder),
		events.ShipmentArrangedTopic)

	// Place one order and let the choreography run to completion.
	response, err := createOrder.Execute(ctx, &orderapp.CreateOrderCommand{
		CustomerID: "customer-1",
		ProductID:  product.ID.String(),
		Quantity:   2,
	})
	if err != nil {
		log.Fatalf("Failed to create order: %v", err)
	}
	fmt.Printf("Order %s created: status=%s payment=%s\n", response.OrderID, response.Status, response.PaymentStatus)

	broker.Drain()

	orderID := models.ID(response.OrderID)
	final, err := getOrder.Execute(ctx, &orderapp.GetOrderQuery{OrderID: response.OrderID})
	if err != nil {
		log.Fatalf("Failed to fetch order: %v", err)
	}
	fmt.Printf("Order %s settled: status=%s\n", final.OrderID, final.Status)

	if payment, _ := paymentRepository.FindByOrderID(ctx, orderID); payment != nil {
		fmt.Printf("Payment %s: status=%s\n", payment.ID, payment.Status)
	}
	if notification, _ := notificationRepository.FindByOrderID(ctx, orderID); notification != nil {
		fmt.Printf("Notification %s: status=%s\n", notification.ID, notification.Status)
	}
	if shipment, _ := shipmentRepository.FindByOrderID(ctx, orderID); shipment != nil {
		fmt.Printf("Shipment %s: status=%s tracking=%s\n", shipment.ID, shipment.Status, shipment.TrackingNumber)
	}
}

func seedProduct(ctx context.Context, repository *productinfra.MemoryProductRepository) *productdomain.Product {
	price, err := models.NewMoney(1999, "USD")
	if err != nil {
		log.Fatalf("Failed to build price: %v", err)
	}
	product, err := productdomain.NewProduct("mechanical keyboard", price, 5)
	if err != nil {
		log.Fatalf("Failed to build product: %v", err)
	}
	if err := repository.Save(ctx, product); err != nil {
		log.Fatalf("Failed to seed product: %v", err)
	}
	return product
}

// subscribe wires one service's consumer pipeline: routing, duplicate
// suppression, retry-then-dead-letter. Each service owns its processed store.
func subscribe(ctx context.Context, broker *sharedinfra.MemoryBroker, handler events.EventHandler, topics ...events.Topic) {
	router := saga.NewEventRouter()
	for _, topic := range topics {
		router.Register(topic, handler)
	}
	pipeline := saga.NewIdempotencyGuard(
		saga.NewDeadLetterRouter(router, broker, maxDeliveryRetries),
		sharedinfra.NewMemoryProcessedStore(),
	)
	for _, topic := range topics {
		if err := broker.Subscribe(ctx, topic, pipeline); err != nil {
			log.Fatalf("Failed to subscribe to %s: %v", topic, err)
		}
	}
}

// localProductGateway adapts the in-process product catalog to the gateway
// the order orchestration expects.
type localProductGateway struct {
	catalog *productapp.ProductCatalog
}

func (g *localProductGateway) GetProduct(ctx context.Context, productID models.ID) (*orderdomain.ProductDetails, error) {
	product, err := g.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	price, err := models.NewMoney(product.Price, product.Currency)
	if err != nil {
		return nil, err
	}
	return &orderdomain.ProductDetails{
		ProductID: models.ID(product.ProductID),
		Name:      product.Name,
		Price:     price,
		Stock:     product.Stock,
	}, nil
}

func (g *localProductGateway) CheckInventory(ctx context.Context, productID models.ID, quantity int) (bool, error) {
	return g.catalog.CheckInventory(ctx, productID, quantity)
}

// localPaymentGateway adapts the in-process payment use case to the gateway
// the guarded client wraps.
type localPaymentGateway struct {
	processPayment *payapp.ProcessPayment
}

func (g *localPaymentGateway) ProcessPayment(ctx context.Context, orderID models.ID, amount models.Money) (*orderdomain.PaymentResult, error) {
	response, err := g.processPayment.Execute(ctx, &payapp.ProcessPaymentCommand{
		OrderID:  orderID.String(),
		Amount:   amount.Amount,
		Currency: amount.Currency,
	})
	if err != nil {
		return nil, err
	}
	return &orderdomain.PaymentResult{
		PaymentID: models.ID(response.PaymentID),
		Status:    orderdomain.PaymentResultStatus(response.Status),
	}, nil
}
