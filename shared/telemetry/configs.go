package telemetry

// Per-service telemetry configurations
var (
	OrderServiceConfig        = Config{ServiceName: "order-service", ServiceVersion: "1.0.0"}
	ProductServiceConfig      = Config{ServiceName: "product-service", ServiceVersion: "1.0.0"}
	PaymentServiceConfig      = Config{ServiceName: "payment-service", ServiceVersion: "1.0.0"}
	NotificationServiceConfig = Config{ServiceName: "notification-service", ServiceVersion: "1.0.0"}
	ShippingServiceConfig     = Config{ServiceName: "shipping-service", ServiceVersion: "1.0.0"}
)

// WithOTLPEndpoint sets the OTLP endpoint for a config
func (c Config) WithOTLPEndpoint(endpoint string) Config {
	c.OTLPEndpoint = endpoint
	return c
}
