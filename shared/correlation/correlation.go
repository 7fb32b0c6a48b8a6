// Package correlation carries one identifier across every synchronous call
// and every event produced on behalf of a single order, end to end. The id is
// generated where the request enters the system and travels as a transport
// header from then on; it is never a domain field.
package correlation

import (
	"context"
	"net/http"

	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// MetadataKey is the event metadata header carrying the correlation id
const MetadataKey = "correlation_id"

// HTTPHeader is the HTTP header carrying the correlation id
const HTTPHeader = "X-Correlation-ID"

type contextKey struct{}

// WithID returns a context carrying the given correlation id
func WithID(ctx context.Context, id models.ID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the correlation id from the context, if present
func FromContext(ctx context.Context) (models.ID, bool) {
	id, ok := ctx.Value(contextKey{}).(models.ID)
	return id, ok && !id.IsZero()
}

// Ensure returns a context that carries a correlation id, generating a fresh
// one only when none is present. Consumers must call this with the incoming
// id already attached so the same value keeps flowing forward.
func Ensure(ctx context.Context) (context.Context, models.ID) {
	if id, ok := FromContext(ctx); ok {
		return ctx, id
	}
	id := models.GenerateUUID()
	return WithID(ctx, id), id
}

// Stamp writes the context's correlation id into the event, generating one if
// the context has none. Both the envelope field and the metadata header are
// set so the id survives any transport.
func Stamp(ctx context.Context, event *events.Event) *events.Event {
	_, id := Ensure(ctx)
	event.WithCorrelationID(id)
	event.WithMetadata(MetadataKey, id.String())
	return event
}

// Extract pulls the correlation id off an incoming event into the context.
// The metadata header wins over the envelope field; a missing id yields a
// fresh one rather than breaking the chain.
func Extract(ctx context.Context, event *events.Event) context.Context {
	if raw, ok := event.Metadata.Get(MetadataKey); ok && raw != "" {
		return WithID(ctx, models.ID(raw))
	}
	if !event.CorrelationID.IsZero() {
		return WithID(ctx, event.CorrelationID)
	}
	ctx, _ = Ensure(ctx)
	return ctx
}

// Middleware reads X-Correlation-ID from the request (or generates one),
// attaches it to the request context and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := models.ID(r.Header.Get(HTTPHeader))
		ctx := r.Context()
		if id.IsZero() {
			ctx, id = Ensure(ctx)
		} else {
			ctx = WithID(ctx, id)
		}
		w.Header().Set(HTTPHeader, id.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
