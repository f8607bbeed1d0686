package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderSubmitted = "OrderSubmitted"
	EventOrderConfirmed = "OrderConfirmed"
	EventOrderRejected  = "OrderRejected"
)

// Envelope wraps order lifecycle events published to the reporting feed.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderEventPayload struct {
	OrderID      string `json:"order_id"`
	CustomerName string `json:"customer_name"`
	Status       Status `json:"status"`
	Total        int    `json:"total"`
	Items        []Item `json:"items"`
}
