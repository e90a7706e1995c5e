package domain

import (
	"encoding/json"
	"fmt"
)

// Envelope is the inbound event wrapper: {"body": {...}}.
// The body may arrive as a JSON object or as a JSON-encoded string
// holding one, and both forms are accepted.
type Envelope struct {
	Body json.RawMessage `json:"body"`
}

type orderBody struct {
	OrderID string `json:"orderId"`
	Item    string `json:"item"`
}

// DecodeEnvelope extracts the Order carried by an inbound event.
// A payload that cannot be decoded fails with ErrMalformedEvent; a
// decodable payload with absent or blank fields fails with
// ErrMissingField.
func DecodeEnvelope(raw []byte) (Order, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if len(env.Body) == 0 {
		return Order{}, fmt.Errorf("%w: missing body", ErrMalformedEvent)
	}

	body := env.Body
	if body[0] == '"' {
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return Order{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		body = []byte(s)
	}

	var b orderBody
	if err := json.Unmarshal(body, &b); err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	o := Order{OrderID: b.OrderID, Item: b.Item}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// OrderCreated is published after a successful order creation and
// consumed to mark the order processed.
type OrderCreated struct {
	OrderID string `json:"orderId"`
	Item    string `json:"item"`
}

func DecodeOrderCreated(raw []byte) (OrderCreated, error) {
	var ev OrderCreated
	if err := json.Unmarshal(raw, &ev); err != nil {
		return OrderCreated{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.OrderID == "" {
		return OrderCreated{}, fmt.Errorf("%w: orderId", ErrMissingField)
	}
	return ev, nil
}
