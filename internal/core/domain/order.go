package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusNew       = "NEW"
	StatusProcessed = "PROCESSED"
)

// Order is the single persisted entity, keyed by OrderID.
type Order struct {
	OrderID   string    `json:"orderId"`
	Item      string    `json:"item"`
	Status    string    `json:"status,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

var (
	ErrNotFound         = errors.New("order not found")
	ErrOrderExists      = errors.New("order already exists")
	ErrMalformedEvent   = errors.New("malformed event")
	ErrMissingField     = errors.New("missing field")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Reason labels a rejected event for dead-letter metadata.
type Reason string

const (
	ReasonMalformedEvent   Reason = "MALFORMED_EVENT"
	ReasonMissingField     Reason = "MISSING_FIELD"
	ReasonStoreUnavailable Reason = "STORE_UNAVAILABLE"
)

// ReasonFor maps an ingestion error onto its dead-letter reason.
func ReasonFor(err error) Reason {
	switch {
	case errors.Is(err, ErrMalformedEvent):
		return ReasonMalformedEvent
	case errors.Is(err, ErrMissingField):
		return ReasonMissingField
	default:
		return ReasonStoreUnavailable
	}
}

// IsPermanent reports whether an event can never succeed and must not
// consume retry budget.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrMalformedEvent) || errors.Is(err, ErrMissingField)
}

func (o Order) Validate() error {
	if strings.TrimSpace(o.OrderID) == "" {
		return fmt.Errorf("%w: orderId", ErrMissingField)
	}
	if strings.TrimSpace(o.Item) == "" {
		return fmt.Errorf("%w: item", ErrMissingField)
	}
	return nil
}
