package events

import (
	"context"
	"time"

	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/record"
)

type Type string

const (
	TypeStatusChanged Type = "status_changed"
	TypeDeleted       Type = "deleted"
)

// Event describes a mutation accepted by the store.
type Event struct {
	Type Type   `json:"type"`
	Key  string `json:"key"`

	// PreviousStatus is empty when the key had no value before the write.
	PreviousStatus record.Status `json:"previousStatus,omitempty"`

	// Record is nil for deletions.
	Record *record.Record `json:"record,omitempty"`

	At time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type nop struct{}

func (nop) Publish(context.Context, Event) error {
	return nil
}

// Nop drops every event.
var Nop Publisher = nop{}
