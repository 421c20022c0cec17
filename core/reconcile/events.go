package reconcile

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// EventState is the state transition an event reports.
type EventState string

const (
	// StateStart opens a problem, e.g. a module went down.
	StateStart EventState = "s"
	// StateEnd closes a problem, e.g. a module came back up.
	StateEnd EventState = "e"
	// StateStateless reports something without a state.
	StateStateless EventState = "x"
)

// Event is a structured state-change notification for downstream consumers.
type Event struct {
	Source    string            `json:"source"`
	Target    string            `json:"target"`
	NetboxID  int64             `json:"netbox_id"`
	DeviceID  *int64            `json:"device_id,omitempty"`
	SubID     string            `json:"subid"`
	EventType string            `json:"event_type"`
	State     EventState        `json:"state"`
	Time      time.Time         `json:"time"`
	Vars      map[string]string `json:"vars,omitempty"`
}

// Emitter delivers events. DB is the handle of the scope emitting the event
// so that queue-backed emitters commit together with it.
type Emitter interface {
	Emit(ctx context.Context, db *gorm.DB, ev Event) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, db *gorm.DB, ev Event) error

func (f EmitterFunc) Emit(ctx context.Context, db *gorm.DB, ev Event) error {
	return f(ctx, db, ev)
}

type discardEmitter struct{}

func (discardEmitter) Emit(context.Context, *gorm.DB, Event) error { return nil }
