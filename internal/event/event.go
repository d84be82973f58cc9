// Package event holds the ordered stream that bars and signals are published to.
package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

type Type string

const (
	TypeMarket Type = "MARKET"
	TypeSignal Type = "SIGNAL"
)

// Event is one entry of the stream. Seq is assigned by the stream on publish.
type Event struct {
	ID     uuid.UUID
	Seq    uint64
	Type   Type
	Time   time.Time
	Symbol string
	Bar    optional.Option[types.MarketData]
	Signal optional.Option[types.Signal]
}

// NewMarketEvent creates the event announcing a bar.
func NewMarketEvent(bar types.MarketData) Event {
	return Event{
		ID:     uuid.New(),
		Type:   TypeMarket,
		Time:   bar.Time,
		Symbol: bar.Symbol,
		Bar:    optional.Some(bar),
		Signal: optional.None[types.Signal](),
	}
}

// NewSignalEvent creates the event carrying a signal.
func NewSignalEvent(signal types.Signal) Event {
	return Event{
		ID:     uuid.New(),
		Type:   TypeSignal,
		Time:   signal.Time,
		Symbol: signal.Symbol,
		Bar:    optional.None[types.MarketData](),
		Signal: optional.Some(signal),
	}
}

// Sink accepts events in publish order.
type Sink interface {
	// Publish appends events to the stream, preserving their order.
	Publish(events ...Event) error
}
