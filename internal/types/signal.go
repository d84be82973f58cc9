package types

import "time"

type SignalType string

const (
	// SignalTypeLong asks downstream stages to open or hold a long position
	SignalTypeLong SignalType = "long"
	// SignalTypeShort asks downstream stages to open or hold a short position
	SignalTypeShort SignalType = "short"
	// SignalTypeExit asks downstream stages to flatten the position
	SignalTypeExit SignalType = "exit"
)

// IsValid reports whether t is one of the known signal types.
func (t SignalType) IsValid() bool {
	switch t {
	case SignalTypeLong, SignalTypeShort, SignalTypeExit:
		return true
	default:
		return false
	}
}

// DefaultSignalStrength is the strength used when a strategy does not grade its signals.
const DefaultSignalStrength = 1.0

type Signal struct {
	// Time is the timestamp of the bar the signal was generated for
	Time time.Time
	// Type is the direction of the signal
	Type SignalType
	// Strength is a continuous score, 1.0 for ungraded signals
	Strength float64
	// Symbol is the symbol of the strategy instance that emitted the signal
	Symbol string
	// Name is the name of the strategy that emitted the signal
	Name string
	// Reason is a human readable explanation
	Reason string
}
