package writer

import (
	"math"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// GapFillWriter repairs bars with missing values before passing them to the wrapped writer.
// A price is missing when it is not a finite positive number and a volume is missing when it
// is not a finite non negative number. Missing values are filled with the last valid value of
// the same field seen before the bar. A field that has no earlier value is filled with its first
// later valid value; bars waiting on such a field are held back and written in order once
// every field they lack has been seen.
type GapFillWriter struct {
	inner   MarketDataWriter
	last    map[string]*fieldValues
	pending map[string][]heldBar
}

type fieldValues struct {
	values [5]float64
	known  [5]bool
}

// heldBar is a bar already filled from the values known when it arrived, with the fields that
// were still unknown at that point.
type heldBar struct {
	bar     types.MarketData
	missing [5]bool
}

// NewGapFillWriter wraps inner with gap filling.
func NewGapFillWriter(inner MarketDataWriter) *GapFillWriter {
	return &GapFillWriter{
		inner:   inner,
		last:    make(map[string]*fieldValues),
		pending: make(map[string][]heldBar),
	}
}

func (w *GapFillWriter) Initialize() error {
	w.last = make(map[string]*fieldValues)
	w.pending = make(map[string][]heldBar)

	return w.inner.Initialize()
}

func (w *GapFillWriter) Write(data types.MarketData) error {
	state, ok := w.last[data.Symbol]
	if !ok {
		state = &fieldValues{}
		w.last[data.Symbol] = state
	}

	held := w.pending[data.Symbol]
	fields := barFields(data)

	var missing [5]bool

	for i, v := range fields {
		switch {
		case validField(i, v):
			if !state.known[i] {
				backFill(held, i, v)
			}

			state.values[i] = v
			state.known[i] = true
		case state.known[i]:
			fields[i] = state.values[i]
		default:
			missing[i] = true
		}
	}

	held = append(held, heldBar{bar: withFields(data, fields), missing: missing})

	for len(held) > 0 && !held[0].waiting() {
		if err := w.inner.Write(held[0].bar); err != nil {
			return err
		}

		held = held[1:]
	}

	if len(held) == 0 {
		delete(w.pending, data.Symbol)
	} else {
		w.pending[data.Symbol] = held
	}

	return nil
}

// Finalize fails when a symbol never produced a value for one of its fields.
func (w *GapFillWriter) Finalize() (string, error) {
	for symbol, held := range w.pending {
		if len(held) > 0 {
			return "", errors.Newf(errors.ErrCodeMarketDataWriteFailed,
				"cannot fill %d bars of %s: no valid values were downloaded", len(held), symbol)
		}
	}

	return w.inner.Finalize()
}

func (w *GapFillWriter) Close() error {
	return w.inner.Close()
}

func (w *GapFillWriter) GetOutputPath() string {
	return w.inner.GetOutputPath()
}

func (h heldBar) waiting() bool {
	for _, m := range h.missing {
		if m {
			return true
		}
	}

	return false
}

// backFill sets field i of every held bar still missing it to v.
func backFill(held []heldBar, i int, v float64) {
	for j := range held {
		if !held[j].missing[i] {
			continue
		}

		fields := barFields(held[j].bar)
		fields[i] = v
		held[j].bar = withFields(held[j].bar, fields)
		held[j].missing[i] = false
	}
}

func barFields(d types.MarketData) [5]float64 {
	return [5]float64{d.Open, d.High, d.Low, d.Close, d.Volume}
}

// validField treats index 4 as volume.
func validField(i int, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}

	if i == 4 {
		return v >= 0
	}

	return v > 0
}

func withFields(d types.MarketData, fields [5]float64) types.MarketData {
	d.Open, d.High, d.Low, d.Close, d.Volume = fields[0], fields[1], fields[2], fields[3], fields[4]

	return d
}
