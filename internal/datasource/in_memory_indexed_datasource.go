package datasource

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// InMemoryIndexedDataSource preloads all bars into memory and serves strategies through a
// per-symbol cursor. The cursor is the latest bar released to readers: reads through the
// BarReader methods never see a bar after it, which is what keeps strategies free of
// look-ahead bias. Only the owner of the data source moves the cursor.
type InMemoryIndexedDataSource struct {
	underlying DataSource

	// data[symbol][barIndex] = MarketData, chronological
	data map[string][]types.MarketData

	// timeIndex[symbol][unixNano] = barIndex
	timeIndex map[string]map[int64]int

	// All bars ordered by (time, symbol) for ReadAll iteration
	allData []types.MarketData

	// cursor[symbol] = index of the latest released bar; absent until the first bar is released
	cursor map[string]int

	preloaded bool

	mu sync.RWMutex
}

var _ DataSource = (*InMemoryIndexedDataSource)(nil)
var _ BarReader = (*InMemoryIndexedDataSource)(nil)

// NewInMemoryIndexedDataSource creates a new InMemoryIndexedDataSource wrapping the given DataSource.
// Call Preload before using it.
func NewInMemoryIndexedDataSource(underlying DataSource) *InMemoryIndexedDataSource {
	return &InMemoryIndexedDataSource{
		underlying: underlying,
		data:       make(map[string][]types.MarketData),
		timeIndex:  make(map[string]map[int64]int),
		allData:    nil,
		cursor:     make(map[string]int),
		preloaded:  false,
		mu:         sync.RWMutex{},
	}
}

// NewInMemoryIndexedDataSourceFromBars indexes bars directly without an underlying data source.
func NewInMemoryIndexedDataSourceFromBars(bars []types.MarketData) (*InMemoryIndexedDataSource, error) {
	ds := NewInMemoryIndexedDataSource(nil)

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.index(append([]types.MarketData(nil), bars...)); err != nil {
		return nil, err
	}

	return ds, nil
}

// Preload loads all bars in [start, end] from the underlying data source.
func (ds *InMemoryIndexedDataSource) Preload(start optional.Option[time.Time], end optional.Option[time.Time]) error {
	if ds.underlying == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "no underlying data source to preload from")
	}

	var allData []types.MarketData

	for marketData, err := range ds.underlying.ReadAll(start, end) {
		if err != nil {
			return errors.Wrap(errors.ErrCodeDataNotFound, "failed to preload data", err)
		}

		allData = append(allData, marketData)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	return ds.index(allData)
}

// index must be called with the write lock held.
func (ds *InMemoryIndexedDataSource) index(allData []types.MarketData) error {
	// Stable (time, symbol) order keeps replays deterministic when symbols share a timestamp
	sort.SliceStable(allData, func(i, j int) bool {
		if allData[i].Time.Equal(allData[j].Time) {
			return allData[i].Symbol < allData[j].Symbol
		}

		return allData[i].Time.Before(allData[j].Time)
	})

	data := make(map[string][]types.MarketData)
	timeIndex := make(map[string]map[int64]int)

	for _, md := range allData {
		if md.Symbol == "" {
			return errors.Newf(errors.ErrCodeInvalidParameter, "bar at %s has no symbol", md.Time)
		}

		for _, v := range []float64{md.Open, md.High, md.Low, md.Close, md.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Newf(errors.ErrCodeInvalidParameter, "bar for %s at %s has non-finite value %v", md.Symbol, md.Time, v)
			}
		}

		if _, ok := timeIndex[md.Symbol]; !ok {
			timeIndex[md.Symbol] = make(map[int64]int)
		}

		key := md.Time.UnixNano()
		if _, dup := timeIndex[md.Symbol][key]; dup {
			return errors.Newf(errors.ErrCodeInvalidParameter, "duplicate bar for %s at %s", md.Symbol, md.Time)
		}

		timeIndex[md.Symbol][key] = len(data[md.Symbol])
		data[md.Symbol] = append(data[md.Symbol], md)
	}

	ds.allData = allData
	ds.data = data
	ds.timeIndex = timeIndex
	ds.cursor = make(map[string]int)
	ds.preloaded = true

	return nil
}

// IsPreloaded returns true if data has been preloaded into memory.
func (ds *InMemoryIndexedDataSource) IsPreloaded() bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return ds.preloaded
}

// Advance releases the bar of symbol at t to readers. The cursor never moves backwards;
// use Reset to replay from the start.
func (ds *InMemoryIndexedDataSource) Advance(symbol string, t time.Time) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	return ds.advanceLocked(symbol, t)
}

func (ds *InMemoryIndexedDataSource) advanceLocked(symbol string, t time.Time) error {
	idx, ok := ds.timeIndex[symbol][t.UnixNano()]
	if !ok {
		return errors.Newf(errors.ErrCodeDataNotFound, "no bar for %s at %s", symbol, t)
	}

	if current, ok := ds.cursor[symbol]; ok && idx < current {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"cursor for %s cannot move back from %s to %s", symbol, ds.data[symbol][current].Time, t)
	}

	ds.cursor[symbol] = idx

	return nil
}

// Reset hides every bar again.
func (ds *InMemoryIndexedDataSource) Reset() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.cursor = make(map[string]int)
}

// TotalBars returns the total number of bars loaded for a symbol.
func (ds *InMemoryIndexedDataSource) TotalBars(symbol string) int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return len(ds.data[symbol])
}

// ========================================
// BarReader implementation
// ========================================

// HasSymbol implements BarReader.
func (ds *InMemoryIndexedDataSource) HasSymbol(symbol string) bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return len(ds.data[symbol]) > 0
}

// LatestBar implements BarReader.
func (ds *InMemoryIndexedDataSource) LatestBar(symbol string) (types.MarketData, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	symbolData, currentIdx, err := ds.released(symbol)
	if err != nil {
		return types.MarketData{}, err
	}

	return symbolData[currentIdx], nil
}

// BarAt implements BarReader. Asking for a time after the current bar is a look-ahead read and fails.
func (ds *InMemoryIndexedDataSource) BarAt(symbol string, at time.Time) (types.MarketData, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	symbolData, currentIdx, err := ds.released(symbol)
	if err != nil {
		return types.MarketData{}, err
	}

	if at.After(symbolData[currentIdx].Time) {
		return types.MarketData{}, errors.Newf(errors.ErrCodeLookAhead,
			"bar for %s at %s requested while processing %s", symbol, at, symbolData[currentIdx].Time)
	}

	visible := symbolData[:currentIdx+1]
	// first index whose time is after at
	n := sort.Search(len(visible), func(i int) bool { return visible[i].Time.After(at) })
	if n == 0 {
		return types.MarketData{}, errors.Newf(errors.ErrCodeNoDataFound, "no bar for %s at or before %s", symbol, at)
	}

	return visible[n-1], nil
}

// PreviousBars implements BarReader. The returned slice is a copy.
func (ds *InMemoryIndexedDataSource) PreviousBars(symbol string, count int) ([]types.MarketData, error) {
	if count <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "count must be positive, got %d", count)
	}

	ds.mu.RLock()
	defer ds.mu.RUnlock()

	symbolData, currentIdx, err := ds.released(symbol)
	if err != nil {
		return nil, err
	}

	startIdx := currentIdx - count + 1
	if startIdx < 0 {
		return nil, errors.NewInsufficientDataErrorf(count, currentIdx+1, symbol,
			"insufficient data points for symbol %s: requested %d, got %d", symbol, count, currentIdx+1)
	}

	result := make([]types.MarketData, count)
	copy(result, symbolData[startIdx:currentIdx+1])

	return result, nil
}

// released must be called with the read lock held.
func (ds *InMemoryIndexedDataSource) released(symbol string) ([]types.MarketData, int, error) {
	if !ds.preloaded {
		return nil, 0, errors.New(errors.ErrCodeDataNotFound, "data not preloaded, call Preload() first")
	}

	symbolData, ok := ds.data[symbol]
	if !ok {
		return nil, 0, errors.Newf(errors.ErrCodeDataNotFound, "no data found for symbol: %s", symbol)
	}

	currentIdx, ok := ds.cursor[symbol]
	if !ok {
		return nil, 0, errors.Newf(errors.ErrCodeNoDataFound, "no bar released yet for symbol: %s", symbol)
	}

	return symbolData, currentIdx, nil
}

// ========================================
// DataSource implementation
// ========================================

// Initialize implements DataSource.
func (ds *InMemoryIndexedDataSource) Initialize(paths ...string) error {
	if ds.underlying == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "no underlying data source to initialize")
	}

	return ds.underlying.Initialize(paths...)
}

// ReadAll implements DataSource. When preloaded, the cursors are reset and the cursor of each
// bar's symbol is advanced to the bar before it is yielded.
func (ds *InMemoryIndexedDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool) {
	return func(yield func(types.MarketData, error) bool) {
		ds.mu.RLock()
		preloaded := ds.preloaded
		allData := ds.allData
		ds.mu.RUnlock()

		if !preloaded {
			if ds.underlying == nil {
				yield(types.MarketData{}, errors.New(errors.ErrCodeDataNotFound, "data not preloaded, call Preload() first"))

				return
			}

			for md, err := range ds.underlying.ReadAll(start, end) {
				if !yield(md, err) {
					return
				}
			}

			return
		}

		// every ReadAll is a replay from the first bar
		ds.Reset()

		for _, md := range allData {
			if !inRange(md.Time, start, end) {
				continue
			}

			ds.mu.Lock()
			err := ds.advanceLocked(md.Symbol, md.Time)
			ds.mu.Unlock()

			if err != nil {
				yield(types.MarketData{}, err)

				return
			}

			if !yield(md, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (ds *InMemoryIndexedDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if !ds.preloaded {
		if ds.underlying == nil {
			return 0, errors.New(errors.ErrCodeDataNotFound, "data not preloaded, call Preload() first")
		}

		return ds.underlying.Count(start, end)
	}

	count := 0

	for _, md := range ds.allData {
		if inRange(md.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// Symbols implements DataSource.
func (ds *InMemoryIndexedDataSource) Symbols() ([]string, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if !ds.preloaded {
		if ds.underlying == nil {
			return nil, errors.New(errors.ErrCodeDataNotFound, "data not preloaded, call Preload() first")
		}

		return ds.underlying.Symbols()
	}

	symbols := make([]string, 0, len(ds.data))
	for symbol := range ds.data {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols, nil
}

// Close implements DataSource.
func (ds *InMemoryIndexedDataSource) Close() error {
	if ds.underlying == nil {
		return nil
	}

	return ds.underlying.Close()
}

func inRange(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}
