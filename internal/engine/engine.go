// Package engine runs a configured set of strategies over historical bars and records the
// signals they emit.
package engine

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/config"
	"github.com/rxtech-lab/argo-signal/internal/datasource"
	"github.com/rxtech-lab/argo-signal/internal/dispatch"
	"github.com/rxtech-lab/argo-signal/internal/event"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/recorder"
	"github.com/rxtech-lab/argo-signal/internal/strategy"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// OnProgress is called after every replayed bar.
type OnProgress func(processed int, total int)

// Summary describes a finished run.
type Summary struct {
	Bars        int
	Signals     int
	Instances   int
	Symbols     []string
	ResultsPath string
	Duration    time.Duration
}

// SignalEngine binds strategies to symbols, replays the configured data through them once and
// exports the recorded signals.
type SignalEngine struct {
	config   *config.RunConfig
	registry *strategy.Registry
	log      *logger.Logger
}

// NewSignalEngine creates an engine for cfg. Strategies are looked up in registry.
func NewSignalEngine(cfg *config.RunConfig, registry *strategy.Registry, log *logger.Logger) (*SignalEngine, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeRunInitFailed, "run config cannot be nil")
	}

	if registry == nil {
		return nil, errors.New(errors.ErrCodeRunInitFailed, "strategy registry cannot be nil")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SignalEngine{
		config:   cfg,
		registry: registry,
		log:      log,
	}, nil
}

// Run executes the configured run. Setup defects abort the run before the first bar.
func (e *SignalEngine) Run(ctx context.Context, onProgress optional.Option[OnProgress]) (Summary, error) {
	startedAt := time.Now()

	if err := e.preRunCheck(); err != nil {
		return Summary{}, err
	}

	start, end := e.config.Data.Start(), e.config.Data.End()

	source, err := datasource.NewDataSource(":memory:", e.log)
	if err != nil {
		return Summary{}, err
	}
	defer source.Close()

	if err := source.Initialize(e.config.Data.Paths...); err != nil {
		e.log.Error("Failed to load market data", zap.Strings("paths", e.config.Data.Paths), zap.Error(err))

		return Summary{}, err
	}

	bars := datasource.NewInMemoryIndexedDataSource(source)
	if err := bars.Preload(start, end); err != nil {
		return Summary{}, err
	}

	queue := event.NewQueue()
	defer queue.Close()

	dispatcher := dispatch.NewDispatcher(queue, e.log)
	defer dispatcher.Close()

	if err := e.bind(dispatcher, bars); err != nil {
		return Summary{}, err
	}

	signals, err := recorder.NewSignalRecorder(e.log)
	if err != nil {
		return Summary{}, err
	}
	defer signals.Close()

	total, err := bars.Count(start, end)
	if err != nil {
		return Summary{}, err
	}

	e.log.Info("Starting run",
		zap.Int("bars", total),
		zap.Int("instances", dispatcher.Stats().Instances),
		zap.Strings("symbols", dispatcher.Symbols()),
	)

	replayCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var recordErr error

	err = dispatcher.Replay(replayCtx, bars.ReadAll(start, end), func(processed int, _ types.MarketData) {
		if err := signals.Record(queue.Drain()...); err != nil {
			recordErr = err
			cancel()

			return
		}

		if onProgress.IsSome() {
			onProgress.Unwrap()(processed, total)
		}
	})
	if recordErr != nil {
		return Summary{}, recordErr
	}

	if err != nil {
		e.log.Error("Run failed", zap.Error(err))

		return Summary{}, err
	}

	if err := signals.Record(queue.Drain()...); err != nil {
		return Summary{}, err
	}

	if err := signals.Export(e.config.Results.Path); err != nil {
		return Summary{}, err
	}

	stats := dispatcher.Stats()
	summary := Summary{
		Bars:        stats.Bars,
		Signals:     stats.Signals,
		Instances:   stats.Instances,
		Symbols:     dispatcher.Symbols(),
		ResultsPath: e.config.Results.Path,
		Duration:    time.Since(startedAt),
	}

	e.log.Info("Run finished",
		zap.Int("bars", summary.Bars),
		zap.Int("signals", summary.Signals),
		zap.String("results", summary.ResultsPath),
		zap.Duration("duration", summary.Duration),
	)

	return summary, nil
}

// bind creates one instance per configured (strategy, symbol) pair, in config order.
func (e *SignalEngine) bind(dispatcher *dispatch.Dispatcher, bars datasource.BarReader) error {
	for _, sc := range e.config.Strategies {
		encoded, err := sc.EncodedConfig()
		if err != nil {
			return errors.NewBindingError(sc.Name, "", err)
		}

		for _, symbol := range sc.Symbols {
			instance, err := e.registry.New(sc.Name, symbol, bars, encoded)
			if err != nil {
				e.log.Error("Failed to bind strategy",
					zap.String("strategy", sc.Name),
					zap.String("symbol", symbol),
					zap.Error(err),
				)

				return errors.NewBindingError(sc.Name, symbol, err)
			}

			if err := dispatcher.Add(instance); err != nil {
				return errors.NewBindingError(sc.Name, symbol, err)
			}

			e.log.Debug("Bound strategy", zap.String("strategy", sc.Name), zap.String("symbol", symbol))
		}
	}

	return nil
}

func (e *SignalEngine) preRunCheck() error {
	if len(e.config.Strategies) == 0 {
		e.log.Error("No strategies configured")

		return errors.New(errors.ErrCodeRunNoStrategies, "no strategies configured")
	}

	if len(e.config.Data.Paths) == 0 {
		e.log.Error("No data paths configured")

		return errors.New(errors.ErrCodeRunInitFailed, "no data paths configured")
	}

	if e.config.Results.Path == "" {
		e.log.Error("No results path configured")

		return errors.New(errors.ErrCodeRunInitFailed, "no results path configured")
	}

	return nil
}
