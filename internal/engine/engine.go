package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/feedpulse/internal/config"
	"github.com/IshaanNene/feedpulse/internal/fetcher"
	"github.com/IshaanNene/feedpulse/internal/loader"
	"github.com/IshaanNene/feedpulse/internal/observability"
	"github.com/IshaanNene/feedpulse/internal/parser"
	"github.com/IshaanNene/feedpulse/internal/pipeline"
	"github.com/IshaanNene/feedpulse/internal/sentiment"
	"github.com/IshaanNene/feedpulse/internal/types"
)

// State represents the engine's current lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateExtracting
	StateStoring
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateExtracting:
		return "extracting"
	case StateStoring:
		return "storing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Storage is the record sink used by the engine.
type Storage interface {
	Store(ds *types.Dataset) error
	Name() string
}

// Result is the outcome of one run.
type Result struct {
	RunID   string
	Dataset *types.Dataset
	Load    *loader.Result
	Stats   observability.Snapshot
	Elapsed time.Duration
}

// Engine wires the load controller, selector resolver, classifier and
// aggregator into a single run over one surface.
type Engine struct {
	cfg        *config.Config
	surface    loader.Surface
	locator    *parser.Locator
	resolver   *parser.Resolver
	aggregator *pipeline.Aggregator
	storage    Storage
	stats      *observability.Stats
	observer   observability.Observer
	scorer     sentiment.Scorer
	loadOpts   []loader.Option
	newRunID   func() string

	state  atomic.Int32
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStorage sets the record sink. Without one, records are only returned.
func WithStorage(s Storage) Option {
	return func(e *Engine) { e.storage = s }
}

// WithObserver adds an observer next to the built-in Stats.
func WithObserver(o observability.Observer) Option {
	return func(e *Engine) { e.observer = observability.Observers{e.stats, o} }
}

// WithScorer replaces the default lexicon scorer.
func WithScorer(s sentiment.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithLoaderOptions passes options through to the load controller.
func WithLoaderOptions(opts ...loader.Option) Option {
	return func(e *Engine) { e.loadOpts = append(e.loadOpts, opts...) }
}

// WithRunID overrides run identifier generation.
func WithRunID(gen func() string) Option {
	return func(e *Engine) { e.newRunID = gen }
}

// New builds an engine for surface from cfg. Configured selector chains
// replace the built-in ones field by field.
func New(cfg *config.Config, surface loader.Surface, logger *slog.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:      cfg,
		surface:  surface,
		stats:    observability.NewStats(logger),
		newRunID: uuid.NewString,
		logger:   logger.With("component", "engine"),
	}
	e.observer = e.stats

	for _, opt := range opts {
		opt(e)
	}

	if e.scorer == nil {
		lex, err := sentiment.NewDefaultScorer()
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		e.scorer = lex
	}

	ex := cfg.Extraction
	containers, err := parser.NewChain(ex.Containers, parser.DefaultContainerChain())
	if err != nil {
		return nil, fmt.Errorf("extraction.containers: %w", err)
	}
	author, err := parser.NewChain(ex.Author, parser.DefaultAuthorChain())
	if err != nil {
		return nil, fmt.Errorf("extraction.author: %w", err)
	}
	content, err := parser.NewChain(ex.Content, parser.DefaultContentChain())
	if err != nil {
		return nil, fmt.Errorf("extraction.content: %w", err)
	}
	timestamp, err := parser.NewChain(ex.Timestamp, parser.DefaultTimestampChain())
	if err != nil {
		return nil, fmt.Errorf("extraction.timestamp: %w", err)
	}

	e.locator = parser.NewLocator(containers, ex.UnionContainers, logger)
	e.resolver = parser.NewResolver(author, content, timestamp, logger)
	e.aggregator = pipeline.NewAggregator(
		sentiment.NewClassifier(e.scorer, logger),
		pipeline.FromConfig(cfg.Pipeline, logger),
		e.observer,
		logger,
	)
	return e, nil
}

// Run loads the surface, extracts and classifies posts and stores the records.
//
// A lost session is returned wrapped in ErrSurfaceUnavailable. A run that
// completes without records returns the result together with ErrNoRecords.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: e.newRunID()}
	defer func() {
		res.Stats = e.stats.Snapshot()
		res.Elapsed = time.Since(start)
	}()

	e.setState(StateLoading)
	delayMin, delayMax := e.cfg.Settings.DelayRange()
	ctrl := loader.NewController(e.surface, e.locator, loader.Options{
		MaxIterations: e.cfg.Settings.MaxScrolls,
		DelayMin:      delayMin,
		DelayMax:      delayMax,
	}, e.logger, append([]loader.Option{loader.WithObserver(e.observer)}, e.loadOpts...)...)

	lr, err := ctrl.Load(ctx)
	res.Load = lr
	if err != nil {
		e.setState(StateFailed)
		if types.IsSessionError(err) {
			return res, fmt.Errorf("%w: %w", types.ErrSurfaceUnavailable, err)
		}
		return res, err
	}

	if len(lr.Fragments) == 0 {
		e.dumpPage(lr.Source)
	}

	e.setState(StateExtracting)
	ds := e.aggregator.Aggregate(e.resolver.ResolveAll(lr.Fragments))
	ds.RunID = res.RunID
	res.Dataset = ds

	if ds.Len() == 0 {
		e.setState(StateDone)
		e.logger.Warn("no records produced",
			"run_id", res.RunID,
			"fragments", len(lr.Fragments),
			"stop", lr.Reason,
		)
		return res, types.ErrNoRecords
	}

	if e.storage != nil {
		e.setState(StateStoring)
		if err := e.storage.Store(ds); err != nil {
			e.setState(StateFailed)
			var se *types.StorageError
			if errors.As(err, &se) {
				return res, err
			}
			return res, &types.StorageError{Backend: e.storage.Name(), Err: err}
		}
	}

	e.setState(StateDone)
	e.logger.Info("run complete",
		"run_id", res.RunID,
		"records", ds.Len(),
		"fragments", len(lr.Fragments),
		"iterations", lr.Iterations,
		"stop", lr.Reason,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

// dumpPage saves markup for inspection when no post containers were found.
func (e *Engine) dumpPage(markup string) {
	path := e.cfg.Browser.DebugDump
	if path == "" || markup == "" {
		return
	}
	if err := fetcher.WriteSnapshot(path, markup); err != nil {
		e.logger.Warn("failed to write debug page", "path", path, "error", err)
		return
	}
	e.logger.Warn("no post containers found, page saved", "path", path)
}

// Stats returns the run counters.
func (e *Engine) Stats() *observability.Stats {
	return e.stats
}

// GetState returns the current lifecycle state.
func (e *Engine) GetState() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
	e.logger.Debug("state changed", "state", s)
}
