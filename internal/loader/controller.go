package loader

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/IshaanNene/feedpulse/internal/observability"
	"github.com/IshaanNene/feedpulse/internal/types"
)

// Surface is the external, growing content surface (a scrolling page).
// Implementations are stateful and not safe for concurrent use.
type Surface interface {
	// Grow triggers loading of more content, e.g. a scroll to the bottom.
	Grow(ctx context.Context) error

	// Extent measures the monotonic growth signal, e.g. the scroll height.
	Extent(ctx context.Context) (int, error)

	// Source returns the current markup of the surface.
	Source(ctx context.Context) (string, error)
}

// Locator splits markup into post fragments.
type Locator interface {
	Locate(markup string) ([]types.Fragment, error)
}

// StopReason records why the growth loop ended.
type StopReason string

const (
	// StopStable: the growth signal did not change after a growth action.
	StopStable StopReason = "stable"
	// StopExhausted: the iteration budget ran out while still growing.
	StopExhausted StopReason = "exhausted"
	// StopSurfaceError: the surface could not be grown or measured.
	// Treated as stable; whatever was loaded is collected.
	StopSurfaceError StopReason = "surface_error"
)

// Options bounds the growth loop.
type Options struct {
	MaxIterations int
	DelayMin      time.Duration
	DelayMax      time.Duration
}

// Result is the outcome of one load.
type Result struct {
	Fragments   []types.Fragment
	Iterations  int
	Reason      StopReason
	FinalExtent int

	// Source is the markup the fragments were located in.
	Source string
}

// Controller drives a Surface until it stops growing or the budget is spent.
type Controller struct {
	surface  Surface
	locator  Locator
	opts     Options
	observer observability.Observer
	sleep    func(context.Context, time.Duration) error
	random   func() float64
	logger   *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver sets the event observer.
func WithObserver(o observability.Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithSleep replaces the blocking wait between growth actions.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Controller) { c.sleep = sleep }
}

// WithRandom replaces the source of uniform values in [0, 1).
func WithRandom(random func() float64) Option {
	return func(c *Controller) { c.random = random }
}

// NewController creates a load controller.
func NewController(surface Surface, locator Locator, opts Options, logger *slog.Logger, options ...Option) *Controller {
	if opts.MaxIterations < 0 {
		opts.MaxIterations = 0
	}
	if opts.DelayMax < opts.DelayMin {
		opts.DelayMax = opts.DelayMin
	}

	c := &Controller{
		surface:  surface,
		locator:  locator,
		opts:     opts,
		observer: observability.Nop{},
		sleep:    Sleep,
		random:   rand.Float64,
		logger:   logger.With("component", "load_controller"),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Load grows the surface and returns the collected fragments.
//
// Growth and measurement failures end the loop and are never returned.
// A *types.SessionError while collecting is returned, as is ctx.Err()
// when the context is cancelled.
func (c *Controller) Load(ctx context.Context) (*Result, error) {
	res := &Result{}

	last, err := c.surface.Extent(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.surfaceFailed("measure", err)
		res.Reason = StopSurfaceError
	} else {
		res.FinalExtent = last
		if err := c.grow(ctx, res, last); err != nil {
			return nil, err
		}
	}

	c.logger.Info("load finished",
		"iterations", res.Iterations,
		"reason", res.Reason,
		"extent", res.FinalExtent,
	)
	c.observer.LoadFinished(res.Iterations, string(res.Reason))

	if err := c.collect(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// grow runs the Growing state until Stable or Exhausted.
func (c *Controller) grow(ctx context.Context, res *Result, last int) error {
	for res.Iterations < c.opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.surface.Grow(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.surfaceFailed("grow", err)
			res.Reason = StopSurfaceError
			return nil
		}

		if err := c.sleep(ctx, c.delay()); err != nil {
			return err
		}
		res.Iterations++

		current, err := c.surface.Extent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.surfaceFailed("measure", err)
			res.Reason = StopSurfaceError
			return nil
		}

		c.logger.Debug("grew surface", "iteration", res.Iterations, "extent", current)
		if current == last {
			res.Reason = StopStable
			return nil
		}
		last = current
		res.FinalExtent = current
	}

	res.Reason = StopExhausted
	return nil
}

// collect fetches the markup and locates fragments. Transient failures
// yield an empty collection.
func (c *Controller) collect(ctx context.Context, res *Result) error {
	markup, err := c.surface.Source(ctx)
	if err != nil {
		if types.IsSessionError(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.surfaceFailed("collect", err)
		return nil
	}
	res.Source = markup

	fragments, err := c.locator.Locate(markup)
	if err != nil {
		c.logger.Warn("locating fragments failed", "error", err)
		return nil
	}
	res.Fragments = fragments
	for range fragments {
		c.observer.FragmentSeen()
	}

	c.logger.Info("fragments collected", "count", len(fragments))
	return nil
}

// delay draws a wait uniformly from [DelayMin, DelayMax].
func (c *Controller) delay() time.Duration {
	span := c.opts.DelayMax - c.opts.DelayMin
	if span <= 0 {
		return c.opts.DelayMin
	}
	return c.opts.DelayMin + time.Duration(c.random()*float64(span))
}

func (c *Controller) surfaceFailed(op string, err error) {
	c.logger.Warn("surface error, treating as stable", "error", &types.SurfaceError{Op: op, Err: err})
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
