// Package engine composes the layout, traversal and slicing packages with
// caching, request coalescing and cancellation. The CLI, the terminal
// explorer and the HTTP API all go through a [Runner].
//
// # Slots
//
// A slot names a place where a layout is shown, such as one browser tab or
// the explorer window. Starting a layout in a slot cancels the layout still
// running there, which then returns [ErrSuperseded]:
//
//	res, err := runner.Layout(ctx, "tab-1", g, layout.StrategyForce, cfg)
//	if errors.Is(err, engine.ErrSuperseded) {
//	    return // a newer layout owns the slot
//	}
//
// An empty slot disables superseding.
//
// # Coalescing
//
// Identical layout requests running at the same time share one computation.
// The shared computation is cancelled only once every caller waiting on it
// has given up.
package engine

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/pipegraph/pkg/cache"
	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/layout"
	"github.com/matzehuels/pipegraph/pkg/observability"
)

// ErrSuperseded is returned by a layout that was replaced by a newer
// request for the same slot.
var ErrSuperseded = stderrors.New("layout superseded by a newer request")

// Runner runs engine operations with caching.
//
// A Runner is safe for concurrent use. It holds no results besides what the
// cache stores.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// TTL is the lifetime of cached layouts and renders.
	TTL time.Duration

	group singleflight.Group

	mu      sync.Mutex
	gen     uint64
	slots   map[string]*slotState
	flights map[string]*flight
}

type slotState struct {
	gen    uint64
	cancel context.CancelCauseFunc
}

// flight is a shared computation and the number of callers waiting on it.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		TTL:     cache.TTLLayout,
		slots:   make(map[string]*slotState),
		flights: make(map[string]*flight),
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// =============================================================================
// Layout
// =============================================================================

// Layout is like [Runner.LayoutWithCacheInfo] without the cache hit flag.
func (r *Runner) Layout(ctx context.Context, slot string, g graph.Graph, strategy layout.Strategy, cfg layout.Config) (layout.Result, error) {
	res, _, err := r.LayoutWithCacheInfo(ctx, slot, g, strategy, cfg)
	return res, err
}

// LayoutWithCacheInfo computes a layout of g, or loads it from the cache,
// and reports whether it came from the cache. Invalid strategies and
// configs fail before any work starts.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, slot string, g graph.Graph, strategy layout.Strategy, cfg layout.Config) (layout.Result, bool, error) {
	if err := layout.ValidateStrategy(strategy); err != nil {
		return layout.Result{}, false, err
	}
	if err := cfg.Validate(); err != nil {
		return layout.Result{}, false, err
	}

	if slot != "" {
		var gen uint64
		ctx, gen = r.begin(ctx, slot)
		defer r.end(slot, gen)
	}

	graphHash, err := cache.GraphHash(g)
	if err != nil {
		return layout.Result{}, false, err
	}
	key := r.Keyer.LayoutKey(graphHash, cache.LayoutKeyOpts{Strategy: strategy, Config: cfg})

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var cached layout.Result
		if err := json.Unmarshal(data, &cached); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			r.Logger.Debug("layout cache hit", "strategy", strategy, "key", key)
			return cached, true, nil
		}
		// Undecodable entries are recomputed and overwritten.
	} else if err != nil {
		r.Logger.Warn("layout cache read failed", "err", err)
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	res, err := r.shared(ctx, key, func(fctx context.Context) (layout.Result, error) {
		return r.compute(fctx, key, g, strategy, cfg)
	})
	if err != nil {
		if slot != "" && stderrors.Is(context.Cause(ctx), ErrSuperseded) {
			observability.Engine().OnLayoutSuperseded(ctx, slot)
			r.Logger.Debug("layout superseded", "slot", slot, "strategy", strategy)
			return layout.Result{}, false, ErrSuperseded
		}
		return layout.Result{}, false, err
	}
	if slot != "" && stderrors.Is(context.Cause(ctx), ErrSuperseded) {
		observability.Engine().OnLayoutSuperseded(ctx, slot)
		return layout.Result{}, false, ErrSuperseded
	}
	return res, false, nil
}

// compute runs one layout and stores it in the cache.
func (r *Runner) compute(ctx context.Context, key string, g graph.Graph, strategy layout.Strategy, cfg layout.Config) (layout.Result, error) {
	observability.Engine().OnLayoutStart(ctx, string(strategy), len(g.Nodes))
	start := time.Now()
	res, err := layout.Run(ctx, g, strategy, cfg)
	elapsed := time.Since(start)
	observability.Engine().OnLayoutComplete(ctx, string(strategy), elapsed, err)
	if err != nil {
		return layout.Result{}, err
	}

	r.Logger.Info("computed layout",
		"strategy", strategy,
		"nodes", len(res.Nodes),
		"cycles", res.Cycles,
		"duration", elapsed)

	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
			r.Logger.Warn("layout cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return res, nil
}

// =============================================================================
// Slots
// =============================================================================

// begin registers a new layout for slot, cancelling the previous one.
func (r *Runner) begin(ctx context.Context, slot string) (context.Context, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.slots[slot]; ok {
		prev.cancel(ErrSuperseded)
	}
	r.gen++
	sctx, cancel := context.WithCancelCause(ctx)
	r.slots[slot] = &slotState{gen: r.gen, cancel: cancel}
	return sctx, r.gen
}

// end releases slot if the layout with generation gen still owns it.
func (r *Runner) end(slot string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.slots[slot]; ok && s.gen == gen {
		s.cancel(nil)
		delete(r.slots, slot)
	}
}

// =============================================================================
// Coalescing
// =============================================================================

// shared runs fn once for all concurrent callers with the same key. fn gets
// a context that is cancelled when the last waiting caller leaves.
func (r *Runner) shared(ctx context.Context, key string, fn func(context.Context) (layout.Result, error)) (layout.Result, error) {
	// A caller that joins a flight just as its last waiter leaves may see the
	// flight's cancellation without being cancelled itself; it tries again.
	for attempt := 0; ; attempt++ {
		f := r.join(key)
		ch := r.group.DoChan(key, func() (any, error) {
			return fn(f.ctx)
		})

		select {
		case res := <-ch:
			r.leave(key, f)
			if res.Err != nil {
				if stderrors.Is(res.Err, context.Canceled) && ctx.Err() == nil && attempt == 0 {
					continue
				}
				return layout.Result{}, res.Err
			}
			if res.Shared {
				r.Logger.Debug("layout shared with concurrent request", "key", key)
			}
			return res.Val.(layout.Result), nil
		case <-ctx.Done():
			r.leave(key, f)
			return layout.Result{}, ctx.Err()
		}
	}
}

func (r *Runner) join(key string) *flight {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flights[key]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		f = &flight{ctx: ctx, cancel: cancel}
		r.flights[key] = f
	}
	f.waiters++
	return f
}

func (r *Runner) leave(key string, f *flight) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if r.flights[key] == f {
		delete(r.flights, key)
	}
}
