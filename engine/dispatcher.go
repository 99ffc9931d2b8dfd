package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher coordinates multi-engine racing with staged escalation.
// It starts the fastest engine first and progressively escalates to heavier
// engines if earlier ones fail, time out, or return a page the accept
// function rejects.
type Dispatcher struct {
	engines          []Engine
	escalationDelays []time.Duration
	memory           *Memory
	accept           AcceptFunc
}

// NewDispatcher creates a Dispatcher with the given engines and escalation delays.
// engines[i] starts after escalationDelays[i] from the race beginning; missing
// delays are 0. accept may be nil, in which case every fetched page is used.
func NewDispatcher(engines []Engine, escalationDelays []time.Duration, memory *Memory, accept AcceptFunc) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, escalationDelays)
	return &Dispatcher{
		engines:          engines,
		escalationDelays: delays,
		memory:           memory,
		accept:           accept,
	}
}

// Engine returns the engine registered under name, or nil.
func (d *Dispatcher) Engine(name string) Engine {
	for _, e := range d.engines {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// Dispatch returns the first accepted result. When no engine produces an
// accepted page but some engine fetched one, the result of the heaviest
// such engine is returned: a search with no matches is a valid outcome.
// If every engine errored, the last error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if req.Only != "" {
		eng := d.Engine(req.Only)
		if eng == nil {
			return nil, fmt.Errorf("dispatcher: engine %q not registered", req.Only)
		}
		result, err := eng.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		if rejErr := d.check(result); rejErr != nil {
			slog.Debug("single engine result rejected", "engine", eng.Name(), "reason", rejErr)
		}
		return result, nil
	}

	if d.memory != nil {
		if remembered := d.memory.Get(req.URL); remembered != "" {
			if eng := d.Engine(remembered); eng != nil {
				slog.Debug("engine memory hit", "url", req.URL, "engine", remembered)
				result, err := eng.Fetch(ctx, req)
				if err == nil {
					err = d.check(result)
				}
				if err == nil {
					return result, nil
				}
				slog.Info("remembered engine failed, running full race",
					"url", req.URL, "engine", remembered, "error", err)
				d.memory.Forget(req.URL)
			}
		}
	}

	return d.race(ctx, req)
}

func (d *Dispatcher) check(result *FetchResult) error {
	if d.accept == nil {
		return nil
	}
	return d.accept(result)
}

// race runs all engines with staged delays and returns the first accepted result.
func (d *Dispatcher) race(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	type raceResult struct {
		index  int
		result *FetchResult
		err    error
	}

	raceCtx, raceCancel := context.WithCancel(ctx)
	defer raceCancel()

	results := make(chan raceResult, len(d.engines))
	var wg sync.WaitGroup

	for i, eng := range d.engines {
		wg.Add(1)
		go func(i int, e Engine, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-raceCtx.Done():
					return
				case <-timer.C:
				}
			}

			// Another engine may have won while we waited.
			if raceCtx.Err() != nil {
				return
			}

			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			result, err := e.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
			}
			results <- raceResult{index: i, result: result, err: err}
		}(i, eng, d.escalationDelays[i])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		lastErr     error
		fallback    *FetchResult
		fallbackIdx = -1
	)
	for rr := range results {
		if rr.err != nil {
			lastErr = rr.err
			continue
		}
		if rejErr := d.check(rr.result); rejErr != nil {
			slog.Debug("engine result rejected", "engine", rr.result.EngineName, "reason", rejErr)
			if rr.index > fallbackIdx {
				fallback, fallbackIdx = rr.result, rr.index
			}
			continue
		}
		raceCancel()
		slog.Info("engine won race", "engine", rr.result.EngineName, "url", req.URL)
		if d.memory != nil {
			d.memory.Set(req.URL, rr.result.EngineName)
		}
		return rr.result, nil
	}

	if fallback != nil {
		slog.Info("no engine produced listing cards, using last fetched page",
			"engine", fallback.EngineName, "url", req.URL)
		return fallback, nil
	}
	if lastErr == nil && ctx.Err() != nil {
		lastErr = ctx.Err()
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
	}
	return nil, lastErr
}
