package sim

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
)

// SweepResult is the outcome of one run in a batch.
type SweepResult struct {
	Seed    int64   `json:"seed"`
	Outcome Outcome `json:"outcome"`
	Err     error   `json:"-"`
}

// Sweep runs base once per seed on a pool of workers. Each run owns its RNG,
// so results match sequential runs with the same seeds. Results come back in
// seed order. Workers <= 0 uses one per CPU.
func Sweep(ctx context.Context, base Config, seeds []int64, workers int, log *slog.Logger) []SweepResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	type job struct {
		idx  int
		seed int64
	}
	jobs := make(chan job)
	results := make([]SweepResult, len(seeds))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = runOne(ctx, base, j.seed, log)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, seed := range seeds {
			select {
			case jobs <- job{idx: i, seed: seed}:
			case <-ctx.Done():
				for ; i < len(seeds); i++ {
					results[i] = SweepResult{Seed: seeds[i], Outcome: Outcome{Seed: seeds[i], Reason: ReasonCancelled}, Err: ctx.Err()}
				}
				return
			}
		}
	}()

	wg.Wait()
	return results
}

func runOne(ctx context.Context, base Config, seed int64, log *slog.Logger) SweepResult {
	cfg := base
	cfg.Seed = seed
	var opts []Option
	if log != nil {
		opts = append(opts, WithLogger(log.With("seed", seed)))
	}
	s, err := New(cfg, opts...)
	if err != nil {
		return SweepResult{Seed: seed, Outcome: Outcome{Seed: seed, Reason: ReasonError, Error: err.Error()}, Err: err}
	}
	out, err := s.RunToCompletion(ctx)
	return SweepResult{Seed: seed, Outcome: out, Err: err}
}
