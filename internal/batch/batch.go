package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apex/log"
)

// Processor decodes one input file and reports what it produced.
type Processor func(ctx context.Context, path string) Result

// Config holds the settings for one batch run.
type Config struct {
	Workers  int
	Logger   log.Interface // progress lines, log.Log when nil
	Interval time.Duration // progress period, 2s when zero
}

// Result holds the outcome of processing one file.
type Result struct {
	Path     string `json:"path"`
	Kind     string `json:"kind,omitempty"`
	Outputs  int    `json:"outputs"`
	Warnings int    `json:"warnings"`
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
}

// Run processes all paths using a worker pool. Results keep the order of
// paths. A failing file never stops the others; cancelling ctx skips files
// not yet started.
func Run(ctx context.Context, cfg Config, paths []string, fn Processor) []Result {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Log
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64
	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p := processed.Load(); p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					logger.WithFields(log.Fields{
						"done":  p,
						"total": total,
						"rate":  rate,
					}).Info("batch progress")
				}
			}
		}
	}()

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Path: paths[idx], Err: err}
				} else {
					results[idx] = safeProcess(ctx, fn, paths[idx])
				}
				if results[idx].Err != nil {
					results[idx].Error = results[idx].Err.Error()
				}
				processed.Add(1)
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	return results
}

// safeProcess runs fn and turns a panic into the file's error.
func safeProcess(ctx context.Context, fn Processor, path string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Path: path, Err: fmt.Errorf("panic while processing %s: %v", path, r)}
		}
	}()
	res = fn(ctx, path)
	res.Path = path
	return res
}

// Failed counts results with an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
