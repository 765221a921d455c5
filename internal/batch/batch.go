// Package batch analyzes many graphs concurrently on a bounded pool.
package batch

import (
	"context"
	"log/slog"

	"github.com/rendis/flowkit/internal/validation"
	"github.com/rendis/flowkit/pkg/schema"
)

// Job names one graph and how to obtain it. Load runs on a pool worker.
type Job struct {
	Name string
	Load func() (schema.Graph, error)
}

// Result is the outcome of one Job. Exactly one of Report and Err is set.
type Result struct {
	Name   string                   `json:"name"`
	Report *schema.ValidationReport `json:"report,omitempty"`
	Err    error                    `json:"-"`
	Error  string                   `json:"error,omitempty"`
}

// Summary is what Validate returns: per-job results in job order plus
// pool counters.
type Summary struct {
	Results []Result    `json:"results"`
	Metrics PoolMetrics `json:"metrics"`
}

// Valid reports whether every job loaded and produced a report without errors.
func (s Summary) Valid() bool {
	for _, r := range s.Results {
		if r.Err != nil || !r.Report.Valid() {
			return false
		}
	}
	return true
}

// Validate loads and validates every job with at most concurrency workers.
// Jobs still queued when ctx ends get ctx.Err() as their error.
func Validate(ctx context.Context, pipeline *validation.Pipeline, jobs []Job, concurrency int, logger *slog.Logger) Summary {
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]Result, len(jobs))
	pool := NewPool(concurrency)

	for i, job := range jobs {
		results[i].Name = job.Name
		fail := func(err error) {
			results[i].Err = err
			results[i].Error = err.Error()
		}

		if err := ctx.Err(); err != nil {
			fail(err)
			continue
		}

		err := pool.Submit(ctx, func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				fail(err)
				return err
			}
			g, err := job.Load()
			if err != nil {
				fail(err)
				return err
			}
			report, err := pipeline.ValidateGraph(ctx, g)
			if err != nil {
				fail(err)
				return err
			}
			results[i].Report = report
			logger.DebugContext(ctx, "graph validated", "name", job.Name, "issues", len(report.Issues))
			return nil
		}, fail)
		if err != nil {
			fail(err)
		}
	}

	pool.Shutdown()
	return Summary{Results: results, Metrics: pool.Metrics()}
}
