// Package loadtest drives concurrent requests against a running instance to
// check that probes behave under parallel load.
package loadtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sourcegraph/conc/pool"

	"secdash/pkg/log"
	"secdash/pkg/models"
)

// Endpoint names used in the summary.
const (
	EndpointHealth   = "health"
	EndpointSecurity = "crowdsec-metrics"
	EndpointSystem   = "system-metrics"
)

// ErrUnhealthy is returned when the health endpoint reports another status.
var ErrUnhealthy = errors.New("instance is not healthy")

// API is the subset of the client used by the tester.
type API interface {
	Health(ctx context.Context) (*models.HealthStatus, error)
	SecurityMetrics(ctx context.Context) ([]models.SecurityDecision, error)
	SystemMetrics(ctx context.Context) (*models.SystemSnapshot, error)
}

// Options selects the shape of a run.
type Options struct {
	// Passes is how many sequential passes over all endpoints to make.
	Passes int
	// Parallel is how many concurrent requests per endpoint in the parallel step.
	Parallel int
	// Summary prints the per-step breakdown when set.
	Summary bool
}

// Tester runs the load test steps.
type Tester struct {
	api     API
	opts    Options
	metrics *recorder
}

// New creates a Tester. Non-positive counts default to one.
func New(api API, opts Options) *Tester {
	opts.Passes = max(opts.Passes, 1)
	opts.Parallel = max(opts.Parallel, 1)
	return &Tester{api: api, opts: opts, metrics: newRecorder()}
}

type testStep struct {
	name string
	fn   func(context.Context) error
}

// Run executes every step, prints the summary to out and returns the first
// step error.
func (t *Tester) Run(ctx context.Context, out io.Writer) (Summary, error) {
	steps := []testStep{
		{name: "Health check", fn: t.checkHealth},
		{name: fmt.Sprintf("Sequential passes (%d)", t.opts.Passes), fn: t.sequentialPasses},
		{name: fmt.Sprintf("Parallel requests (%d per endpoint)", t.opts.Parallel), fn: t.parallelRequests},
	}

	var firstErr error
	for _, step := range steps {
		fmt.Fprintf(out, "==> %s\n", step.name)
		t.metrics.startStep(step.name)
		err := step.fn(ctx)
		t.metrics.endStep(err)

		if err != nil {
			fmt.Fprintf(out, "    failed: %v\n", err)
			log.Debug().Err(err).Str("step", step.name).Msg("Load test step failed")
			if firstErr == nil {
				firstErr = err
			}
			// Nothing else is meaningful against an unreachable instance.
			if step.name == steps[0].name {
				break
			}
		}
	}

	if t.opts.Summary {
		t.metrics.printSummary(out)
	}

	return t.metrics.summary(), firstErr
}

func (t *Tester) checkHealth(ctx context.Context) error {
	return t.timed(EndpointHealth, func() error {
		status, err := t.api.Health(ctx)
		if err != nil {
			return err
		}
		if status.Status != models.StatusHealthy {
			return fmt.Errorf("%w: %q", ErrUnhealthy, status.Status)
		}
		return nil
	})
}

func (t *Tester) sequentialPasses(ctx context.Context) error {
	for range t.opts.Passes {
		if err := t.pass(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tester) parallelRequests(ctx context.Context) error {
	p := pool.New().WithErrors().WithMaxGoroutines(t.opts.Parallel * 2)
	for range t.opts.Parallel {
		p.Go(func() error { return t.fetchSecurity(ctx) })
		p.Go(func() error { return t.fetchSystem(ctx) })
	}
	return p.Wait()
}

func (t *Tester) pass(ctx context.Context) error {
	if err := t.fetchSecurity(ctx); err != nil {
		return err
	}
	return t.fetchSystem(ctx)
}

func (t *Tester) fetchSecurity(ctx context.Context) error {
	return t.timed(EndpointSecurity, func() error {
		_, err := t.api.SecurityMetrics(ctx)
		return err
	})
}

func (t *Tester) fetchSystem(ctx context.Context) error {
	return t.timed(EndpointSystem, func() error {
		_, err := t.api.SystemMetrics(ctx)
		return err
	})
}

func (t *Tester) timed(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	t.metrics.record(name, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
