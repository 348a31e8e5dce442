package loadtest

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

const separatorLineLength = 72

// operation is one timed request.
type operation struct {
	Name     string
	Duration time.Duration
	Err      error
}

// stepMetrics holds the operations of one test step.
type stepMetrics struct {
	Name       string
	StartTime  time.Time
	Duration   time.Duration
	Operations []operation
	Err        error
}

// recorder tracks steps and operations; safe for concurrent use.
type recorder struct {
	mu          sync.Mutex
	steps       []stepMetrics
	currentStep *stepMetrics
	totals      map[string]int
	failures    int
}

func newRecorder() *recorder {
	return &recorder{totals: make(map[string]int)}
}

func (r *recorder) startStep(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentStep = &stepMetrics{Name: name, StartTime: time.Now()}
}

func (r *recorder) endStep(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentStep == nil {
		return
	}
	r.currentStep.Duration = time.Since(r.currentStep.StartTime)
	r.currentStep.Err = err
	r.steps = append(r.steps, *r.currentStep)
	r.currentStep = nil
}

func (r *recorder) record(name string, duration time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentStep != nil {
		r.currentStep.Operations = append(r.currentStep.Operations, operation{Name: name, Duration: duration, Err: err})
	}
	r.totals[name]++
	if err != nil {
		r.failures++
	}
}

// Summary is the aggregate outcome of a run.
type Summary struct {
	Requests int
	Failures int
	Elapsed  time.Duration
}

func (r *recorder) summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Summary
	for _, count := range r.totals {
		s.Requests += count
	}
	s.Failures = r.failures
	for _, step := range r.steps {
		s.Elapsed += step.Duration
	}
	return s
}

func (r *recorder) printSummary(out io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := strings.Repeat("=", separatorLineLength)
	fmt.Fprintf(out, "\n%s\nLOAD TEST SUMMARY\n%s\n", line, line)

	fmt.Fprintf(out, "\nRequests per endpoint:\n")
	for _, name := range sortedKeys(r.totals) {
		fmt.Fprintf(out, "  %-18s %s\n", name+":", humanize.Comma(int64(r.totals[name])))
	}
	fmt.Fprintf(out, "  %-18s %s\n", "failures:", humanize.Comma(int64(r.failures)))

	fmt.Fprintf(out, "\nSteps:\n")
	var total time.Duration
	for _, step := range r.steps {
		total += step.Duration
		status := "✓"
		if step.Err != nil {
			status = "✗"
		}
		fmt.Fprintf(out, "\n  %s %s (%.2fs)\n", status, step.Name, step.Duration.Seconds())

		counts := make(map[string]int)
		durations := make(map[string]time.Duration)
		slowest := make(map[string]time.Duration)
		for _, op := range step.Operations {
			counts[op.Name]++
			durations[op.Name] += op.Duration
			slowest[op.Name] = max(slowest[op.Name], op.Duration)
		}
		for _, name := range sortedKeys(counts) {
			avg := durations[name] / time.Duration(counts[name])
			fmt.Fprintf(out, "    - %s: %d requests, avg %s, max %s\n",
				name, counts[name], avg.Round(time.Microsecond), slowest[name].Round(time.Microsecond))
		}
		if step.Err != nil {
			fmt.Fprintf(out, "    Error: %v\n", step.Err)
		}
	}

	fmt.Fprintf(out, "\nTotal execution time: %.2fs\n%s\n", total.Seconds(), line)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
