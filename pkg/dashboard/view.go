// Package dashboard is a terminal consumer of the metrics API. It follows the
// same polling contract as the web dashboard: fetch both endpoints on every
// tick and replace the whole view.
package dashboard

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"

	"secdash/pkg/models"
)

// Source provides the two metrics documents.
type Source interface {
	SecurityMetrics(ctx context.Context) ([]models.SecurityDecision, error)
	SystemMetrics(ctx context.Context) (*models.SystemSnapshot, error)
}

// View is everything shown on one screen. Each refresh builds a new View.
type View struct {
	Decisions   []models.SecurityDecision
	System      *models.SystemSnapshot
	SecurityErr error
	SystemErr   error
	FetchedAt   time.Time
}

// TotalDecisions sums the counts of all decisions.
func (v View) TotalDecisions() int {
	total := 0
	for _, d := range v.Decisions {
		total += d.Count
	}
	return total
}

// Fetch queries both endpoints concurrently. Errors are kept per section so
// that one failing endpoint does not blank the other.
func Fetch(ctx context.Context, source Source, now time.Time) View {
	view := View{FetchedAt: now}

	var wg conc.WaitGroup
	wg.Go(func() {
		view.Decisions, view.SecurityErr = source.SecurityMetrics(ctx)
	})
	wg.Go(func() {
		view.System, view.SystemErr = source.SystemMetrics(ctx)
	})
	wg.Wait()

	return view
}
