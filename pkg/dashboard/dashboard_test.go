package dashboard

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/suite"

	"secdash/pkg/models"
)

type fakeSource struct {
	decisions   []models.SecurityDecision
	snapshot    *models.SystemSnapshot
	securityErr error
	systemErr   error
	calls       atomic.Int32
}

func (f *fakeSource) SecurityMetrics(context.Context) ([]models.SecurityDecision, error) {
	f.calls.Add(1)
	return f.decisions, f.securityErr
}

func (f *fakeSource) SystemMetrics(context.Context) (*models.SystemSnapshot, error) {
	return f.snapshot, f.systemErr
}

// syncBuffer guards the buffer shared with the watcher goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type DashboardTestSuite struct {
	suite.Suite
	source  *fakeSource
	noColor bool
	fetched time.Time
}

func (s *DashboardTestSuite) SetupSuite() {
	s.noColor = color.NoColor
	color.NoColor = true
}

func (s *DashboardTestSuite) TearDownSuite() {
	color.NoColor = s.noColor
}

func (s *DashboardTestSuite) SetupTest() {
	s.fetched = time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	s.source = &fakeSource{
		decisions: []models.SecurityDecision{
			{Reason: "ssh-bf", Origin: "crowdsec", Action: "ban", Count: 1500},
			{Reason: "http-probing", Origin: "crowdsec", Action: "captcha", Count: 500},
		},
		snapshot: &models.SystemSnapshot{
			Uptime:      "3 days,  4:12",
			LoadAverage: "0.15, 0.10, 0.05",
			Memory:      models.MemoryInfo{Total: "7.7Gi", Used: "2.1Gi", Free: "3.2Gi"},
			Disk:        models.DiskInfo{Total: "50G", Used: "20G", Available: "28G", UsePercentage: "42%"},
		},
	}
}

func (s *DashboardTestSuite) TestFetch() {
	view := Fetch(context.Background(), s.source, s.fetched)

	s.Equal(s.fetched, view.FetchedAt)
	s.Len(view.Decisions, 2)
	s.Equal(2000, view.TotalDecisions())
	s.Require().NotNil(view.System)
	s.NoError(view.SecurityErr)
	s.NoError(view.SystemErr)
}

func (s *DashboardTestSuite) TestFetchKeepsSectionsIndependent() {
	s.source.securityErr = errors.New("server returned 500")

	view := Fetch(context.Background(), s.source, s.fetched)
	s.Error(view.SecurityErr)
	s.NoError(view.SystemErr)
	s.NotNil(view.System)
}

func (s *DashboardTestSuite) TestRender() {
	var out bytes.Buffer
	NewRenderer(&out, false).Render(Fetch(context.Background(), s.source, s.fetched), s.fetched.Add(30*time.Second))

	text := out.String()
	s.Contains(text, "updated 08:30:00")
	s.Contains(text, "3 days,  4:12")
	s.Contains(text, "2.1Gi used / 7.7Gi total, 3.2Gi free")
	s.Contains(text, "20G used / 50G total, 28G available (42%)")
	s.Contains(text, "(2,000 total)")
	s.Contains(text, "1,500")
	s.Contains(text, "next refresh 30 seconds from now")
	s.Less(strings.Index(text, "ssh-bf"), strings.Index(text, "http-probing"))
	s.NotContains(text, clearScreen)
	s.NotContains(text, "could not be read")
}

func (s *DashboardTestSuite) TestRenderErrorsAndEmpty() {
	var out bytes.Buffer
	view := View{
		FetchedAt: s.fetched,
		SystemErr: errors.New("server returned 500: Failed to retrieve system metrics"),
	}
	NewRenderer(&out, true).Render(view, time.Time{})

	text := out.String()
	s.True(strings.HasPrefix(text, clearScreen))
	s.Contains(text, "Failed to retrieve system metrics")
	s.Contains(text, "no active decisions")
	s.NotContains(text, "next refresh")
}

func (s *DashboardTestSuite) TestRenderUnavailableFields() {
	s.source.snapshot.Uptime = models.Unavailable

	var out bytes.Buffer
	NewRenderer(&out, false).Render(Fetch(context.Background(), s.source, s.fetched), time.Time{})
	s.Contains(out.String(), "some host values could not be read")
}

func (s *DashboardTestSuite) TestUnavailable() {
	s.True(Unavailable(nil))
	s.False(Unavailable(s.source.snapshot))

	s.source.snapshot.Disk.UsePercentage = models.Unavailable
	s.True(Unavailable(s.source.snapshot))
}

func (s *DashboardTestSuite) TestShareBar() {
	s.Equal("", shareBar(1, 0))
	s.Equal(strings.Repeat("#", barWidth), shareBar(10, 10))
	s.Equal("#", shareBar(1, 1000))
}

func (s *DashboardTestSuite) TestDiskColorPassThrough() {
	s.Equal("n/a", diskColor("n/a"))
	s.Equal("95%", diskColor("95%"))
}

func (s *DashboardTestSuite) TestWatcherRefreshesUntilCancelled() {
	out := &syncBuffer{}
	watcher := NewWatcher(s.source, NewRenderer(out, false), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	s.Eventually(func() bool { return s.source.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.Fail("watcher did not stop")
	}
	s.GreaterOrEqual(strings.Count(out.String(), "CrowdSec dashboard"), 2)
}

func (s *DashboardTestSuite) TestWatcherDefaultInterval() {
	s.Equal(DefaultInterval, NewWatcher(s.source, NewRenderer(&bytes.Buffer{}, false), 0).interval)
}

func TestDashboardSuite(t *testing.T) {
	suite.Run(t, new(DashboardTestSuite))
}
