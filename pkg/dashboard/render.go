package dashboard

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"secdash/pkg/models"
)

const (
	clearScreen = "\033[H\033[2J"
	timeLayout  = "15:04:05"
	barWidth    = 20

	diskWarnPercent     = 75
	diskCriticalPercent = 90
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// Renderer writes views to a terminal.
type Renderer struct {
	out   io.Writer
	clear bool
}

// NewRenderer creates a Renderer. When clear is set each view replaces the
// previous screen.
func NewRenderer(out io.Writer, clear bool) *Renderer {
	return &Renderer{out: out, clear: clear}
}

// Render draws view. next is when the following refresh is due; a zero
// value omits the hint.
func (r *Renderer) Render(view View, next time.Time) {
	var b strings.Builder

	if r.clear {
		b.WriteString(clearScreen)
	}

	fmt.Fprintf(&b, "%s  %s\n\n", cyan("CrowdSec dashboard"), faint("updated "+view.FetchedAt.Format(timeLayout)))

	r.renderSystem(&b, view)
	b.WriteString("\n")
	r.renderDecisions(&b, view)

	if !next.IsZero() {
		fmt.Fprintf(&b, "\n%s\n", faint("next refresh "+humanize.RelTime(next, view.FetchedAt, "ago", "from now")))
	}

	_, _ = io.WriteString(r.out, b.String())
}

func (r *Renderer) renderSystem(b *strings.Builder, view View) {
	b.WriteString(bold("System") + "\n")

	if view.SystemErr != nil {
		fmt.Fprintf(b, "  %s\n", red(view.SystemErr.Error()))
		return
	}
	if view.System == nil {
		fmt.Fprintf(b, "  %s\n", faint("no data"))
		return
	}

	sys := view.System
	fmt.Fprintf(b, "  %-8s %s\n", "Uptime", sys.Uptime)
	fmt.Fprintf(b, "  %-8s %s\n", "Load", sys.LoadAverage)
	fmt.Fprintf(b, "  %-8s %s used / %s total, %s free\n", "Memory", sys.Memory.Used, sys.Memory.Total, sys.Memory.Free)
	fmt.Fprintf(b, "  %-8s %s used / %s total, %s available (%s)\n", "Disk",
		sys.Disk.Used, sys.Disk.Total, sys.Disk.Available, diskColor(sys.Disk.UsePercentage))

	if Unavailable(sys) {
		fmt.Fprintf(b, "  %s\n", yellow("some host values could not be read"))
	}
}

func (r *Renderer) renderDecisions(b *strings.Builder, view View) {
	if view.SecurityErr != nil {
		b.WriteString(bold("Decisions") + "\n")
		fmt.Fprintf(b, "  %s\n", red(view.SecurityErr.Error()))
		return
	}

	total := view.TotalDecisions()
	fmt.Fprintf(b, "%s %s\n", bold("Decisions"), faint("("+humanize.Comma(int64(total))+" total)"))

	if len(view.Decisions) == 0 {
		fmt.Fprintf(b, "  %s\n", green("no active decisions"))
		return
	}

	reasonWidth := len("Reason")
	for _, d := range view.Decisions {
		reasonWidth = max(reasonWidth, len(d.Reason))
	}

	fmt.Fprintf(b, "  %-*s  %-10s  %-8s  %10s\n", reasonWidth, "Reason", "Origin", "Action", "Count")
	for _, d := range view.Decisions {
		fmt.Fprintf(b, "  %-*s  %-10s  %-8s  %10s  %s\n",
			reasonWidth, d.Reason, d.Origin, actionColor(d.Action),
			humanize.Comma(int64(d.Count)), shareBar(d.Count, total))
	}
}

// actionColor pads before coloring so escape codes do not break alignment.
func actionColor(action string) string {
	padded := fmt.Sprintf("%-8s", action)
	switch action {
	case "ban":
		return red(padded)
	case "captcha":
		return yellow(padded)
	default:
		return padded
	}
}

func diskColor(usage string) string {
	percent, err := strconv.Atoi(strings.TrimSuffix(usage, "%"))
	if err != nil {
		return usage
	}
	switch {
	case percent >= diskCriticalPercent:
		return red(usage)
	case percent >= diskWarnPercent:
		return yellow(usage)
	default:
		return green(usage)
	}
}

func shareBar(count, total int) string {
	if total <= 0 {
		return ""
	}
	filled := count * barWidth / total
	if filled == 0 && count > 0 {
		filled = 1
	}
	return faint(strings.Repeat("#", filled))
}

// Unavailable reports whether any system field could not be read.
func Unavailable(sys *models.SystemSnapshot) bool {
	if sys == nil {
		return true
	}
	for _, v := range []string{
		sys.Uptime, sys.LoadAverage,
		sys.Memory.Total, sys.Memory.Used, sys.Memory.Free,
		sys.Disk.Total, sys.Disk.Used, sys.Disk.Available, sys.Disk.UsePercentage,
	} {
		if v == models.Unavailable {
			return true
		}
	}
	return false
}
