package modelref

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// progressRedraw is how often the editor's progress bar is redrawn.
const progressRedraw = 250 * time.Millisecond

// progressBar draws a single-line download indicator for FetchArtifact.
type progressBar struct {
	w     io.Writer
	label string
	start time.Time

	mu       sync.Mutex
	last     time.Time
	drawn    bool
	interval time.Duration
}

// newProgressBar returns a bar that redraws at most every interval.
func newProgressBar(w io.Writer, label string, interval time.Duration) *progressBar {
	return &progressBar{w: w, label: label, start: time.Now(), interval: interval}
}

// update is a FetchArtifact progress callback.
func (p *progressBar) update(done, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if p.drawn && now.Sub(p.last) < p.interval && done != total {
		return
	}
	if !p.drawn {
		// Hide cursor.
		fmt.Fprint(p.w, "\x1b[?25l")
	}
	p.last = now
	p.drawn = true
	renderProgress(p.w, p.label, done, total, p.start)
}

// finish restores the cursor and ends the line.
func (p *progressBar) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.drawn {
		fmt.Fprint(p.w, "\x1b[?25h\n")
		p.drawn = false
	}
}

// renderProgress renders the progress bar to the writer.
// Format: Fetching model.safetensors [============>                 ] 45% (5.2 MB/s, elapsed: 30s, remaining: 2m 15s)
// When total is unknown only the byte count and speed are shown.
func renderProgress(w io.Writer, label string, current, total int64, startTime time.Time) {
	elapsed := time.Since(startTime)

	var speed float64
	if elapsed.Seconds() > 0 && current > 0 {
		speed = float64(current) / elapsed.Seconds()
	}

	if total <= 0 {
		fmt.Fprintf(w, "\r\x1b[KFetching %s %s (%s, elapsed: %s)",
			label, formatSize(current), formatSpeed(speed), formatDuration(elapsed))
		return
	}

	pct := float64(current) / float64(total) * 100

	var remaining time.Duration
	if speed > 0 && current < total {
		remaining = time.Duration(float64(total-current)/speed) * time.Second
	}

	const barWidth = 30
	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}

	var bar string
	if filled >= barWidth {
		bar = strings.Repeat("=", barWidth)
	} else if filled > 0 {
		bar = strings.Repeat("=", filled) + ">" + strings.Repeat(" ", barWidth-filled-1)
	} else {
		bar = ">" + strings.Repeat(" ", barWidth-1)
	}

	fmt.Fprintf(w, "\r\x1b[KFetching %s [%s] %.0f%% (%s, elapsed: %s, remaining: %s)",
		label, bar, pct, formatSpeed(speed), formatDuration(elapsed), formatDuration(remaining))
}

func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatSpeed formats bytes per second as KB/s or MB/s.
func formatSpeed(bytesPerSec float64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	if bytesPerSec >= MB {
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/MB)
	}
	if bytesPerSec >= KB {
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/KB)
	}
	return fmt.Sprintf("%.0f B/s", bytesPerSec)
}

// formatDuration formats a duration as human-readable text (e.g., "5s", "2m 30s", "1h 5m").
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	d = d.Round(time.Second)

	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60

	if hours > 0 {
		if mins > 0 {
			return fmt.Sprintf("%dh %dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	if mins > 0 {
		if secs > 0 {
			return fmt.Sprintf("%dm %ds", mins, secs)
		}
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}
