package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// StatusTracker keeps track of one query's harvest and download progress
type StatusTracker struct {
	Query     string
	Target    int
	Found     int
	Skipped   int
	Saved     int
	Failed    int
	StartTime time.Time
}

// NewStatusTracker creates a new status tracker for query
func NewStatusTracker(query string, target int) *StatusTracker {
	return &StatusTracker{
		Query:     query,
		Target:    target,
		StartTime: time.Now(),
	}
}

// UpdateHarvest records the latest harvest counters. The target grows with
// every skipped duplicate.
func (st *StatusTracker) UpdateHarvest(found, skipped, target int) {
	st.Found = found
	st.Skipped = skipped
	st.Target = target
}

// IncrementSaved counts one stored image
func (st *StatusTracker) IncrementSaved() {
	st.Saved++
}

// IncrementFailed counts one reference that could not be fetched or stored
func (st *StatusTracker) IncrementFailed() {
	st.Failed++
}

// Bar renders done/total as a fixed-width progress bar
func Bar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = done * barWidth / total
	}
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, barWidth-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, done, total)
}

// GetHarvestProgress returns a formatted progress bar for the harvest
func (st *StatusTracker) GetHarvestProgress() string {
	return Bar(st.Found+st.Skipped, st.Target)
}

// GetDownloadProgress returns a formatted progress bar for the downloads
func (st *StatusTracker) GetDownloadProgress() string {
	return Bar(st.Saved+st.Failed, st.Found)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetSaveRate returns the average save rate (images per minute)
func (st *StatusTracker) GetSaveRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Saved) / elapsed
}

// PrintHarvestStatus prints the harvest progress line
func (st *StatusTracker) PrintHarvestStatus() {
	if quietMode {
		return
	}
	fmt.Fprintf(output, "\r%s %s %s",
		Magenta("[HARVESTING]"),
		Cyan(st.Query),
		Yellow(st.GetHarvestProgress()))
}

// PrintDownloadStatus prints the download progress line
func (st *StatusTracker) PrintDownloadStatus() {
	if quietMode {
		return
	}
	line := fmt.Sprintf("\r%s %s %s", Green("[SAVING]"), Cyan(st.Query), st.GetDownloadProgress())
	if st.Failed > 0 {
		line += " " + Red(fmt.Sprintf("%d failed", st.Failed))
	}
	fmt.Fprint(output, line)
}

// PrintSummary prints the final counters for the query
func (st *StatusTracker) PrintSummary() {
	if quietMode {
		return
	}
	fmt.Fprintf(output, "\n%s %s: %d harvested, %d duplicates, %d saved, %d failed (%.1f/min)\n",
		Green("✓"),
		st.Query,
		st.Found,
		st.Skipped,
		st.Saved,
		st.Failed,
		st.GetSaveRate())
}
