package sweep

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/cellchar/cellchar/harness"
)

// ProgressIndicator receives sweep lifecycle updates.
type ProgressIndicator interface {
	StartCell(cellName string, totalArcs int)
	StartArc(cellName, arc string, gridPoints int)
	CompletePoint(cellName, arc string, point harness.GridPoint, ok bool)
	CompleteArc(cellName, arc string)
	CompleteCell(cellName string)
}

// noOpProgressIndicator provides a no-op implementation of ProgressIndicator
type noOpProgressIndicator struct{}

// NewNoOpProgressIndicator creates a progress indicator that does nothing
func NewNoOpProgressIndicator() ProgressIndicator {
	return &noOpProgressIndicator{}
}

func (n *noOpProgressIndicator) StartCell(cellName string, totalArcs int)                          {}
func (n *noOpProgressIndicator) StartArc(cellName, arc string, gridPoints int)                     {}
func (n *noOpProgressIndicator) CompletePoint(cellName, arc string, p harness.GridPoint, ok bool)  {}
func (n *noOpProgressIndicator) CompleteArc(cellName, arc string)                                  {}
func (n *noOpProgressIndicator) CompleteCell(cellName string)                                      {}

// consoleProgressIndicator reports sweep progress to the log, with a
// periodic summary of the longest-running arcs.
type consoleProgressIndicator struct {
	logger log.Logger
	ticker *time.Ticker
	stopCh chan struct{}
	mu     sync.RWMutex

	completedPoints int
	totalPoints     int
	failedPoints    int

	// arc name -> start time for every in-flight arc
	runningArcs map[string]time.Time
}

// NewConsoleProgressIndicator creates a progress indicator that logs
// periodic updates.
func NewConsoleProgressIndicator(logger log.Logger, updateInterval time.Duration) ProgressIndicator {
	if updateInterval == 0 {
		updateInterval = 30 * time.Second
	}

	indicator := &consoleProgressIndicator{
		logger:      logger,
		ticker:      time.NewTicker(updateInterval),
		stopCh:      make(chan struct{}),
		runningArcs: make(map[string]time.Time),
	}

	go indicator.progressReporter()

	return indicator
}

func (c *consoleProgressIndicator) StartCell(cellName string, totalArcs int) {
	c.logger.Info("Starting cell", "cell", cellName, "arcs", totalArcs)
}

func (c *consoleProgressIndicator) StartArc(cellName, arc string, gridPoints int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runningArcs[cellName+": "+arc] = time.Now()
	c.totalPoints += gridPoints
}

func (c *consoleProgressIndicator) CompletePoint(cellName, arc string, p harness.GridPoint, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.completedPoints++
	if !ok {
		c.failedPoints++
	}
}

func (c *consoleProgressIndicator) CompleteArc(cellName, arc string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cellName + ": " + arc
	if started, ok := c.runningArcs[key]; ok {
		c.logger.Debug("Completed arc", "cell", cellName, "arc", arc,
			"duration", time.Since(started).Truncate(time.Millisecond))
		delete(c.runningArcs, key)
	}
}

func (c *consoleProgressIndicator) CompleteCell(cellName string) {
	c.logger.Info("Completed cell", "cell", cellName)
}

// progressReporter runs in a goroutine and periodically reports progress
func (c *consoleProgressIndicator) progressReporter() {
	for {
		select {
		case <-c.ticker.C:
			c.reportProgress()
		case <-c.stopCh:
			return
		}
	}
}

func (c *consoleProgressIndicator) reportProgress() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.totalPoints == 0 {
		return
	}

	percentComplete := float64(c.completedPoints) * 100.0 / float64(c.totalPoints)
	c.logger.Info("Progress update",
		"completed", c.completedPoints,
		"total", c.totalPoints,
		"failed", c.failedPoints,
		"percent", fmt.Sprintf("%.1f%%", percentComplete),
		"runningArcs", len(c.runningArcs),
		"longestRunning", formatRunningArcs(c.runningArcs, 3),
	)
}

// Stop stops the progress indicator
func (c *consoleProgressIndicator) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	close(c.stopCh)
}

// formatRunningArcs renders the longest-running arcs, oldest first.
func formatRunningArcs(runningArcs map[string]time.Time, maxShow int) string {
	if len(runningArcs) == 0 {
		return ""
	}

	type runningArc struct {
		name     string
		duration time.Duration
	}

	var running []runningArc
	now := time.Now()
	for name, startTime := range runningArcs {
		running = append(running, runningArc{name: name, duration: now.Sub(startTime)})
	}

	sort.Slice(running, func(i, j int) bool {
		return running[i].duration > running[j].duration
	})

	var runningStrs []string
	for i, arc := range running {
		if i >= maxShow {
			break
		}
		runningStrs = append(runningStrs, fmt.Sprintf("%s (%v)", arc.name, arc.duration.Truncate(time.Second)))
	}
	if len(running) > maxShow {
		runningStrs = append(runningStrs, fmt.Sprintf("+%d more", len(running)-maxShow))
	}

	return strings.Join(runningStrs, ", ")
}
