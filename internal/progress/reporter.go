package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ligustah/filekit/pkg/filekit"
)

// Options configures the progress reporter.
type Options struct {
	// Operation is the verb shown in the header, e.g. "Saving".
	Operation string

	// TotalFiles is the number of items in the batch.
	TotalFiles int

	// TotalSize is the total size in bytes of the batch, 0 if unknown.
	TotalSize int64

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable progress for a batch of saves or deletes.
type Reporter struct {
	opts Options

	mu             sync.Mutex
	completedFiles atomic.Int32
	failedFiles    atomic.Int32
	completedBytes atomic.Int64
	startTime      time.Time
	stopCh         chan struct{}
	doneCh         chan struct{}
	started        bool
	stopped        bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}
	if opts.Operation == "" {
		opts.Operation = "Processing"
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Observe counts saves and deletes completed by store.
func (r *Reporter) Observe(store *filekit.Storage) {
	store.On(filekit.AfterSave, func(_ context.Context, ev filekit.Event) error {
		r.FileCompleted(ev.File.Size())
		return nil
	})
	store.On(filekit.AfterDelete, func(context.Context, filekit.Event) error {
		r.FileCompleted(0)
		return nil
	})
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.mu.Lock()
	r.startTime = time.Now()
	r.started = true
	r.mu.Unlock()

	if r.opts.TotalSize > 0 {
		fmt.Fprintf(r.opts.Output, "[filekit] %s %d files (%s)\n",
			r.opts.Operation, r.opts.TotalFiles, formatBytes(r.opts.TotalSize))
	} else {
		fmt.Fprintf(r.opts.Output, "[filekit] %s %d files\n", r.opts.Operation, r.opts.TotalFiles)
	}

	go r.updateLoop()
}

// Stop prints the final status. It is safe to call more than once.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped || !r.started {
		r.stopped = true
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

// FileCompleted records a successful item of size bytes.
func (r *Reporter) FileCompleted(size int64) {
	r.completedFiles.Add(1)
	r.completedBytes.Add(size)
}

// FileFailed records a failed item.
func (r *Reporter) FileFailed() {
	r.failedFiles.Add(1)
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *Reporter) printProgress() {
	done := int(r.completedFiles.Load())
	failed := int(r.failedFiles.Load())

	var percent float64
	if r.opts.TotalFiles > 0 {
		percent = float64(done+failed) / float64(r.opts.TotalFiles) * 100
	}

	fmt.Fprintf(r.opts.Output, "\r[filekit] Progress: %.1f%% | %d / %d files | %s | %d failed    ",
		percent,
		done+failed,
		r.opts.TotalFiles,
		formatBytes(r.completedBytes.Load()),
		failed,
	)
}

// printFinalStatus outputs the final status.
func (r *Reporter) printFinalStatus() {
	done := int(r.completedFiles.Load())
	failed := int(r.failedFiles.Load())
	duration := time.Since(r.startTime)

	fmt.Fprintf(r.opts.Output, "\r[filekit] Done: %d succeeded | %d failed | %s    \n",
		done, failed, formatBytes(r.completedBytes.Load()))
	fmt.Fprintf(r.opts.Output, "[filekit] Total time: %s\n", formatDuration(duration))
}

// formatBytes formats bytes using binary units.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}

	value := float64(b)
	suffixes := []string{"KiB", "MiB", "GiB", "TiB"}
	i := -1
	for value >= unit && i < len(suffixes)-1 {
		value /= unit
		i++
	}
	if value >= 10 {
		return fmt.Sprintf("%.0f %s", value, suffixes[i])
	}
	return fmt.Sprintf("%.1f %s", value, suffixes[i])
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
