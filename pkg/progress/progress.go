package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Reporter renders progress for one operation. Reporters are driven only by
// the single consumer of a Hub, never by workers directly.
type Reporter interface {
	// Start initializes the progress reporting with the total number of units.
	Start(total int64)
	// Update sets the current progress along with the current step and stage.
	Update(current int64, step, stage string)
	// Complete marks the operation as finished.
	Complete()
	// Fail marks the operation as failed.
	Fail(message string)
}

// Snapshot is the reporter's latest state, serialized to the progress file.
type Snapshot struct {
	Status     string  `json:"status"`
	Percentage float64 `json:"percentage"`
	Step       string  `json:"step"`
	Stage      string  `json:"stage"`
	Timestamp  string  `json:"timestamp"`
}

type reporterOptions struct {
	throttle         time.Duration
	progressFilePath string
	description      string
	writer           io.Writer
}

// ReporterOption configures a DefaultReporter.
type ReporterOption func(*reporterOptions)

// WithThrottle sets the minimum interval between bar redraws.
func WithThrottle(duration time.Duration) ReporterOption {
	return func(opts *reporterOptions) {
		opts.throttle = duration
	}
}

// WithProgressFile makes the reporter write its Snapshot as JSON to path on every update.
// If the path is empty (default), no file will be written.
func WithProgressFile(path string) ReporterOption {
	return func(opts *reporterOptions) {
		opts.progressFilePath = path
	}
}

// WithDescription sets the description text for the console progress bar.
func WithDescription(desc string) ReporterOption {
	return func(opts *reporterOptions) {
		opts.description = desc
	}
}

// WithWriter sets where the bar is drawn. Defaults to stderr.
// When the writer is a file that is not a terminal, the bar is suppressed.
func WithWriter(w io.Writer) ReporterOption {
	return func(opts *reporterOptions) {
		opts.writer = w
	}
}

// DefaultReporter is the default implementation of the Reporter interface.
// It draws a github.com/schollz/progressbar/v3 bar and optionally mirrors
// its state to a JSON file.
type DefaultReporter struct {
	Total      int64
	Current    int64
	Started    time.Time
	Bar        *progressbar.ProgressBar
	Event      Snapshot
	opts       reporterOptions
	lastUpdate time.Time
	mu         sync.Mutex
}

// NewReporter creates a new DefaultReporter.
func NewReporter(opts ...ReporterOption) *DefaultReporter {
	options := reporterOptions{
		description: "Processing...",
		writer:      os.Stderr,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &DefaultReporter{
		opts: options,
		Event: Snapshot{
			Status:    "initialized",
			Timestamp: time.Now().Format(time.RFC3339),
		},
	}
}

// Start initializes the progress bar.
func (r *DefaultReporter) Start(total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Total = total
	r.Current = 0
	r.Started = time.Now()
	r.Event.Status = "started"
	r.Event.Percentage = 0
	r.Event.Timestamp = time.Now().Format(time.RFC3339)

	r.Bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(r.opts.description),
		progressbar.OptionSetWriter(barWriter(r.opts.writer)),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	r.writeProgressFileInternal()
}

// Update sets the current progress. Bar redraws are throttled by WithThrottle;
// the snapshot is always updated.
func (r *DefaultReporter) Update(current int64, step, stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Bar == nil {
		return
	}
	if current > r.Total {
		current = r.Total
	}
	r.Current = current

	percentage := 0.0
	if r.Total > 0 {
		percentage = float64(current) / float64(r.Total) * 100
	}
	r.Event.Percentage = percentage
	r.Event.Step = step
	r.Event.Stage = stage
	r.Event.Status = "processing"
	r.Event.Timestamp = time.Now().Format(time.RFC3339)

	now := time.Now()
	if now.Sub(r.lastUpdate) >= r.opts.throttle {
		r.lastUpdate = now
		_ = r.Bar.Set64(current)
	}
	r.writeProgressFileInternal()
}

// Complete finishes the progress bar.
func (r *DefaultReporter) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Bar == nil {
		return
	}

	_ = r.Bar.Finish()
	r.Current = r.Total
	r.Event.Percentage = 100
	r.Event.Status = "completed"
	r.Event.Timestamp = time.Now().Format(time.RFC3339)

	r.writeProgressFileInternal()
	r.Bar = nil
}

// Fail stops the bar where it is and records the failure.
func (r *DefaultReporter) Fail(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Bar != nil {
		_ = r.Bar.Exit()
		r.Bar = nil
	}
	r.Event.Status = "failed"
	r.Event.Stage = message
	r.Event.Timestamp = time.Now().Format(time.RFC3339)

	r.writeProgressFileInternal()
}

// JSON returns the current snapshot as a JSON string.
func (r *DefaultReporter) JSON() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := json.Marshal(r.Event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal progress snapshot: %w", err)
	}
	return string(data), nil
}

// writeProgressFileInternal requires r.mu to be held.
func (r *DefaultReporter) writeProgressFileInternal() {
	if r.opts.progressFilePath == "" {
		return
	}

	content, err := json.MarshalIndent(r.Event, "", "  ")
	if err != nil {
		logger.Warn("Failed to marshal progress snapshot", "progress", map[string]interface{}{
			"path":  r.opts.progressFilePath,
			"error": err.Error(),
		})
		return
	}

	if err := os.WriteFile(r.opts.progressFilePath, content, 0644); err != nil {
		logger.Warn("Failed to write progress file", "progress", map[string]interface{}{
			"path":  r.opts.progressFilePath,
			"error": err.Error(),
		})
	}
}

func barWriter(w io.Writer) io.Writer {
	if f, ok := w.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return io.Discard
	}
	return w
}
