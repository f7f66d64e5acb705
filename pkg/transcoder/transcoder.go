// Package transcoder runs ffmpeg and ffprobe and turns their output into progress and errors.
package transcoder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/heyjunin/TurboConvert/pkg/errors"
	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/heyjunin/TurboConvert/pkg/progress"
)

const (
	DefaultFFmpeg  = "ffmpeg"
	DefaultFFprobe = "ffprobe"

	stderrTailLines = 20
)

var timeRegex = regexp.MustCompile(`time=(\d+):(\d+):(\d+(?:\.\d+)?)`)

// ExitError is returned by Run when ffmpeg exits with a non-zero status.
type ExitError struct {
	Binary string
	Code   int
	// Stderr holds the last lines ffmpeg printed before exiting.
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Binary, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Binary, e.Code, e.Stderr)
}

// Runner executes ffmpeg commands.
type Runner struct {
	Binary      string
	ProbeBinary string
	Logger      logger.Logger
}

// NewRunner creates a Runner. Empty binaries fall back to ffmpeg and ffprobe on PATH.
func NewRunner(binary, probeBinary string, log logger.Logger) *Runner {
	if binary == "" {
		binary = DefaultFFmpeg
	}
	if probeBinary == "" {
		probeBinary = DefaultFFprobe
	}
	return &Runner{
		Binary:      binary,
		ProbeBinary: probeBinary,
		Logger:      logger.OrDefault(log),
	}
}

// CheckBinary verifies that ffmpeg can be started.
func (r *Runner) CheckBinary(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, r.Binary, "-version")
	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, errors.SystemError, "FFmpeg is not available", errors.ErrBinaryNotFound)
	}
	return nil
}

// Transcode runs `ffmpeg -y -i input <args> output`, publishing progress as a fraction
// of the input's probed duration. When the duration cannot be probed no progress is published
// until the terminal event, which is left to the caller.
func (r *Runner) Transcode(ctx context.Context, input, output string, args []string, stage string, pub progress.Publisher) error {
	var duration float64
	if info, err := r.Probe(ctx, input); err == nil {
		duration = info.Duration
	} else {
		r.Logger.Debug("Could not probe input duration", "ffmpeg", map[string]interface{}{
			"input": input,
			"error": err.Error(),
		})
	}

	full := make([]string, 0, len(args)+5)
	full = append(full, "-y", "-i", input)
	full = append(full, args...)
	full = append(full, output)
	return r.Run(ctx, full, duration, stage, pub)
}

// Run executes ffmpeg with args. stderr is scanned for `time=` stamps which,
// given a positive duration in seconds, are published as processing progress.
// A non-zero exit is returned as *ExitError.
func (r *Runner) Run(ctx context.Context, args []string, duration float64, stage string, pub progress.Publisher) error {
	if pub == nil {
		pub = progress.Discard
	}

	r.Logger.Debug("Executing FFmpeg command", "ffmpeg", map[string]interface{}{
		"command": r.Binary + " " + strings.Join(args, " "),
	})

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", r.Binary, err)
	}

	tail := newTailBuffer(stderrTailLines)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.scanStderr(stderr, duration, stage, pub, tail)
	}()

	// stderr must be fully read before Wait closes the pipe.
	wg.Wait()
	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &ExitError{Binary: r.Binary, Code: exitErr.ExitCode(), Stderr: tail.String()}
		}
		return fmt.Errorf("%s failed: %w", r.Binary, err)
	}
	return nil
}

func (r *Runner) scanStderr(stderr io.Reader, duration float64, stage string, pub progress.Publisher, tail *tailBuffer) {
	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanLinesOrCR)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		tail.Add(line)
		r.Logger.Debug(line, "ffmpeg", nil)

		if duration <= 0 {
			continue
		}
		if seconds, ok := ParseProgressTime(line); ok {
			pub.Publish(progress.PhaseProcessing, seconds/duration, stage)
		}
	}
}

// ParseProgressTime extracts the `time=HH:MM:SS.xx` stamp ffmpeg prints on its status line, in seconds.
func ParseProgressTime(line string) (float64, bool) {
	matches := timeRegex.FindStringSubmatch(line)
	if len(matches) < 4 {
		return 0, false
	}
	hours, _ := strconv.Atoi(matches[1])
	minutes, _ := strconv.Atoi(matches[2])
	seconds, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return 0, false
	}
	return float64(hours*3600+minutes*60) + seconds, true
}

// scanLinesOrCR splits on \n or \r; ffmpeg redraws its status line with \r.
func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

type tailBuffer struct {
	lines []string
	max   int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Add(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *tailBuffer) String() string {
	return strings.Join(t.lines, "\n")
}
