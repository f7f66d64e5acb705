package progress

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Phase is the lifecycle stage carried by an Event.
type Phase string

const (
	PhaseStarted     Phase = "started"
	PhaseDownloading Phase = "downloading"
	PhaseProcessing  Phase = "processing"
	PhaseFinished    Phase = "finished"
	PhaseFailed      Phase = "failed"
)

// Terminal reports whether no further events follow this phase.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseFailed
}

// Event is the canonical progress update. Every progress source is
// normalized into this shape before it reaches a consumer.
type Event struct {
	OperationID string  `json:"operation_id"`
	Phase       Phase   `json:"phase"`
	Fraction    float64 `json:"fraction"`
	Stage       string  `json:"stage,omitempty"`
	Timestamp   string  `json:"timestamp"`
}

// SampleKind tags which raw shape a Sample carries.
type SampleKind int

const (
	// PercentString is a textual percentage such as " 42.3%", possibly colored with ANSI codes.
	PercentString SampleKind = iota + 1
	// ByteCounters is a downloaded/total byte pair.
	ByteCounters
)

// Sample is a raw progress report from a download library, before normalization.
type Sample struct {
	Kind       SampleKind
	Status     string
	Percent    string
	Downloaded int64
	Total      int64
}

// PercentSample builds a PercentString sample.
func PercentSample(status, percent string) Sample {
	return Sample{Kind: PercentString, Status: status, Percent: percent}
}

// ByteSample builds a ByteCounters sample.
func ByteSample(status string, downloaded, total int64) Sample {
	return Sample{Kind: ByteCounters, Status: status, Downloaded: downloaded, Total: total}
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Normalize converts a raw sample into a phase and a completion fraction in [0,1].
// ok is false when the sample carries no usable progress (empty or unparsable
// percent text, unknown total); such samples should be dropped.
func Normalize(s Sample) (phase Phase, fraction float64, ok bool) {
	phase = phaseFromStatus(s.Status)
	if phase == PhaseFinished {
		return phase, 1, true
	}

	switch s.Kind {
	case PercentString:
		text := strings.TrimSpace(ansiEscape.ReplaceAllString(s.Percent, ""))
		text = strings.TrimSpace(strings.TrimSuffix(text, "%"))
		if text == "" {
			return phase, 0, false
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(v) {
			return phase, 0, false
		}
		return phase, Clamp(v / 100), true
	case ByteCounters:
		if s.Total <= 0 {
			return phase, 0, false
		}
		return phase, Clamp(float64(s.Downloaded) / float64(s.Total)), true
	}
	return phase, 0, false
}

// Clamp bounds f to [0,1].
func Clamp(f float64) float64 {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func phaseFromStatus(status string) Phase {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "finished", "complete", "completed":
		return PhaseFinished
	case "error", "failed":
		return PhaseFailed
	case "starting", "started":
		return PhaseStarted
	case "post_processing", "postprocessing", "processing":
		return PhaseProcessing
	default:
		return PhaseDownloading
	}
}

func newEvent(operationID string, phase Phase, fraction float64, stage string) Event {
	return Event{
		OperationID: operationID,
		Phase:       phase,
		Fraction:    Clamp(fraction),
		Stage:       stage,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}
