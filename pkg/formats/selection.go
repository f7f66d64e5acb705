package formats

import (
	"fmt"

	"github.com/heyjunin/TurboConvert/pkg/errors"
)

// State is a step of the file selection flow that gates the Convert and Compress actions.
type State int

const (
	NoFileSelected State = iota
	FileSelected
	CategoryKnown
	FormatChosen
	OperationRunning
	Done
	Failed
)

var stateNames = [...]string{
	"no_file_selected",
	"file_selected",
	"category_known",
	"format_chosen",
	"operation_running",
	"done",
	"failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Selection tracks one user's file, category and target format.
// It is not safe for concurrent use; it belongs to the foreground goroutine.
type Selection struct {
	state    State
	path     string
	category Category
	targets  []string
	target   string
	err      error
}

// NewSelection returns a selection in NoFileSelected.
func NewSelection() *Selection {
	return &Selection{}
}

func (s *Selection) State() State       { return s.state }
func (s *Selection) Path() string       { return s.path }
func (s *Selection) Category() Category { return s.category }
func (s *Selection) Target() string     { return s.target }

// Err returns the classification or operation error that moved the selection to Failed.
func (s *Selection) Err() error { return s.err }

// Targets returns the formats the user may choose, or nil before classification.
func (s *Selection) Targets() []string {
	if s.targets == nil {
		return nil
	}
	out := make([]string, len(s.targets))
	copy(out, s.targets)
	return out
}

// CompressionEnabled reports whether the quality control is available.
func (s *Selection) CompressionEnabled() bool {
	return s.state >= CategoryKnown && s.state != Failed && Compressible(s.category)
}

// Select resets the selection to path and classifies it. It can be called from any state.
// On an unknown extension the selection moves to Failed and the error is returned.
func (s *Selection) Select(path string) error {
	*s = Selection{state: FileSelected, path: CleanPath(path)}

	c, err := Classify(s.path)
	if err != nil {
		s.state = Failed
		s.err = err
		return err
	}
	s.category = c
	s.targets = TargetsFor(c)
	s.state = CategoryKnown
	return nil
}

// Choose picks the conversion target. Only formats from Targets are accepted.
func (s *Selection) Choose(format string) error {
	if s.state != CategoryKnown && s.state != FormatChosen {
		return invalidTransition(s.state, FormatChosen)
	}
	if !Allows(s.category, format) {
		return errors.New(errors.UnsupportedFormat, "Target format not available for this file",
			fmt.Sprintf("%s -> %s", s.category, format), errors.ErrCrossCategoryTarget)
	}
	s.target = Extension("." + format)
	s.state = FormatChosen
	return nil
}

// BeginConversion moves FormatChosen to OperationRunning.
func (s *Selection) BeginConversion() error {
	if s.state != FormatChosen {
		return invalidTransition(s.state, OperationRunning)
	}
	s.state = OperationRunning
	return nil
}

// BeginCompression moves CategoryKnown or FormatChosen to OperationRunning
// for categories that can be compressed.
func (s *Selection) BeginCompression() error {
	if s.state != CategoryKnown && s.state != FormatChosen {
		return invalidTransition(s.state, OperationRunning)
	}
	if !Compressible(s.category) {
		return errors.New(errors.UnsupportedFormat, "Compression is not supported for this file type",
			string(s.category), errors.ErrCompressionNotAllowed)
	}
	s.state = OperationRunning
	return nil
}

// Finish records the outcome of the running operation.
func (s *Selection) Finish(err error) error {
	if s.state != OperationRunning {
		return invalidTransition(s.state, Done)
	}
	if err != nil {
		s.state = Failed
		s.err = err
		return nil
	}
	s.state = Done
	return nil
}

func invalidTransition(from, to State) error {
	return errors.New(errors.ValidationError, "Invalid selection transition",
		fmt.Sprintf("%s -> %s", from, to), errors.ErrInvalidTransition)
}
