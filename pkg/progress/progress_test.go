package progress

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReporter(opts ...ReporterOption) *DefaultReporter {
	return NewReporter(append([]ReporterOption{WithWriter(&bytes.Buffer{})}, opts...)...)
}

func TestNewReporter(t *testing.T) {
	reporter := newTestReporter()

	if reporter == nil {
		t.Fatal("NewReporter() returned nil")
	}

	if reporter.Event.Status != "initialized" {
		t.Errorf("Initial status = %q, want %q", reporter.Event.Status, "initialized")
	}

	if reporter.Event.Timestamp == "" {
		t.Error("Timestamp should not be empty")
	}
}

func TestReporterStart(t *testing.T) {
	reporter := newTestReporter()
	reporter.Start(100)

	assert.Equal(t, int64(100), reporter.Total)
	assert.Equal(t, int64(0), reporter.Current)
	assert.Equal(t, "started", reporter.Event.Status)
	assert.NotNil(t, reporter.Bar)
}

func TestReporterUpdate(t *testing.T) {
	reporter := newTestReporter()
	reporter.Start(200)

	reporter.Update(50, "downloading", "Downloading video")

	assert.Equal(t, int64(50), reporter.Current)
	assert.Equal(t, 25.0, reporter.Event.Percentage)
	assert.Equal(t, "downloading", reporter.Event.Step)
	assert.Equal(t, "Downloading video", reporter.Event.Stage)
	assert.Equal(t, "processing", reporter.Event.Status)

	reporter.Update(500, "downloading", "")
	assert.Equal(t, int64(200), reporter.Current, "progress is capped at total")
}

func TestReporterUpdateBeforeStartIsIgnored(t *testing.T) {
	reporter := newTestReporter()
	reporter.Update(10, "x", "y")
	assert.Equal(t, int64(0), reporter.Current)
	assert.Equal(t, "initialized", reporter.Event.Status)
}

func TestReporterComplete(t *testing.T) {
	reporter := newTestReporter()
	reporter.Start(50)

	reporter.Complete()

	assert.Equal(t, int64(50), reporter.Current)
	assert.Equal(t, 100.0, reporter.Event.Percentage)
	assert.Equal(t, "completed", reporter.Event.Status)
	assert.Nil(t, reporter.Bar)
}

func TestReporterFail(t *testing.T) {
	reporter := newTestReporter()
	reporter.Start(10)
	reporter.Update(3, "processing", "")

	reporter.Fail("encoder exited with status 1")

	assert.Equal(t, "failed", reporter.Event.Status)
	assert.Equal(t, "encoder exited with status 1", reporter.Event.Stage)
	assert.Nil(t, reporter.Bar)
}

func TestReporterJSON(t *testing.T) {
	reporter := newTestReporter()
	reporter.Start(100)
	reporter.Update(25, "json-step", "json-stage")

	jsonStr, err := reporter.JSON()
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(jsonStr), &parsed))

	assert.Equal(t, "processing", parsed["status"])
	assert.Equal(t, 25.0, parsed["percentage"])
	assert.Equal(t, "json-step", parsed["step"])
	assert.Equal(t, "json-stage", parsed["stage"])
}

func TestReporterProgressFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	reporter := newTestReporter(WithProgressFile(path))
	reporter.Start(4)
	reporter.Update(1, "processing", "Compressing video")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 25.0, snap.Percentage)
	assert.Equal(t, "Compressing video", snap.Stage)
}
