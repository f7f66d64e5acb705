package formats

import (
	stderrors "errors"
	"testing"

	"github.com/heyjunin/TurboConvert/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionConversionFlow(t *testing.T) {
	s := NewSelection()
	assert.Equal(t, NoFileSelected, s.State())

	require.NoError(t, s.Select("{/pics/photo.JPG}"))
	assert.Equal(t, CategoryKnown, s.State())
	assert.Equal(t, "/pics/photo.JPG", s.Path())
	assert.Equal(t, Image, s.Category())
	assert.Equal(t, TargetsFor(Image), s.Targets())
	assert.True(t, s.CompressionEnabled())

	require.NoError(t, s.Choose("PNG"))
	assert.Equal(t, FormatChosen, s.State())
	assert.Equal(t, "png", s.Target())

	require.NoError(t, s.BeginConversion())
	assert.Equal(t, OperationRunning, s.State())

	require.NoError(t, s.Finish(nil))
	assert.Equal(t, Done, s.State())
}

func TestSelectionRejectsCrossCategoryTarget(t *testing.T) {
	s := NewSelection()
	require.NoError(t, s.Select("clip.mp4"))

	err := s.Choose("mp3")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.UnsupportedFormat))
	assert.Equal(t, CategoryKnown, s.State())
}

func TestSelectionUnknownExtensionFails(t *testing.T) {
	s := NewSelection()
	err := s.Select("song.xyz")
	require.Error(t, err)
	assert.Equal(t, Failed, s.State())
	assert.Nil(t, s.Targets())
	assert.False(t, s.CompressionEnabled())
	assert.True(t, errors.IsType(s.Err(), errors.UnsupportedFormat))
}

func TestSelectionCompressionGate(t *testing.T) {
	s := NewSelection()
	require.NoError(t, s.Select("voice.wav"))
	assert.False(t, s.CompressionEnabled())

	err := s.BeginCompression()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.UnsupportedFormat))

	require.NoError(t, s.Select("clip.mov"))
	require.NoError(t, s.BeginCompression())
	assert.Equal(t, OperationRunning, s.State())
}

func TestSelectionInvalidTransitions(t *testing.T) {
	s := NewSelection()
	assert.True(t, errors.IsType(s.BeginConversion(), errors.ValidationError))
	assert.True(t, errors.IsType(s.Choose("png"), errors.ValidationError))
	assert.True(t, errors.IsType(s.Finish(nil), errors.ValidationError))

	require.NoError(t, s.Select("a.png"))
	assert.True(t, errors.IsType(s.BeginConversion(), errors.ValidationError), "conversion needs a chosen format")
}

func TestSelectionReselectResets(t *testing.T) {
	s := NewSelection()
	require.NoError(t, s.Select("a.png"))
	require.NoError(t, s.Choose("gif"))
	require.NoError(t, s.BeginConversion())
	require.NoError(t, s.Finish(stderrors.New("boom")))
	assert.Equal(t, Failed, s.State())
	assert.EqualError(t, s.Err(), "boom")

	require.NoError(t, s.Select("b.flac"))
	assert.Equal(t, CategoryKnown, s.State())
	assert.Equal(t, "", s.Target())
	assert.NoError(t, s.Err())
	assert.Equal(t, Audio, s.Category())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "operation_running", OperationRunning.String())
	assert.Equal(t, "state(42)", State(42).String())
}
