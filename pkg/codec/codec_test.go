package codec

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/heyjunin/TurboConvert/pkg/progress"
)

type mockFFmpeg struct {
	mock.Mock
}

func (m *mockFFmpeg) Transcode(ctx context.Context, input, output string, args []string, stage string, pub progress.Publisher) error {
	return m.Called(input, output, args, stage).Error(0)
}

func writeTestImage(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 10), B: 128, A: uint8(255 - x*4)})
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestImageSaveFormats(t *testing.T) {
	dir := t.TempDir()
	src := writeTestImage(t, dir, "src.png")
	c := NewImages(nil, logger.NewNopLogger())

	for _, format := range []string{"png", "jpg", "jpeg", "gif", "bmp", "tiff", "webp"} {
		t.Run(format, func(t *testing.T) {
			dst := filepath.Join(dir, "out."+format)
			require.NoError(t, c.Save(context.Background(), src, dst, format, ImageOptions{}))

			img, err := decodeImage(dst)
			require.NoError(t, err)
			assert.Equal(t, 32, img.Bounds().Dx())
			assert.Equal(t, 24, img.Bounds().Dy())
		})
	}
}

func TestImageSaveIsDeterministicForPNG(t *testing.T) {
	dir := t.TempDir()
	src := writeTestImage(t, dir, "src.jpg")
	c := NewImages(nil, logger.NewNopLogger())

	first := filepath.Join(dir, "first.png")
	second := filepath.Join(dir, "second.png")
	require.NoError(t, c.Save(context.Background(), src, first, "png", ImageOptions{Optimize: true}))
	require.NoError(t, c.Save(context.Background(), src, second, "png", ImageOptions{Optimize: true}))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b))
}

func TestImageQualityAffectsJPEGSize(t *testing.T) {
	dir := t.TempDir()
	src := writeTestImage(t, dir, "src.png")
	c := NewImages(nil, logger.NewNopLogger())

	low := filepath.Join(dir, "low.jpg")
	high := filepath.Join(dir, "high.jpg")
	require.NoError(t, c.Save(context.Background(), src, low, "jpg", ImageOptions{Quality: 5, Optimize: true}))
	require.NoError(t, c.Save(context.Background(), src, high, "jpg", ImageOptions{Quality: 100, Optimize: true}))

	lowInfo, err := os.Stat(low)
	require.NoError(t, err)
	highInfo, err := os.Stat(high)
	require.NoError(t, err)
	assert.Less(t, lowInfo.Size(), highInfo.Size())
}

func TestImageSaveErrors(t *testing.T) {
	dir := t.TempDir()
	c := NewImages(nil, logger.NewNopLogger())

	err := c.Save(context.Background(), filepath.Join(dir, "missing.png"), filepath.Join(dir, "o.png"), "png", ImageOptions{})
	assert.Error(t, err)

	notImage := filepath.Join(dir, "fake.png")
	require.NoError(t, os.WriteFile(notImage, []byte("not an image"), 0644))
	err = c.Save(context.Background(), notImage, filepath.Join(dir, "o.png"), "png", ImageOptions{})
	assert.Error(t, err)

	err = c.Save(context.Background(), filepath.Join(dir, "a.png"), filepath.Join(dir, "a.ico"), "ico", ImageOptions{})
	assert.Error(t, err, "ico needs ffmpeg")
}

func TestImageIcoUsesFFmpeg(t *testing.T) {
	ff := &mockFFmpeg{}
	ff.On("Transcode", "a.png", "a_converted.ico", mock.Anything, "Converting image").Return(nil)

	c := NewImages(ff, logger.NewNopLogger())
	require.NoError(t, c.Save(context.Background(), "a.png", "a_converted.ico", "ico", ImageOptions{}))
	ff.AssertExpectations(t)
}

func TestFlattenRGBRemovesAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	flat := flattenRGB(img)
	r, g, b, a := flat.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b})
}

func TestAudioArgs(t *testing.T) {
	args, err := AudioArgs("MP3")
	require.NoError(t, err)
	assert.Equal(t, []string{"-vn", "-map_metadata", "0", "-c:a", "libmp3lame", "-q:a", "2"}, args)

	for _, f := range []string{"wav", "ogg", "flac", "aac", "m4a", "opus"} {
		_, err := AudioArgs(f)
		assert.NoError(t, err, f)
	}

	_, err = AudioArgs("mp4")
	assert.Error(t, err)
}

func TestAudioExport(t *testing.T) {
	ff := &mockFFmpeg{}
	ff.On("Transcode", "in.webm", "in.ogg", []string{"-vn", "-map_metadata", "0", "-c:a", "libvorbis", "-q:a", "5"}, "Converting audio").Return(nil)

	c := NewAudio(ff, logger.NewNopLogger())
	require.NoError(t, c.Export(context.Background(), "in.webm", "in.ogg", "ogg", progress.Discard))
	ff.AssertExpectations(t)

	assert.Error(t, c.Export(context.Background(), "in.webm", "in.txt", "txt", progress.Discard))
}

func TestReadTagsWithoutTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.mp3")
	require.NoError(t, os.WriteFile(path, []byte("no tags here"), 0644))
	_, err := ReadTags(path)
	assert.Error(t, err)
}

func TestVideoArgs(t *testing.T) {
	c := NewVideo(nil, "", logger.NewNopLogger())

	assert.Equal(t, []string{"-c:v", "libx264", "-c:a", "aac", "-movflags", "+faststart"}, c.Args("mp4", VideoOptions{}))
	assert.Equal(t, []string{"-c:v", "libx264", "-b:v", "50k", "-c:a", "aac", "-movflags", "+faststart"}, c.Args("mp4", VideoOptions{Bitrate: "50k"}))
	assert.Equal(t, []string{"-c:v", "libvpx-vp9", "-c:a", "libopus"}, c.Args("webm", VideoOptions{}))
	assert.Equal(t, []string{"-c:v", "libx264", "-c:a", "libmp3lame"}, c.Args("avi", VideoOptions{}))
	assert.Equal(t, []string{"-c:v", "h264_nvenc", "-c:a", "aac"}, c.Args("mkv", VideoOptions{Codec: "h264_nvenc"}))

	gpu := NewVideo(nil, "h264_nvenc", logger.NewNopLogger())
	assert.Equal(t, []string{"-c:v", "h264_nvenc", "-c:a", "aac"}, gpu.Args("mkv", VideoOptions{}))
}

func TestVideoWrite(t *testing.T) {
	ff := &mockFFmpeg{}
	ff.On("Transcode", "clip.mov", "clip_compressed.mov",
		[]string{"-c:v", "libx264", "-b:v", "75k", "-c:a", "aac", "-movflags", "+faststart"},
		"Compressing video").Return(nil)

	c := NewVideo(ff, "", logger.NewNopLogger())
	require.NoError(t, c.Write(context.Background(), "clip.mov", "clip_compressed.mov", VideoOptions{Bitrate: "75k"}, progress.Discard))
	ff.AssertExpectations(t)
}
