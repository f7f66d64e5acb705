package codec

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"

	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/heyjunin/TurboConvert/pkg/progress"
)

// audioEncoders maps an audio container to the ffmpeg arguments that encode it.
var audioEncoders = map[string][]string{
	"mp3":  {"-c:a", "libmp3lame", "-q:a", "2"},
	"wav":  {"-c:a", "pcm_s16le"},
	"ogg":  {"-c:a", "libvorbis", "-q:a", "5"},
	"flac": {"-c:a", "flac"},
	"aac":  {"-c:a", "aac", "-b:a", "192k"},
	"m4a":  {"-c:a", "aac", "-b:a", "192k"},
	"opus": {"-c:a", "libopus", "-b:a", "128k"},
}

// AudioArgs returns the ffmpeg output arguments for format, dropping any video stream.
func AudioArgs(format string) ([]string, error) {
	enc, ok := audioEncoders[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("audio format %q cannot be encoded", format)
	}
	args := []string{"-vn", "-map_metadata", "0"}
	return append(args, enc...), nil
}

// Tags is the subset of embedded audio metadata we log and display.
type Tags struct {
	Title  string
	Artist string
	Album  string
	Year   int
	Format string
}

// ReadTags reads embedded tags (ID3, MP4, FLAC, OGG) with dhowden/tag.
func ReadTags(path string) (*Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}
	return &Tags{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
		Year:   m.Year(),
		Format: string(m.Format()),
	}, nil
}

// Audio re-encodes audio with ffmpeg.
type Audio struct {
	FFmpeg FFmpeg
	Logger logger.Logger
}

// NewAudio creates the audio boundary.
func NewAudio(ff FFmpeg, log logger.Logger) *Audio {
	return &Audio{FFmpeg: ff, Logger: logger.OrDefault(log)}
}

// Export implements AudioCodec. Tags are carried over by ffmpeg.
func (c *Audio) Export(ctx context.Context, src, dst, format string, pub progress.Publisher) error {
	args, err := AudioArgs(format)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{"src": src, "dst": dst, "format": format}
	if tags, err := ReadTags(src); err == nil {
		fields["title"] = tags.Title
		fields["artist"] = tags.Artist
	}
	c.Logger.Info("Exporting audio", "codec", fields)

	return c.FFmpeg.Transcode(ctx, src, dst, args, "Converting audio", pub)
}
