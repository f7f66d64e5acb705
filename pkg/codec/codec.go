// Package codec wraps the libraries and binaries that actually read and write media files.
// Callers see three boundaries: images, audio and video. Errors returned here are the
// libraries' own; classifying them is left to the caller.
package codec

import (
	"context"

	"github.com/heyjunin/TurboConvert/pkg/progress"
)

// FFmpeg is the part of transcoder.Runner the codecs use.
type FFmpeg interface {
	Transcode(ctx context.Context, input, output string, args []string, stage string, pub progress.Publisher) error
}

// ImageOptions controls image encoding. A zero Quality means the format's default.
type ImageOptions struct {
	Quality  int
	Optimize bool
}

// ImageCodec re-encodes a still image into format.
type ImageCodec interface {
	Save(ctx context.Context, src, dst, format string, opts ImageOptions) error
}

// AudioCodec re-encodes an audio file into format.
type AudioCodec interface {
	Export(ctx context.Context, src, dst, format string, pub progress.Publisher) error
}

// VideoOptions controls video encoding. Empty fields use the codec's defaults.
type VideoOptions struct {
	Codec   string
	Bitrate string
}

// VideoCodec re-encodes a video file. The container is taken from dst's extension.
type VideoCodec interface {
	Write(ctx context.Context, src, dst string, opts VideoOptions, pub progress.Publisher) error
}
