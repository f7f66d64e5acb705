package codec

import (
	"context"

	"github.com/heyjunin/TurboConvert/pkg/formats"
	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/heyjunin/TurboConvert/pkg/progress"
)

const DefaultVideoCodec = "libx264"

type containerCodecs struct {
	video string
	audio string
}

// Containers whose muxers reject the default h264/aac pair.
var containerDefaults = map[string]containerCodecs{
	"webm": {video: "libvpx-vp9", audio: "libopus"},
	"wmv":  {video: "wmv2", audio: "wmav2"},
	"flv":  {video: "flv", audio: "libmp3lame"},
	"avi":  {audio: "libmp3lame"},
}

// Video re-encodes video with ffmpeg.
type Video struct {
	FFmpeg FFmpeg
	// DefaultCodec is used for containers without a fixed codec, libx264 when empty.
	DefaultCodec string
	Logger       logger.Logger
}

// NewVideo creates the video boundary.
func NewVideo(ff FFmpeg, defaultCodec string, log logger.Logger) *Video {
	if defaultCodec == "" {
		defaultCodec = DefaultVideoCodec
	}
	return &Video{FFmpeg: ff, DefaultCodec: defaultCodec, Logger: logger.OrDefault(log)}
}

// Args returns the ffmpeg output arguments for writing container with opts.
func (c *Video) Args(container string, opts VideoOptions) []string {
	defaults := containerDefaults[container]

	vcodec := opts.Codec
	if vcodec == "" {
		vcodec = defaults.video
	}
	if vcodec == "" {
		vcodec = c.DefaultCodec
	}
	acodec := defaults.audio
	if acodec == "" {
		acodec = "aac"
	}

	args := []string{"-c:v", vcodec}
	if opts.Bitrate != "" {
		args = append(args, "-b:v", opts.Bitrate)
	}
	args = append(args, "-c:a", acodec)
	if container == "mp4" || container == "mov" {
		args = append(args, "-movflags", "+faststart")
	}
	return args
}

// Write implements VideoCodec.
func (c *Video) Write(ctx context.Context, src, dst string, opts VideoOptions, pub progress.Publisher) error {
	args := c.Args(formats.Extension(dst), opts)

	c.Logger.Info("Writing video", "codec", map[string]interface{}{
		"src":  src,
		"dst":  dst,
		"args": args,
	})

	stage := "Converting video"
	if opts.Bitrate != "" {
		stage = "Compressing video"
	}
	return c.FFmpeg.Transcode(ctx, src, dst, args, stage, pub)
}
