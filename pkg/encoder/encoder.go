// Package encoder re-encodes video through ffmpeg's hardware encoders.
package encoder

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/heyjunin/TurboConvert/pkg/errors"
	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/heyjunin/TurboConvert/pkg/progress"
	"github.com/heyjunin/TurboConvert/pkg/transcoder"
)

// DefaultCodec is NVIDIA's H.264 encoder.
const DefaultCodec = "h264_nvenc"

// presets lists the codecs accepted by RunExternalEncoder and the -preset each takes.
// An empty preset means the encoder has no such option.
var presets = map[string]string{
	"h264_nvenc":        "fast",
	"hevc_nvenc":        "fast",
	"h264_qsv":          "fast",
	"h264_vaapi":        "",
	"h264_videotoolbox": "",
	"libx264":           "fast",
}

// Codecs returns the supported encoder names.
func Codecs() []string {
	return []string{"h264_nvenc", "hevc_nvenc", "h264_qsv", "h264_vaapi", "h264_videotoolbox", "libx264"}
}

// ValidateCodec returns a ValidationError for unsupported codecs.
func ValidateCodec(codec string) error {
	if _, ok := presets[codec]; !ok {
		return errors.New(errors.ValidationError, "Unsupported GPU codec", codec, errors.ErrInvalidGPUCodec)
	}
	return nil
}

// Request describes one re-encode.
type Request struct {
	Input     string
	OutputDir string
	// Title names the output {Title}_gpu.mp4. Defaults to Input's base name without extension.
	Title string
	// Codec defaults to DefaultCodec.
	Codec string
}

// FFmpeg is the part of transcoder.Runner the encoder uses.
type FFmpeg interface {
	Transcode(ctx context.Context, input, output string, args []string, stage string, pub progress.Publisher) error
}

// Encoder runs the GPU re-encode pass.
type Encoder struct {
	FFmpeg FFmpeg
	Logger logger.Logger
}

// New creates an Encoder.
func New(ff FFmpeg, log logger.Logger) *Encoder {
	return &Encoder{FFmpeg: ff, Logger: logger.OrDefault(log)}
}

// OutputPath returns where req's result is written.
func OutputPath(req Request) string {
	title := req.Title
	if title == "" {
		base := filepath.Base(req.Input)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	dir := req.OutputDir
	if dir == "" {
		dir = filepath.Dir(req.Input)
	}
	return filepath.Join(dir, title+"_gpu.mp4")
}

// Args returns the ffmpeg output arguments for codec.
func Args(codec string) []string {
	args := []string{"-c:v", codec}
	if preset := presets[codec]; preset != "" {
		args = append(args, "-preset", preset)
	}
	return args
}

// RunExternalEncoder re-encodes req.Input and returns the output path.
// The process exit status is checked: a non-zero exit or a failure to start
// is returned as an EncodeError carrying ffmpeg's message.
func (e *Encoder) RunExternalEncoder(ctx context.Context, req Request, pub progress.Publisher) (string, error) {
	codec := req.Codec
	if codec == "" {
		codec = DefaultCodec
	}
	if err := ValidateCodec(codec); err != nil {
		return "", err
	}
	if req.Input == "" {
		return "", errors.New(errors.ValidationError, "Input path is required", "", errors.ErrEmptySourcePath)
	}
	if _, err := os.Stat(req.Input); err != nil {
		return "", errors.Wrap(err, errors.ValidationError, "Input file does not exist", errors.ErrSourceNotFound)
	}

	output := OutputPath(req)
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return "", errors.Wrap(err, errors.SystemError, "Failed to create output directory", errors.ErrOutputDirCreationFailed)
	}

	e.Logger.Info("Starting GPU encode", "encoder", map[string]interface{}{
		"input":  req.Input,
		"output": output,
		"codec":  codec,
	})

	err := e.FFmpeg.Transcode(ctx, req.Input, output, Args(codec), fmt.Sprintf("Encoding with %s", codec), pub)
	if err != nil {
		var exitErr *transcoder.ExitError
		if stderrors.As(err, &exitErr) {
			return "", errors.Wrap(err, errors.EncodeError, "Encoder exited with an error", errors.ErrEncoderNonZeroExit)
		}
		return "", errors.Wrap(err, errors.EncodeError, "Failed to run encoder", errors.ErrEncoderStartFailed)
	}

	e.Logger.Info("GPU encode completed", "encoder", map[string]interface{}{
		"output": output,
	})
	return output, nil
}
