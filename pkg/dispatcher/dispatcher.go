// Package dispatcher routes conversion and compression requests to the codec for the file's category.
package dispatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/heyjunin/TurboConvert/pkg/codec"
	"github.com/heyjunin/TurboConvert/pkg/errors"
	"github.com/heyjunin/TurboConvert/pkg/formats"
	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/heyjunin/TurboConvert/pkg/progress"
)

const (
	MinQuality     = 1
	MaxQuality     = 100
	DefaultQuality = 75
)

// ConversionRequest asks for SourcePath to be re-encoded as TargetFormat.
// TargetFormat must belong to Category.
type ConversionRequest struct {
	SourcePath   string
	TargetFormat string
	Category     formats.Category
}

// CompressionRequest asks for SourcePath to be re-encoded at Quality in [1,100].
type CompressionRequest struct {
	SourcePath string
	Category   formats.Category
	Quality    int
}

// NewConversionRequest classifies path and checks that target is one of its category's formats.
func NewConversionRequest(path, target string) (ConversionRequest, error) {
	path = formats.CleanPath(path)
	if path == "" {
		return ConversionRequest{}, errors.New(errors.ValidationError, "Source path is required", "", errors.ErrEmptySourcePath)
	}
	category, err := formats.Classify(path)
	if err != nil {
		return ConversionRequest{}, err
	}
	target = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(target), "."))
	if target == "" {
		return ConversionRequest{}, errors.New(errors.ValidationError, "Target format is required", "", errors.ErrEmptyTargetFormat)
	}
	if !formats.Allows(category, target) {
		return ConversionRequest{}, crossCategory(category, target)
	}
	return ConversionRequest{SourcePath: path, TargetFormat: target, Category: category}, nil
}

// NewCompressionRequest classifies path and validates quality.
func NewCompressionRequest(path string, quality int) (CompressionRequest, error) {
	path = formats.CleanPath(path)
	if path == "" {
		return CompressionRequest{}, errors.New(errors.ValidationError, "Source path is required", "", errors.ErrEmptySourcePath)
	}
	category, err := formats.Classify(path)
	if err != nil {
		return CompressionRequest{}, err
	}
	req := CompressionRequest{SourcePath: path, Category: category, Quality: quality}
	if err := req.validate(); err != nil {
		return CompressionRequest{}, err
	}
	return req, nil
}

func (r CompressionRequest) validate() error {
	if !formats.Compressible(r.Category) {
		return errors.New(errors.UnsupportedFormat, "Compression is not supported for this file type",
			string(r.Category), errors.ErrCompressionNotAllowed)
	}
	if r.Quality < MinQuality || r.Quality > MaxQuality {
		return errors.New(errors.ValidationError, "Quality must be between 1 and 100",
			fmt.Sprint(r.Quality), errors.ErrQualityOutOfRange)
	}
	return nil
}

// ConvertedPath is {dir}/{stem}_converted.{target}.
func ConvertedPath(src, target string) string {
	return filepath.Join(filepath.Dir(src), stem(src)+"_converted."+target)
}

// CompressedPath is {dir}/{stem}_compressed{ext}, keeping the source extension as written.
func CompressedPath(src string) string {
	return filepath.Join(filepath.Dir(src), stem(src)+"_compressed"+filepath.Ext(src))
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Bitrate is the video bitrate used for a compression quality.
func Bitrate(quality int) string {
	return fmt.Sprintf("%dk", quality)
}

// Dispatcher sends requests to the codec for their category.
type Dispatcher struct {
	images codec.ImageCodec
	audio  codec.AudioCodec
	video  codec.VideoCodec
	logger logger.Logger
}

// New creates a Dispatcher.
func New(images codec.ImageCodec, audio codec.AudioCodec, video codec.VideoCodec, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		images: images,
		audio:  audio,
		video:  video,
		logger: logger.OrDefault(log),
	}
}

// Convert writes req.SourcePath as req.TargetFormat next to the source and returns the new path.
// The source is never modified. A failed conversion may leave a partial output file.
func (d *Dispatcher) Convert(ctx context.Context, req ConversionRequest, pub progress.Publisher) (string, error) {
	if pub == nil {
		pub = progress.Discard
	}
	category, err := formats.Classify(req.SourcePath)
	if err != nil {
		return "", err
	}
	target := strings.ToLower(strings.TrimPrefix(req.TargetFormat, "."))
	if category != req.Category || !formats.Allows(category, target) {
		return "", crossCategory(category, target)
	}
	if err := checkSource(req.SourcePath); err != nil {
		return "", err
	}

	output := ConvertedPath(req.SourcePath, target)
	d.logger.Info("Converting file", "dispatcher", map[string]interface{}{
		"source":   req.SourcePath,
		"output":   output,
		"category": string(req.Category),
		"target":   target,
	})

	var code int
	switch req.Category {
	case formats.Image:
		code = errors.ErrImageConversionFailed
		err = d.images.Save(ctx, req.SourcePath, output, target, codec.ImageOptions{})
	case formats.Audio:
		code = errors.ErrAudioConversionFailed
		err = d.audio.Export(ctx, req.SourcePath, output, target, pub)
	case formats.Video:
		code = errors.ErrVideoConversionFailed
		err = d.video.Write(ctx, req.SourcePath, output, codec.VideoOptions{}, pub)
	case formats.Document:
		return "", errors.New(errors.ConversionError, "Document conversion is not available",
			fmt.Sprintf("%s -> %s", formats.Extension(req.SourcePath), target), errors.ErrNoDocumentBackend)
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ConversionError, "Conversion failed", code)
	}
	return output, nil
}

// Compress re-encodes an image or video at req.Quality and returns the new path.
// Images are re-saved with the quality setting and optimization; videos are
// re-encoded at a bitrate of "{quality}k".
func (d *Dispatcher) Compress(ctx context.Context, req CompressionRequest, pub progress.Publisher) (string, error) {
	if pub == nil {
		pub = progress.Discard
	}
	if err := req.validate(); err != nil {
		return "", err
	}
	if category, err := formats.Classify(req.SourcePath); err != nil {
		return "", err
	} else if category != req.Category {
		return "", errors.New(errors.UnsupportedFormat, "Compression is not supported for this file type",
			string(category), errors.ErrCompressionNotAllowed)
	}
	if err := checkSource(req.SourcePath); err != nil {
		return "", err
	}

	output := CompressedPath(req.SourcePath)
	d.logger.Info("Compressing file", "dispatcher", map[string]interface{}{
		"source":   req.SourcePath,
		"output":   output,
		"category": string(req.Category),
		"quality":  req.Quality,
	})

	var (
		err  error
		code int
	)
	switch req.Category {
	case formats.Image:
		code = errors.ErrImageCompressionFailed
		err = d.images.Save(ctx, req.SourcePath, output, formats.Extension(req.SourcePath),
			codec.ImageOptions{Quality: req.Quality, Optimize: true})
	case formats.Video:
		code = errors.ErrVideoCompressionFailed
		err = d.video.Write(ctx, req.SourcePath, output, codec.VideoOptions{Bitrate: Bitrate(req.Quality)}, pub)
	}
	if err != nil {
		return "", errors.Wrap(err, errors.CompressionError, "Compression failed", code)
	}
	return output, nil
}

func checkSource(path string) error {
	if path == "" {
		return errors.New(errors.ValidationError, "Source path is required", "", errors.ErrEmptySourcePath)
	}
	if _, err := os.Stat(path); err != nil {
		return errors.Wrap(err, errors.ValidationError, "Source file does not exist", errors.ErrSourceNotFound)
	}
	return nil
}

func crossCategory(c formats.Category, target string) error {
	return errors.New(errors.UnsupportedFormat, "Target format not available for this file",
		fmt.Sprintf("%s -> %s", c, target), errors.ErrCrossCategoryTarget)
}
