// Package downloader fetches YouTube videos through yt-dlp and post-processes them by container.
package downloader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/heyjunin/TurboConvert/pkg/codec"
	"github.com/heyjunin/TurboConvert/pkg/encoder"
	"github.com/heyjunin/TurboConvert/pkg/errors"
	"github.com/heyjunin/TurboConvert/pkg/formats"
	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/heyjunin/TurboConvert/pkg/progress"
)

// Container is the kind of file a download produces.
type Container string

const (
	WebM      Container = "webm"
	MP4       Container = "mp4"
	AudioOnly Container = "audio"
)

// ParseContainer accepts webm, mp4, audio and mp3 (an alias for audio), case-insensitively.
func ParseContainer(s string) (Container, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "webm":
		return WebM, nil
	case "mp4":
		return MP4, nil
	case "audio", "audio-only", "mp3":
		return AudioOnly, nil
	}
	return "", errors.New(errors.ValidationError, "Unsupported download container", s, errors.ErrInvalidContainer)
}

// selection is what yt-dlp is asked for per container.
type selection struct {
	format      string
	mergeFormat string
}

var selections = map[Container]selection{
	WebM:      {format: "bestvideo[ext=webm]+bestaudio[ext=webm]/best[ext=webm]/best", mergeFormat: "webm"},
	MP4:       {format: "bestvideo+bestaudio/best", mergeFormat: "mp4"},
	AudioOnly: {format: "bestaudio"},
}

// Request describes one download.
type Request struct {
	URL            string
	Container      Container
	DestinationDir string
	// GPU enables the GPU re-encode pass for MP4 downloads.
	GPU bool
}

// ExtractRequest is what an Extractor is asked to fetch.
type ExtractRequest struct {
	URL            string
	Format         string
	MergeFormat    string
	OutputTemplate string
}

// Extraction is the file an Extractor wrote.
type Extraction struct {
	Path  string
	Title string
}

// Extractor fetches media for a URL. Progress is published as normalized samples.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest, pub progress.Publisher) (*Extraction, error)
}

// GPUEncoder runs the GPU re-encode pass.
type GPUEncoder interface {
	RunExternalEncoder(ctx context.Context, req encoder.Request, pub progress.Publisher) (string, error)
}

// Options configures a Downloader.
type Options struct {
	Extractor Extractor
	// Audio re-encodes audio-only downloads to mp3.
	Audio codec.AudioCodec
	// Encoder is required only for MP4 downloads with GPU enabled.
	Encoder  GPUEncoder
	GPUCodec string
	Logger   logger.Logger
}

// Downloader downloads and post-processes videos.
type Downloader struct {
	options Options
	logger  logger.Logger
}

// New creates a Downloader.
func New(options Options) *Downloader {
	return &Downloader{
		options: options,
		logger:  logger.OrDefault(options.Logger),
	}
}

// OutputTemplate is the yt-dlp output template for dir.
func OutputTemplate(dir string) string {
	return filepath.Join(dir, "%(title)s.%(ext)s")
}

// Download fetches req.URL into req.DestinationDir and returns the final file:
// the merged video for webm and mp4, the GPU re-encode for mp4 with GPU enabled,
// or an mp3 produced by the audio codec for audio-only.
func (d *Downloader) Download(ctx context.Context, req Request, pub progress.Publisher) (string, error) {
	if pub == nil {
		pub = progress.Discard
	}
	if strings.TrimSpace(req.URL) == "" {
		return "", errors.New(errors.ValidationError, "URL is required", "", errors.ErrEmptyURL)
	}
	sel, ok := selections[req.Container]
	if !ok {
		return "", errors.New(errors.ValidationError, "Unsupported download container", string(req.Container), errors.ErrInvalidContainer)
	}
	if req.DestinationDir == "" {
		return "", errors.New(errors.ValidationError, "Destination directory is required", "", errors.ErrDownloadDirUnresolved)
	}
	if err := os.MkdirAll(req.DestinationDir, 0755); err != nil {
		return "", errors.Wrap(err, errors.SystemError, "Failed to create destination directory", errors.ErrOutputDirCreationFailed)
	}

	d.logger.Info("Starting download", "downloader", map[string]interface{}{
		"url":       req.URL,
		"container": string(req.Container),
		"dest":      req.DestinationDir,
		"gpu":       req.GPU,
	})

	ext, err := d.options.Extractor.Extract(ctx, ExtractRequest{
		URL:            req.URL,
		Format:         sel.format,
		MergeFormat:    sel.mergeFormat,
		OutputTemplate: OutputTemplate(req.DestinationDir),
	}, pub)
	if err != nil {
		return "", errors.Wrap(err, errors.DownloadError, "Failed to download video", errors.ErrDownloadFailed)
	}
	if ext == nil || ext.Path == "" {
		return "", errors.New(errors.DownloadError, "Download produced no file", req.URL, errors.ErrDownloadNoOutput)
	}

	d.logger.Info("Download completed", "downloader", map[string]interface{}{
		"path":  ext.Path,
		"title": ext.Title,
	})

	switch req.Container {
	case AudioOnly:
		return d.extractAudio(ctx, ext.Path, pub)
	case MP4:
		if req.GPU {
			return d.gpuPass(ctx, ext, req.DestinationDir, pub)
		}
	}
	return ext.Path, nil
}

func (d *Downloader) extractAudio(ctx context.Context, path string, pub progress.Publisher) (string, error) {
	if formats.Extension(path) == "mp3" {
		return path, nil
	}
	if d.options.Audio == nil {
		return "", errors.New(errors.DownloadError, "No audio codec configured", path, errors.ErrAudioExtractFailed)
	}

	dst := strings.TrimSuffix(path, filepath.Ext(path)) + ".mp3"
	pub.Publish(progress.PhaseProcessing, 0, "Extracting audio")
	if err := d.options.Audio.Export(ctx, path, dst, "mp3", pub); err != nil {
		return "", errors.Wrap(err, errors.DownloadError, "Failed to extract audio", errors.ErrAudioExtractFailed)
	}
	return dst, nil
}

func (d *Downloader) gpuPass(ctx context.Context, ext *Extraction, dir string, pub progress.Publisher) (string, error) {
	if d.options.Encoder == nil {
		return "", errors.New(errors.DownloadError, "No GPU encoder configured", ext.Path, errors.ErrGPUPostProcessFailed)
	}

	pub.Publish(progress.PhaseProcessing, 0, "GPU encoding")
	out, err := d.options.Encoder.RunExternalEncoder(ctx, encoder.Request{
		Input:     ext.Path,
		OutputDir: dir,
		Title:     titleOf(ext),
		Codec:     d.options.GPUCodec,
	}, pub)
	if err != nil {
		return "", errors.Wrap(err, errors.DownloadError, "GPU post-processing failed", errors.ErrGPUPostProcessFailed)
	}
	return out, nil
}

// titleOf names the GPU output after the downloaded file, which yt-dlp already made filesystem-safe.
func titleOf(ext *Extraction) string {
	base := filepath.Base(ext.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
