package downloader

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/heyjunin/TurboConvert/pkg/progress"
)

const defaultProgressInterval = 500 * time.Millisecond

// YTDLP is the Extractor backed by the yt-dlp binary.
type YTDLP struct {
	// Binary is the yt-dlp executable; empty uses the one on PATH.
	Binary string
	// Interval is the minimum time between progress callbacks.
	Interval time.Duration
	Logger   logger.Logger
}

// NewYTDLP creates a yt-dlp extractor.
func NewYTDLP(binary string, log logger.Logger) *YTDLP {
	return &YTDLP{
		Binary:   binary,
		Interval: defaultProgressInterval,
		Logger:   logger.OrDefault(log),
	}
}

// Extract implements Extractor.
func (y *YTDLP) Extract(ctx context.Context, req ExtractRequest, pub progress.Publisher) (*Extraction, error) {
	dl := ytdlp.New().
		NoPlaylist().
		ForceOverwrites().
		RestrictFilenames().
		Format(req.Format).
		Output(req.OutputTemplate)
	if req.MergeFormat != "" {
		dl.MergeOutputFormat(req.MergeFormat)
	}
	if y.Binary != "" {
		dl.SetExecutable(y.Binary)
	}

	var (
		mu       sync.Mutex
		title    string
		filename string
	)
	dl.ProgressFunc(y.Interval, func(update ytdlp.ProgressUpdate) {
		publishSample(pub, progress.ByteSample(string(update.Status), int64(update.DownloadedBytes), int64(update.TotalBytes)), "Downloading")

		if update.Info == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if update.Info.Title != nil && *update.Info.Title != "" {
			title = *update.Info.Title
		}
		if update.Info.Filename != nil && *update.Info.Filename != "" {
			filename = *update.Info.Filename
		}
	})

	result, err := dl.Run(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if info, err := result.GetExtractedInfo(); err == nil && len(info) > 0 {
		if info[0].Filename != nil && *info[0].Filename != "" {
			filename = *info[0].Filename
		}
		if info[0].Title != nil && title == "" {
			title = *info[0].Title
		}
	}
	if filename == "" {
		return &Extraction{Title: title}, nil
	}

	path := finalPath(filename, req.MergeFormat)
	y.Logger.Debug("yt-dlp finished", "downloader", map[string]interface{}{
		"reported": filename,
		"path":     path,
	})
	return &Extraction{Path: path, Title: title}, nil
}

// publishSample forwards a yt-dlp sample. yt-dlp reports finished once per
// downloaded stream, so terminal statuses are demoted: only the caller ends the operation.
func publishSample(pub progress.Publisher, s progress.Sample, stage string) {
	phase, fraction, ok := progress.Normalize(s)
	if !ok {
		return
	}
	if phase.Terminal() {
		phase = progress.PhaseDownloading
	}
	pub.Publish(phase, fraction, stage)
}

var formatSuffix = regexp.MustCompile(`\.f[0-9A-Za-z_-]+$`)

// finalPath maps a per-stream file name like "Title.f137.mp4" to the merged
// "Title.mp4" when a merge format was requested and the merged file exists.
func finalPath(reported, mergeFormat string) string {
	if mergeFormat == "" {
		return reported
	}
	stem := strings.TrimSuffix(reported, filepath.Ext(reported))
	stem = formatSuffix.ReplaceAllString(stem, "")
	merged := stem + "." + mergeFormat
	if _, err := os.Stat(merged); err == nil {
		return merged
	}
	return reported
}
