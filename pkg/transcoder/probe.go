package transcoder

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"

	"github.com/heyjunin/TurboConvert/pkg/errors"
)

// MediaInfo is what ffprobe reports about a file.
type MediaInfo struct {
	Width    int
	Height   int
	Duration float64
	HasVideo bool
	HasAudio bool
}

// ffprobeOutput mirrors the parts of `ffprobe -print_format json` we read.
type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width,omitempty"`
		Height    int    `json:"height,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe runs ffprobe on path.
func (r *Runner) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, r.ProbeBinary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(err, errors.SystemError, "Failed to run ffprobe", errors.ErrProbeFailed)
	}
	return parseProbeOutput(output)
}

func parseProbeOutput(output []byte) (*MediaInfo, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, errors.Wrap(err, errors.SystemError, "Failed to parse ffprobe output", errors.ErrProbeFailed)
	}

	info := &MediaInfo{}
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if !info.HasVideo {
				info.Width = stream.Width
				info.Height = stream.Height
			}
			info.HasVideo = true
		case "audio":
			info.HasAudio = true
		}
	}

	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}
	return info, nil
}
