// Package config loads TurboConvert settings: built-in defaults, overridden by a YAML file,
// overridden in turn by command-line flags.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/heyjunin/TurboConvert/pkg/errors"
)

// Config holds every tunable setting.
type Config struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
	YtDlp   string `yaml:"yt_dlp"`

	// DownloadDir defaults to the platform Downloads folder.
	DownloadDir string `yaml:"download_dir"`

	// GPU makes video conversions use GPUCodec, and enables the re-encode pass for mp4 downloads.
	GPU      bool   `yaml:"gpu"`
	GPUCodec string `yaml:"gpu_codec"`

	// VideoCodec is used for video conversions when GPU is off.
	VideoCodec string `yaml:"video_codec"`

	// Quality is the default compression quality.
	Quality int `yaml:"quality"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in settings. DownloadDir is left empty when the
// platform folder cannot be resolved.
func Default() Config {
	dir, _ := DownloadsDir()
	return Config{
		FFmpeg:      "ffmpeg",
		FFprobe:     "ffprobe",
		DownloadDir: dir,
		GPUCodec:    "h264_nvenc",
		VideoCodec:  "libx264",
		Quality:     75,
		LogLevel:    "info",
		LogFormat:   "console",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/turboconvert/config.yaml (or the platform equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "turboconvert", "config.yaml"), nil
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil && stderrors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFile reads path over the defaults and validates the result. The file must exist.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, errors.ValidationError, "Failed to read config file", errors.ErrInvalidConfig)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, errors.ValidationError, "Failed to parse config file", errors.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.Quality < 1 || c.Quality > 100 {
		return errors.New(errors.ValidationError, "Invalid configuration", fmt.Sprintf("quality %d is outside 1..100", c.Quality), errors.ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return errors.New(errors.ValidationError, "Invalid configuration", fmt.Sprintf("log_format %q must be json or console", c.LogFormat), errors.ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return errors.New(errors.ValidationError, "Invalid configuration", fmt.Sprintf("log_level %q is not a level", c.LogLevel), errors.ErrInvalidConfig)
	}
	if c.FFmpeg == "" {
		return errors.New(errors.ValidationError, "Invalid configuration", "ffmpeg must not be empty", errors.ErrInvalidConfig)
	}
	return nil
}

// VideoEncoder is the codec used for video conversions.
func (c Config) VideoEncoder() string {
	if c.GPU && c.GPUCodec != "" {
		return c.GPUCodec
	}
	return c.VideoCodec
}

// Save writes c to path as YAML, creating its directory.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.SystemError, "Failed to create config directory", errors.ErrOutputDirCreationFailed)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, errors.SystemError, "Failed to encode config", errors.ErrInvalidConfig)
	}
	return os.WriteFile(path, data, 0644)
}
