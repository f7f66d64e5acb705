package main

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/heyjunin/TurboConvert/pkg/codec"
	"github.com/heyjunin/TurboConvert/pkg/config"
	"github.com/heyjunin/TurboConvert/pkg/dispatcher"
	"github.com/heyjunin/TurboConvert/pkg/downloader"
	"github.com/heyjunin/TurboConvert/pkg/encoder"
	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/heyjunin/TurboConvert/pkg/progress"
	"github.com/heyjunin/TurboConvert/pkg/transcoder"
)

type globalFlags struct {
	configPath   string
	logLevel     string
	logFormat    string
	ffmpeg       string
	ffprobe      string
	ytdlp        string
	gpu          bool
	gpuCodec     string
	progressFile string
}

// app holds the services built from the resolved configuration.
type app struct {
	cfg          config.Config
	progressFile string
	progressOut  io.Writer

	runner     *transcoder.Runner
	dispatcher *dispatcher.Dispatcher
	encoder    *encoder.Encoder
	downloader *downloader.Downloader
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "turboconvert",
		Short: "Convert, compress and download media files",
		Long: `TurboConvert converts images, audio and video between formats, compresses images and videos,
and downloads YouTube videos with yt-dlp, optionally re-encoding them on the GPU.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/turboconvert/config.yaml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: console or json")
	pf.StringVar(&flags.ffmpeg, "ffmpeg", "", "Path to ffmpeg binary")
	pf.StringVar(&flags.ffprobe, "ffprobe", "", "Path to ffprobe binary")
	pf.StringVar(&flags.ytdlp, "yt-dlp", "", "Path to yt-dlp binary")
	pf.BoolVar(&flags.gpu, "gpu", false, "Use the GPU codec for video conversion and re-encode mp4 downloads")
	pf.StringVar(&flags.gpuCodec, "gpu-codec", "", "GPU codec: h264_nvenc, hevc_nvenc, h264_qsv, h264_vaapi, h264_videotoolbox, libx264")
	pf.StringVar(&flags.progressFile, "progress-file", "", "Write progress snapshots as JSON to this file")

	rootCmd.AddCommand(
		newFormatsCmd(),
		newClassifyCmd(),
		newConvertCmd(a),
		newCompressCmd(a),
		newDownloadCmd(a),
		newGPUEncodeCmd(a),
	)
	return rootCmd
}

// setup resolves the configuration (defaults, then file, then flags) and builds the services.
func (a *app) setup(cmd *cobra.Command, flags *globalFlags) error {
	var (
		cfg config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else if path, perr := config.DefaultPath(); perr == nil {
		cfg, err = config.Load(path)
	} else {
		cfg = config.Default()
	}
	if err != nil {
		return err
	}

	f := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if f.Changed(name) {
			*dst = v
		}
	}
	override("log-level", &cfg.LogLevel, flags.logLevel)
	override("log-format", &cfg.LogFormat, flags.logFormat)
	override("ffmpeg", &cfg.FFmpeg, flags.ffmpeg)
	override("ffprobe", &cfg.FFprobe, flags.ffprobe)
	override("yt-dlp", &cfg.YtDlp, flags.ytdlp)
	override("gpu-codec", &cfg.GPUCodec, flags.gpuCodec)
	if f.Changed("gpu") {
		cfg.GPU = flags.gpu
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := encoder.ValidateCodec(cfg.GPUCodec); err != nil {
		return err
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr()); err != nil {
		return err
	}

	log := logger.NewLogger()
	a.cfg = cfg
	a.progressFile = flags.progressFile
	a.progressOut = cmd.ErrOrStderr()
	a.runner = transcoder.NewRunner(cfg.FFmpeg, cfg.FFprobe, log)
	audio := codec.NewAudio(a.runner, log)
	a.dispatcher = dispatcher.New(
		codec.NewImages(a.runner, log),
		audio,
		codec.NewVideo(a.runner, cfg.VideoEncoder(), log),
		log,
	)
	a.encoder = encoder.New(a.runner, log)
	a.downloader = downloader.New(downloader.Options{
		Extractor: downloader.NewYTDLP(cfg.YtDlp, log),
		Audio:     audio,
		Encoder:   a.encoder,
		GPUCodec:  cfg.GPUCodec,
		Logger:    log,
	})

	logger.Debug("Configuration resolved", "main", map[string]interface{}{
		"ffmpeg":       cfg.FFmpeg,
		"gpu":          cfg.GPU,
		"gpu_codec":    cfg.GPUCodec,
		"video_codec":  cfg.VideoEncoder(),
		"download_dir": cfg.DownloadDir,
	})
	return nil
}

// run executes task on a background worker while this goroutine consumes its progress.
func (a *app) run(ctx context.Context, kind dispatcher.Kind, source string, task dispatcher.Task) (string, error) {
	hub := progress.NewHub(64)
	w := dispatcher.Go(ctx, hub, kind, source, task)

	var result dispatcher.Result
	done := make(chan struct{})
	go func() {
		defer close(done)
		result = <-w.Result()
		hub.Close()
	}()

	progress.Drain(hub.Events(), func(string) progress.Reporter {
		return progress.NewReporter(
			progress.WithDescription(string(kind)),
			progress.WithThrottle(100*time.Millisecond),
			progress.WithProgressFile(a.progressFile),
			progress.WithWriter(a.progressOut),
		)
	})
	<-done
	return result.OutputPath, result.Err
}
