package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heyjunin/TurboConvert/pkg/codec"
	"github.com/heyjunin/TurboConvert/pkg/dispatcher"
	"github.com/heyjunin/TurboConvert/pkg/downloader"
	"github.com/heyjunin/TurboConvert/pkg/encoder"
	"github.com/heyjunin/TurboConvert/pkg/errors"
	"github.com/heyjunin/TurboConvert/pkg/formats"
	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/heyjunin/TurboConvert/pkg/progress"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported formats by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, c := range formats.Categories() {
				compress := ""
				if formats.Compressible(c) {
					compress = " (compressible)"
				}
				fmt.Fprintf(out, "%-9s %s%s\n", c+":", strings.Join(formats.TargetsFor(c), ", "), compress)
			}
			return nil
		},
	}
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <path>",
		Short: "Show a file's category and the formats it can be converted to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := formats.NewSelection()
			if err := sel.Select(args[0]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "category: %s\n", sel.Category())
			fmt.Fprintf(out, "targets:  %s\n", strings.Join(sel.Targets(), ", "))
			fmt.Fprintf(out, "compress: %t\n", sel.CompressionEnabled())

			if sel.Category() == formats.Audio {
				if tags, err := codec.ReadTags(sel.Path()); err == nil {
					fmt.Fprintf(out, "title:    %s\nartist:   %s\n", tags.Title, tags.Artist)
				}
			}
			return nil
		},
	}
}

func newConvertCmd(a *app) *cobra.Command {
	var input, target string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a file to another format of the same category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := formats.NewSelection()
			if err := sel.Select(input); err != nil {
				return err
			}
			if err := sel.Choose(target); err != nil {
				return err
			}
			req, err := dispatcher.NewConversionRequest(sel.Path(), sel.Target())
			if err != nil {
				return err
			}
			if err := sel.BeginConversion(); err != nil {
				return err
			}

			output, err := a.run(cmd.Context(), dispatcher.KindConvert, req.SourcePath,
				func(ctx context.Context, pub progress.Publisher) (string, error) {
					return a.dispatcher.Convert(ctx, req, pub)
				})
			_ = sel.Finish(err)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input file (required)")
	cmd.Flags().StringVarP(&target, "format", "f", "", "Target format (required)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

func newCompressCmd(a *app) *cobra.Command {
	var (
		input   string
		quality int
	)

	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Compress an image or video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("quality") {
				quality = a.cfg.Quality
			}

			sel := formats.NewSelection()
			if err := sel.Select(input); err != nil {
				return err
			}
			req, err := dispatcher.NewCompressionRequest(sel.Path(), quality)
			if err != nil {
				return err
			}
			if err := sel.BeginCompression(); err != nil {
				return err
			}

			output, err := a.run(cmd.Context(), dispatcher.KindCompress, req.SourcePath,
				func(ctx context.Context, pub progress.Publisher) (string, error) {
					return a.dispatcher.Compress(ctx, req, pub)
				})
			_ = sel.Finish(err)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input file (required)")
	cmd.Flags().IntVarP(&quality, "quality", "q", dispatcher.DefaultQuality, "Quality from 1 to 100")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newDownloadCmd(a *app) *cobra.Command {
	var container, dest string

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download a YouTube video as webm, mp4 or audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := downloader.ParseContainer(container)
			if err != nil {
				return err
			}
			if dest == "" {
				dest = a.cfg.DownloadDir
			}
			if dest == "" {
				return errors.New(errors.ValidationError, "No download directory", "pass --dest or set download_dir", errors.ErrDownloadDirUnresolved)
			}

			req := downloader.Request{
				URL:            formats.CleanPath(args[0]),
				Container:      c,
				DestinationDir: dest,
				GPU:            a.cfg.GPU,
			}
			output, err := a.run(cmd.Context(), dispatcher.KindDownload, req.URL,
				func(ctx context.Context, pub progress.Publisher) (string, error) {
					return a.downloader.Download(ctx, req, pub)
				})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&container, "container", "c", string(downloader.MP4), "Container: webm, mp4 or audio")
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Destination directory (default: Downloads folder)")
	return cmd
}

func newGPUEncodeCmd(a *app) *cobra.Command {
	var input, dest, title, codecName string

	cmd := &cobra.Command{
		Use:   "gpu-encode",
		Short: "Re-encode a video with a GPU encoder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if codecName == "" {
				codecName = a.cfg.GPUCodec
			}
			req := encoder.Request{
				Input:     formats.CleanPath(input),
				OutputDir: dest,
				Title:     title,
				Codec:     codecName,
			}
			if err := encoder.ValidateCodec(req.Codec); err != nil {
				return err
			}

			output, err := a.run(cmd.Context(), dispatcher.KindEncode, req.Input,
				func(ctx context.Context, pub progress.Publisher) (string, error) {
					return a.encoder.RunExternalEncoder(ctx, req, pub)
				})
			if err != nil {
				return err
			}
			logger.Info("GPU encode finished", "main", map[string]interface{}{"output": output})
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input video (required)")
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Output directory (default: next to the input)")
	cmd.Flags().StringVar(&title, "title", "", "Output name before _gpu.mp4 (default: input name)")
	cmd.Flags().StringVar(&codecName, "codec", "", "Encoder (default: --gpu-codec)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
