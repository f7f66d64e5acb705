package codec

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/heyjunin/TurboConvert/pkg/formats"
	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/heyjunin/TurboConvert/pkg/progress"
)

const (
	DefaultJPEGQuality = 75
	DefaultWebPQuality = 80
)

// Images decodes with imaging (webp through chai2010/webp) and encodes in-process.
// heif and ico, which neither library writes, are handed to ffmpeg.
type Images struct {
	FFmpeg FFmpeg
	Logger logger.Logger
}

// NewImages creates the image boundary.
func NewImages(ff FFmpeg, log logger.Logger) *Images {
	return &Images{FFmpeg: ff, Logger: logger.OrDefault(log)}
}

func viaFFmpeg(format string) bool {
	return format == "heif" || format == "ico"
}

// Save implements ImageCodec.
func (c *Images) Save(ctx context.Context, src, dst, format string, opts ImageOptions) error {
	format = strings.ToLower(strings.TrimPrefix(format, "."))

	if viaFFmpeg(format) || viaFFmpeg(formats.Extension(src)) {
		return c.saveWithFFmpeg(ctx, src, dst, format)
	}

	img, err := decodeImage(src)
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := encodeImage(out, img, format, opts); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	b := img.Bounds()
	c.Logger.Debug("Image written", "codec", map[string]interface{}{
		"src":     src,
		"dst":     dst,
		"format":  format,
		"width":   b.Dx(),
		"height":  b.Dy(),
		"quality": opts.Quality,
	})
	return nil
}

func (c *Images) saveWithFFmpeg(ctx context.Context, src, dst, format string) error {
	if c.FFmpeg == nil {
		return fmt.Errorf("no ffmpeg configured for %s images", format)
	}
	var args []string
	if format == "ico" {
		// ico frames are at most 256 pixels per side.
		args = []string{"-vf", "scale='min(256,iw)':'min(256,ih)':force_original_aspect_ratio=decrease"}
	}
	return c.FFmpeg.Transcode(ctx, src, dst, args, "Converting image", progress.Discard)
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if formats.Extension(path) == "webp" {
		return webp.Decode(f)
	}
	return imaging.Decode(f, imaging.AutoOrientation(true))
}

func encodeImage(w io.Writer, img image.Image, format string, opts ImageOptions) error {
	switch format {
	case "png":
		level := png.DefaultCompression
		if opts.Optimize {
			level = png.BestCompression
		}
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(level))
	case "jpg", "jpeg":
		q := opts.Quality
		if q == 0 {
			q = DefaultJPEGQuality
		}
		return imaging.Encode(w, flattenRGB(img), imaging.JPEG, imaging.JPEGQuality(q))
	case "gif":
		return imaging.Encode(w, img, imaging.GIF, imaging.GIFNumColors(256))
	case "bmp":
		return imaging.Encode(w, img, imaging.BMP)
	case "tiff":
		return imaging.Encode(w, img, imaging.TIFF)
	case "webp":
		q := opts.Quality
		if q == 0 {
			q = DefaultWebPQuality
		}
		return webp.Encode(w, img, &webp.Options{Quality: float32(q)})
	}
	return fmt.Errorf("image format %q cannot be encoded", format)
}

// flattenRGB composites img over white so formats without alpha keep transparent areas light.
func flattenRGB(img image.Image) image.Image {
	if isOpaque(img) {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
