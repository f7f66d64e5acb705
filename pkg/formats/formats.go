// Package formats holds the extension table and the rules for classifying files by it.
package formats

import (
	"path/filepath"
	"strings"

	"github.com/heyjunin/TurboConvert/pkg/errors"
)

// Category is the coarse kind of a file, decided only by its extension.
type Category string

const (
	Image    Category = "image"
	Audio    Category = "audio"
	Video    Category = "video"
	Document Category = "document"
)

// table is ordered: the first entry of each list is the default target offered to the user.
var table = []struct {
	category   Category
	extensions []string
}{
	{Image, []string{"png", "jpeg", "jpg", "bmp", "gif", "tiff", "webp", "heif", "ico"}},
	{Audio, []string{"mp3", "wav", "ogg", "flac", "aac", "m4a", "opus"}},
	{Video, []string{"mp4", "avi", "mov", "webm", "flv", "mkv", "wmv"}},
	{Document, []string{"docx", "pdf"}},
}

var byExtension = func() map[string]Category {
	m := make(map[string]Category)
	for _, row := range table {
		for _, ext := range row.extensions {
			m[ext] = row.category
		}
	}
	return m
}()

// Categories lists every category in table order.
func Categories() []Category {
	out := make([]Category, 0, len(table))
	for _, row := range table {
		out = append(out, row.category)
	}
	return out
}

// TargetsFor returns a copy of the extensions belonging to c, or nil for an unknown category.
// Conversion targets are only ever taken from this list.
func TargetsFor(c Category) []string {
	for _, row := range table {
		if row.category == c {
			out := make([]string, len(row.extensions))
			copy(out, row.extensions)
			return out
		}
	}
	return nil
}

// Compressible reports whether c supports compression.
func Compressible(c Category) bool {
	return c == Image || c == Video
}

// Extension returns the lowercase extension of path without the dot,
// or "" when the base name has no '.'.
func Extension(path string) string {
	ext := filepath.Ext(path)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Classify returns the category for path's extension. Files are never sniffed:
// a mislabeled file is only discovered when the codec fails on it.
func Classify(path string) (Category, error) {
	ext := Extension(path)
	if ext == "" {
		return "", errors.New(errors.UnsupportedFormat, "File has no extension", path, errors.ErrMissingExtension)
	}
	c, ok := byExtension[ext]
	if !ok {
		return "", errors.New(errors.UnsupportedFormat, "Unsupported file extension", ext, errors.ErrUnknownExtension)
	}
	return c, nil
}

// Allows reports whether target is one of c's extensions. target is compared case-insensitively.
func Allows(c Category, target string) bool {
	got, ok := byExtension[strings.ToLower(strings.TrimPrefix(target, "."))]
	return ok && got == c
}

// CleanPath strips the braces and quotes that drag-and-drop adds around paths.
func CleanPath(path string) string {
	path = strings.TrimSpace(path)
	for {
		trimmed := strings.Trim(path, "{}\"'")
		if trimmed == path {
			return path
		}
		path = strings.TrimSpace(trimmed)
	}
}
