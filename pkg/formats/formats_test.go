package formats

import (
	"strings"
	"testing"

	"github.com/heyjunin/TurboConvert/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyEveryTableExtension(t *testing.T) {
	for _, c := range Categories() {
		for _, ext := range TargetsFor(c) {
			for _, name := range []string{"file." + ext, "FILE." + strings.ToUpper(ext), "/tmp/a.b/Mixed." + strings.ToUpper(ext[:1]) + ext[1:]} {
				got, err := Classify(name)
				require.NoError(t, err, name)
				assert.Equal(t, c, got, name)
			}
		}
	}
}

func TestClassifyUnknown(t *testing.T) {
	tests := []struct {
		path string
		code int
	}{
		{"song.xyz", errors.ErrUnknownExtension},
		{"archive.tar.gz", errors.ErrUnknownExtension},
		{"README", errors.ErrMissingExtension},
		{"dir.png/noext", errors.ErrMissingExtension},
		{"trailing.", errors.ErrMissingExtension},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := Classify(tt.path)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.UnsupportedFormat))
			se, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, se.Code)
		})
	}
}

func TestEveryExtensionHasOneCategory(t *testing.T) {
	seen := map[string]Category{}
	for _, c := range Categories() {
		for _, ext := range TargetsFor(c) {
			prev, dup := seen[ext]
			assert.False(t, dup, "%s listed under %s and %s", ext, prev, c)
			seen[ext] = c
		}
	}
}

func TestTargetsForReturnsCopy(t *testing.T) {
	targets := TargetsFor(Image)
	require.NotEmpty(t, targets)
	targets[0] = "exe"
	assert.Equal(t, "png", TargetsFor(Image)[0])
	assert.Nil(t, TargetsFor(Category("spreadsheet")))
}

func TestTargetsStayInCategory(t *testing.T) {
	for _, c := range Categories() {
		for _, target := range TargetsFor(c) {
			assert.True(t, Allows(c, target))
			for _, other := range Categories() {
				if other != c {
					assert.False(t, Allows(other, target), "%s allowed for %s", target, other)
				}
			}
		}
	}
}

func TestCompressible(t *testing.T) {
	assert.True(t, Compressible(Image))
	assert.True(t, Compressible(Video))
	assert.False(t, Compressible(Audio))
	assert.False(t, Compressible(Document))
}

func TestCleanPath(t *testing.T) {
	assert.Equal(t, "/home/me/My File.png", CleanPath("{/home/me/My File.png}"))
	assert.Equal(t, `C:\Users\me\a.mp4`, CleanPath(`"C:\Users\me\a.mp4"`))
	assert.Equal(t, "/x/y.mp3", CleanPath("  '/x/y.mp3' "))
	assert.Equal(t, "plain.gif", CleanPath("plain.gif"))
}
