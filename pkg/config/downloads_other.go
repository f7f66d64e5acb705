//go:build !windows

package config

import (
	"os"
	"path/filepath"

	"github.com/heyjunin/TurboConvert/pkg/errors"
)

// DownloadsDir returns $HOME/Downloads.
func DownloadsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, errors.SystemError, "Failed to resolve the Downloads folder", errors.ErrDownloadDirUnresolved)
	}
	return filepath.Join(home, "Downloads"), nil
}
