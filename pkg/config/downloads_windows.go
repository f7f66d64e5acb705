//go:build windows

package config

import (
	"golang.org/x/sys/windows"

	"github.com/heyjunin/TurboConvert/pkg/errors"
)

// DownloadsDir returns the user's Downloads known folder.
func DownloadsDir() (string, error) {
	dir, err := windows.KnownFolderPath(windows.FOLDERID_Downloads, 0)
	if err != nil {
		return "", errors.Wrap(err, errors.SystemError, "Failed to resolve the Downloads folder", errors.ErrDownloadDirUnresolved)
	}
	return dir, nil
}
