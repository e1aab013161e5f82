// Package dedup decides whether an incoming file is a duplicate of one
// already sitting in its destination. Same filename plus identical
// content is a duplicate; a name collision over different content is
// not, and is resolved by disambiguation at move time instead.
package dedup

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"shelf/internal/fileutil"
	"shelf/internal/services"
)

// IsDuplicate reports whether destinationDir already holds a file with
// sourcePath's name and byte-identical content.
func IsDuplicate(sourcePath, destinationDir string) (bool, error) {
	existing := filepath.Join(destinationDir, filepath.Base(sourcePath))
	info, err := os.Stat(existing)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, services.Wrap(services.ErrFilesystem, "dedup", "stat", existing, err)
	}
	if info.IsDir() {
		return false, nil
	}

	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return false, services.Wrap(services.ErrFilesystem, "dedup", "stat", sourcePath, err)
	}
	// Different sizes can never hash equal.
	if sourceInfo.Size() != info.Size() {
		return false, nil
	}

	sourceSum, err := fileutil.Checksum(sourcePath)
	if err != nil {
		return false, services.Wrap(services.ErrFilesystem, "dedup", "checksum", sourcePath, err)
	}
	existingSum, err := fileutil.Checksum(existing)
	if err != nil {
		return false, services.Wrap(services.ErrFilesystem, "dedup", "checksum", existing, err)
	}
	return sourceSum == existingSum, nil
}
