package testing

import (
	"github.com/rstms/iso-reader/pkg/iso9660"
	"github.com/rstms/iso-reader/pkg/iso9660/directory"
)

// GetFileAndFolderCounts walks the tree below path and counts directories and files.
func GetFileAndFolderCounts(v *iso9660.Volume, path string) (int, int, error) {
	var folderCount, fileCount int
	err := v.Walk(path, func(_ string, e directory.Entry) error {
		if e.IsDir {
			folderCount++
		} else {
			fileCount++
		}
		return nil
	})
	return folderCount, fileCount, err
}

// CollectEntries walks the tree below path and returns every entry keyed by its absolute path.
func CollectEntries(v *iso9660.Volume, path string) (map[string]directory.Entry, error) {
	entries := make(map[string]directory.Entry)
	err := v.Walk(path, func(p string, e directory.Entry) error {
		entries[p] = e
		return nil
	})
	return entries, err
}
