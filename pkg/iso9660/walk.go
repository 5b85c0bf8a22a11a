package iso9660

import (
	"errors"
	"io/fs"

	"github.com/rstms/iso-reader/pkg/iso9660/directory"
)

// WalkFunc is called for every entry below the walked directory with the entry's absolute path. Returning
// fs.SkipDir for a directory entry skips its contents; for a file it skips the remaining entries of the file's
// directory. Any other error stops the walk and is returned by Walk.
type WalkFunc func(path string, entry directory.Entry) error

// Walk visits the tree below path breadth-first, each directory's entries in on-disk order. A directory extent
// already visited during the walk is not descended into again.
func (v *Volume) Walk(path string, fn WalkFunc) error {
	start, err := v.FindEntry(path)
	if err != nil {
		return err
	}
	if !start.IsDir {
		return &PathError{Op: "walk", Path: path, Err: ErrNotADirectory}
	}

	type pending struct {
		path  string
		entry directory.Entry
	}

	visited := map[uint32]bool{}
	queue := []pending{{path: cleanPath(path), entry: start}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current.entry.LBA] {
			v.logger.Debug("Skipping directory already visited", "path", current.path, "lba", current.entry.LBA)
			continue
		}
		visited[current.entry.LBA] = true

		var dir directory.Directory
		if current.entry.LBA == v.rootEntry.LBA {
			dir = v.root.Clone()
		} else {
			dir, err = v.LoadDirectory(current.entry.LBA, current.entry.Size)
			if err != nil {
				return &PathError{Op: "walk", Path: current.path, Err: err}
			}
		}

		for _, e := range dir.Entries {
			entryPath := joinPath(current.path, e.Name)
			if err := fn(entryPath, e); err != nil {
				if !errors.Is(err, fs.SkipDir) {
					return err
				}
				if e.IsDir {
					continue
				}
				// fs.SkipDir on a file skips the rest of its directory.
				break
			}
			if e.IsDir {
				queue = append(queue, pending{path: entryPath, entry: e})
			}
		}
	}

	return nil
}

func joinPath(dir, name string) string {
	if dir == rootName {
		return rootName + name
	}
	return dir + "/" + name
}
