package iso9660

import (
	"fmt"
	"io"
	"strings"

	"github.com/rstms/iso-reader/pkg/iso9660/block"
	"github.com/rstms/iso-reader/pkg/iso9660/descriptor"
	"github.com/rstms/iso-reader/pkg/iso9660/directory"
	"github.com/rstms/iso-reader/pkg/logging"
	"github.com/rstms/iso-reader/pkg/option"
)

const rootName = "/"

// Open opens the ISO9660 image at path.
func Open(path string, opts ...option.OpenOption) (*Volume, error) {
	openOptions := option.Apply(opts...)

	store, err := block.Open(path, openOptions.Logger)
	if err != nil {
		return nil, err
	}

	v, err := newVolume(store, openOptions)
	if err != nil {
		store.Close()
		return nil, err
	}
	return v, nil
}

// NewVolume opens an ISO9660 volume from rs. The Volume takes ownership of rs; Close closes it when it is an
// io.Closer.
func NewVolume(rs io.ReadSeeker, opts ...option.OpenOption) (*Volume, error) {
	openOptions := option.Apply(opts...)

	store, err := block.New(rs, openOptions.Logger)
	if err != nil {
		return nil, err
	}
	return newVolume(store, openOptions)
}

func newVolume(store *block.Store, openOptions *option.OpenOptions) (*Volume, error) {
	logger := openOptions.Logger.WithName("iso9660")

	// The signature is checked before any other descriptor field is trusted.
	pvd, err := descriptor.ParsePrimaryVolumeDescriptor(store.Descriptor())
	if err != nil {
		return nil, fmt.Errorf("failed to parse primary volume descriptor: %w", err)
	}
	if pvd.LogicalBlockSize == 0 {
		return nil, fmt.Errorf("%w: logical block size is zero", ErrInvalidVolume)
	}

	logger = logger.WithValues("volumeID", pvd.VolumeIdentifier)
	rootRecord := pvd.RootDirectory()
	v := &Volume{
		store:       store,
		pvd:         pvd,
		openOptions: openOptions,
		logger:      logger,
		decoder:     directory.NewDecoder(openOptions.StripVersionInfo, logger),
		rootEntry: directory.Entry{
			Name:    rootName,
			LBA:     rootRecord.LocationOfExtent,
			Size:    rootRecord.DataLength,
			IsDir:   true,
			ModTime: rootRecord.RecordingDateAndTime,
		},
	}

	root, err := v.LoadDirectory(rootRecord.LocationOfExtent, rootRecord.DataLength)
	if err != nil {
		return nil, fmt.Errorf("failed to load root directory: %w", err)
	}
	v.root = root

	logger.Debug("Opened ISO9660 volume",
		"blockSize", pvd.LogicalBlockSize,
		"rootLBA", rootRecord.LocationOfExtent,
		"rootSize", rootRecord.DataLength,
		"rootEntries", len(root.Entries))

	return v, nil
}

// Volume is a read-only view of an ISO9660 filesystem. The root directory is loaded once at open time; every
// other directory is re-read from the image each time it is needed. A Volume shares one read position in the
// backing store across all operations and must not be used concurrently.
type Volume struct {
	store       *block.Store
	pvd         *descriptor.PrimaryVolumeDescriptor
	root        directory.Directory
	rootEntry   directory.Entry
	decoder     *directory.Decoder
	openOptions *option.OpenOptions
	logger      *logging.Logger
}

// GetVolumeID returns the volume identifier of the ISO9660 filesystem.
func (v *Volume) GetVolumeID() string {
	return v.pvd.VolumeIdentifier
}

// GetSystemID returns the system identifier of the ISO9660 filesystem.
func (v *Volume) GetSystemID() string {
	return v.pvd.SystemIdentifier
}

// GetVolumeSize returns the size of the ISO9660 filesystem in logical blocks.
func (v *Volume) GetVolumeSize() uint32 {
	return v.pvd.VolumeSpaceSize
}

// GetVolumeSetID returns the volume set identifier of the ISO9660 filesystem.
func (v *Volume) GetVolumeSetID() string {
	return v.pvd.VolumeSetIdentifier
}

// GetPublisherID returns the publisher identifier of the ISO9660 filesystem.
func (v *Volume) GetPublisherID() string {
	return v.pvd.PublisherIdentifier
}

// GetDataPreparerID returns the data preparer identifier of the ISO9660 filesystem.
func (v *Volume) GetDataPreparerID() string {
	return v.pvd.DataPreparerIdentifier
}

// GetApplicationID returns the application identifier of the ISO9660 filesystem.
func (v *Volume) GetApplicationID() string {
	return v.pvd.ApplicationIdentifier
}

// RootDirectoryLocation returns the location of the root directory in the ISO9660 filesystem.
func (v *Volume) RootDirectoryLocation() uint32 {
	return v.rootEntry.LBA
}

// BlockSize returns the logical block size of the volume.
func (v *Volume) BlockSize() uint16 {
	return v.store.BlockSize()
}

// Root returns a copy of the resident root directory.
func (v *Volume) Root() directory.Directory {
	return v.root.Clone()
}

// FindEntry resolves path one segment at a time starting from the root directory. Matching ignores case and
// version suffixes. Every intermediate directory is read fresh from the image. The root itself ("" or "/")
// resolves to a directory entry describing the root extent.
func (v *Volume) FindEntry(path string) (directory.Entry, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return v.rootEntry, nil
	}

	v.logger.Debug("Resolving path", "path", path, "segments", len(segments))

	current := v.root.Clone()
	var entry directory.Entry
	for i, segment := range segments {
		e, ok := current.Find(segment)
		if !ok {
			return directory.Entry{}, &PathError{Op: "find", Path: path, Err: ErrNotFound}
		}
		entry = e

		if i == len(segments)-1 {
			break
		}

		// A file has no children, so any remaining segment cannot match.
		if !e.IsDir {
			return directory.Entry{}, &PathError{Op: "find", Path: path, Err: ErrNotFound}
		}

		next, err := v.LoadDirectory(e.LBA, e.Size)
		if err != nil {
			return directory.Entry{}, &PathError{Op: "find", Path: path, Err: err}
		}
		current = next
	}

	v.logger.Trace("Resolved path", "path", path, "lba", entry.LBA, "size", entry.Size, "dir", entry.IsDir)
	return entry, nil
}

// LoadDirectory reads the ceil(size / blockSize) blocks of a directory extent starting at lba, truncates them to
// size bytes and decodes the records.
func (v *Volume) LoadDirectory(lba uint32, size uint32) (directory.Directory, error) {
	data, err := v.store.ReadExtent(lba, size)
	if err != nil {
		return directory.Directory{}, err
	}

	entries, err := v.decoder.Decode(data)
	if err != nil {
		return directory.Directory{}, fmt.Errorf("failed to decode directory at block %d: %w", lba, err)
	}

	v.logger.Trace("Loaded directory", "lba", lba, "size", size, "entries", len(entries))
	return directory.Directory{Entries: entries}, nil
}

// ReadFile returns the exact content of the file at path, without trailing block padding.
func (v *Volume) ReadFile(path string) ([]byte, error) {
	entry, err := v.FindEntry(path)
	if err != nil {
		return nil, err
	}
	if entry.IsDir {
		return nil, &PathError{Op: "read", Path: path, Err: ErrIsDirectory}
	}

	data, err := v.store.ReadExtent(entry.LBA, entry.Size)
	if err != nil {
		return nil, &PathError{Op: "read", Path: path, Err: err}
	}

	v.logger.Debug("Read file", "path", path, "size", len(data))
	return data, nil
}

// ListDir returns the entries of the directory at path in on-disk order. Listing the root returns the resident
// root directory without touching the image.
func (v *Volume) ListDir(path string) ([]directory.Entry, error) {
	if len(splitPath(path)) == 0 {
		return v.root.Clone().Entries, nil
	}

	entry, err := v.FindEntry(path)
	if err != nil {
		return nil, err
	}
	if !entry.IsDir {
		return nil, &PathError{Op: "list", Path: path, Err: ErrNotADirectory}
	}

	dir, err := v.LoadDirectory(entry.LBA, entry.Size)
	if err != nil {
		return nil, &PathError{Op: "list", Path: path, Err: err}
	}
	return dir.Entries, nil
}

// Close closes the backing store.
func (v *Volume) Close() error {
	return v.store.Close()
}

// splitPath drops one leading '/' and returns the non-empty segments, so a trailing '/' is ignored.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// cleanPath returns the canonical form of path used when reporting walked entries.
func cleanPath(path string) string {
	return "/" + strings.Join(splitPath(path), "/")
}
