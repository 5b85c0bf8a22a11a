package iso

import (
	"io"

	"github.com/rstms/iso-reader/pkg/iso9660"
	"github.com/rstms/iso-reader/pkg/iso9660/directory"
	"github.com/rstms/iso-reader/pkg/iso9660/info"
	"github.com/rstms/iso-reader/pkg/option"
)

// Open opens an existing ISO image file
func Open(location string, opts ...option.OpenOption) (Image, error) {
	v, err := iso9660.Open(location, opts...)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// OpenReader opens an ISO image from rs. The returned Image owns rs and closes it on Close when rs is an
// io.Closer.
func OpenReader(rs io.ReadSeeker, opts ...option.OpenOption) (Image, error) {
	v, err := iso9660.NewVolume(rs, opts...)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Image represents an ISO image
type Image interface {
	Close() error
	BlockSize() uint16
	GetVolumeID() string
	Root() directory.Directory
	FindEntry(path string) (directory.Entry, error)
	ListDir(path string) ([]directory.Entry, error)
	ReadFile(path string) ([]byte, error)
	Walk(path string, fn iso9660.WalkFunc) error
	Extract(path string, outputDir string) error
	Layout() (*info.ISOLayout, error)
}

var _ Image = (*iso9660.Volume)(nil)
