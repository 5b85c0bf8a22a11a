package testing

import (
	"fmt"
	"strings"
	"time"

	"github.com/rstms/iso-reader/pkg/consts"
	"github.com/rstms/iso-reader/pkg/iso9660/descriptor"
	"github.com/rstms/iso-reader/pkg/iso9660/directory"
)

// ImageBuilder lays out a small ISO9660 image in memory. Identifiers are written exactly as given, so callers
// add ';1' suffixes themselves. Directory records never straddle a 2048-byte sector; the tail of each sector is
// zero padded, which is what mastering tools do. Directory extents are rounded up to whole logical blocks.
type ImageBuilder struct {
	blockSize uint16
	volumeID  string
	root      *node
	built     bool
}

type node struct {
	name     string
	isDir    bool
	data     []byte
	modTime  time.Time
	children []*node
	parent   *node
	lba      uint32
	size     uint32
}

// NewImageBuilder returns a builder for an image with the given logical block size.
func NewImageBuilder(blockSize uint16) *ImageBuilder {
	return &ImageBuilder{
		blockSize: blockSize,
		volumeID:  "TEST_VOLUME",
		root:      &node{name: consts.ISO9660_SELF_IDENTIFIER, isDir: true},
	}
}

// WithVolumeID sets the volume identifier written to the Primary Volume Descriptor.
func (b *ImageBuilder) WithVolumeID(id string) *ImageBuilder {
	b.volumeID = id
	return b
}

// AddDir adds a directory and any missing parents.
func (b *ImageBuilder) AddDir(path string) *ImageBuilder {
	b.mkdirs(segments(path))
	return b
}

// AddFile adds a file, creating any missing parent directories.
func (b *ImageBuilder) AddFile(path string, data []byte) *ImageBuilder {
	return b.AddFileWithTime(path, data, time.Time{})
}

// AddFileWithTime adds a file with a recording time.
func (b *ImageBuilder) AddFileWithTime(path string, data []byte, modTime time.Time) *ImageBuilder {
	segs := segments(path)
	parent := b.mkdirs(segs[:len(segs)-1])
	parent.children = append(parent.children, &node{
		name:    segs[len(segs)-1],
		data:    data,
		modTime: modTime,
		parent:  parent,
	})
	return b
}

// Extent returns the location and declared size of the entry at path, matching identifiers exactly. It is only
// meaningful after Build.
func (b *ImageBuilder) Extent(path string) (lba uint32, size uint32, ok bool) {
	n := b.root
	for _, s := range segments(path) {
		n = n.child(s)
		if n == nil {
			return 0, 0, false
		}
	}
	return n.lba, n.size, b.built
}

// BlockSize returns the logical block size of the image.
func (b *ImageBuilder) BlockSize() uint16 {
	return b.blockSize
}

// Build lays out and serialises the image.
func (b *ImageBuilder) Build() ([]byte, error) {
	bs := uint32(b.blockSize)
	if bs == 0 {
		return nil, fmt.Errorf("block size must not be zero")
	}

	// Primary descriptor and terminator occupy two 2048-byte sectors from 16*2048.
	descriptorsEnd := uint32(consts.ISO9660_VOLUME_DESC_OFFSET + 2*consts.ISO9660_SECTOR_SIZE)
	next := (descriptorsEnd + bs - 1) / bs

	// Directories first, breadth-first, then file data.
	var dirs, files []*node
	queue := []*node{b.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		dirs = append(dirs, n)
		for _, c := range n.children {
			if c.isDir {
				queue = append(queue, c)
			} else {
				files = append(files, c)
			}
		}
	}

	for _, d := range dirs {
		d.size = b.directorySize(d)
		d.lba = next
		next += d.size / bs
	}
	for _, f := range files {
		f.size = uint32(len(f.data))
		f.lba = next
		next += (f.size + bs - 1) / bs
	}

	imageSize := next * bs
	if imageSize < descriptorsEnd {
		imageSize = descriptorsEnd
	}
	img := make([]byte, imageSize)

	if err := b.writeDescriptors(img, next); err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := b.writeDirectory(img, d); err != nil {
			return nil, err
		}
	}
	for _, f := range files {
		copy(img[f.lba*bs:], f.data)
	}

	b.built = true
	return img, nil
}

func (b *ImageBuilder) writeDescriptors(img []byte, volumeBlocks uint32) error {
	pvd := &descriptor.PrimaryVolumeDescriptor{
		VolumeDescriptorHeader: descriptor.VolumeDescriptorHeader{
			VolumeDescriptorType:    descriptor.TYPE_PRIMARY_DESCRIPTOR,
			StandardIdentifier:      consts.ISO9660_STD_IDENTIFIER,
			VolumeDescriptorVersion: 1,
		},
		SystemIdentifier:     "LINUX",
		VolumeIdentifier:     b.volumeID,
		VolumeSpaceSize:      volumeBlocks,
		VolumeSetSize:        1,
		VolumeSequenceNumber: 1,
		LogicalBlockSize:     b.blockSize,
		RootDirectoryRecord: &directory.DirectoryRecord{
			LocationOfExtent:     b.root.lba,
			DataLength:           b.root.size,
			FileFlags:            directory.FileFlags{Directory: true},
			VolumeSequenceNumber: 1,
			FileIdentifier:       consts.ISO9660_SELF_IDENTIFIER,
		},
		FileStructureVersion: 1,
	}
	pvdBytes, err := pvd.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal primary volume descriptor: %w", err)
	}
	copy(img[consts.ISO9660_VOLUME_DESC_OFFSET:], pvdBytes[:])

	terminator := descriptor.VolumeDescriptorHeader{
		VolumeDescriptorType:    descriptor.TYPE_TERMINATOR_DESCRIPTOR,
		StandardIdentifier:      consts.ISO9660_STD_IDENTIFIER,
		VolumeDescriptorVersion: 1,
	}
	termBytes, err := terminator.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal terminator: %w", err)
	}
	copy(img[consts.ISO9660_VOLUME_DESC_OFFSET+consts.ISO9660_SECTOR_SIZE:], termBytes[:])
	return nil
}

func (b *ImageBuilder) writeDirectory(img []byte, d *node) error {
	parent := d.parent
	if parent == nil {
		parent = d
	}

	records := []*directory.DirectoryRecord{
		{LocationOfExtent: d.lba, DataLength: d.size, FileFlags: directory.FileFlags{Directory: true}, VolumeSequenceNumber: 1, FileIdentifier: consts.ISO9660_SELF_IDENTIFIER},
		{LocationOfExtent: parent.lba, DataLength: parent.size, FileFlags: directory.FileFlags{Directory: true}, VolumeSequenceNumber: 1, FileIdentifier: consts.ISO9660_PARENT_IDENTIFIER},
	}
	for _, c := range d.children {
		records = append(records, &directory.DirectoryRecord{
			LocationOfExtent:     c.lba,
			DataLength:           c.size,
			RecordingDateAndTime: c.modTime,
			FileFlags:            directory.FileFlags{Directory: c.isDir},
			VolumeSequenceNumber: 1,
			FileIdentifier:       c.name,
		})
	}

	const ss = consts.ISO9660_SECTOR_SIZE
	start := int(d.lba) * int(b.blockSize)
	pos := 0
	for _, r := range records {
		raw, err := r.Marshal()
		if err != nil {
			return fmt.Errorf("failed to marshal record %q: %w", r.FileIdentifier, err)
		}
		if pos%ss+len(raw) > ss {
			pos = (pos/ss + 1) * ss
		}
		copy(img[start+pos:], raw)
		pos += len(raw)
	}
	return nil
}

func (b *ImageBuilder) directorySize(d *node) uint32 {
	bs := int(b.blockSize)
	lengths := []int{recordLength(consts.ISO9660_SELF_IDENTIFIER), recordLength(consts.ISO9660_PARENT_IDENTIFIER)}
	for _, c := range d.children {
		lengths = append(lengths, recordLength(c.name))
	}

	const ss = consts.ISO9660_SECTOR_SIZE
	pos := 0
	for _, l := range lengths {
		if pos%ss+l > ss {
			pos = (pos/ss + 1) * ss
		}
		pos += l
	}
	return uint32((pos + bs - 1) / bs * bs)
}

func (b *ImageBuilder) mkdirs(segs []string) *node {
	n := b.root
	for _, s := range segs {
		c := n.child(s)
		if c == nil {
			c = &node{name: s, isDir: true, parent: n}
			n.children = append(n.children, c)
		}
		n = c
	}
	return n
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func recordLength(identifier string) int {
	l := consts.DR_FILE_IDENTIFIER + len(identifier)
	if len(identifier)%2 == 0 {
		l++
	}
	return l
}

func segments(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// GroundTruth returns the entries a reader should find, keyed by absolute path with version suffixes removed.
func (b *ImageBuilder) GroundTruth() []GroundTruthEntry {
	var out []GroundTruthEntry
	var walk func(n *node, prefix string)
	walk = func(n *node, prefix string) {
		for _, c := range n.children {
			name := prefix + "/" + directory.StripVersion(c.name)
			out = append(out, GroundTruthEntry{Name: name, Size: int64(len(c.data)), IsDirectory: c.isDir})
			if c.isDir {
				walk(c, name)
			}
		}
	}
	walk(b.root, "")
	return out
}
