package block

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rstms/iso-reader/pkg/consts"
	"github.com/rstms/iso-reader/pkg/iso9660/encoding"
	"github.com/rstms/iso-reader/pkg/logging"
)

// ErrIO wraps every failure of the backing store to open, seek or read.
var ErrIO = errors.New("i/o error")

// Store gives block-indexed access to an ISO9660 image. Every read repositions the shared cursor of the
// backing io.ReadSeeker, so a Store must not be used from more than one goroutine at a time.
type Store struct {
	rs         io.ReadSeeker
	blockSize  uint16
	descriptor [consts.ISO9660_SECTOR_SIZE]byte
	logger     *logging.Logger
}

// Open opens the image file at path and bootstraps a Store from it.
func Open(path string, logger *logging.Logger) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrIO, path, err)
	}

	s, err := New(f, logger)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// New bootstraps a Store from rs. The first volume descriptor is always read as one 2048-byte sector at byte
// offset 16*2048, whatever the logical block size turns out to be. The logical block size is taken from the
// little-endian field at offset 128 of that sector.
func New(rs io.ReadSeeker, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	s := &Store{rs: rs, logger: logger.WithName("block")}
	if err := s.readAt(consts.ISO9660_VOLUME_DESC_OFFSET, s.descriptor[:]); err != nil {
		return nil, fmt.Errorf("failed to read volume descriptor: %w", err)
	}

	blockSize, err := encoding.UnmarshalUint16LSB(s.descriptor[:], consts.PVD_LOGICAL_BLOCK_SIZE)
	if err != nil {
		return nil, fmt.Errorf("failed to read logical block size: %w", err)
	}
	s.blockSize = blockSize

	s.logger.Debug("Opened block store", "blockSize", s.blockSize)
	return s, nil
}

// BlockSize returns the logical block size recorded in the Primary Volume Descriptor.
func (s *Store) BlockSize() uint16 {
	return s.blockSize
}

// Descriptor returns a copy of the 2048-byte sector read at open time.
func (s *Store) Descriptor() []byte {
	d := make([]byte, len(s.descriptor))
	copy(d, s.descriptor[:])
	return d
}

// ReadBlock reads exactly one logical block starting at byte offset lba * blockSize. No check is made against the
// recorded volume size; a block past the end of the backing store fails with ErrIO.
func (s *Store) ReadBlock(lba uint32) ([]byte, error) {
	if s.blockSize == 0 {
		return nil, fmt.Errorf("%w: logical block size is zero", ErrIO)
	}

	buf := make([]byte, s.blockSize)
	if err := s.readAt(int64(lba)*int64(s.blockSize), buf); err != nil {
		return nil, fmt.Errorf("failed to read block %d: %w", lba, err)
	}

	s.logger.Trace("Read block", "lba", lba)
	return buf, nil
}

// ReadBlocks reads count consecutive blocks starting at lba and returns them concatenated. The buffer grows as
// blocks are read, so a corrupt count fails at the first missing block without a large allocation.
func (s *Store) ReadBlocks(lba uint32, count uint32) ([]byte, error) {
	var data []byte
	for i := uint32(0); i < count; i++ {
		b, err := s.ReadBlock(lba + i)
		if err != nil {
			return nil, err
		}
		data = append(data, b...)
	}
	return data, nil
}

// ReadExtent reads the ceil(size / blockSize) blocks of an extent and truncates the result to exactly size bytes.
func (s *Store) ReadExtent(lba uint32, size uint32) ([]byte, error) {
	if s.blockSize == 0 {
		return nil, fmt.Errorf("%w: logical block size is zero", ErrIO)
	}

	count := BlockCount(size, s.blockSize)
	data, err := s.ReadBlocks(lba, count)
	if err != nil {
		return nil, err
	}
	return data[:size], nil
}

// Close closes the backing store if it implements io.Closer.
func (s *Store) Close() error {
	if c, ok := s.rs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// BlockCount returns the number of blocks of blockSize needed to hold size bytes.
func BlockCount(size uint32, blockSize uint16) uint32 {
	if blockSize == 0 {
		return 0
	}
	bs := uint64(blockSize)
	return uint32((uint64(size) + bs - 1) / bs)
}

// readAt seeks to offset and fills buf. A short read is reported as io.ErrUnexpectedEOF.
func (s *Store) readAt(offset int64, buf []byte) error {
	if _, err := s.rs.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to %d: %w", ErrIO, offset, err)
	}
	if _, err := io.ReadFull(s.rs, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("%w: read %d bytes at %d: %w", ErrIO, len(buf), offset, err)
	}
	return nil
}
