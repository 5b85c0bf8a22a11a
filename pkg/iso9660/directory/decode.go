package directory

import (
	"fmt"

	"github.com/rstms/iso-reader/pkg/consts"
	"github.com/rstms/iso-reader/pkg/logging"
)

// Decoder turns raw directory extent bytes into entries.
type Decoder struct {
	stripVersionInfo bool
	logger           *logging.Logger
}

// NewDecoder returns a Decoder. A nil logger discards output.
func NewDecoder(stripVersionInfo bool, logger *logging.Logger) *Decoder {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Decoder{
		stripVersionInfo: stripVersionInfo,
		logger:           logger,
	}
}

// Decode decodes a directory extent, stripping version suffixes.
func Decode(data []byte) ([]Entry, error) {
	return NewDecoder(true, nil).Decode(data)
}

// Decode scans data record by record. A zero length byte means the rest of the current 2048-byte sector is
// padding and scanning resumes at the next sector boundary, whatever the logical block size. The self and parent
// records are never returned.
func (d *Decoder) Decode(data []byte) ([]Entry, error) {
	var entries []Entry

	pos := 0
	for pos < len(data) {
		length := int(data[pos])
		if length == 0 {
			pos = (pos/consts.ISO9660_SECTOR_SIZE + 1) * consts.ISO9660_SECTOR_SIZE
			continue
		}

		if pos+length > len(data) {
			return nil, fmt.Errorf("%w: record at offset %d with length %d exceeds extent of %d bytes",
				ErrMalformedRecord, pos, length, len(data))
		}

		var dr DirectoryRecord
		if err := dr.Unmarshal(data[pos : pos+length]); err != nil {
			return nil, fmt.Errorf("failed to decode record at offset %d: %w", pos, err)
		}

		if dr.IsSpecial() {
			d.logger.Trace("Skipping special directory record", "offset", pos, "identifier", fmt.Sprintf("%#x", dr.FileIdentifier))
			pos += length
			continue
		}

		name := dr.FileIdentifier
		if d.stripVersionInfo {
			name = StripVersion(name)
		}

		entry := Entry{
			Name:    name,
			LBA:     dr.LocationOfExtent,
			Size:    dr.DataLength,
			IsDir:   dr.IsDirectory(),
			ModTime: dr.RecordingDateAndTime,
		}
		d.logger.Trace("Decoded directory record", "offset", pos, "name", entry.Name, "lba", entry.LBA, "size", entry.Size, "dir", entry.IsDir)
		entries = append(entries, entry)

		pos += length
	}

	return entries, nil
}
