package directory

import (
	"errors"
	"fmt"
	"time"

	"github.com/rstms/iso-reader/pkg/consts"
	"github.com/rstms/iso-reader/pkg/iso9660/encoding"
)

// ErrMalformedRecord is returned when a directory record does not fit inside the data it was read from.
var ErrMalformedRecord = errors.New("malformed directory record")

type DirectoryRecord struct {
	// Length Of Directory Record specifies the length of the directory record in bytes.
	LengthOfDirectoryRecord uint8 `json:"length_of_directory_record"`
	// Extended Attribute Record Length is the length of an Extended Attribute Record recorded ahead of the file
	// data, zero when there is none.
	ExtendedAttributeRecordLength uint8 `json:"extended_attribute_record_length"`
	// Location of Extent specifies the Logical Block Number of the first Logical Block allocated to the Extent.
	//  | Encoding: BothByteOrder (only the little-endian half is read)
	LocationOfExtent uint32 `json:"location_of_extent"`
	// Data Length specifies the data length of the File Section.
	//  | Encoding: BothByteOrder (only the little-endian half is read)
	DataLength uint32 `json:"data_length"`
	// Recording Date and Time specifies when the information in the Extent was recorded. Zero when unspecified
	// or not decodable.
	//  | Encoding: 7-byte time format
	RecordingDateAndTime time.Time `json:"recording_date_and_time"`
	// File Flags is an 8-bit field that records flags related to the Directory Record, see FileFlags.
	FileFlags FileFlags `json:"file_flags"`
	// Volume Sequence Number specifies the ordinal number of the volume in the Volume Set on which the Extent
	// described by this Directory Record is recorded. Only written, never interpreted.
	VolumeSequenceNumber uint16 `json:"volume_sequence_number"`
	// Length of File Identifier specifies the length in bytes of the File Identifier field of the Directory Record.
	LengthOfFileIdentifier uint8 `json:"length_of_file_identifier"`
	// File Identifier is the raw identifier text, including any ';N' version suffix. The self and parent records
	// use the single bytes 0x00 and 0x01.
	FileIdentifier string `json:"file_identifier"`
}

// IsDirectory checks if the entry is a Directory
func (dr *DirectoryRecord) IsDirectory() bool {
	return dr.FileFlags.Directory
}

// IsSpecial checks for "." or ".."
func (dr *DirectoryRecord) IsSpecial() bool {
	return dr.FileIdentifier == consts.ISO9660_SELF_IDENTIFIER || dr.FileIdentifier == consts.ISO9660_PARENT_IDENTIFIER
}

// Marshal converts the DirectoryRecord into its on‑disk byte representation.
// It computes and sets the LengthOfDirectoryRecord field and handles the optional
// padding byte for the File Identifier.
func (dr *DirectoryRecord) Marshal() ([]byte, error) {
	// Reserve a byte for LengthOfDirectoryRecord; we'll set it at the end.
	buf := []byte{0, dr.ExtendedAttributeRecordLength}

	locBytes := encoding.MarshalBothByteOrders32(dr.LocationOfExtent)
	buf = append(buf, locBytes[:]...)

	dataLenBytes := encoding.MarshalBothByteOrders32(dr.DataLength)
	buf = append(buf, dataLenBytes[:]...)

	var recTimeBytes [7]byte
	if !dr.RecordingDateAndTime.IsZero() {
		var err error
		recTimeBytes, err = encoding.MarshalRecordingDateTime(dr.RecordingDateAndTime)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal RecordingDateAndTime: %w", err)
		}
	}
	buf = append(buf, recTimeBytes[:]...)

	// File Flags, File Unit Size and Interleave Gap Size; interleaving is never written.
	buf = append(buf, dr.FileFlags.Marshal(), 0, 0)

	volSeqBytes := encoding.MarshalBothByteOrders16(dr.VolumeSequenceNumber)
	buf = append(buf, volSeqBytes[:]...)

	fileIDBytes := []byte(dr.FileIdentifier)
	if len(fileIDBytes) > 254-consts.DR_FILE_IDENTIFIER {
		return nil, fmt.Errorf("file identifier %q is too long", dr.FileIdentifier)
	}
	buf = append(buf, uint8(len(fileIDBytes)))
	buf = append(buf, fileIDBytes...)

	// Padding Field: present if the File Identifier length is even.
	if len(fileIDBytes)%2 == 0 {
		buf = append(buf, 0x00)
	}

	buf[0] = uint8(len(buf))
	dr.LengthOfDirectoryRecord = buf[0]
	dr.LengthOfFileIdentifier = uint8(len(fileIDBytes))

	return buf, nil
}

// Unmarshal decodes a DirectoryRecord from data, which must hold exactly the record (its length taken from the
// first byte). Every fixed-offset field is bounds-checked; a record that is too short for its own fields fails
// with ErrMalformedRecord.
func (dr *DirectoryRecord) Unmarshal(data []byte) error {
	if len(data) < consts.DR_FILE_IDENTIFIER {
		return fmt.Errorf("%w: %d bytes is shorter than the %d byte fixed part", ErrMalformedRecord, len(data), consts.DR_FILE_IDENTIFIER)
	}
	if int(data[0]) > len(data) {
		return fmt.Errorf("%w: record length %d exceeds %d available bytes", ErrMalformedRecord, data[0], len(data))
	}

	dr.LengthOfDirectoryRecord = data[0]
	dr.ExtendedAttributeRecordLength = data[1]

	var err error
	if dr.LocationOfExtent, err = encoding.UnmarshalUint32LSB(data, consts.DR_LOCATION_OF_EXTENT); err != nil {
		return fmt.Errorf("%w: location of extent: %w", ErrMalformedRecord, err)
	}
	if dr.DataLength, err = encoding.UnmarshalUint32LSB(data, consts.DR_DATA_LENGTH); err != nil {
		return fmt.Errorf("%w: data length: %w", ErrMalformedRecord, err)
	}
	if dr.VolumeSequenceNumber, err = encoding.UnmarshalUint16LSB(data, consts.DR_VOLUME_SEQUENCE_NUMBER); err != nil {
		return fmt.Errorf("%w: volume sequence number: %w", ErrMalformedRecord, err)
	}

	// A bad timestamp should not hide the entry, so it decodes to the zero time.
	var recTimeBytes [7]byte
	copy(recTimeBytes[:], data[consts.DR_RECORDING_DATE_AND_TIME:consts.DR_RECORDING_DATE_AND_TIME+7])
	if dr.RecordingDateAndTime, err = encoding.UnmarshalRecordingDateTime(recTimeBytes); err != nil {
		dr.RecordingDateAndTime = time.Time{}
	}

	dr.FileFlags = UnmarshalFileFlags(data[consts.DR_FILE_FLAGS])
	dr.LengthOfFileIdentifier = data[consts.DR_FILE_IDENTIFIER_LENGTH]

	end := consts.DR_FILE_IDENTIFIER + int(dr.LengthOfFileIdentifier)
	if end > len(data) {
		return fmt.Errorf("%w: file identifier of %d bytes exceeds record length %d", ErrMalformedRecord, dr.LengthOfFileIdentifier, len(data))
	}
	dr.FileIdentifier = encoding.DecodeIdentifier(data[consts.DR_FILE_IDENTIFIER:end])

	return nil
}
