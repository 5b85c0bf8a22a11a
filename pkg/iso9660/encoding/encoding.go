package encoding

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// UnmarshalUint16LSB reads the little-endian 16-bit field that starts at offset. It returns an error wrapping
// io.ErrUnexpectedEOF when the field does not fit inside data.
func UnmarshalUint16LSB(data []byte, offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(data) {
		return 0, fmt.Errorf("16-bit field at offset %d exceeds %d bytes: %w", offset, len(data), io.ErrUnexpectedEOF)
	}
	return binary.LittleEndian.Uint16(data[offset : offset+2]), nil
}

// UnmarshalUint32LSB reads the little-endian 32-bit field that starts at offset. ISO9660 records most numbers
// in both byte orders; only the little-endian half is consulted.
func UnmarshalUint32LSB(data []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(data) {
		return 0, fmt.Errorf("32-bit field at offset %d exceeds %d bytes: %w", offset, len(data), io.ErrUnexpectedEOF)
	}
	return binary.LittleEndian.Uint32(data[offset : offset+4]), nil
}

// MarshalBothByteOrders32 converts a uint32 value into an 8-byte field that
// encodes the value in both little‑endian and big‑endian orders.
func MarshalBothByteOrders32(val uint32) [8]byte {
	var data [8]byte
	binary.LittleEndian.PutUint32(data[0:4], val)
	binary.BigEndian.PutUint32(data[4:8], val)
	return data
}

// MarshalBothByteOrders16 converts a uint16 value into a 4-byte field that
// encodes the value in both little‑endian and big‑endian orders.
// For example, for the value 0x1234, it returns [0x34, 0x12, 0x12, 0x34].
func MarshalBothByteOrders16(val uint16) [4]byte {
	var data [4]byte
	binary.LittleEndian.PutUint16(data[0:2], val)
	binary.BigEndian.PutUint16(data[2:4], val)
	return data
}

// DecodeIdentifier converts raw identifier bytes into a string. Invalid UTF-8 sequences are replaced with
// U+FFFD, so decoding never fails.
func DecodeIdentifier(raw []byte) string {
	s, err := unicode.UTF8.NewDecoder().String(string(raw))
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�")
	}
	return s
}

// MarshalRecordingDateTime converts a time.Time into a 7-byte field according
// to Table 9 – Recording Date and Time. It returns an error if the year is out of range.
// Note: This type format is used in DirectoryRecords
func MarshalRecordingDateTime(t time.Time) ([7]byte, error) {
	var b [7]byte

	year, month, day := t.Date()
	hour, minute, second := t.Clock()

	// The field stores the number of years since 1900, so valid years are 1900–2155.
	if year < 1900 || year > 2155 {
		return b, fmt.Errorf("year %d out of range for Recording Date and Time (must be between 1900 and 2155)", year)
	}
	b[0] = byte(year - 1900)
	b[1] = byte(month)
	b[2] = byte(day)
	b[3] = byte(hour)
	b[4] = byte(minute)
	b[5] = byte(second)

	_, offsetSec := t.Zone()
	offset15 := offsetSec / (15 * 60)
	if offset15 < -48 || offset15 > 52 {
		return b, fmt.Errorf("time zone offset %d (in 15-minute intervals: %d) is out of allowed range", offsetSec, offset15)
	}
	b[6] = byte(int8(offset15))
	return b, nil
}

// UnmarshalRecordingDateTime converts a 7-byte Recording Date and Time field into a time.Time.
// The fields are interpreted as follows:
//
//	Byte 1: years since 1900,
//	Byte 2: month (1-12),
//	Byte 3: day,
//	Byte 4: hour,
//	Byte 5: minute,
//	Byte 6: second,
//	Byte 7: offset from GMT in 15-minute intervals (as a signed value).
//
// If all seven bytes are zero, it indicates that the date/time are not specified and the zero time is returned.
func UnmarshalRecordingDateTime(b [7]byte) (time.Time, error) {
	if b == [7]byte{} {
		return time.Time{}, nil
	}

	month := time.Month(b[1])
	if month < time.January || month > time.December {
		return time.Time{}, fmt.Errorf("invalid month: %d", b[1])
	}
	if b[2] < 1 || b[2] > 31 || b[3] > 23 || b[4] > 59 || b[5] > 59 {
		return time.Time{}, fmt.Errorf("invalid recording date and time: %v", b)
	}

	// b[6] is stored as a byte but represents a signed 8-bit integer.
	offset15 := int8(b[6])
	if offset15 < -48 || offset15 > 52 {
		return time.Time{}, fmt.Errorf("invalid GMT offset: %d", offset15)
	}

	loc := time.FixedZone("ISO9660", int(offset15)*15*60)
	return time.Date(int(b[0])+1900, month, int(b[2]), int(b[3]), int(b[4]), int(b[5]), 0, loc), nil
}
