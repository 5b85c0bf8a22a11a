package encoding

import (
	"io"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestUnmarshalUint16LSB(t *testing.T) {
	data := []byte{0xAA, 0x00, 0x08, 0xFF}

	t.Run("reads little-endian value at offset", func(t *testing.T) {
		v, err := UnmarshalUint16LSB(data, 1)
		require.NoError(t, err)
		require.Equal(t, uint16(0x0800), v)
	})

	t.Run("field ending exactly at the buffer end", func(t *testing.T) {
		v, err := UnmarshalUint16LSB(data, 2)
		require.NoError(t, err)
		require.Equal(t, uint16(0xFF08), v)
	})

	t.Run("field past the end", func(t *testing.T) {
		_, err := UnmarshalUint16LSB(data, 3)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("negative offset", func(t *testing.T) {
		_, err := UnmarshalUint16LSB(data, -1)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}

func TestUnmarshalUint32LSB(t *testing.T) {
	field := MarshalBothByteOrders32(0x12345678)
	data := append([]byte{0x00, 0x00}, field[:]...)

	v, err := UnmarshalUint32LSB(data, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(0x12345678), v)

	// The big-endian half reads back as the byte-swapped value.
	v, err = UnmarshalUint32LSB(data, 6)
	require.NoError(t, err)
	require.Equal(t, uint32(0x78563412), v)

	_, err = UnmarshalUint32LSB(data, 7)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestMarshalBothByteOrders16(t *testing.T) {
	require.Equal(t, [4]byte{0x34, 0x12, 0x12, 0x34}, MarshalBothByteOrders16(0x1234))
	require.Equal(t, [4]byte{0x00, 0x08, 0x08, 0x00}, MarshalBothByteOrders16(2048))
}

func TestDecodeIdentifier(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{name: "plain ascii", raw: []byte("README.TXT;1"), want: "README.TXT;1"},
		{name: "self marker", raw: []byte{0x00}, want: "\x00"},
		{name: "parent marker", raw: []byte{0x01}, want: "\x01"},
		{name: "empty", raw: []byte{}, want: ""},
		{name: "valid multibyte", raw: []byte("CAFÉ"), want: "CAFÉ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DecodeIdentifier(tt.raw))
		})
	}

	t.Run("invalid bytes are replaced", func(t *testing.T) {
		got := DecodeIdentifier([]byte{'A', 0xFF, 0xFE, 'B'})
		require.True(t, utf8.ValidString(got))
		require.Contains(t, got, "�")
		require.Equal(t, byte('A'), got[0])
		require.Equal(t, byte('B'), got[len(got)-1])
	})
}

func TestMarshalRecordingDateTime(t *testing.T) {
	tests := []struct {
		name      string
		input     time.Time
		wantBytes [7]byte
		wantErr   bool
	}{
		{
			name:      "valid date/time (UTC offset=0)",
			input:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			wantBytes: [7]byte{125, 1, 2, 3, 4, 5, 0},
		},
		{
			name:      "positive offset +8h",
			input:     time.Date(1950, 5, 10, 23, 59, 59, 0, time.FixedZone("UTC+8", 8*3600)),
			wantBytes: [7]byte{50, 5, 10, 23, 59, 59, 32},
		},
		{
			name:      "negative offset -6h",
			input:     time.Date(1950, 5, 10, 23, 59, 59, 0, time.FixedZone("UTC-6", -6*3600)),
			wantBytes: [7]byte{50, 5, 10, 23, 59, 59, 0xE8},
		},
		{
			name:    "year below range",
			input:   time.Date(1899, 12, 31, 23, 59, 59, 0, time.UTC),
			wantErr: true,
		},
		{
			name:    "year above range",
			input:   time.Date(2156, 1, 1, 0, 0, 0, 0, time.UTC),
			wantErr: true,
		},
		{
			name:    "offset out of range",
			input:   time.Date(2000, 6, 15, 12, 0, 0, 0, time.FixedZone("UTC+14", 14*3600)),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalRecordingDateTime(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantBytes, got)
		})
	}
}

func TestUnmarshalRecordingDateTime(t *testing.T) {
	t.Run("all zero is unspecified", func(t *testing.T) {
		got, err := UnmarshalRecordingDateTime([7]byte{})
		require.NoError(t, err)
		require.True(t, got.IsZero())
	})

	t.Run("negative offset", func(t *testing.T) {
		got, err := UnmarshalRecordingDateTime([7]byte{50, 5, 10, 23, 59, 59, 0xE8})
		require.NoError(t, err)
		require.Equal(t, 1950, got.Year())
		require.Equal(t, time.May, got.Month())
		require.Equal(t, 10, got.Day())
		_, off := got.Zone()
		require.Equal(t, -6*3600, off)
	})

	t.Run("round trip", func(t *testing.T) {
		want := time.Date(2024, 2, 29, 13, 37, 0, 0, time.FixedZone("ISO9660", 3600))
		raw, err := MarshalRecordingDateTime(want)
		require.NoError(t, err)
		got, err := UnmarshalRecordingDateTime(raw)
		require.NoError(t, err)
		require.True(t, want.Equal(got))
	})

	t.Run("invalid month", func(t *testing.T) {
		_, err := UnmarshalRecordingDateTime([7]byte{100, 13, 1, 0, 0, 0, 0})
		require.Error(t, err)
	})

	t.Run("invalid hour", func(t *testing.T) {
		_, err := UnmarshalRecordingDateTime([7]byte{100, 1, 1, 24, 0, 0, 0})
		require.Error(t, err)
	})

	t.Run("invalid offset", func(t *testing.T) {
		_, err := UnmarshalRecordingDateTime([7]byte{100, 1, 1, 0, 0, 0, 60})
		require.Error(t, err)
	})
}
