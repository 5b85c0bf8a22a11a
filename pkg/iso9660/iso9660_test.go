package iso9660_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	isotest "github.com/rstms/iso-reader/internal/testing"
	"github.com/rstms/iso-reader/pkg/iso9660"
	"github.com/rstms/iso-reader/pkg/iso9660/directory"
	"github.com/rstms/iso-reader/pkg/logging"
	"github.com/rstms/iso-reader/pkg/option"
	"github.com/rn/iso9660wrap"
	"github.com/stretchr/testify/require"
)

// countingReader counts seeks so tests can tell whether an operation touched the image.
type countingReader struct {
	*bytes.Reader
	seeks  int
	closed bool
}

func (c *countingReader) Seek(offset int64, whence int) (int64, error) {
	c.seeks++
	return c.Reader.Seek(offset, whence)
}

func (c *countingReader) Close() error {
	c.closed = true
	return nil
}

func gplText() []byte {
	line := "This program is free software: you can redistribute it and/or modify it.\n"
	data := []byte(strings.Repeat(line, 15))
	return data[:1071]
}

func wrapImage(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, iso9660wrap.WriteBuffer(&buf, content, name))
	return buf.Bytes()
}

func sampleBuilder() *isotest.ImageBuilder {
	return isotest.NewImageBuilder(2048).
		AddFile("/GPL_3_0.TXT;1", gplText()).
		AddFile("/DOCS/README.TXT;1", []byte("read me\n")).
		AddFile("/DOCS/GUIDE/INTRO.TXT;1", bytes.Repeat([]byte{'i'}, 5000)).
		AddDir("/EMPTY").
		AddFile("/ZERO.BIN;1", nil)
}

func openBuilt(t *testing.T, b *isotest.ImageBuilder, opts ...option.OpenOption) (*iso9660.Volume, []byte) {
	t.Helper()
	img, err := b.Build()
	require.NoError(t, err)
	v, err := iso9660.NewVolume(bytes.NewReader(img), opts...)
	require.NoError(t, err)
	return v, img
}

func names(entries []directory.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestRoundTripWrappedImage(t *testing.T) {
	content := gplText()
	img := wrapImage(t, "GPL_3_0.TXT", content)

	v, err := iso9660.NewVolume(bytes.NewReader(img))
	require.NoError(t, err)
	defer v.Close()
	require.Equal(t, uint16(2048), v.BlockSize())

	entry, err := v.FindEntry("/GPL_3_0.TXT")
	require.NoError(t, err)
	require.False(t, entry.IsDir)
	require.Equal(t, uint32(1071), entry.Size)

	data, err := v.ReadFile("/GPL_3_0.TXT")
	require.NoError(t, err)
	require.Len(t, data, 1071)
	require.Equal(t, content, data)

	// The bytes physically stored at the entry's extent are what comes back.
	start := int(entry.LBA) * 2048
	require.Equal(t, img[start:start+1071], data)

	lower, err := v.ReadFile("/gpl_3_0.txt")
	require.NoError(t, err)
	require.Equal(t, data, lower)

	entries, err := v.ListDir("/")
	require.NoError(t, err)
	require.Equal(t, []string{"GPL_3_0.TXT"}, names(entries))
}

func TestOpen(t *testing.T) {
	t.Run("from a file on disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.iso")
		require.NoError(t, os.WriteFile(path, wrapImage(t, "GPL_3_0.TXT", gplText()), 0o644))

		v, err := iso9660.Open(path)
		require.NoError(t, err)
		defer v.Close()

		data, err := v.ReadFile("GPL_3_0.TXT")
		require.NoError(t, err)
		require.Equal(t, gplText(), data)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := iso9660.Open(filepath.Join(t.TempDir(), "missing.iso"))
		require.ErrorIs(t, err, iso9660.ErrIO)
	})

	t.Run("image shorter than the descriptor", func(t *testing.T) {
		_, err := iso9660.NewVolume(bytes.NewReader(make([]byte, 16*2048)))
		require.ErrorIs(t, err, iso9660.ErrIO)
	})

	t.Run("zeroed descriptor", func(t *testing.T) {
		_, err := iso9660.NewVolume(bytes.NewReader(make([]byte, 20*2048)))
		require.ErrorIs(t, err, iso9660.ErrInvalidSignature)
	})

	t.Run("wrong signature", func(t *testing.T) {
		img, err := sampleBuilder().Build()
		require.NoError(t, err)
		copy(img[16*2048+1:], "CD002")

		_, err = iso9660.NewVolume(bytes.NewReader(img))
		require.ErrorIs(t, err, iso9660.ErrInvalidSignature)
	})

	t.Run("signature is checked before block size", func(t *testing.T) {
		img, err := sampleBuilder().Build()
		require.NoError(t, err)
		copy(img[16*2048+1:], "XXXXX")
		binary.LittleEndian.PutUint16(img[16*2048+128:], 0)

		_, err = iso9660.NewVolume(bytes.NewReader(img))
		require.ErrorIs(t, err, iso9660.ErrInvalidSignature)
	})

	t.Run("zero block size", func(t *testing.T) {
		img, err := sampleBuilder().Build()
		require.NoError(t, err)
		binary.LittleEndian.PutUint16(img[16*2048+128:], 0)

		_, err = iso9660.NewVolume(bytes.NewReader(img))
		require.ErrorIs(t, err, iso9660.ErrInvalidVolume)
	})

	t.Run("root extent past the end of the image", func(t *testing.T) {
		b := sampleBuilder()
		img, err := b.Build()
		require.NoError(t, err)
		rootLBA, _, ok := b.Extent("/")
		require.True(t, ok)

		_, err = iso9660.NewVolume(bytes.NewReader(img[:int(rootLBA)*2048]))
		require.ErrorIs(t, err, iso9660.ErrIO)
	})

	t.Run("metadata", func(t *testing.T) {
		v, _ := openBuilt(t, sampleBuilder().WithVolumeID("MY_DISC"))
		require.Equal(t, "MY_DISC", v.GetVolumeID())
		require.Equal(t, "LINUX", v.GetSystemID())
		require.NotZero(t, v.GetVolumeSize())
		require.NotZero(t, v.RootDirectoryLocation())
	})

	t.Run("close closes the backing store", func(t *testing.T) {
		img, err := sampleBuilder().Build()
		require.NoError(t, err)
		rs := &countingReader{Reader: bytes.NewReader(img)}

		v, err := iso9660.NewVolume(rs)
		require.NoError(t, err)
		require.NoError(t, v.Close())
		require.True(t, rs.closed)
	})

	t.Run("debug logging", func(t *testing.T) {
		var out bytes.Buffer
		logger := logging.NewLogger(logging.NewSimpleLogger(&out, logging.LEVEL_TRACE, false))

		v, _ := openBuilt(t, sampleBuilder(), option.WithLogger(logger))
		_, err := v.ReadFile("/DOCS/README.TXT")
		require.NoError(t, err)

		require.Contains(t, out.String(), "[DEBUG] [iso9660] Opened ISO9660 volume")
		require.Contains(t, out.String(), "volumeID: TEST_VOLUME")
		require.Contains(t, out.String(), "[iso9660] Resolving path")
		require.Contains(t, out.String(), "[TRACE] [block] Read block")
	})
}

func TestFindEntry(t *testing.T) {
	v, _ := openBuilt(t, sampleBuilder())

	t.Run("case-insensitive", func(t *testing.T) {
		upper, err := v.FindEntry("/DOCS/README.TXT")
		require.NoError(t, err)
		lower, err := v.FindEntry("/docs/readme.txt")
		require.NoError(t, err)
		require.Equal(t, upper, lower)
		require.Equal(t, "README.TXT", upper.Name)
		require.Equal(t, uint32(8), upper.Size)
	})

	t.Run("leading slash is optional", func(t *testing.T) {
		a, err := v.FindEntry("/DOCS/GUIDE")
		require.NoError(t, err)
		b, err := v.FindEntry("DOCS/GUIDE")
		require.NoError(t, err)
		require.Equal(t, a, b)
		require.True(t, a.IsDir)
	})

	t.Run("trailing slash is ignored", func(t *testing.T) {
		e, err := v.FindEntry("/DOCS/GUIDE/")
		require.NoError(t, err)
		require.True(t, e.IsDir)
	})

	t.Run("root", func(t *testing.T) {
		for _, p := range []string{"", "/"} {
			e, err := v.FindEntry(p)
			require.NoError(t, err)
			require.True(t, e.IsDir)
			require.Equal(t, v.RootDirectoryLocation(), e.LBA)
		}
	})

	t.Run("not found carries the original path", func(t *testing.T) {
		for _, p := range []string{"/NOPE.TXT", "/DOCS/nope.txt", "/NOPE/README.TXT", "/docs/guide/missing"} {
			_, err := v.FindEntry(p)
			require.ErrorIs(t, err, iso9660.ErrNotFound)

			var pe *iso9660.PathError
			require.True(t, errors.As(err, &pe))
			require.Equal(t, p, pe.Path)
		}
	})

	t.Run("segment after a file", func(t *testing.T) {
		_, err := v.FindEntry("/GPL_3_0.TXT/MORE")
		require.ErrorIs(t, err, iso9660.ErrNotFound)
	})
}

func TestReadFile(t *testing.T) {
	b := sampleBuilder()
	v, img := openBuilt(t, b)

	t.Run("multi-block file", func(t *testing.T) {
		data, err := v.ReadFile("/DOCS/GUIDE/INTRO.TXT")
		require.NoError(t, err)
		require.Equal(t, bytes.Repeat([]byte{'i'}, 5000), data)
	})

	t.Run("zero length file", func(t *testing.T) {
		data, err := v.ReadFile("/ZERO.BIN")
		require.NoError(t, err)
		require.Empty(t, data)
	})

	t.Run("directory", func(t *testing.T) {
		for _, p := range []string{"/DOCS", "/docs/guide/", "/"} {
			_, err := v.ReadFile(p)
			require.ErrorIs(t, err, iso9660.ErrIsDirectory)
			require.ErrorIs(t, err, iso9660.ErrNotADirectory)
			require.NotErrorIs(t, err, iso9660.ErrNotFound)
			require.EqualError(t, err, "read "+p+": is a directory")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := v.ReadFile("/NOPE.TXT")
		require.ErrorIs(t, err, iso9660.ErrNotFound)
		require.Contains(t, err.Error(), "/NOPE.TXT")
	})

	t.Run("padding after the file is never returned", func(t *testing.T) {
		lba, size, ok := b.Extent("/DOCS/README.TXT;1")
		require.True(t, ok)

		dirty := bytes.Clone(img)
		start := int(lba)*2048 + int(size)
		for i := start; i < int(lba+1)*2048; i++ {
			dirty[i] = 0xAA
		}

		v, err := iso9660.NewVolume(bytes.NewReader(dirty))
		require.NoError(t, err)
		data, err := v.ReadFile("/DOCS/README.TXT")
		require.NoError(t, err)
		require.Equal(t, []byte("read me\n"), data)
	})

	t.Run("extent past the end of the image", func(t *testing.T) {
		lba, _, ok := b.Extent("/DOCS/GUIDE/INTRO.TXT;1")
		require.True(t, ok)

		v, err := iso9660.NewVolume(bytes.NewReader(img[:int(lba+1)*2048]))
		require.NoError(t, err)
		_, err = v.ReadFile("/DOCS/GUIDE/INTRO.TXT")
		require.ErrorIs(t, err, iso9660.ErrIO)
	})
}

func TestListDir(t *testing.T) {
	t.Run("root listing does not read the image", func(t *testing.T) {
		img, err := sampleBuilder().Build()
		require.NoError(t, err)
		rs := &countingReader{Reader: bytes.NewReader(img)}

		v, err := iso9660.NewVolume(rs)
		require.NoError(t, err)
		rs.seeks = 0

		entries, err := v.ListDir("/")
		require.NoError(t, err)
		require.Equal(t, v.Root().Entries, entries)
		require.Equal(t, []string{"GPL_3_0.TXT", "DOCS", "EMPTY", "ZERO.BIN"}, names(entries))

		empty, err := v.ListDir("")
		require.NoError(t, err)
		require.Equal(t, entries, empty)
		require.Zero(t, rs.seeks)
	})

	t.Run("root listing is a copy", func(t *testing.T) {
		v, _ := openBuilt(t, sampleBuilder())
		entries, err := v.ListDir("/")
		require.NoError(t, err)
		entries[0].Name = "CHANGED"

		again, err := v.ListDir("/")
		require.NoError(t, err)
		require.Equal(t, "GPL_3_0.TXT", again[0].Name)
	})

	t.Run("subdirectories", func(t *testing.T) {
		v, _ := openBuilt(t, sampleBuilder())

		entries, err := v.ListDir("/docs")
		require.NoError(t, err)
		require.Equal(t, []string{"README.TXT", "GUIDE"}, names(entries))
		require.False(t, entries[0].IsDir)
		require.True(t, entries[1].IsDir)

		entries, err = v.ListDir("/DOCS/GUIDE/")
		require.NoError(t, err)
		require.Equal(t, []string{"INTRO.TXT"}, names(entries))

		entries, err = v.ListDir("/EMPTY")
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("file", func(t *testing.T) {
		v, _ := openBuilt(t, sampleBuilder())
		_, err := v.ListDir("/DOCS/README.TXT")
		require.ErrorIs(t, err, iso9660.ErrNotADirectory)
		require.NotErrorIs(t, err, iso9660.ErrIsDirectory)

		var pe *iso9660.PathError
		require.True(t, errors.As(err, &pe))
		require.Equal(t, "/DOCS/README.TXT", pe.Path)
	})

	t.Run("not found", func(t *testing.T) {
		v, _ := openBuilt(t, sampleBuilder())
		_, err := v.ListDir("/MISSING")
		require.ErrorIs(t, err, iso9660.ErrNotFound)
	})

	t.Run("every lookup re-reads the image", func(t *testing.T) {
		img, err := sampleBuilder().Build()
		require.NoError(t, err)
		rs := &countingReader{Reader: bytes.NewReader(img)}
		v, err := iso9660.NewVolume(rs)
		require.NoError(t, err)
		rs.seeks = 0

		_, err = v.ListDir("/DOCS")
		require.NoError(t, err)
		first := rs.seeks
		require.NotZero(t, first)

		_, err = v.ListDir("/DOCS")
		require.NoError(t, err)
		require.Equal(t, 2*first, rs.seeks)
	})
}

func TestMultiBlockDirectories(t *testing.T) {
	for _, blockSize := range []uint16{512, 2048, 4096} {
		t.Run(fmt.Sprintf("%d byte blocks", blockSize), func(t *testing.T) {
			b := isotest.NewImageBuilder(blockSize)
			var want, nested []string
			for i := 0; i < 120; i++ {
				name := "FILE_" + string(rune('A'+i/26)) + string(rune('A'+i%26)) + ".TXT"
				b.AddFile("/"+name+";1", []byte(name))
				want = append(want, name)
			}
			for i := 0; i < 40; i++ {
				name := "N" + string(rune('A'+i/26)) + string(rune('A'+i%26))
				b.AddFile("/DEEP/"+name+";1", []byte(name))
				nested = append(nested, name)
			}

			v, _ := openBuilt(t, b)
			require.Equal(t, blockSize, v.BlockSize())

			_, rootSize, ok := b.Extent("/")
			require.True(t, ok)
			require.Greater(t, rootSize, uint32(blockSize))

			entries, err := v.ListDir("/")
			require.NoError(t, err)
			require.Equal(t, append(want, "DEEP"), names(entries))

			entries, err = v.ListDir("/deep")
			require.NoError(t, err)
			require.Equal(t, nested, names(entries))

			data, err := v.ReadFile("/DEEP/NBN")
			require.NoError(t, err)
			require.Equal(t, []byte("NBN"), data)

			data, err = v.ReadFile("/file_ep.txt")
			require.NoError(t, err)
			require.Equal(t, []byte("FILE_EP.TXT"), data)
		})
	}
}

func TestStripVersionInfo(t *testing.T) {
	v, _ := openBuilt(t, sampleBuilder(), option.WithStripVersionInfo(false))

	entries, err := v.ListDir("/DOCS")
	require.NoError(t, err)
	require.Equal(t, []string{"README.TXT;1", "GUIDE"}, names(entries))

	data, err := v.ReadFile("/docs/readme.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("read me\n"), data)

	t.Run("listed names resolve", func(t *testing.T) {
		root, err := v.ListDir("/")
		require.NoError(t, err)
		require.Equal(t, []string{"GPL_3_0.TXT;1", "DOCS", "EMPTY", "ZERO.BIN;1"}, names(root))

		err = v.Walk("/", func(path string, e directory.Entry) error {
			found, err := v.FindEntry(path)
			require.NoError(t, err, path)
			require.Equal(t, e, found, path)
			if !e.IsDir {
				_, err = v.ReadFile(path)
				require.NoError(t, err, path)
			}
			return nil
		})
		require.NoError(t, err)

		data, err := v.ReadFile("/GPL_3_0.TXT;1")
		require.NoError(t, err)
		require.Equal(t, gplText(), data)
	})
}

func TestMalformedDirectory(t *testing.T) {
	t.Run("subdirectory", func(t *testing.T) {
		b := sampleBuilder()
		img, err := b.Build()
		require.NoError(t, err)
		lba, _, ok := b.Extent("/DOCS")
		require.True(t, ok)

		// Identifier length of the self record points past the record.
		img[int(lba)*2048+32] = 200

		v, err := iso9660.NewVolume(bytes.NewReader(img))
		require.NoError(t, err)

		_, err = v.ListDir("/DOCS")
		require.ErrorIs(t, err, iso9660.ErrMalformedRecord)

		_, err = v.ReadFile("/DOCS/README.TXT")
		require.ErrorIs(t, err, iso9660.ErrMalformedRecord)
	})

	t.Run("root", func(t *testing.T) {
		b := sampleBuilder()
		img, err := b.Build()
		require.NoError(t, err)
		lba, _, ok := b.Extent("/")
		require.True(t, ok)

		// Identifier length of the self record points past the record.
		img[int(lba)*2048+32] = 200

		_, err = iso9660.NewVolume(bytes.NewReader(img))
		require.ErrorIs(t, err, iso9660.ErrMalformedRecord)
	})
}
