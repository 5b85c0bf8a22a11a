package iso9660

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rstms/iso-reader/pkg/iso9660/block"
	"github.com/rstms/iso-reader/pkg/iso9660/directory"
)

type extractItem struct {
	rel   string
	entry directory.Entry
}

// Extract writes the file or directory tree at path below outputDir. A directory's contents are written
// directly into outputDir; a single file is written as outputDir/<name>. Files are streamed block by block and
// the ExtractionProgressCallback, when set, is called after every block.
func (v *Volume) Extract(path string, outputDir string) error {
	start, err := v.FindEntry(path)
	if err != nil {
		return err
	}

	var dirs, files []extractItem
	if start.IsDir {
		base := cleanPath(path)
		err = v.Walk(path, func(entryPath string, e directory.Entry) error {
			rel := strings.TrimPrefix(strings.TrimPrefix(entryPath, base), "/")
			if !safeName(e.Name) || !filepath.IsLocal(filepath.FromSlash(rel)) {
				return fmt.Errorf("refusing to extract %q outside of %s", entryPath, outputDir)
			}
			if e.IsDir {
				dirs = append(dirs, extractItem{rel: rel, entry: e})
			} else {
				files = append(files, extractItem{rel: rel, entry: e})
			}
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		if !safeName(start.Name) {
			return fmt.Errorf("refusing to extract %q outside of %s", path, outputDir)
		}
		files = append(files, extractItem{rel: start.Name, entry: start})
	}

	// Ensure output directory exists
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	for _, d := range dirs {
		dirPath := filepath.Join(outputDir, filepath.FromSlash(d.rel))
		if err := os.MkdirAll(dirPath, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
		}
	}

	v.logger.Debug("Extracting", "path", path, "outputDir", outputDir, "directories", len(dirs), "files", len(files))

	for i, f := range files {
		outputPath := filepath.Join(outputDir, filepath.FromSlash(f.rel))
		if err := v.extractFile(f.entry, outputPath, i+1, len(files)); err != nil {
			return err
		}
	}

	// Directory times are set last since writing files into them updates their modification time.
	for _, d := range dirs {
		if d.entry.ModTime.IsZero() {
			continue
		}
		dirPath := filepath.Join(outputDir, filepath.FromSlash(d.rel))
		if err := os.Chtimes(dirPath, d.entry.ModTime, d.entry.ModTime); err != nil {
			return fmt.Errorf("failed to set timestamps on %s: %w", dirPath, err)
		}
	}

	return nil
}

func (v *Volume) extractFile(e directory.Entry, outputPath string, fileNumber, totalFiles int) error {
	// Ensure parent directories exist
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directories for %s: %w", outputPath, err)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", outputPath, err)
	}
	defer outFile.Close()

	progress := v.openOptions.ExtractionProgressCallback
	size := int64(e.Size)
	count := block.BlockCount(e.Size, v.BlockSize())

	var bytesTransferred int64
	for i := uint32(0); i < count; i++ {
		b, err := v.store.ReadBlock(e.LBA + i)
		if err != nil {
			return fmt.Errorf("failed to read file %s from ISO: %w", outputPath, err)
		}
		if remaining := size - bytesTransferred; int64(len(b)) > remaining {
			b = b[:remaining]
		}

		if _, err := outFile.Write(b); err != nil {
			return fmt.Errorf("failed to write to file %s: %w", outputPath, err)
		}
		bytesTransferred += int64(len(b))

		if progress != nil {
			progress(outputPath, bytesTransferred, size, fileNumber, totalFiles)
		}
	}

	if count == 0 && progress != nil {
		progress(outputPath, 0, 0, fileNumber, totalFiles)
	}

	if err := outFile.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", outputPath, err)
	}

	// Set timestamps
	if !e.ModTime.IsZero() {
		if err := os.Chtimes(outputPath, e.ModTime, e.ModTime); err != nil {
			return fmt.Errorf("failed to set timestamps on %s: %w", outputPath, err)
		}
	}

	v.logger.Trace("Extracted file", "path", outputPath, "size", bytesTransferred)
	return nil
}

// safeName reports whether an identifier can be used as a single path element on the host.
func safeName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`) && filepath.IsLocal(name)
}
