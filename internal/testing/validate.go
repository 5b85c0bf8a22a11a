package testing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rstms/iso-reader/pkg/iso9660/directory"
)

// GroundTruthEntry describes one entry an image is expected to contain.
type GroundTruthEntry struct {
	Size        int64  `json:"size"`
	Name        string `json:"name"`
	IsDirectory bool   `json:"is_directory"`
}

// ContainsNonASCIIPrintable returns true if the string has any
// characters outside ASCII [32..126], i.e., not a standard printable.
func ContainsNonASCIIPrintable(s string) bool {
	for _, r := range s {
		// If it's outside the ASCII printable range, return true.
		if r < 32 || r > 126 {
			return true
		}
	}
	return false
}

// Validate compares walked entries, keyed by absolute path, against the expected ground truth. The returned error
// lists every missing, extra or mismatched entry.
func Validate(entries map[string]directory.Entry, groundTruth []GroundTruthEntry) error {
	var problems []string

	gtMap := make(map[string]GroundTruthEntry)
	for _, gt := range groundTruth {
		gtMap[gt.Name] = gt
	}

	for name, e := range entries {
		if ContainsNonASCIIPrintable(e.Name) {
			problems = append(problems, fmt.Sprintf("non-ASCII printable characters in entry: %q", name))
		}
		gt, found := gtMap[name]
		if !found {
			problems = append(problems, fmt.Sprintf("extra: %s", describe(name, e.IsDir)))
			continue
		}
		if gt.IsDirectory != e.IsDir {
			problems = append(problems, fmt.Sprintf("type mismatch: %s", describe(name, e.IsDir)))
		}
		if !gt.IsDirectory && gt.Size != int64(e.Size) {
			problems = append(problems, fmt.Sprintf("size mismatch: %s has %d bytes, expected %d", name, e.Size, gt.Size))
		}
	}

	for name, gt := range gtMap {
		if _, found := entries[name]; !found {
			problems = append(problems, fmt.Sprintf("missing: %s", describe(name, gt.IsDirectory)))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("validation failed:\n  %s", strings.Join(problems, "\n  "))
}

func describe(name string, isDir bool) string {
	t := "FILE"
	if isDir {
		t = "DIR"
	}
	return fmt.Sprintf("[%s] %s", t, name)
}
