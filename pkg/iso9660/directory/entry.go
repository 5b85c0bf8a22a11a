package directory

import (
	"strings"
	"time"

	"github.com/rstms/iso-reader/pkg/consts"
)

// Entry is one file or subdirectory decoded from a directory extent.
type Entry struct {
	// Name is the decoded identifier, with the ';N' version suffix removed unless version stripping is disabled.
	Name string `json:"name"`
	// LBA is the logical block address where the entry's data begins.
	LBA uint32 `json:"lba"`
	// Size is the declared byte length of the entry's data.
	Size uint32 `json:"size"`
	// IsDir is set from bit 1 of the record's file flags.
	IsDir bool `json:"is_dir"`
	// ModTime is the recording date and time, zero when unspecified.
	ModTime time.Time `json:"mod_time"`
}

// Directory is the ordered list of entries of one directory extent, in on-disk order.
type Directory struct {
	Entries []Entry
}

// Clone returns a copy whose entry slice does not share storage with d.
func (d Directory) Clone() Directory {
	entries := make([]Entry, len(d.Entries))
	copy(entries, d.Entries)
	return Directory{Entries: entries}
}

// Find returns the first entry whose name matches segment case-insensitively.
func (d Directory) Find(segment string) (Entry, bool) {
	for _, e := range d.Entries {
		if MatchName(e.Name, segment) {
			return e, true
		}
	}
	return Entry{}, false
}

// MatchName reports whether an entry name matches a path segment. The comparison uses simple case folding and
// ignores a version suffix on either side, so "readme.txt" and "README.TXT;1" both match "README.TXT;1".
func MatchName(name, segment string) bool {
	return strings.EqualFold(StripVersion(name), StripVersion(segment))
}

// StripVersion drops everything from the first ';' onwards.
func StripVersion(identifier string) string {
	if idx := strings.Index(identifier, consts.ISO9660_SEPARATOR_2); idx != -1 {
		return identifier[:idx]
	}
	return identifier
}
