package info

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"
)

type DescriptorInfo struct {
	DescriptorType    string `json:"descriptor_type"`
	DescriptorVersion int    `json:"descriptor_version"`
	DescriptorOffset  int64  `json:"descriptor_offset"`
	DescriptorLength  int64  `json:"descriptor_length"`
}

type ExtentInfo struct {
	Path        string `json:"path"`
	Location    uint32 `json:"location"`
	Offset      int64  `json:"offset"`
	Length      int64  `json:"length"`
	IsDirectory bool   `json:"is_directory"`
}

func NewISOLayout(blockSize uint16) *ISOLayout {
	return &ISOLayout{
		BlockSize:         blockSize,
		VolumeDescriptors: make([]*DescriptorInfo, 0),
		Extents:           make([]*ExtentInfo, 0),
	}
}

// ISOLayout describes where the structures of an image live, in byte offsets from the start of the image.
type ISOLayout struct {
	BlockSize         uint16            `json:"block_size"`
	SystemAreaOffset  int64             `json:"system_area_offset"`
	SystemAreaLength  int64             `json:"system_area_length"`
	VolumeDescriptors []*DescriptorInfo `json:"volume_descriptors"`
	Extents           []*ExtentInfo     `json:"extents"`
}

// AddVolumeDescriptor appends a new Volume Descriptor and keeps the list sorted by DescriptorOffset
func (i *ISOLayout) AddVolumeDescriptor(descriptorType string, descriptorVersion int, descriptorOffset int64, descriptorLength int64) {
	i.VolumeDescriptors = append(i.VolumeDescriptors, &DescriptorInfo{
		DescriptorType:    descriptorType,
		DescriptorVersion: descriptorVersion,
		DescriptorOffset:  descriptorOffset,
		DescriptorLength:  descriptorLength,
	})

	slices.SortFunc(i.VolumeDescriptors, func(a, b *DescriptorInfo) int {
		return compareOffsets(a.DescriptorOffset, b.DescriptorOffset)
	})
}

// AddExtent appends the extent of a file or directory unless the same extent was already added, and keeps the
// list sorted by offset.
func (i *ISOLayout) AddExtent(path string, location uint32, length uint32, isDirectory bool) {
	offset := int64(location) * int64(i.BlockSize)
	for _, e := range i.Extents {
		if e.Offset == offset && e.Length == int64(length) && e.IsDirectory == isDirectory {
			return // Skip adding duplicate entry
		}
	}

	i.Extents = append(i.Extents, &ExtentInfo{
		Path:        path,
		Location:    location,
		Offset:      offset,
		Length:      int64(length),
		IsDirectory: isDirectory,
	})

	slices.SortStableFunc(i.Extents, func(a, b *ExtentInfo) int {
		return compareOffsets(a.Offset, b.Offset)
	})
}

// PrettyJSON returns a pretty-printed JSON representation of the ISO layout.
func (i *ISOLayout) PrettyJSON() string {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating JSON: %v", err)
	}
	return string(data)
}

// Print writes the ISO layout details to w in the order they occur in the image.
// - `useColor` controls whether colored output is used.
// - `useHexOffset` prints offsets in hexadecimal if true.
func (i *ISOLayout) Print(w io.Writer, useColor bool, useHexOffset bool) {
	type layoutItem struct {
		Offset   int64
		Length   int64
		Detail   string
		Category string
		IsDir    *bool // Pointer to handle directory indicator coloring
	}

	var items []layoutItem

	colorMap := map[string]func(a ...interface{}) string{
		"System Area":       color.New(color.FgBlue, color.Bold).SprintFunc(),
		"Volume Descriptor": color.New(color.FgYellow, color.Bold).SprintFunc(),
		"Directory Extent":  color.New(color.FgGreen, color.Bold).SprintFunc(),
		"File Extent":       color.New(color.FgCyan, color.Bold).SprintFunc(),
	}

	offsetColor := color.New(color.FgGreen).SprintFunc()
	lengthColor := color.New(color.FgGreen).SprintFunc()
	headerColor := color.New(color.FgCyan, color.Bold).SprintFunc()
	isDirTrueColor := color.New(color.FgHiYellow).SprintFunc() // Brown/Yellow for true
	isDirFalseColor := color.New(color.FgBlue).SprintFunc()    // Blue for false

	if !useColor {
		plain := func(a ...interface{}) string { return fmt.Sprint(a...) }
		for key := range colorMap {
			colorMap[key] = plain
		}
		offsetColor = plain
		lengthColor = plain
		headerColor = plain
		isDirTrueColor = plain
		isDirFalseColor = plain
	}

	items = append(items, layoutItem{
		Offset:   i.SystemAreaOffset,
		Length:   i.SystemAreaLength,
		Detail:   "System Area",
		Category: "System Area",
	})

	for _, vd := range i.VolumeDescriptors {
		items = append(items, layoutItem{
			Offset:   vd.DescriptorOffset,
			Length:   vd.DescriptorLength,
			Detail:   fmt.Sprintf("%s (Version: %d)", vd.DescriptorType, vd.DescriptorVersion),
			Category: "Volume Descriptor",
		})
	}

	for _, e := range i.Extents {
		isDir := e.IsDirectory
		category := "File Extent"
		if isDir {
			category = "Directory Extent"
		}
		items = append(items, layoutItem{
			Offset:   e.Offset,
			Length:   e.Length,
			Detail:   fmt.Sprintf("%s (Extent Location: %d)", e.Path, e.Location),
			Category: category,
			IsDir:    &isDir,
		})
	}

	slices.SortStableFunc(items, func(a, b layoutItem) int {
		return compareOffsets(a.Offset, b.Offset)
	})

	fmt.Fprintln(w, headerColor("=== ISO Layout ==="))

	// Fixed width settings
	offsetWidth := 14   // Width for [Offset: x]
	categoryWidth := 20 // Width for category names
	lengthWidth := 12   // Width for [Length: x bytes]

	if useHexOffset {
		offsetWidth = 18 // Width for [Offset: 0x...]
	}

	for _, item := range items {
		offsetStr := fmt.Sprintf("Offset: %*d", offsetWidth-8, item.Offset)
		if useHexOffset {
			offsetStr = fmt.Sprintf("Offset: %#*x", offsetWidth-8, item.Offset)
		}

		isDirStr := ""
		if item.IsDir != nil {
			if *item.IsDir {
				isDirStr = fmt.Sprintf(" (IsDir: %s)", isDirTrueColor("true"))
			} else {
				isDirStr = fmt.Sprintf(" (IsDir: %s)", isDirFalseColor("false"))
			}
		}

		fmt.Fprintf(w, "[%s] [%s] [%s] %s%s\n",
			offsetColor(offsetStr),
			colorMap[item.Category](fmt.Sprintf("%-*s", categoryWidth, item.Category)),
			lengthColor(fmt.Sprintf("%*s", lengthWidth, formatSize(item.Length))),
			item.Detail,
			isDirStr,
		)
	}

	fmt.Fprintln(w, headerColor("=============================="))
}

func compareOffsets(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// formatSize converts a size in bytes to a human-readable format.
func formatSize(size int64) string {
	const (
		MB = 1024 * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%8.2f GB", float64(size)/float64(GB))
	case size >= MB:
		return fmt.Sprintf("%8.2f MB", float64(size)/float64(MB))
	default:
		return fmt.Sprintf("%8d B ", size) // Ensures 'B' aligns with MB/GB
	}
}
