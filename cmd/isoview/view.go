package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/rstms/iso-reader"
)

// view writes the listing of a directory, or the raw content of a file, to w.
func view(w io.Writer, img iso.Image, path string) error {
	entry, err := img.FindEntry(path)
	if err != nil {
		return err
	}

	if !entry.IsDir {
		data, err := img.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	entries, err := img.ListDir(path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		kind := "-"
		name := e.Name
		if e.IsDir {
			kind = "d"
			name += "/"
		}
		modTime := ""
		if !e.ModTime.IsZero() {
			modTime = e.ModTime.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", kind, e.LBA, e.Size, modTime, name)
	}
	return tw.Flush()
}

func printInfo(w io.Writer, img iso.Image) {
	fmt.Fprintf(w, "Volume ID:  %s\n", img.GetVolumeID())
	fmt.Fprintf(w, "Block size: %d\n", img.BlockSize())
	fmt.Fprintf(w, "Root:       %d entries\n\n", len(img.Root().Entries))
}

// printLayout writes where every structure of the image lives. Color is used unless output is redirected.
func printLayout(w io.Writer, img iso.Image, asJSON bool, hexOffsets bool) error {
	layout, err := img.Layout()
	if err != nil {
		return err
	}
	if asJSON {
		_, err = fmt.Fprintln(w, layout.PrettyJSON())
		return err
	}
	layout.Print(w, !color.NoColor, hexOffsets)
	return nil
}
