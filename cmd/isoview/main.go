package main

import (
	"fmt"
	"os"

	"github.com/bgrewell/usage"
	"github.com/rstms/iso-reader"
	"github.com/rstms/iso-reader/pkg/logging"
	"github.com/rstms/iso-reader/pkg/option"
)

func main() {

	u := usage.NewUsage(
		usage.WithApplicationName("isoview"),
		usage.WithApplicationDescription("isoview lists a directory or prints a file from an ISO9660 image."),
	)
	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Print verbose output", "", nil)
	info := u.AddBooleanOption("i", "info", false, "Print volume information before the listing", "", nil)
	layout := u.AddBooleanOption("l", "layout", false, "Print the on-disk layout of the image instead of a listing", "", nil)
	hexOffsets := u.AddBooleanOption("x", "hex", false, "Print layout offsets in hexadecimal", "", nil)
	jsonLayout := u.AddBooleanOption("j", "json", false, "Print the layout as JSON", "", nil)
	keepVersion := u.AddBooleanOption("k", "keep-version", false, "Keep ';N' version suffixes in listed names", "", nil)
	isoPath := u.AddArgument(1, "iso-path", "Path to the ISO image", "")
	innerPath := u.AddArgument(2, "path", "Path of the file or directory within the ISO (default /)", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}

	if *help {
		u.PrintUsage()
		os.Exit(0)
	}

	if isoPath == nil || *isoPath == "" {
		u.PrintError(fmt.Errorf("location of the iso file <iso-path> must be provided"))
		os.Exit(1)
	}

	path := "/"
	if innerPath != nil && *innerPath != "" {
		path = *innerPath
	}

	logger := logging.DefaultLogger()
	if *verbose {
		logger = logging.NewLogger(logging.NewSimpleLogger(os.Stderr, logging.LEVEL_DEBUG, true))
	}

	img, err := iso.Open(*isoPath,
		option.WithLogger(logger),
		option.WithStripVersionInfo(!*keepVersion))
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
	defer img.Close()

	if *info {
		printInfo(os.Stdout, img)
	}

	if *layout || *jsonLayout {
		if err := printLayout(os.Stdout, img, *jsonLayout, *hexOffsets); err != nil {
			fmt.Fprintf(os.Stderr, "isoview: %v\n", err)
			img.Close()
			os.Exit(1)
		}
		return
	}

	if err := view(os.Stdout, img, path); err != nil {
		fmt.Fprintf(os.Stderr, "isoview: %v\n", err)
		img.Close()
		os.Exit(1)
	}
}
