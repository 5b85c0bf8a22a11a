package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rstms/iso-reader"
	"github.com/rstms/iso-reader/pkg/logging"
	"github.com/rstms/iso-reader/pkg/option"
	"github.com/theckman/yacspin"
)

var (
	version = "dev"
)

func main() {
	// Logging level flags
	debug := flag.Bool("v", false, "Enable verbose (debug) logging")
	trace := flag.Bool("vv", false, "Enable trace logging")

	// Extraction options
	stripVer := flag.Bool("strip", true, "Strip version info from filenames")
	subtree := flag.String("path", "/", "File or directory within the ISO to extract")

	// Output directory
	outputDir := flag.String("o", "./extracted", "Output directory for extracted files")

	// Parse flags
	flag.Parse()

	// Ensure we have an ISO path
	if flag.NArg() < 1 {
		fmt.Println("isoextract v" + version)
		fmt.Println("Usage: isoextract [options] <path-to-iso>")
		fmt.Println("  -v               Enable verbose (debug) logging")
		fmt.Println("  -vv              Enable trace logging")
		fmt.Println("  -strip           Strip version info from filenames (default: true)")
		fmt.Println("  -path <path>     File or directory within the ISO to extract (default '/')")
		fmt.Println("  -o <directory>   Output directory (default './extracted')")
		os.Exit(1)
	}

	logger := logging.DefaultLogger()
	switch {
	case *trace:
		logger = logging.NewLogger(logging.NewSimpleLogger(os.Stderr, logging.LEVEL_TRACE, true))
	case *debug:
		logger = logging.NewLogger(logging.NewSimpleLogger(os.Stderr, logging.LEVEL_DEBUG, true))
	}

	// The spinner would interleave with log output, so it only runs when logging is off.
	var spinner *yacspin.Spinner
	var progressCallback option.ExtractionProgressCallback
	if !*debug && !*trace {
		var err error
		spinner, err = InitializeSpinner()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize spinner: %v\n", err)
			fmt.Fprintf(os.Stderr, "Progress updates will be disabled.\n")
		}
		progressCallback = CreateProgressCallback(spinner)
	}

	// Grab the ISO path from arguments
	isoPath := flag.Arg(0)

	// Open the ISO image with the specified flags
	img, err := iso.Open(
		isoPath,
		option.WithLogger(logger),
		option.WithStripVersionInfo(*stripVer),
		option.WithExtractionProgress(progressCallback),
	)
	if err != nil {
		fail(spinner, fmt.Sprintf("Failed to open ISO: %v", err))
		os.Exit(1)
	}
	defer img.Close()

	// Extract the contents
	if err := img.Extract(*subtree, *outputDir); err != nil {
		fail(spinner, fmt.Sprintf("Failed to extract image: %v", err))
		img.Close()
		os.Exit(1)
	}

	succeed(spinner, fmt.Sprintf(" All files extracted successfully to %s!", *outputDir))
}

func fail(spinner *yacspin.Spinner, msg string) {
	if spinner == nil {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	spinner.StopFailMessage(msg)
	spinner.StopFail()
}

func succeed(spinner *yacspin.Spinner, msg string) {
	if spinner == nil {
		fmt.Println(msg)
		return
	}
	spinner.StopMessage(msg)
	spinner.Stop()
}
