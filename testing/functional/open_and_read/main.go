package main

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bgrewell/usage"
	"github.com/rstms/iso-reader"
	"github.com/rstms/iso-reader/pkg/iso9660/directory"
	"github.com/rstms/iso-reader/pkg/logging"
	"github.com/rstms/iso-reader/pkg/option"
)

func generateFileMD5(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	hashBytes := hash.Sum(nil)
	return fmt.Sprintf("%x", hashBytes), nil
}

func main() {

	u := usage.NewUsage(
		usage.WithApplicationName("open_and_read"),
		usage.WithApplicationDescription("open_and_read is a functional testing application that is part of iso-reader and is designed to verify that every file read through ReadFile matches the same file written by Extract."),
	)
	help := u.AddBooleanOption("h", "help", false, "Display this help message", "", nil)
	rm := u.AddBooleanOption("rm", "remove-test-dir", true, "Remove the extraction directory after running the tests", "", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Enable trace logging", "", nil)
	input := u.AddArgument(1, "input", "The input ISO file to run the tests against", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}

	if *help {
		u.PrintUsage()
		os.Exit(0)
	}

	if input == nil || *input == "" {
		u.PrintError(fmt.Errorf("location of the input iso file <input> must be provided"))
		os.Exit(1)
	}

	logger := logging.DefaultLogger()
	if *verbose {
		logger = logging.NewLogger(logging.NewSimpleLogger(os.Stderr, logging.LEVEL_TRACE, true))
	}
	i, err := iso.Open(*input,
		option.WithLogger(logger))
	if err != nil {
		fmt.Printf("Failed to open ISO file: %s\n", err)
		os.Exit(1)
	}
	defer i.Close()

	// Extract the whole image to a temporary directory
	o, err := os.MkdirTemp("", "open_and_read_test_*")
	if err != nil {
		fmt.Printf("Failed to create temporary directory: %s\n", err)
		os.Exit(1)
	}

	if *rm {
		defer os.RemoveAll(o)
	} else {
		fmt.Printf("Temporary directory: %s\n", o)
	}

	if err := i.Extract("/", o); err != nil {
		fmt.Printf("Failed to extract ISO file: %s\n", err)
		os.Exit(1)
	}

	// Every file read in memory must hash the same as its extracted copy
	var checked, mismatched int
	err = i.Walk("/", func(path string, e directory.Entry) error {
		if e.IsDir {
			return nil
		}

		data, err := i.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if len(data) != int(e.Size) {
			return fmt.Errorf("read %d bytes from %s, expected %d", len(data), path, e.Size)
		}
		readHash := fmt.Sprintf("%x", md5.Sum(data))

		extractedHash, err := generateFileMD5(filepath.Join(o, filepath.FromSlash(strings.TrimPrefix(path, "/"))))
		if err != nil {
			return fmt.Errorf("failed to generate MD5 hash for extracted %s: %w", path, err)
		}

		checked++
		if readHash != extractedHash {
			mismatched++
			fmt.Printf("MD5 hash mismatch for %s:\n  Read:      %s\n  Extracted: %s\n", path, readHash, extractedHash)
		}
		return nil
	})
	if err != nil {
		fmt.Printf("Failed to verify ISO file: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("Verified %d files, %d mismatched\n", checked, mismatched)
	if mismatched > 0 {
		os.Exit(1)
	}
}
