package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rstms/iso-reader/pkg/option"
	"github.com/theckman/yacspin"
	"golang.org/x/term"
)

// truncateString truncates the input string to the specified max length.
// If truncation occurs, it prepends "..." to indicate the string has been shortened.
func truncateString(input string, maxLength int) string {
	if len(input) <= maxLength {
		return input
	}
	if maxLength <= 3 {
		return input[len(input)-maxLength:]
	}
	return "..." + input[len(input)-(maxLength-3):]
}

// progressMessage formats one progress line so that it fits in width columns.
func progressMessage(width int, currentFilename string, bytesTransferred, totalBytes int64, currentFileNumber, totalFileCount int) string {
	percent := 100.0
	if totalBytes > 0 {
		percent = float64(bytesTransferred) / float64(totalBytes) * 100
	}

	// Define fixed parts of the message
	fixedPart := fmt.Sprintf(" [%d/%d] ", currentFileNumber, totalFileCount)
	suffixPart := fmt.Sprintf(" - %.2f%%", percent)

	// Calculate available space for the filename
	availableSpace := width - len(fixedPart) - len(suffixPart) - 6
	if availableSpace < 10 { // Minimum space to display meaningful filename
		availableSpace = 10
	}

	return fixedPart + truncateString(currentFilename, availableSpace) + suffixPart
}

// CreateProgressCallback returns a ProgressCallback that updates the spinner's message.
func CreateProgressCallback(spinner *yacspin.Spinner) option.ExtractionProgressCallback {
	return func(
		currentFilename string,
		bytesTransferred int64,
		totalBytes int64,
		currentFileNumber int,
		totalFileCount int,
	) {
		if spinner == nil {
			return
		}

		// Fetch terminal width
		width, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			width = 80 // Default width
		}

		spinner.Message(progressMessage(width, currentFilename, bytesTransferred, totalBytes, currentFileNumber, totalFileCount))
	}
}

// InitializeSpinner sets up and starts the yacspin spinner.
func InitializeSpinner() (*yacspin.Spinner, error) {
	// Define spinner options
	settings := yacspin.Config{
		Frequency:         100 * time.Millisecond,
		ShowCursor:        false,
		SpinnerAtEnd:      false,
		CharSet:           yacspin.CharSets[14],
		Colors:            []string{"fgHiCyan"},
		StopColors:        []string{"fgHiGreen"},
		StopFailColors:    []string{"fgHiRed"},
		StopFailCharacter: "✗",
		StopCharacter:     "✓",
	}

	// Create a new spinner
	spinner, err := yacspin.New(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create spinner: %w", err)
	}

	// Start the spinner
	if err := spinner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start spinner: %w", err)
	}

	return spinner, nil
}
