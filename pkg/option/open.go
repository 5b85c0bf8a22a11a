package option

import (
	"github.com/rstms/iso-reader/pkg/logging"
)

type ExtractionProgressCallback func(
	currentFilename string,
	bytesTransferred int64,
	totalBytes int64,
	currentFileNumber int,
	totalFileCount int,
)

type OpenOptions struct {
	StripVersionInfo           bool
	ExtractionProgressCallback ExtractionProgressCallback
	Logger                     *logging.Logger
}

type OpenOption func(*OpenOptions)

// DefaultOpenOptions returns the options used when none are given: version suffixes are stripped, no progress is
// reported and log output is discarded.
func DefaultOpenOptions() *OpenOptions {
	return &OpenOptions{
		StripVersionInfo: true,
		Logger:           logging.DefaultLogger(),
	}
}

// Apply returns DefaultOpenOptions with opts applied in order.
func Apply(opts ...OpenOption) *OpenOptions {
	o := DefaultOpenOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = logging.DefaultLogger()
	}
	return o
}

// WithExtractionProgress sets a progress callback function that will be called with progress updates.
// Parameters:
// - currentFilename: The name of the file currently being processed.
// - bytesTransferred: The number of bytes transferred so far for the current file.
// - totalBytes: The total number of bytes to be transferred for the current file.
// - currentFileNumber: The index of the current file being processed.
// - totalFileCount: The total number of files to be processed.
func WithExtractionProgress(callback ExtractionProgressCallback) OpenOption {
	return func(o *OpenOptions) {
		o.ExtractionProgressCallback = callback
	}
}

func WithLogger(logger *logging.Logger) OpenOption {
	return func(o *OpenOptions) {
		o.Logger = logger
	}
}

// WithStripVersionInfo controls whether ';N' version suffixes are removed from entry names. Lookups match the
// stripped name either way.
func WithStripVersionInfo(stripVersionInfo bool) OpenOption {
	return func(o *OpenOptions) {
		o.StripVersionInfo = stripVersionInfo
	}
}
