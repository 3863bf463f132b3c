// Package bronzeio opens vendor bronze files for ingestion, transparently
// decompressing gzip/zstd, and reads a header CSV into a raw pointline.Frame
// of Utf8 columns for vendor parsers to cast and canonicalize.
//
// Covers gzip in addition to zstd, since bronze files from both vendors
// arrive either way (§B).
package bronzeio

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Open returns a reader for path, transparently decompressing a ".gz" or
// ".zst"/".zstd" suffix. The caller must call the returned closer.
func Open(path string) (io.Reader, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, nil, err
		}
		return gzReader, func() error {
			gzReader.Close()
			return file.Close()
		}, nil

	case strings.HasSuffix(path, ".zst") || strings.HasSuffix(path, ".zstd"):
		zstdReader, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, nil, err
		}
		return zstdReader, func() error {
			zstdReader.Close()
			return file.Close()
		}, nil

	default:
		return file, file.Close, nil
	}
}
