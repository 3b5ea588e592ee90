package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const zstdSuffix = ".zst"

func isCompressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), zstdSuffix)
}

func encoderLevel(level int) zstd.EncoderLevel {
	switch level {
	case 1:
		return zstd.SpeedFastest
	case 3:
		return zstd.SpeedBetterCompression
	case 4:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

// compressedWriter wraps w in a zstd stream. Closing it flushes the frame
// but leaves w open.
func compressedWriter(w io.Writer, level int) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(encoderLevel(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	return enc, nil
}

type decoderCloser struct {
	*zstd.Decoder
}

func (d decoderCloser) Close() error {
	d.Decoder.Close()
	return nil
}

func compressedReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoderCloser{dec}, nil
}
