package compression

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	sharedZstdOnce sync.Once
	sharedZstd     *ZstdCompressor
	sharedZstdErr  error
)

// defaultZstd returns a process-wide compressor for GetCompressor
func defaultZstd() (*ZstdCompressor, error) {
	sharedZstdOnce.Do(func() {
		sharedZstd, sharedZstdErr = NewZstdCompressor()
	})
	return sharedZstd, sharedZstdErr
}

// ZstdCompressor implements Compressor with klauspost zstd. The encoder and
// decoder are created once and are safe for concurrent EncodeAll/DecodeAll.
type ZstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCompressor creates a zstd compressor at the default speed level
func NewZstdCompressor() (*ZstdCompressor, error) {
	return NewZstdCompressorLevel(zstd.SpeedDefault)
}

// NewZstdCompressorLevel creates a zstd compressor at the given level
func NewZstdCompressorLevel(level zstd.EncoderLevel) (*ZstdCompressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &ZstdCompressor{
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Compress compresses data using zstd
func (z *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	return z.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress decompresses zstd compressed data
func (z *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	out, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress failed: %w", err)
	}
	return out, nil
}

// Algorithm returns Zstd
func (z *ZstdCompressor) Algorithm() Algorithm {
	return Zstd
}

// Close releases encoder and decoder resources
func (z *ZstdCompressor) Close() {
	_ = z.encoder.Close()
	z.decoder.Close()
}
