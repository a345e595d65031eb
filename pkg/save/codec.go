package save

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// compressPayload zstd-compresses a save payload before it hits a backing
// store.
func compressPayload(payload []byte) ([]byte, error) {
	compressed := bytes.NewBuffer(nil)
	compWriter, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := compWriter.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to compress payload: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}

	return compressed.Bytes(), nil
}

// decompressPayload reverses compressPayload.
func decompressPayload(data []byte) ([]byte, error) {
	compReader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer compReader.Close()
	payload, err := io.ReadAll(compReader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress payload: %v", err)
	}

	return payload, nil
}
