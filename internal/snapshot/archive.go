package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/kraukis/substore/internal/models"
)

// Export writes the blob sequence as a zstd-compressed stream of JSON
// records, one per blob, suitable for transfer between stores.
func Export(w io.Writer, blobs []*models.Blob) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}

	enc := json.NewEncoder(zw)
	for _, blob := range blobs {
		if err := enc.Encode(blob); err != nil {
			zw.Close()
			return fmt.Errorf("encode blob %s: %w", blob.ID.Short(), err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zstd writer: %w", err)
	}
	return nil
}

// Import reads a blob sequence written by Export.
func Import(r io.Reader) ([]*models.Blob, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	var blobs []*models.Blob
	dec := json.NewDecoder(zr)
	for {
		blob := &models.Blob{}
		if err := dec.Decode(blob); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode blob: %w", err)
		}
		blobs = append(blobs, blob)
	}
	return blobs, nil
}
