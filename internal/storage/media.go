package storage

import (
	"context"
	"fmt"
	"io"
)

// DefaultMaxMediaSize caps the number of bytes read for one media reference
const DefaultMaxMediaSize int64 = 20 * 1024 * 1024

// RawMedia is the undecoded payload behind a media reference. It is owned by
// the pipeline invocation that fetched it.
type RawMedia struct {
	Data        []byte
	ContentType string
}

// MediaFetcher retrieves raw bytes for a media URL
type MediaFetcher interface {
	Fetch(ctx context.Context, mediaURL string) (*RawMedia, error)
}

// readAllLimited reads r fully, failing when more than maxBytes are available
func readAllLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("media exceeds %d bytes", maxBytes)
	}
	return data, nil
}
