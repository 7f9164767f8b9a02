package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
)

// Router dispatches a media URL to the fetcher that owns its scheme or host.
// Optional backends may be nil; references to them then fail as fetch errors.
// A positive Timeout bounds every backend, not only HTTP.
type Router struct {
	HTTP    MediaFetcher
	Azure   MediaFetcher
	S3      MediaFetcher
	Timeout time.Duration
}

func (r *Router) Fetch(ctx context.Context, mediaURL string) (*RawMedia, error) {
	fetcher, err := r.route(mediaURL)
	if err != nil {
		return nil, err
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	media, err := fetcher.Fetch(ctx, mediaURL)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, apperrors.NewFetchError(fmt.Sprintf("media fetch timed out after %s", r.Timeout), err)
	}
	return media, err
}

func (r *Router) route(mediaURL string) (MediaFetcher, error) {
	parsedURL, err := url.Parse(mediaURL)
	if err != nil {
		return nil, apperrors.NewFetchError("invalid URL", err)
	}

	switch {
	case parsedURL.Scheme == "s3":
		if r.S3 == nil {
			return nil, apperrors.NewFetchError("s3 storage is not configured", nil)
		}
		return r.S3, nil
	case IsAzureBlobURL(parsedURL) && r.Azure != nil:
		return r.Azure, nil
	case parsedURL.Scheme == "http" || parsedURL.Scheme == "https":
		if r.HTTP == nil {
			return nil, apperrors.NewFetchError("http fetching is not configured", nil)
		}
		return r.HTTP, nil
	default:
		return nil, apperrors.NewFetchError("unsupported URL scheme "+parsedURL.Scheme, nil)
	}
}
