package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
)

const maxFetchAttempts = 2

// retryBackoff is the pause before the single retry; tests shorten it
var retryBackoff = 250 * time.Millisecond

// HTTPMediaFetcher fetches media over HTTP(S) within a fixed timeout budget.
// A transient failure is retried at most once inside the same budget.
type HTTPMediaFetcher struct {
	client   *http.Client
	timeout  time.Duration
	MaxBytes int64
}

// NewHTTPMediaFetcher creates an HTTP media fetcher whose whole fetch,
// retries included, is bounded by timeout
func NewHTTPMediaFetcher(timeout time.Duration) *HTTPMediaFetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:    timeout,
		ResponseHeaderTimeout:  timeout,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 8192,
	}

	return &HTTPMediaFetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		timeout:  timeout,
		MaxBytes: DefaultMaxMediaSize,
	}
}

func (h *HTTPMediaFetcher) Fetch(ctx context.Context, mediaURL string) (*RawMedia, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, apperrors.NewFetchError("invalid URL", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, video/*, */*")
	req.Header.Set("User-Agent", "Deepfake-Inspector/1.0")

	var lastErr error
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, h.wrap(ctx.Err(), lastErr)
			case <-time.After(retryBackoff):
			}
		}

		media, retryable, err := h.do(req)
		if err == nil {
			return media, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}

	return nil, h.wrap(ctx.Err(), lastErr)
}

// do performs one attempt and reports whether a failure may be retried
func (h *HTTPMediaFetcher) do(req *http.Request) (*RawMedia, bool, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	// 4xx client errors are non-retryable
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	}
	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err := readAllLimited(resp.Body, h.MaxBytes)
	if err != nil {
		return nil, false, err
	}
	return &RawMedia{Data: data, ContentType: resp.Header.Get("Content-Type")}, false, nil
}

func (h *HTTPMediaFetcher) wrap(ctxErr, lastErr error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return apperrors.NewFetchError(fmt.Sprintf("media fetch timed out after %s", h.timeout), ctxErr)
	}
	if ctxErr != nil {
		return apperrors.NewFetchError("media fetch cancelled", ctxErr)
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return apperrors.NewFetchError("failed to fetch media", lastErr)
}
