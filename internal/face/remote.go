package face

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/anime-shed/deepfake-inspector-go/internal/decoder"
)

// RemoteSessionFactory delegates detection to an HTTP service that accepts an
// image body and answers {"faces":[{"x","y","width","height","confidence"}]}
type RemoteSessionFactory struct {
	endpoint string
	client   *http.Client
}

func NewRemoteSessionFactory(endpoint string, timeout time.Duration) *RemoteSessionFactory {
	return &RemoteSessionFactory{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (f *RemoteSessionFactory) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	return &remoteSession{factory: f, ctx: sessionCtx, cancel: cancel}, nil
}

type remoteFace struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}

type remoteResponse struct {
	Faces []remoteFace `json:"faces"`
}

// remoteSession owns a context that Close cancels, aborting any request
// still in flight
type remoteSession struct {
	factory *RemoteSessionFactory
	ctx     context.Context
	cancel  context.CancelFunc
}

func (s *remoteSession) Process(ctx context.Context, img *decoder.DecodedImage) ([]Detection, error) {
	var body bytes.Buffer
	if err := png.Encode(&body, img.Image); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.factory.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("invalid detector endpoint: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")

	resp, err := s.factory.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("detector returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var payload remoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed detector response: %w", err)
	}

	detections := make([]Detection, 0, len(payload.Faces))
	for _, f := range payload.Faces {
		detections = append(detections, Detection{
			Box:        BoundingBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
			Confidence: f.Confidence,
		})
	}
	return detections, nil
}

func (s *remoteSession) Close() error {
	s.cancel()
	return nil
}
