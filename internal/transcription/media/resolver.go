package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/talentview/transcription-worker/internal/transcription/domain"
)

// File is a locally materialized video payload. Close removes the backing
// temp file; callers must close it on every exit path.
type File struct {
	Path string
}

func (f *File) Close() error {
	if f == nil || f.Path == "" {
		return nil
	}
	return os.Remove(f.Path)
}

// Resolver obtains raw video bytes for a record, either by downloading the
// referenced URL or by decoding an embedded base64 blob.
type Resolver struct {
	client *http.Client
	logger *slog.Logger
}

// NewResolver creates a new Resolver instance
func NewResolver(timeout time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Resolve materializes the record's video payload into a temp file. When
// the record carries neither a URL nor embedded data it returns
// domain.ErrPayloadUnavailable.
func (r *Resolver) Resolve(ctx context.Context, rec *domain.Record) (*File, error) {
	if url := rec.VideoURL(); url != "" {
		return r.download(ctx, url)
	}

	if enc := rec.VideoBase64(); enc != "" {
		return r.decode(enc)
	}

	return nil, domain.ErrPayloadUnavailable
}

func (r *Resolver) download(ctx context.Context, url string) (*File, error) {
	r.logger.Info("Downloading video",
		slog.String("url", url),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download video: unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "response-video-*.webm")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write video to temp file: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to close temp file: %w", closeErr)
	}

	r.logger.Info("Video downloaded",
		slog.String("path", tmp.Name()),
		slog.Int64("bytes", written),
	)

	return &File{Path: tmp.Name()}, nil
}

func (r *Resolver) decode(encoded string) (*File, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode embedded video: %w", err)
	}

	tmp, err := os.CreateTemp("", "response-video-*.webm")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write video to temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	r.logger.Info("Embedded video decoded",
		slog.String("path", tmp.Name()),
		slog.Int("bytes", len(raw)),
	)

	return &File{Path: tmp.Name()}, nil
}
