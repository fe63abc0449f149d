package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/talentview/transcription-worker/internal/transcription/domain"
)

const defaultBaseURL = "https://api.openai.com/v1"

// quotaCode is the OpenAI error code reported when the account has no
// remaining credits.
const quotaCode = "insufficient_quota"

// APIError is a structured error returned by the transcription API.
type APIError struct {
	StatusCode int
	Code       string
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transcription api error (status %d, code %q): %s", e.StatusCode, e.Code, e.Message)
}

// Is makes quota errors matchable through errors.Is without inspecting
// message text.
func (e *APIError) Is(target error) bool {
	return target == domain.ErrQuotaExhausted && e.Code == quotaCode
}

// Config holds transcription client configuration
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	Timeout  time.Duration
}

// Client calls the Whisper transcription API
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new transcription client
func NewClient(config *Config, logger *slog.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = "whisper-1"
	}
	if config.Language == "" {
		config.Language = "es"
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// Configured reports whether an API key is present. The health endpoint
// surfaces this without making a provider call.
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

type verboseResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Transcribe uploads the video file and returns the transcript with timed
// segments. Segments come back ordered by start time ascending.
func (c *Client) Transcribe(ctx context.Context, path string) (*domain.Transcript, error) {
	// Without an API key there are no credits to spend; report it the same
	// way as an exhausted quota so the caller falls back to the synthetic
	// transcript instead of failing the record.
	if !c.Configured() {
		return nil, domain.ErrQuotaExhausted
	}

	c.logger.Info("Transcribing video",
		slog.String("path", path),
		slog.String("model", c.config.Model),
	)

	body, contentType, err := c.buildRequestBody(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return nil, fmt.Errorf("failed to build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp.StatusCode, respBody)
	}

	var parsed verboseResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}

	transcript := &domain.Transcript{
		Text:     parsed.Text,
		Segments: make([]domain.Segment, 0, len(parsed.Segments)),
	}
	for _, seg := range parsed.Segments {
		transcript.Segments = append(transcript.Segments, domain.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	c.logger.Info("Transcription completed",
		slog.Int("text_length", len(transcript.Text)),
		slog.Int("segments", len(transcript.Segments)),
	)

	return transcript, nil
}

func (c *Client) buildRequestBody(path string) (io.Reader, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open video file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to copy video into request: %w", err)
	}

	fields := map[string]string{
		"model":           c.config.Model,
		"language":        c.config.Language,
		"response_format": "verbose_json",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

func (c *Client) apiError(status int, body []byte) error {
	apiErr := &APIError{
		StatusCode: status,
		Message:    "unknown error",
	}

	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Code = parsed.Error.Code
		apiErr.Type = parsed.Error.Type
		apiErr.Message = parsed.Error.Message
	}

	if apiErr.Code == quotaCode {
		c.logger.Warn("Transcription quota exhausted",
			slog.String("message", apiErr.Message),
		)
	} else {
		c.logger.Error("Transcription api error",
			slog.Int("status", status),
			slog.String("code", apiErr.Code),
			slog.String("message", apiErr.Message),
		)
	}

	return apiErr
}
