package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"portfolio-chat/internal/config"

	"github.com/rs/zerolog"
)

const maxErrorBody = 512

type Client struct {
	baseURL    string
	streamPath string
	framing    Framing
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient builds a client from cfg. An unknown framing falls back to
// line framing; Validate reports it before this point.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	framing, err := ParseFraming(cfg.Framing)
	if err != nil {
		framing = FramingLines
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultTimeout
	}
	path := cfg.Path
	if path == "" {
		path = config.DefaultPath
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.Endpoint, "/"),
		streamPath: path,
		framing:    framing,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

func (c *Client) setHeaders(req *http.Request, requestID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
}

// --- Chat (Streaming) ---

type ChatRequest struct {
	Question string `json:"question"`
}

// StreamChat posts question and feeds each cleaned chunk of the streamed
// reply to onChunk until the server closes the body.
func (c *Client) StreamChat(ctx context.Context, question, requestID string, onChunk func(string)) error {
	body, err := json.Marshal(ChatRequest{Question: question})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.streamPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, requestID)

	log := c.log.With().Str("request_id", requestID).Logger()
	log.Debug().Str("url", req.URL.String()).Str("framing", string(c.framing)).Msg("stream start")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(errBody))}
	}

	chunks := 0
	err = Decode(resp.Body, c.framing, func(chunk string) {
		chunks++
		onChunk(chunk)
	})
	if err != nil {
		// The transport reports cancellation in several shapes.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	log.Debug().Int("chunks", chunks).Dur("elapsed", time.Since(start)).Msg("stream end")
	return nil
}

// --- Health ---

type HealthResponse struct {
	Status string `json:"status"`
}

// Health calls GET /health on the assistant service.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var out HealthResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &out, nil
}
