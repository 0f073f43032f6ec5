package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pharmadash/internal/modules/datamanager/application/port"
)

// RESTClient wraps http.Client with base URL handling shared by the backend adapters.
type RESTClient struct {
	baseURL string
	client  *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration, client *http.Client) *RESTClient {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = "http://localhost:8000/api"
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if client == nil {
		client = &http.Client{Timeout: timeoutOrDefault(timeout)}
	} else if timeout > 0 {
		client.Timeout = timeout
	}
	return &RESTClient{baseURL: trimmed, client: client}
}

func (c *RESTClient) NewRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	return http.NewRequestWithContext(ctx, method, url, body)
}

func (c *RESTClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

// SendJSON issues method on path with payload encoded as the JSON body and the bearer token set.
func (c *RESTClient) SendJSON(ctx context.Context, method, path, token string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if trimmed := strings.TrimSpace(token); trimmed != "" {
		req.Header.Set("Authorization", "Bearer "+trimmed)
	}
	slog.Debug("rest request", slog.String("method", method), slog.String("url", req.URL.String()))

	res, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	slog.Debug("rest response", slog.Int("status", res.StatusCode), slog.String("url", req.URL.String()))
	return res, nil
}

// checkStatus maps non-2xx responses onto the port sentinel errors. The body is consumed on error.
func checkStatus(res *http.Response, rejected error) error {
	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	case res.StatusCode == http.StatusUnauthorized:
		return port.ErrListingUnauthorized
	case res.StatusCode == http.StatusForbidden:
		return port.ErrListingForbidden
	case res.StatusCode == http.StatusNotFound:
		return port.ErrListingNotFound
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	message := backendMessage(body)
	slog.Error("rest unexpected status", slog.Int("status", res.StatusCode), slog.String("url", res.Request.URL.String()), slog.String("body", strings.TrimSpace(string(body))))
	if rejected != nil && res.StatusCode >= 400 && res.StatusCode < 500 {
		if message != "" {
			return fmt.Errorf("%w: %s", rejected, message)
		}
		return fmt.Errorf("%w: status %d", rejected, res.StatusCode)
	}
	return fmt.Errorf("unexpected backend response %d", res.StatusCode)
}

// backendMessage extracts the "message" field backends put in error bodies.
func backendMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if message, ok := payload["message"].(string); ok {
		return strings.TrimSpace(message)
	}
	return ""
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value <= 0 {
		return 10 * time.Second
	}
	return value
}
