//go:build !rp2040

package uplink

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"telemetry-node/types"
)

// REST posts the payload as a JSON object to a PostgREST-style table
// endpoint (e.g. https://<project>/rest/v1/readings).
type REST struct {
	URL    string
	APIKey string
	Client *http.Client
	Logger *slog.Logger
}

// NewREST returns a REST transmitter with a bounded client timeout.
func NewREST(url, apiKey string, timeout time.Duration, logger *slog.Logger) *REST {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &REST{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: timeout},
		Logger: logger,
	}
}

func (r *REST) Post(ctx context.Context, p types.Payload) int {
	body, err := json.Marshal(p)
	if err != nil {
		r.Logger.Error("rest:encode", slog.String("err", err.Error()))
		return TransportError
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		r.Logger.Error("rest:request", slog.String("err", err.Error()))
		return TransportError
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	if r.APIKey != "" {
		req.Header.Set("apikey", r.APIKey)
		req.Header.Set("Authorization", "Bearer "+r.APIKey)
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		r.Logger.Warn("rest:transport", slog.String("err", err.Error()))
		return TransportError
	}
	defer resp.Body.Close()
	if !Accepted(resp.StatusCode) {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		r.Logger.Warn("rest:rejected", slog.Int("status", resp.StatusCode), slog.String("body", string(msg)))
	}
	return resp.StatusCode
}
