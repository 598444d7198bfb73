// Package remote provides the HTTP client for the image edit service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
)

// ClientConfig holds connection parameters for the edit service.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // per-request; 0 = 60s
}

// Client is a RemoteEditor backed by a JSON-over-HTTP edit service.
// Each Invoke issues exactly one request; failed calls are never retried
// here, so a failure costs the caller nothing but the round trip.
type Client struct {
	cfg    ClientConfig
	client *http.Client
}

// NewClient creates a Client.  Pass a nil httpClient to use a default one
// with the configured timeout.
func NewClient(cfg ClientConfig, httpClient *http.Client) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote client: base URL must not be empty")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, client: httpClient}, nil
}

type invokeRequest struct {
	Operation string      `json:"operation"`
	ImageURLs []string    `json:"image_urls"`
	Params    core.Params `json:"params,omitempty"`
}

type invokeResponse struct {
	ResultURL string `json:"result_url"`
	Error     string `json:"error,omitempty"`
}

func (c *Client) Invoke(ctx context.Context, op core.Operation, sourceURLs []string, params core.Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.Wrap(apperrors.CategoryRemote, "remote.invoke", err)
	}

	payload, err := json.Marshal(invokeRequest{
		Operation: string(op),
		ImageURLs: sourceURLs,
		Params:    params,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.CategoryRemote, "remote.invoke.marshal", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/edit", bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CategoryRemote, "remote.invoke", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.Transient("remote.invoke", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusPaymentRequired {
		return "", apperrors.New(apperrors.CategoryRemote, "remote.invoke", apperrors.ErrInsufficientCredits)
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", apperrors.Transient("remote.invoke", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.New(apperrors.CategoryRemote, "remote.invoke", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var out invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.Wrap(apperrors.CategoryRemote, "remote.invoke.decode", err)
	}
	if out.Error != "" {
		return "", apperrors.New(apperrors.CategoryRemote, "remote.invoke", fmt.Errorf("service error: %s", out.Error))
	}
	if out.ResultURL == "" {
		return "", apperrors.New(apperrors.CategoryRemote, "remote.invoke", apperrors.ErrEmptyResult)
	}
	return out.ResultURL, nil
}

var _ core.RemoteEditor = (*Client)(nil)
