// Package callback implements the out-of-scope collaborator boundary: an
// HTTP-backed Cache that proxies fetches through a remote cache-read
// endpoint, and an HTTP-backed NodeSink that POSTs batches to a remote
// callback base URL. Neither the proxy protocol nor the callback client's
// retry policy is part of this repository's specified core; this package
// exists only so cmd/ingestd has something concrete to wire into Driver
// outside of tests.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/phulin/statute-ingest/internal/ingest"
)

// Client is the shared HTTP-backed collaborator implementation; it
// satisfies ingest.Cache and ingest.NodeSink.
type Client struct {
	HTTP       *http.Client
	BaseURL    string
	Token      string
}

func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{HTTP: httpClient, BaseURL: baseURL, Token: token}
}

func (c *Client) post(ctx context.Context, path string, payload any, headers map[string]string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.HTTP.Do(req)
}

// Fetch implements ingest.Cache by proxying through /api/proxy/cache-read.
// A 422 response with {"error":"html_response"} is treated as "this
// document turned out to be HTML rather than XML" and reported as a
// CacheMiss rather than an error, so the driver can skip the unit instead
// of aborting the run.
func (c *Client) Fetch(ctx context.Context, url, cacheKey string) ([]byte, error) {
	resp, err := c.post(ctx, "/api/proxy/cache-read", map[string]any{
		"url":      url,
		"cacheKey": cacheKey,
	}, nil)
	if err != nil {
		return nil, &ingest.CacheMiss{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, &ingest.CacheMiss{URL: url, Err: fmt.Errorf("cache proxy: %s", body.Error)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ingest.CacheMiss{URL: url, Err: fmt.Errorf("cache proxy: unexpected status %d", resp.StatusCode)}
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, &ingest.CacheMiss{URL: url, Err: err}
	}
	return buf.Bytes(), nil
}

// InsertNodes implements ingest.NodeSink by POSTing the batch to
// /api/callback/nodes. Each call is tagged with a fresh batch correlation
// id (a new one per call, so a repeated POST of the same batch carries a
// different id) that can be traced through logs on either side of the
// callback boundary.
func (c *Client) InsertNodes(ctx context.Context, batch []ingest.NodePayload) error {
	batchID := uuid.NewString()
	resp, err := c.post(ctx, "/api/callback/nodes", map[string]any{"nodes": batch, "batchId": batchID},
		map[string]string{"X-Batch-Id": batchID})
	if err != nil {
		return &ingest.SinkError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return &ingest.SinkError{Err: fmt.Errorf("callback sink: unexpected status %d", resp.StatusCode)}
	}
	return nil
}

// Flush implements ingest.NodeSink; the remote callback has no separate
// flush step, so this makes no request and always returns nil.
func (c *Client) Flush(context.Context) error { return nil }
