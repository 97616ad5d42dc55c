// Package infer adapts a standalone inference server exposing the
// POST /v1/infer boundary: {image_url, title} in, {caption, tags} out. The
// server fetches the image itself, so only the URL and title cross the wire.
package infer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/menta2k/alt-text-service/pkg/captioner"
)

// Client talks to an inference server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type inferRequest struct {
	ImageURL string  `json:"image_url"`
	Title    *string `json:"title"`
}

type inferResponse struct {
	Caption string   `json:"caption"`
	Tags    []string `json:"tags"`
}

// NewClient creates a client for the inference server at serverURL.
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8001"
	}

	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: captioner.DefaultTimeout,
		},
	}, nil
}

// Name implements captioner.Captioner.
func (c *Client) Name() string { return "infer" }

// Caption implements captioner.Captioner.
func (c *Client) Caption(ctx context.Context, in captioner.Input) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, captioner.DefaultTimeout)
		defer cancel()
	}

	payload := inferRequest{ImageURL: in.ImageURL}
	if t := strings.TrimSpace(in.Title); t != "" {
		payload.Title = &t
	}

	respBody, err := c.sendRequest(ctx, "/v1/infer", payload)
	if err != nil {
		return "", err
	}

	var resp inferResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &captioner.Error{Kind: captioner.KindMalformedOutput,
			Err: fmt.Errorf("failed to parse response: %v", err)}
	}

	caption := strings.TrimSpace(resp.Caption)
	if caption == "" {
		return "", &captioner.Error{Kind: captioner.KindMalformedOutput,
			Err: fmt.Errorf("empty caption in response")}
	}
	return caption, nil
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, &captioner.Error{Kind: captioner.KindUnavailable,
			Err: fmt.Errorf("failed to marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &captioner.Error{Kind: captioner.KindUnavailable,
			Err: fmt.Errorf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, captioner.Wrap(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, captioner.Wrap(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &captioner.Error{Kind: captioner.KindUnavailable,
			Err: fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))}
	}

	return body, nil
}
