// Package ollama adapts a local Ollama vision model to the captioner
// contract. The decoded image is re-encoded as JPEG and sent inline with a
// short captioning prompt.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/alt-text-service/pkg/captioner"
	"github.com/menta2k/alt-text-service/pkg/processing"
)

// CaptionPrompt steers the vision model toward terse alt-text phrasing.
const CaptionPrompt = `Describe this e-commerce product photo in one short factual sentence suitable as alt text. Name the product and its visible attributes. No preamble, no quotes, no markdown.`

// payload limits for the image sent to the model
const (
	sendMaxDim  = 1024
	sendQuality = 85
)

// Client wraps the Ollama API client.
type Client struct {
	client    *api.Client
	model     string
	proc      *processing.Processor
	maxTokens int
}

// NewClient creates a new Ollama captioner for the given server URL and
// model name. maxTokens bounds generation length; values below 1 fall back to
// the default budget.
func NewClient(ollamaURL, model string, maxTokens int) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	// Base URL only; the API client appends its own paths.
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	if maxTokens < 1 {
		maxTokens = captioner.DefaultMaxTokens
	}

	return &Client{
		client:    api.NewClient(baseURL, http.DefaultClient),
		model:     model,
		proc:      processing.NewProcessor(),
		maxTokens: maxTokens,
	}, nil
}

// Name implements captioner.Captioner.
func (c *Client) Name() string { return "ollama" }

// Caption implements captioner.Captioner.
func (c *Client) Caption(ctx context.Context, in captioner.Input) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, captioner.DefaultTimeout)
		defer cancel()
	}

	if in.Image == nil {
		return "", &captioner.Error{Kind: captioner.KindUnavailable,
			Err: fmt.Errorf("no decoded image to send")}
	}

	imgBytes, err := c.proc.EncodeForModel(in.Image, "jpg", sendMaxDim, sendQuality)
	if err != nil {
		return "", &captioner.Error{Kind: captioner.KindUnavailable,
			Err: fmt.Errorf("failed to encode image: %v", err)}
	}

	prompt := CaptionPrompt
	if t := strings.TrimSpace(in.Title); t != "" {
		prompt = fmt.Sprintf("%s The product is listed as %q.", CaptionPrompt, t)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
		Options: map[string]any{
			"num_predict": c.maxTokens,
			"temperature": 0.2,
		},
	}

	var responseContent string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", captioner.Wrap(err)
	}

	caption := strings.TrimSpace(responseContent)
	if caption == "" {
		return "", &captioner.Error{Kind: captioner.KindMalformedOutput,
			Err: fmt.Errorf("empty response from ollama")}
	}
	return caption, nil
}
