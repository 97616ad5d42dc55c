// Package openaicap adapts any OpenAI-compatible vision chat endpoint
// (OpenAI itself, llama.cpp server, vLLM gateways) to the captioner contract.
package openaicap

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/menta2k/alt-text-service/pkg/captioner"
	"github.com/menta2k/alt-text-service/pkg/processing"
)

// CaptionPrompt steers the vision model toward terse alt-text phrasing.
const CaptionPrompt = `Describe this e-commerce product photo in one short factual sentence suitable as alt text. Name the product and its visible attributes. No preamble, no quotes, no markdown.`

const (
	sendMaxDim  = 1024
	sendQuality = 85
)

// Client wraps an OpenAI-compatible chat completion client.
type Client struct {
	client    *openai.Client
	model     string
	proc      *processing.Processor
	maxTokens int
}

// NewClient creates a captioner against an OpenAI-compatible endpoint.
// baseURL may be empty for the OpenAI default. maxTokens bounds generation
// length; values below 1 fall back to the default budget.
func NewClient(baseURL, apiKey, model string, maxTokens int) (*Client, error) {
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	if maxTokens < 1 {
		maxTokens = captioner.DefaultMaxTokens
	}

	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		proc:      processing.NewProcessor(),
		maxTokens: maxTokens,
	}, nil
}

// Name implements captioner.Captioner.
func (c *Client) Name() string { return "openai" }

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

	imgB64, err := c.proc.PrepareImageForModel(in.Image, "jpg", sendMaxDim, sendQuality)
	if err != nil {
		return "", &captioner.Error{Kind: captioner.KindUnavailable,
			Err: fmt.Errorf("failed to encode image: %v", err)}
	}

	prompt := CaptionPrompt
	if t := strings.TrimSpace(in.Title); t != "" {
		prompt = fmt.Sprintf("%s The product is listed as %q.", CaptionPrompt, t)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:image/jpeg;base64," + imgB64,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", captioner.Wrap(err)
	}

	if len(resp.Choices) == 0 {
		return "", &captioner.Error{Kind: captioner.KindMalformedOutput,
			Err: fmt.Errorf("no choices in response")}
	}

	caption := strings.TrimSpace(resp.Choices[0].Message.Content)
	if caption == "" {
		return "", &captioner.Error{Kind: captioner.KindMalformedOutput,
			Err: fmt.Errorf("empty caption in response")}
	}
	return caption, nil
}
