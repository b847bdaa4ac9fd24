// Package gemini adapts Google's Gemini models to the narrative Completer port
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Config selects the model and sampling
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
}

// contentGenerator is satisfied by *genai.GenerativeModel
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Completer calls a Gemini model
type Completer struct {
	client *genai.Client
	model  contentGenerator
	name   string
}

// New dials the Gemini API
func New(ctx context.Context, cfg Config) (*Completer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	m := client.GenerativeModel(cfg.Model)
	m.SetTemperature(cfg.Temperature)
	if cfg.MaxTokens > 0 {
		m.SetMaxOutputTokens(cfg.MaxTokens)
	}
	return &Completer{client: client, model: m, name: "gemini:" + cfg.Model}, nil
}

// Name identifies the provider in narrative output
func (c *Completer) Name() string { return c.name }

// Complete sends prompt and joins the text parts of every candidate
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	return textOf(resp)
}

func textOf(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates")
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: no text in response")
	}
	return b.String(), nil
}

// Close releases the client
func (c *Completer) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
