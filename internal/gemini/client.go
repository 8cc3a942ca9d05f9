// Package gemini runs the skin analysis directly against the Gemini API
// instead of the hosted analysis function.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/oukeidos/skinscan/internal/analysis"
	"github.com/oukeidos/skinscan/internal/apperrors"
	"github.com/oukeidos/skinscan/internal/logger"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Generator sends one multimodal request.
type Generator interface {
	Generate(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// ImageSource returns the bytes that were uploaded under objectPath.
type ImageSource interface {
	Image(objectPath string) (data []byte, contentType string, ok bool)
}

// Client handles communication with the Gemini API.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient creates a Gemini client that answers in JSON with the skin
// analysis instruction installed.
func NewClient(ctx context.Context, apiKey string, modelName string) (*Client, error) {
	// option.WithHTTPClient breaks the library's API key header injection,
	// so the default transport is kept.
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, apperrors.Auth(fmt.Errorf("create gemini client: %w", err))
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModel
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemInstruction)},
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Generate calls the model. There is no deadline beyond ctx.
func (c *Client) Generate(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, classifyGenerateError(err)
	}
	return resp, nil
}

var _ Generator = (*Client)(nil)

// Analyzer implements submission.Analyzer on top of a Generator.
type Analyzer struct {
	gen    Generator
	images ImageSource
}

// NewAnalyzer pairs gen with the source of the uploaded bytes.
func NewAnalyzer(gen Generator, images ImageSource) *Analyzer {
	return &Analyzer{gen: gen, images: images}
}

// Analyze sends every uploaded photo inline with the session context.
func (a *Analyzer) Analyze(ctx context.Context, sessionID string, imagePaths []string) (*analysis.Payload, error) {
	if len(imagePaths) == 0 {
		return nil, apperrors.Input(fmt.Errorf("no images to analyze"))
	}

	parts := []genai.Part{genai.Text(UserPrompt(sessionID, imagePaths))}
	for _, p := range imagePaths {
		data, contentType, ok := a.images.Image(p)
		if !ok {
			return nil, apperrors.Invocation(fmt.Errorf("image bytes for %s are not available", p))
		}
		parts = append(parts, genai.ImageData(imageFormat(contentType), data))
	}

	resp, err := a.gen.Generate(ctx, parts...)
	if err != nil {
		return nil, err
	}
	text, err := extractResponseText(resp)
	if err != nil {
		return nil, apperrors.Validation(err)
	}
	payload, err := analysis.Parse([]byte(text))
	if err != nil {
		return nil, err
	}
	if payload.ScanID == "" {
		payload.ScanID = "gemini-" + sessionID
	}
	if resp.UsageMetadata != nil {
		logger.Debug("Gemini usage",
			"session_id", sessionID,
			"prompt_tokens", resp.UsageMetadata.PromptTokenCount,
			"total_tokens", resp.UsageMetadata.TotalTokenCount,
		)
	}
	return payload, nil
}

// imageFormat maps a MIME type to the short form genai.ImageData expects.
func imageFormat(contentType string) string {
	format, ok := strings.CutPrefix(contentType, "image/")
	if !ok || format == "" {
		return "jpeg"
	}
	return format
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var combined strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				combined.WriteString(string(text))
			}
		}
		if combined.Len() > 0 {
			return combined.String(), nil
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}
