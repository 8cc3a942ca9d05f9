package gemini

import (
	"context"
	"sync"

	"github.com/google/generative-ai-go/genai"
)

// MockGenerator returns a canned response and records the request parts.
type MockGenerator struct {
	Response *genai.GenerateContentResponse
	Error    error

	mu        sync.Mutex
	LastParts []genai.Part
}

func (m *MockGenerator) Generate(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	m.LastParts = parts
	m.mu.Unlock()
	return m.Response, m.Error
}

// TextResponse wraps text in a single-candidate response.
func TextResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}}},
		},
	}
}
