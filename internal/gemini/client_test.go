package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/oukeidos/skinscan/internal/apperrors"
)

type mapSource map[string][]byte

func (m mapSource) Image(p string) ([]byte, string, bool) {
	data, ok := m[p]
	if !ok {
		return nil, "", false
	}
	return data, "image/png", true
}

const validAnalysis = `{"skin_type":"combination","scores":{"hydration":61},"summary":"Oily T-zone.","routine":[{"step":"cleanse","name":"Gel Wash"}]}`

func TestAnalyzer_Analyze(t *testing.T) {
	gen := &MockGenerator{Response: TextResponse(validAnalysis)}
	src := mapSource{"s1/front-1.png": []byte("front"), "s1/left-1.png": []byte("left")}
	a := NewAnalyzer(gen, src)

	payload, err := a.Analyze(context.Background(), "s1", []string{"s1/front-1.png", "s1/left-1.png"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if payload.SkinType != "combination" || payload.ScanID != "gemini-s1" {
		t.Fatalf("payload = %+v", payload)
	}

	if len(gen.LastParts) != 3 {
		t.Fatalf("parts = %d, want prompt plus 2 images", len(gen.LastParts))
	}
	prompt, ok := gen.LastParts[0].(genai.Text)
	if !ok || !strings.Contains(string(prompt), "1. front view") || !strings.Contains(string(prompt), "2. left view") {
		t.Fatalf("prompt = %q", prompt)
	}
	img, ok := gen.LastParts[1].(genai.Blob)
	if !ok || img.MIMEType != "image/png" || string(img.Data) != "front" {
		t.Fatalf("first image part = %#v", gen.LastParts[1])
	}
}

func TestAnalyzer_Errors(t *testing.T) {
	t.Run("MissingBytes", func(t *testing.T) {
		a := NewAnalyzer(&MockGenerator{Response: TextResponse(validAnalysis)}, mapSource{})
		_, err := a.Analyze(context.Background(), "s1", []string{"s1/front-1.png"})
		if kind, _ := apperrors.KindOf(err); kind != apperrors.KindInvocation {
			t.Fatalf("kind = %q, want invocation", kind)
		}
	})

	t.Run("GeneratorError", func(t *testing.T) {
		want := apperrors.RateLimit(errors.New("429"))
		a := NewAnalyzer(&MockGenerator{Error: want}, mapSource{"p": []byte("x")})
		_, err := a.Analyze(context.Background(), "s1", []string{"p"})
		if !errors.Is(err, want) {
			t.Fatalf("error = %v, want %v", err, want)
		}
	})

	t.Run("SchemaViolation", func(t *testing.T) {
		a := NewAnalyzer(&MockGenerator{Response: TextResponse(`{"skin_type":"scaly"}`)}, mapSource{"p": []byte("x")})
		_, err := a.Analyze(context.Background(), "s1", []string{"p"})
		if kind, _ := apperrors.KindOf(err); kind != apperrors.KindValidation {
			t.Fatalf("kind = %q, want validation", kind)
		}
	})

	t.Run("NoImages", func(t *testing.T) {
		a := NewAnalyzer(&MockGenerator{}, mapSource{})
		if _, err := a.Analyze(context.Background(), "s1", nil); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestImageFormat(t *testing.T) {
	cases := map[string]string{
		"image/jpeg":               "jpeg",
		"image/webp":               "webp",
		"application/octet-stream": "jpeg",
		"":                         "jpeg",
	}
	for in, want := range cases {
		if got := imageFormat(in); got != want {
			t.Errorf("imageFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractResponseText(t *testing.T) {
	t.Run("NilResponse", func(t *testing.T) {
		_, err := extractResponseText(nil)
		if err == nil || err.Error() != "no response received from Gemini" {
			t.Fatalf("expected nil response error, got: %v", err)
		}
	})

	t.Run("EmptyCandidates", func(t *testing.T) {
		_, err := extractResponseText(&genai.GenerateContentResponse{})
		if err == nil || err.Error() != "no candidates returned from Gemini" {
			t.Fatalf("expected empty candidates error, got: %v", err)
		}
	})

	t.Run("NoParts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: nil}},
			},
		}
		_, err := extractResponseText(resp)
		if err == nil || err.Error() != "no text parts found in Gemini response" {
			t.Fatalf("expected no text parts error, got: %v", err)
		}
	})

	t.Run("NonTextParts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{
					genai.Blob{MIMEType: "application/octet-stream", Data: []byte{0x01}},
				}}},
			},
		}
		_, err := extractResponseText(resp)
		if err == nil || err.Error() != "no text parts found in Gemini response" {
			t.Fatalf("expected no text parts error, got: %v", err)
		}
	})

	t.Run("MultiPartText", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{
					genai.Text("one"),
					genai.Text("two"),
				}}},
			},
		}
		text, err := extractResponseText(resp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "onetwo" {
			t.Fatalf("expected concatenated text, got: %q", text)
		}
	})
}
