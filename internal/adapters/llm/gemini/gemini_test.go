package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

type fakeModel struct {
	resp *genai.GenerateContentResponse
	err  error
	got  []genai.Part
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.got = parts
	return f.resp, f.err
}

func response(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestComplete_JoinsTextParts(t *testing.T) {
	t.Parallel()

	m := &fakeModel{resp: response(genai.Text("## Summary\n"), genai.Text("All quiet."))}
	c := &Completer{model: m, name: "gemini:test"}
	out, err := c.Complete(context.Background(), "brief me")
	if err != nil {
		t.Fatal(err)
	}
	if out != "## Summary\nAll quiet." {
		t.Fatalf("out = %q", out)
	}
	if len(m.got) != 1 || m.got[0] != genai.Text("brief me") {
		t.Fatalf("prompt parts = %#v", m.got)
	}
}

func TestComplete_Errors(t *testing.T) {
	t.Parallel()

	cause := errors.New("429")
	c := &Completer{model: &fakeModel{err: cause}}
	if _, err := c.Complete(context.Background(), "x"); !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}

	c = &Completer{model: &fakeModel{resp: &genai.GenerateContentResponse{}}}
	if _, err := c.Complete(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "no candidates") {
		t.Fatalf("err = %v", err)
	}

	c = &Completer{model: &fakeModel{resp: response()}}
	if _, err := c.Complete(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "no text") {
		t.Fatalf("err = %v", err)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("want error for empty key")
	}
	var c *Completer
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}
