package answer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewAdapterModes(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{"auto without key", Config{Mode: "auto"}, "*answer.MockAdapter", false},
		{"auto with key", Config{Mode: "auto", APIKey: "sk-x"}, "*answer.OpenAIAdapter", false},
		{"explicit mock", Config{Mode: "mock", APIKey: "sk-x"}, "*answer.MockAdapter", false},
		{"openai without key", Config{Mode: "openai"}, "", true},
		{"unknown mode", Config{Mode: "llama"}, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewAdapter(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NewAdapter error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewAdapter error = %v", err)
			}
			if typ := typeName(got); typ != tc.want {
				t.Fatalf("adapter type = %s, want %s", typ, tc.want)
			}
		})
	}
}

func typeName(a Adapter) string {
	switch a.(type) {
	case *MockAdapter:
		return "*answer.MockAdapter"
	case *OpenAIAdapter:
		return "*answer.OpenAIAdapter"
	default:
		return "unknown"
	}
}

func TestBuildUserPrompt(t *testing.T) {
	got := buildUserPrompt(Request{
		Question: "What is gravity?",
		Context:  []string{"today we talk about space", "planets pull on each other"},
	})
	want := "Context: today we talk about space | planets pull on each other\nQuestion: What is gravity?"
	if got != want {
		t.Fatalf("buildUserPrompt = %q, want %q", got, want)
	}

	bare := buildUserPrompt(Request{Question: "Why is the sky blue?"})
	if bare != "Question: Why is the sky blue?" {
		t.Fatalf("buildUserPrompt without context = %q", bare)
	}
}

func TestOpenAIAdapterGenerate(t *testing.T) {
	var seen chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&seen); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  Paris is the capital of France.  "}},
			},
		})
	}))
	defer ts.Close()

	a := NewOpenAIAdapter("sk-test", ts.URL, "")
	got, err := a.Generate(context.Background(), Request{Question: "What is the capital of France?"})
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
	if got != "Paris is the capital of France." {
		t.Fatalf("Generate = %q", got)
	}
	if seen.Model != defaultModel {
		t.Fatalf("model = %q, want %q", seen.Model, defaultModel)
	}
	if seen.MaxTokens != 80 || seen.Temperature != 0.2 {
		t.Fatalf("sampling = (%d, %v), want (80, 0.2)", seen.MaxTokens, seen.Temperature)
	}
	if len(seen.Messages) != 2 || seen.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", seen.Messages)
	}
	if !strings.Contains(seen.Messages[1].Content, "Question: What is the capital of France?") {
		t.Fatalf("user message = %q", seen.Messages[1].Content)
	}
}

func TestOpenAIAdapterUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	a := NewOpenAIAdapter("sk-test", ts.URL, "")
	if _, err := a.Generate(context.Background(), Request{Question: "hi there friend"}); err == nil {
		t.Fatalf("Generate error = nil, want upstream failure")
	}
}

func TestMockAdapterAnswers(t *testing.T) {
	a := NewMockAdapter()
	got, err := a.Generate(context.Background(), Request{Question: "What is a verb?"})
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
	if got == "" {
		t.Fatalf("Generate returned empty answer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Generate(ctx, Request{Question: "x"}); err == nil {
		t.Fatalf("Generate with canceled ctx error = nil, want ctx.Err()")
	}
}
