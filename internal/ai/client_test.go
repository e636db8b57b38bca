package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/jobscout/internal/config"
	"github.com/jonesrussell/jobscout/internal/logger"
	"github.com/jonesrussell/jobscout/internal/models"
)

// chatReply wraps content in the wire shape the endpoint returns. Handlers
// run off the test goroutine, so failures here use assert, never require.
func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()

	err := json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	assert.NoError(t, err)
}

func TestClientProcess(t *testing.T) {
	t.Parallel()

	enrichment := map[string]any{
		"cleaned_description": "## Overview\n\nBuild data pipelines.",
		"tags":                []string{"Python", "Remote"},
		"entities": map[string]any{
			"locations":   []string{"Leeds"},
			"salary_info": "£70,000",
		},
	}
	inner, err := json.Marshal(enrichment)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "test-model", req.Model)
		assert.InDelta(t, 0.3, req.Temperature, 0.001)
		assert.InDelta(t, 0.9, req.TopP, 0.001)
		assert.Equal(t, 4096, req.MaxTokens)
		assert.False(t, req.Stream)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Contains(t, req.Messages[0].Content, "job description processor")
			assert.Equal(t, "user", req.Messages[1].Role)
			assert.Contains(t, req.Messages[1].Content, "Job Title: Data Engineer")
			assert.Contains(t, req.Messages[1].Content, "Company: Acme")
		}

		// Models wrap output in fences despite being told not to.
		chatReply(t, w, "```json\n"+string(inner)+"\n```")
	}))
	defer srv.Close()

	c := NewClient(config.AIConfig{
		BaseURL:        srv.URL,
		Model:          "test-model",
		RequestTimeout: 2 * time.Second,
	}, logger.NewNoOp())

	res, err := c.Process(context.Background(), "sk-test", "Data Engineer", "Acme", "Build and run our ingestion pipelines.")
	require.NoError(t, err)
	assert.Equal(t, "## Overview\n\nBuild data pipelines.", res.CleanedDescription)
	assert.Equal(t, models.StringList{"Python", "Remote"}, res.Tags)
	assert.Equal(t, "Leeds", res.Entities.FirstString("locations"))
	assert.Equal(t, "£70,000", res.Entities.FirstString("salary_info"))
}

func TestClientProcessAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer srv.Close()

	c := NewClient(config.AIConfig{BaseURL: srv.URL, RequestTimeout: 2 * time.Second}, logger.NewNoOp())

	_, err := c.Process(context.Background(), "sk-test", "Data Engineer", "Acme", "desc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestClientProcessMalformedOutput(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "I could not produce JSON for this one, sorry.")
	}))
	defer srv.Close()

	c := NewClient(config.AIConfig{BaseURL: srv.URL, RequestTimeout: 2 * time.Second}, logger.NewNoOp())

	_, err := c.Process(context.Background(), "sk-test", "Data Engineer", "Acme", "desc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse model output")
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced with language tag", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"unterminated fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"surrounding whitespace", "  {\"a\": 1}\n", `{"a": 1}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestUserPrompt(t *testing.T) {
	t.Parallel()

	got := userPrompt("Data Engineer", "Acme", "Build pipelines.")
	assert.Equal(t, "Process this job description:\n\nJob Title: Data Engineer\nCompany: Acme\n\nDescription:\nBuild pipelines.", got)
}
