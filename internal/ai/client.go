// Package ai runs the enrichment stage: job descriptions go through an
// OpenAI-compatible chat-completions endpoint behind a multi-key
// rate-limited pool, and the structured output (cleaned description, tags,
// entity groups) is written back to the store.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/jobscout/internal/config"
	"github.com/jonesrussell/jobscout/internal/logger"
	"github.com/jonesrussell/jobscout/internal/models"
)

const (
	defaultBaseURL        = "https://integrate.api.nvidia.com/v1"
	defaultModel          = "moonshotai/kimi-k2-instruct-0905"
	defaultRequestTimeout = 2 * time.Minute

	// maxResponseBodyBytes limits a chat-completion response read.
	maxResponseBodyBytes = 4 * 1024 * 1024

	temperature = 0.3
	topP        = 0.9
	maxTokens   = 4096
)

const systemPrompt = `You are a job description processor. Your task is to analyze job descriptions and produce structured output.

IMPORTANT: You must preserve ALL information from the original description. Do not omit, summarize, or change any details.

For each job description, provide a JSON response with these fields:

1. "cleaned_description": A well-formatted, readable version of the job description that:
   - Uses proper markdown formatting (headers, bullet points, paragraphs)
   - Fixes any HTML artifacts, encoding issues, or messy formatting
   - Organizes information logically (overview, responsibilities, requirements, benefits)
   - Preserves EVERY piece of information from the original
   - Does NOT add new information or opinions

2. "tags": An array of relevant tags (5-15 tags) including:
   - Technical skills (e.g., "Python", "AWS", "Kubernetes")
   - Job type (e.g., "Remote", "Hybrid", "On-site")
   - Experience level (e.g., "Senior", "Mid-level", "Entry-level")
   - Industry/domain (e.g., "FinTech", "Healthcare", "E-commerce")
   - Other relevant categorizations

3. "entities": An object containing extracted entities:
   - "companies": Array of company names mentioned (including hiring company, clients, partners)
   - "urls": Array of URLs found in the description
   - "emails": Array of email addresses
   - "phone_numbers": Array of phone numbers
   - "locations": Array of specific locations/addresses
   - "salary_info": Any salary/rate information found
   - "technologies": Array of specific technologies, tools, frameworks mentioned
   - "certifications": Array of certifications mentioned
   - "contact_persons": Array of recruiter/contact names

Respond ONLY with valid JSON, no markdown code blocks or other text.`

// userPrompt frames one job for the model.
func userPrompt(title, company, description string) string {
	return fmt.Sprintf(`Process this job description:

Job Title: %s
Company: %s

Description:
%s`, title, company, description)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Result is the structured output of one enrichment call.
type Result struct {
	CleanedDescription string            `json:"cleaned_description"`
	Tags               models.StringList `json:"tags"`
	Entities           models.EntityMap  `json:"entities"`
}

// Client calls the chat-completions endpoint. Credentials are supplied per
// request so the key pool stays in charge of rotation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	log        logger.Interface
}

// NewClient builds a client from cfg, falling back to the NIM defaults.
func NewClient(cfg config.AIConfig, log logger.Interface) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		log:        log,
	}
}

// Process sends one job description for enrichment and parses the model's
// JSON reply.
func (c *Client) Process(ctx context.Context, apiKey, title, company, description string) (*Result, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(title, company, description)},
		},
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("chat completion failed: %s (status %d)", errResp.Error.Message, resp.StatusCode)
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("response carried no choices")
	}

	return c.parseResult(completion.Choices[0].Message.Content)
}

// parseResult decodes the model's JSON, tolerating a fenced code block
// around it despite the prompt asking for bare JSON.
func (c *Client) parseResult(raw string) (*Result, error) {
	var res Result
	if err := json.Unmarshal([]byte(stripFences(raw)), &res); err != nil {
		c.log.Debug("Unparseable model output", "raw", truncate(raw, 500))
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}
	return &res, nil
}

// stripFences unwraps a ```json ... ``` envelope.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	parts := strings.Split(s, "```")
	if len(parts) < 2 {
		return s
	}
	return strings.TrimSpace(strings.TrimPrefix(parts[1], "json"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
