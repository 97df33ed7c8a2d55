package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LLMClient talks to an OpenAI-compatible chat-completions endpoint.
// DryRun skips the HTTP call entirely (development / tests).
type LLMClient struct {
	BaseURL string
	APIKey  string
	Model   string
	DryRun  bool
	client  *http.Client
}

func NewLLMClient(baseURL, apiKey, model string, dryRun bool) *LLMClient {
	return &LLMClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		DryRun:  dryRun,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type ChatMessage struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON-encoded
}

type ToolDef struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

// NewToolDef builds one function declaration; parameters is a JSON schema.
func NewToolDef(name, description string, parameters json.RawMessage) ToolDef {
	var d ToolDef
	d.Type = "function"
	d.Function.Name = name
	d.Function.Description = description
	d.Function.Parameters = parameters
	return d
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Tools    []ToolDef     `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the conversation and returns the model's next message,
// which may carry tool calls instead of text.
func (c *LLMClient) Complete(messages []ChatMessage, tools []ToolDef) (*ChatMessage, error) {
	if c.DryRun || c.APIKey == "" {
		return &ChatMessage{
			Role:    "assistant",
			Content: "Assistant is running in dry-run mode; no completion backend configured.",
		}, nil
	}

	body, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages, Tools: tools})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest("POST", c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse completion response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("completion backend: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("completion backend: status=%d choices=%d", resp.StatusCode, len(parsed.Choices))
	}
	msg := parsed.Choices[0].Message
	return &msg, nil
}
