package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaLLM drives a local Ollama instance for the generation tasks.
type OllamaLLM struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ LLMProvider = &OllamaLLM{}

func NewOllamaLLM(baseURL, modelName string, timeout time.Duration) *OllamaLLM {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaLLM{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

func (o *OllamaLLM) chat(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	reqPayload := ollamaChatRequest{
		Model: o.ModelName,
		Messages: []ollamaMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
	}
	if jsonMode {
		reqPayload.Format = "json"
	}

	jsonBody, err := json.Marshal(reqPayload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/api/chat", o.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama error: code %d, body %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return chatResp.Message.Content, nil
}

const titleSummarySystem = `You summarize transcripts of spoken conversations.
Respond with a JSON object: {"title": "...", "summary": "..."}.
The title is at most 8 words. The summary is 2-4 sentences.`

func (o *OllamaLLM) GenerateTitleSummary(ctx context.Context, transcript string) (string, string, error) {
	raw, err := o.chat(ctx, titleSummarySystem, transcript, true)
	if err != nil {
		return "", "", err
	}

	var parsed struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return "", "", fmt.Errorf("failed to parse title/summary response: %w", err)
	}
	if parsed.Title == "" {
		return "", "", fmt.Errorf("model returned empty title")
	}
	return parsed.Title, parsed.Summary, nil
}

const memoryExtractSystem = `You extract durable facts about the speakers from a conversation transcript.
Respond with a JSON object: {"memories": [{"content": "...", "category": "..."}]}.
Categories: personal, preference, plan, relationship, other.
Only include facts worth remembering beyond this conversation. An empty list is valid.`

func (o *OllamaLLM) ExtractMemories(ctx context.Context, transcript string) ([]MemoryFact, error) {
	raw, err := o.chat(ctx, memoryExtractSystem, transcript, true)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Memories []MemoryFact `json:"memories"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse memory response: %w", err)
	}
	return parsed.Memories, nil
}

// extractJSON trims chatter around the first top-level JSON object. Some
// models wrap their JSON in code fences even in json mode.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
