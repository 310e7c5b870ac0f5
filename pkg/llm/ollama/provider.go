package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ashebbar-dev/Ojas-EB/pkg/llm"
)

// OllamaProvider talks to a local Ollama server.
type OllamaProvider struct {
	baseURL string
	model   string
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatOptions struct {
	Temperature float64  `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func (p *OllamaProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := p.buildOptions(options)

	resp, err := p.send(ctx, chatRequest{
		Model:    opts.Model,
		Messages: normalizeRoles(history),
		Stream:   false,
		Options:  toChatOptions(opts),
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return chatResp.Message.Content, nil
}

// ChatStream reads the JSON-lines streaming body and feeds every fragment to
// the observer.
func (p *OllamaProvider) ChatStream(ctx context.Context, history []llm.Message, observe llm.TokenObserver, options ...llm.Option) (string, error) {
	opts := p.buildOptions(options)

	resp, err := p.send(ctx, chatRequest{
		Model:    opts.Model,
		Messages: normalizeRoles(history),
		Stream:   true,
		Options:  toChatOptions(opts),
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}

		if chunk.Message.Content != "" {
			full.WriteString(chunk.Message.Content)
			if observe != nil {
				observe(chunk.Message.Content)
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("stream read failed: %w", err)
	}

	return full.String(), nil
}

func (p *OllamaProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	messages := []llm.Message{
		{Role: "user", Content: prompt},
	}
	return p.Chat(ctx, messages, options...)
}

func (p *OllamaProvider) buildOptions(options []llm.Option) *llm.Options {
	opts := &llm.Options{
		Model:       p.model,
		Temperature: 0.20,
	}
	for _, o := range options {
		o(opts)
	}
	return opts
}

func toChatOptions(opts *llm.Options) *chatOptions {
	if opts.Temperature == 0 && opts.MaxTokens == 0 && len(opts.Stop) == 0 {
		return nil
	}
	return &chatOptions{
		Temperature: opts.Temperature,
		NumPredict:  opts.MaxTokens,
		Stop:        opts.Stop,
	}
}

// normalizeRoles maps the provider-agnostic "model" role to Ollama's "assistant"
func normalizeRoles(history []llm.Message) []llm.Message {
	messages := make([]llm.Message, len(history))
	for i, m := range history {
		role := m.Role
		if role == "model" {
			role = "assistant"
		}
		messages[i] = llm.Message{Role: role, Content: m.Content}
	}
	return messages
}

func (p *OllamaProvider) send(ctx context.Context, body chatRequest) (*http.Response, error) {
	payloadJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.baseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadJSON))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	return resp, nil
}
