package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	claudeBaseURL    = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	claudeMaxToolName = 128
)

// claudeBackend talks to the Anthropic Messages API.
type claudeBackend struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newClaudeBackend(cfg Config, client *http.Client) *claudeBackend {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = claudeBaseURL
	}
	return &claudeBackend{apiKey: cfg.APIKey, baseURL: base, client: client}
}

func (c *claudeBackend) chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	body, names := c.buildRequest(req)
	var result claudeResponse
	if err := postJSON(ctx, c.client, string(KindClaude), c.baseURL+"/v1/messages", headers, body, &result); err != nil {
		return nil, err
	}
	return result.toChatResponse(req.Model, names)
}

// buildRequest returns the wire request and the map from encoded tool names
// back to skill names.
func (c *claudeBackend) buildRequest(req ChatRequest) (claudeRequest, map[string]string) {
	system, turns := splitSystem(req.Messages)

	body := claudeRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		System:      system,
		Temperature: req.Temperature,
		Messages:    make([]claudeMessage, 0, len(turns)),
	}
	for _, m := range turns {
		body.Messages = append(body.Messages, claudeMessageFor(m))
	}
	names := make(map[string]string, len(req.Tools))
	for _, t := range req.Tools {
		name := claudeToolName(t.Name)
		names[name] = t.Name
		body.Tools = append(body.Tools, claudeTool{
			Name:        name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	return body, names
}

// claudeToolName fits a skill name to the tool name pattern
// ^[a-zA-Z0-9_-]{1,128}$. Dots become "__"; any other rune outside the
// pattern becomes "_".
func claudeToolName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '.':
			b.WriteString("__")
		case r == '_' || r == '-',
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if len(out) > claudeMaxToolName {
		out = out[:claudeMaxToolName]
	}
	if out == "" {
		out = "_"
	}
	return out
}

// Tool results are sent back as plain user text. The history does not carry
// tool_use ids, so tool_result blocks cannot be paired.
func claudeMessageFor(m Message) claudeMessage {
	switch m.Role {
	case RoleAssistant:
		return claudeMessage{Role: "assistant", Content: m.Content}
	case RoleTool:
		return claudeMessage{Role: "user", Content: toolResultText(m)}
	default:
		return claudeMessage{Role: "user", Content: m.Content}
	}
}

func (r *claudeResponse) toChatResponse(model string, names map[string]string) (*ChatResponse, error) {
	out := &ChatResponse{
		Model:      r.Model,
		StopReason: r.StopReason,
		Usage: &Usage{
			InputTokens:  r.Usage.InputTokens,
			OutputTokens: r.Usage.OutputTokens,
		},
	}
	if out.Model == "" {
		out.Model = model
	}

	var content strings.Builder
	for _, block := range r.Content {
		switch block.Type {
		case "text":
			content.WriteString(block.Text)
		case "tool_use":
			name, ok := names[block.Name]
			if !ok {
				name = block.Name
			}
			args := map[string]any{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					return nil, &ProviderError{
						Provider: string(KindClaude),
						Category: CategoryUnknown,
						Message:  fmt.Sprintf("invalid input for tool %s", name),
						Err:      err,
					}
				}
				if args == nil {
					args = map[string]any{}
				}
			}
			out.ToolCalls = append(out.ToolCalls, ToolInvocation{
				ID:        block.ID,
				Name:      name,
				Arguments: args,
			})
		}
	}
	out.Content = content.String()
	return out, nil
}

// Wire structures

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
	Tools       []claudeTool    `json:"tools,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeTool struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	InputSchema ObjectSchema `json:"input_schema"`
}

type claudeResponse struct {
	ID         string               `json:"id"`
	Model      string               `json:"model"`
	StopReason string               `json:"stop_reason"`
	Content    []claudeContentBlock `json:"content"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type claudeContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}
