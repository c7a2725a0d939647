package llm

import (
	"context"
	"net/http"
	"strings"
)

const ollamaBaseURL = "http://localhost:11434"

// ollamaBackend talks to a local Ollama server through /api/chat.
type ollamaBackend struct {
	baseURL string
	client  *http.Client
}

func newOllamaBackend(cfg Config, client *http.Client) *ollamaBackend {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = ollamaBaseURL
	}
	return &ollamaBackend{baseURL: base, client: client}
}

func (o *ollamaBackend) chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var result ollamaResponse
	if err := postJSON(ctx, o.client, string(KindOllama), o.baseURL+"/api/chat", nil, o.buildRequest(req), &result); err != nil {
		return nil, err
	}
	return result.toChatResponse(req.Model), nil
}

func (o *ollamaBackend) buildRequest(req ChatRequest) ollamaRequest {
	system, turns := splitSystem(req.Messages)

	body := ollamaRequest{
		Model:    req.Model,
		Stream:   false,
		Messages: make([]ollamaMessage, 0, len(turns)+1),
		Options:  &ollamaOptions{NumPredict: req.MaxTokens, Temperature: req.Temperature},
	}
	if system != "" {
		body.Messages = append(body.Messages, ollamaMessage{Role: RoleSystem, Content: system})
	}
	for _, m := range turns {
		msg := ollamaMessage{Role: m.Role, Content: m.Content}
		if m.Role == RoleTool {
			msg.ToolName = m.Name
		} else if m.Role != RoleAssistant {
			msg.Role = RoleUser
		}
		body.Messages = append(body.Messages, msg)
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, ollamaTool{
			Type: "function",
			Function: ollamaFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return body
}

func (r *ollamaResponse) toChatResponse(model string) *ChatResponse {
	out := &ChatResponse{
		Content:    r.Message.Content,
		Model:      r.Model,
		StopReason: r.DoneReason,
		Usage: &Usage{
			InputTokens:  r.PromptEvalCount,
			OutputTokens: r.EvalCount,
		},
	}
	if out.Model == "" {
		out.Model = model
	}
	for _, tc := range r.Message.ToolCalls {
		args := tc.Function.Arguments
		if args == nil {
			args = map[string]any{}
		}
		out.ToolCalls = append(out.ToolCalls, ToolInvocation{
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return out
}

// Wire structures

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolName  string           `json:"tool_name,omitempty"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaTool struct {
	Type     string         `json:"type"`
	Function ollamaFunction `json:"function"`
}

type ollamaFunction struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Parameters  ObjectSchema `json:"parameters"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type ollamaResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}
