package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	geminiBaseURL            = "https://generativelanguage.googleapis.com/v1beta"
	geminiDefaultTemperature = 0.8
)

// geminiBackend talks to the Gemini generateContent endpoint.
type geminiBackend struct {
	apiKey          string
	baseURL         string
	disableThinking *bool
	client          *http.Client
}

func newGeminiBackend(cfg Config, client *http.Client) *geminiBackend {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = geminiBaseURL
	}
	return &geminiBackend{
		apiKey:          cfg.APIKey,
		baseURL:         base,
		disableThinking: cfg.DisableThinking,
		client:          client,
	}
}

func (g *geminiBackend) chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(req.Model), url.QueryEscape(g.apiKey))

	var result geminiResponse
	if err := postJSON(ctx, g.client, string(KindGemini), endpoint, nil, g.buildRequest(req), &result); err != nil {
		return nil, err
	}
	return result.toChatResponse(req.Model), nil
}

func (g *geminiBackend) buildRequest(req ChatRequest) geminiRequest {
	system, turns := splitSystem(req.Messages)

	body := geminiRequest{
		Contents: make([]geminiContent, 0, len(turns)),
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     geminiDefaultTemperature,
		},
	}
	if req.Temperature != nil {
		body.GenerationConfig.Temperature = *req.Temperature
	}
	if IsThinkingModel(req.Model) && (g.disableThinking == nil || *g.disableThinking) {
		body.GenerationConfig.ThinkingConfig = &geminiThinkingConfig{ThinkingBudget: 0}
	}
	if system != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	for _, m := range turns {
		c := geminiContentFor(m)
		// Adjacent turns of one role are sent as a single content.
		if n := len(body.Contents); n > 0 && body.Contents[n-1].Role == c.Role {
			body.Contents[n-1].Parts = append(body.Contents[n-1].Parts, c.Parts...)
			continue
		}
		body.Contents = append(body.Contents, c)
	}

	if len(req.Tools) > 0 {
		decls := make([]geminiFunctionDeclaration, len(req.Tools))
		for i, t := range req.Tools {
			decls[i] = geminiFunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
			}
			// Gemini rejects OBJECT schemas without properties.
			if len(t.Parameters.Properties) > 0 {
				params := t.Parameters
				decls[i].Parameters = &params
			}
		}
		body.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}
	return body
}

// Tool results go back as user text. The history carries tool calls as text
// summaries, and Gemini only accepts a functionResponse part directly after
// the model turn holding the matching functionCall part.
func geminiContentFor(m Message) geminiContent {
	switch m.Role {
	case RoleAssistant:
		return geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}}
	case RoleTool:
		return geminiContent{Role: "user", Parts: []geminiPart{{Text: toolResultText(m)}}}
	default:
		return geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}}
	}
}

func (r *geminiResponse) toChatResponse(model string) *ChatResponse {
	out := &ChatResponse{Model: model}
	if r.ModelVersion != "" {
		out.Model = r.ModelVersion
	}

	var content strings.Builder
	if len(r.Candidates) > 0 {
		candidate := r.Candidates[0]
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				content.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				args := part.FunctionCall.Args
				if args == nil {
					args = map[string]any{}
				}
				out.ToolCalls = append(out.ToolCalls, ToolInvocation{
					ID:        part.FunctionCall.ID,
					Name:      part.FunctionCall.Name,
					Arguments: args,
				})
			}
		}
		out.StopReason = candidate.FinishReason
	}
	out.Content = content.String()

	if r.UsageMetadata != nil {
		out.Usage = &Usage{
			InputTokens:  r.UsageMetadata.PromptTokenCount,
			OutputTokens: r.UsageMetadata.CandidatesTokenCount,
		}
	}
	return out
}

// Wire structures

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
	Tools             []geminiTool           `json:"tools,omitempty"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int                   `json:"maxOutputTokens,omitempty"`
	Temperature     float64               `json:"temperature"`
	ThinkingConfig  *geminiThinkingConfig `json:"thinkingConfig,omitempty"`
}

type geminiThinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiFunctionDeclaration struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parameters  *ObjectSchema `json:"parameters,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiFunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	ModelVersion  string            `json:"modelVersion"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}
