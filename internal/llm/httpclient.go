package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/soyeahso/wawa/internal/version"
)

// postJSON sends body to endpoint and decodes a 200 response into out.
// Failures come back as *ProviderError.
func postJSON(ctx context.Context, client *http.Client, provider, endpoint string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &ProviderError{
			Provider: provider,
			Category: CategoryBadRequest,
			Message:  fmt.Sprintf("failed to marshal request: %v", err),
			Err:      err,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return &ProviderError{
			Provider: provider,
			Category: CategoryBadRequest,
			Message:  fmt.Sprintf("failed to create request: %v", err),
			Err:      err,
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return transportError(provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(provider, resp.StatusCode, errorMessage(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &ProviderError{
			Provider: provider,
			Category: CategoryUnknown,
			Code:     resp.StatusCode,
			Message:  fmt.Sprintf("failed to parse response: %v", err),
			Err:      err,
		}
	}
	return nil
}

// errorMessage pulls a human-readable message out of a vendor error body.
// Gemini and Claude use {"error":{"message":...}}, Ollama uses {"error":"..."}.
func errorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return flat.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = "empty response body"
	}
	return msg
}
