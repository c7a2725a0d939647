// Package executor provides chat.Executor implementations: an HTTP client for
// the host application and a dry-run executor for use without one.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/wawa/internal/domain"
	"github.com/soyeahso/wawa/internal/logging"
	"github.com/soyeahso/wawa/internal/version"
)

const defaultTimeout = 30 * time.Second

// executePath is appended to the host base URL.
const executePath = "/skills/execute"

// HTTPConfig configures an HTTPExecutor.
type HTTPConfig struct {
	BaseURL string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
}

// HTTPExecutor forwards skill invocations to the host application.
type HTTPExecutor struct {
	endpoint string
	token    string
	client   *http.Client
	log      *logging.Logger
}

type executeRequest struct {
	Skill      string                `json:"skill"`
	Parameters map[string]any        `json:"parameters"`
	Context    domain.ExecuteContext `json:"context"`
}

// NewHTTP creates an executor posting to <BaseURL>/skills/execute.
func NewHTTP(cfg HTTPConfig, log *logging.Logger) *HTTPExecutor {
	if log == nil {
		log = logging.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPExecutor{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + executePath,
		token:    cfg.Token,
		client:   &http.Client{Timeout: timeout},
		log:      log.Sub("executor.http"),
	}
}

// Execute posts the invocation and decodes the host's SkillResult. A non-2xx
// response is a failed result; only transport and encoding problems are errors.
func (e *HTTPExecutor) Execute(ctx context.Context, skillName string, params map[string]any, ectx domain.ExecuteContext) (domain.SkillResult, error) {
	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(executeRequest{Skill: skillName, Parameters: params, Context: ectx})
	if err != nil {
		return domain.SkillResult{}, fmt.Errorf("marshaling %s request: %w", skillName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.SkillResult{}, fmt.Errorf("creating %s request: %w", skillName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return domain.SkillResult{}, fmt.Errorf("executing %s: %w", skillName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.SkillResult{}, fmt.Errorf("reading %s response: %w", skillName, err)
	}

	e.log.Debug().
		Str("skill", skillName).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("host responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.FailedResult(fmt.Sprintf("host returned %d: %s", resp.StatusCode, hostMessage(body))), nil
	}

	var result domain.SkillResult
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.SkillResult{}, fmt.Errorf("decoding %s result: %w", skillName, err)
	}
	return result, nil
}

// hostMessage extracts the error text of a failed host response.
func hostMessage(body []byte) string {
	var r struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &r) == nil {
		if r.Error != "" {
			return r.Error
		}
		if r.Message != "" {
			return r.Message
		}
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
