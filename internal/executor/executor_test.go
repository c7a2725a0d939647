package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/soyeahso/wawa/internal/chat"
	"github.com/soyeahso/wawa/internal/domain"
	"github.com/soyeahso/wawa/internal/logging"
	"github.com/soyeahso/wawa/internal/skill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ chat.Executor = (*HTTPExecutor)(nil)
	_ chat.Executor = (*DryRunExecutor)(nil)
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

var testCtx = domain.ExecuteContext{
	User:      domain.CurrentUser{TeacherID: "t-1", Name: "김선생"},
	Module:    "makeup",
	YearMonth: "2026-02",
}

func TestHTTPExecutor_Success(t *testing.T) {
	var gotPath, gotAuth string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message":"scheduled","uiAction":{"type":"navigate","payload":{"module":"makeup"}}}`))
	}))
	defer srv.Close()

	e := NewHTTP(HTTPConfig{BaseURL: srv.URL + "/", Token: "secret"}, silentLog())
	res, err := e.Execute(context.Background(), "makeup.schedule", map[string]any{"studentName": "홍길동"}, testCtx)
	require.NoError(t, err)

	assert.Equal(t, "/skills/execute", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "makeup.schedule", got["skill"])
	assert.Equal(t, map[string]any{"studentName": "홍길동"}, got["parameters"])
	ctxJSON := got["context"].(map[string]any)
	assert.Equal(t, "makeup", ctxJSON["currentModule"])
	assert.Equal(t, "2026-02", ctxJSON["currentYearMonth"])
	assert.Equal(t, "t-1", ctxJSON["currentUser"].(map[string]any)["teacherId"])

	assert.True(t, res.Success)
	assert.Equal(t, "scheduled", res.Message)
	require.NotNil(t, res.UIAction)
	assert.Equal(t, domain.UIActionNavigate, res.UIAction.Type)
}

func TestHTTPExecutor_NilParamsSentAsObject(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	_, err := NewHTTP(HTTPConfig{BaseURL: srv.URL}, nil).Execute(context.Background(), "report.getStatus", nil, testCtx)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw["parameters"]))
}

func TestHTTPExecutor_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"json error", http.StatusNotFound, `{"error":"student not found"}`, "host returned 404: student not found"},
		{"json message", http.StatusBadRequest, `{"message":"bad date"}`, "host returned 400: bad date"},
		{"plain text", http.StatusInternalServerError, "boom", "host returned 500: boom"},
		{"empty", http.StatusBadGateway, "", "host returned 502: empty response body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res, err := NewHTTP(HTTPConfig{BaseURL: srv.URL}, silentLog()).
				Execute(context.Background(), "makeup.schedule", nil, testCtx)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Error)
		})
	}
}

func TestHTTPExecutor_TransportErrors(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewHTTP(HTTPConfig{BaseURL: url}, silentLog()).
			Execute(context.Background(), "report.getStatus", nil, testCtx)
		assert.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		_, err := NewHTTP(HTTPConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, silentLog()).
			Execute(context.Background(), "report.getStatus", nil, testCtx)
		assert.Error(t, err)
	})

	t.Run("invalid body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		_, err := NewHTTP(HTTPConfig{BaseURL: srv.URL}, silentLog()).
			Execute(context.Background(), "report.getStatus", nil, testCtx)
		assert.ErrorContains(t, err, "decoding report.getStatus result")
	})
}

func TestDryRunExecutor(t *testing.T) {
	d := NewDryRun(skill.NewBuiltinCatalog(), silentLog())
	ctx := context.Background()

	params := map[string]any{"studentName": "홍길동"}
	res, err := d.Execute(ctx, "makeup.schedule", params, testCtx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Nil(t, res.UIAction)
	assert.Equal(t, params, res.Data)

	res, err = d.Execute(ctx, "system.navigate", map[string]any{"module": "timer"}, testCtx)
	require.NoError(t, err)
	require.NotNil(t, res.UIAction)
	assert.Equal(t, domain.UIActionNavigate, res.UIAction.Type)
	assert.Equal(t, "timer", res.UIAction.Payload["module"])

	res, err = d.Execute(ctx, "report.preview", nil, testCtx)
	require.NoError(t, err)
	require.NotNil(t, res.UIAction)
	assert.Equal(t, skill.ModuleReport, res.UIAction.Payload["module"])
	assert.Nil(t, res.Data)

	res, err = d.Execute(ctx, "billing.charge", nil, testCtx)
	require.NoError(t, err)
	assert.False(t, res.Success)

	calls := d.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "makeup.schedule", calls[0].Skill)
	assert.Equal(t, testCtx, calls[0].Context)

	params["studentName"] = "mutated"
	assert.Equal(t, "홍길동", d.Calls()[0].Parameters["studentName"])

	d.Reset()
	assert.Empty(t, d.Calls())
}

func TestDryRunExecutor_CanceledContext(t *testing.T) {
	d := NewDryRun(skill.NewBuiltinCatalog(), silentLog())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Execute(ctx, "report.getStatus", nil, testCtx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.Calls())
}

// The orchestrator and a dry-run executor together complete a confirmed call.
func TestDryRunWithOrchestrator(t *testing.T) {
	catalog := skill.NewBuiltinCatalog()
	d := NewDryRun(catalog, silentLog())
	o := chat.New(catalog, d, chat.WithLogger(silentLog()))

	msg, err := o.AddAssistantMessage("", &chat.ToolRequest{
		SkillName:  "system.navigate",
		Parameters: map[string]any{"module": "student"},
	})
	require.NoError(t, err)

	out, err := o.Execute(context.Background(), msg.ID, testCtx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, out.ToolCall.Status)
	require.NotNil(t, out.ToolCall.Result.UIAction)
	assert.Equal(t, "student", out.ToolCall.Result.UIAction.Payload["module"])
}
