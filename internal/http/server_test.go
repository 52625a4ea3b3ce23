package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/voicetask/internal/auth"
	"github.com/fyrsmithlabs/voicetask/internal/config"
	"github.com/fyrsmithlabs/voicetask/internal/extraction"
	"github.com/fyrsmithlabs/voicetask/internal/logging"
	"github.com/fyrsmithlabs/voicetask/internal/sanitize"
	"github.com/fyrsmithlabs/voicetask/internal/service"
	"github.com/fyrsmithlabs/voicetask/internal/store"
	"github.com/fyrsmithlabs/voicetask/internal/task"
	"github.com/fyrsmithlabs/voicetask/internal/telemetry"
	"github.com/fyrsmithlabs/voicetask/internal/throttle"
)

var refNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

const aliceToken = "tok-alice"

type testEnv struct {
	server *Server
	store  *store.MemoryStore
	logger *logging.TestLogger
	now    time.Time
}

func (e *testEnv) clock() time.Time { return e.now }

func setupTestServer(t *testing.T, mutate func(*Config, *[]service.Option)) *testEnv {
	t.Helper()
	env := &testEnv{
		store:  store.NewMemoryStore(),
		logger: logging.NewTestLogger(),
		now:    refNow,
	}

	analyzer := extraction.NewAnalyzer(extraction.WithClock(env.clock))
	opts := []service.Option{
		service.WithSink(env.store),
		service.WithClock(env.clock),
		service.WithLogger(env.logger.Logger),
	}
	cfg := &Config{Host: "localhost", Port: 9090}
	if mutate != nil {
		mutate(cfg, &opts)
	}

	proc, err := service.NewProcessor(analyzer, opts...)
	require.NoError(t, err)

	server, err := NewServer(Deps{
		Processor: proc,
		Tokens:    auth.NewStaticTokens(map[string]config.Secret{"alice": aliceToken, "bob": "tok-bob"}),
		Logger:    env.logger.Logger,
	}, cfg)
	require.NoError(t, err)
	env.server = server
	return env
}

func postProcessInput(t *testing.T, env *testEnv, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/nlp/process-input", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestNewServer(t *testing.T) {
	proc, err := service.NewProcessor(extraction.NewAnalyzer())
	require.NoError(t, err)
	tokens := auth.NewStaticTokens(nil)
	logger := logging.NewNop()

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(Deps{Processor: proc, Tokens: tokens, Logger: logger}, nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", server.config.Host)
		assert.Equal(t, 9090, server.config.Port)
		assert.Nil(t, server.limiter)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(Deps{Processor: proc, Tokens: tokens}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when processor is nil", func(t *testing.T) {
		_, err := NewServer(Deps{Tokens: tokens, Logger: logger}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "processor cannot be nil")
	})

	t.Run("returns error when token validator is nil", func(t *testing.T) {
		_, err := NewServer(Deps{Processor: proc, Logger: logger}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token validator cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Telemetry)
}

func TestHandleHealth_WithTelemetry(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	proc, err := service.NewProcessor(extraction.NewAnalyzer())
	require.NoError(t, err)
	server, err := NewServer(Deps{
		Processor: proc,
		Tokens:    auth.NewStaticTokens(nil),
		Logger:    logging.NewNop(),
		Telemetry: tel.Telemetry,
	}, &Config{Host: "localhost", Port: 9090, Version: "1.2.3"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	require.NotNil(t, resp.Telemetry)
	assert.True(t, resp.Telemetry.Healthy)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestServer(t, nil)
	rec := postProcessInput(t, env, aliceToken, ProcessInputRequest{InputText: "Buy milk whenever"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "voicetask_extraction_total")
}

func TestHandleProcessInput(t *testing.T) {
	t.Run("assembles draft and analysis", func(t *testing.T) {
		env := setupTestServer(t, nil)

		rec := postProcessInput(t, env, aliceToken, ProcessInputRequest{
			InputText: "Urgent: call Sarah Lee tomorrow at 3pm",
			Source:    "voice",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
		assert.Contains(t, raw, "task")
		assert.Contains(t, raw, "nlpAnalysis")
		assert.Contains(t, raw, "record")

		var resp ProcessInputResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, extraction.PriorityHigh, resp.Task.Priority)
		assert.Equal(t, extraction.CategoryMeeting, resp.Task.Category)
		assert.Equal(t, "Sarah Lee", resp.Task.ContactPerson)
		require.NotNil(t, resp.Task.DueDate)
		assert.Equal(t, time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC), resp.Task.DueDate.UTC())
		assert.True(t, resp.Analysis.Deadline.HasDeadline)
		require.NotNil(t, resp.Record)
		assert.Equal(t, "alice", resp.Record.UserID)
		assert.Equal(t, 1, env.store.Len())
	})

	t.Run("camelCase analysis fields", func(t *testing.T) {
		env := setupTestServer(t, nil)
		rec := postProcessInput(t, env, aliceToken, ProcessInputRequest{InputText: "Email Priya about the budget by Friday"})
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		for _, field := range []string{`"hasDeadline":true`, `"contactPerson":"Priya"`, `"dueDate":`} {
			assert.Contains(t, body, field)
		}
	})

	t.Run("validation errors return 400 with every message", func(t *testing.T) {
		env := setupTestServer(t, nil)
		rec := postProcessInput(t, env, aliceToken, ProcessInputRequest{InputText: "<iframe " + strings.Repeat("x", 600)})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		resp := decodeError(t, rec)
		assert.Equal(t, "validation failed", resp.Error)
		assert.Contains(t, resp.Errors, sanitize.MsgTooLong)
		assert.Contains(t, resp.Errors, sanitize.MsgUnsafe)
		assert.Zero(t, env.store.Len())
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		env := setupTestServer(t, nil)
		rec := postProcessInput(t, env, aliceToken, `{"inputText":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid request body", decodeError(t, rec).Error)
	})

	t.Run("unknown source returns 400", func(t *testing.T) {
		env := setupTestServer(t, nil)
		rec := postProcessInput(t, env, aliceToken, ProcessInputRequest{InputText: "Call mom tonight", Source: "fax"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("throttled returns 429 with retry hint", func(t *testing.T) {
		env := setupTestServer(t, func(_ *Config, opts *[]service.Option) {
			*opts = append(*opts, service.WithThrottle(throttle.NewRegistry(2*time.Second)))
		})
		body := ProcessInputRequest{InputText: "Call the dentist"}

		require.Equal(t, http.StatusOK, postProcessInput(t, env, aliceToken, body).Code)

		env.now = env.now.Add(500 * time.Millisecond)
		rec := postProcessInput(t, env, aliceToken, body)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("Retry-After"))
		assert.Equal(t, 2, decodeError(t, rec).RetryAfterSeconds)
	})
}

type failingSink struct{}

func (failingSink) Create(context.Context, string, task.Draft) (task.Record, error) {
	return task.Record{}, errors.New("connection refused: tasks.internal:5432")
}

func TestHandleProcessInput_SinkFailure(t *testing.T) {
	env := setupTestServer(t, func(_ *Config, opts *[]service.Option) {
		*opts = append(*opts, service.WithSink(failingSink{}))
	})

	rec := postProcessInput(t, env, aliceToken, ProcessInputRequest{InputText: "Call the dentist"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, "failed to process input", resp.Error)
	assert.NotContains(t, rec.Body.String(), "5432")
	assert.NotContains(t, rec.Body.String(), "task")
	env.logger.AssertLogged(t, zapcore.ErrorLevel, "process input failed")
}

func TestRequireAuth(t *testing.T) {
	env := setupTestServer(t, nil)
	body := ProcessInputRequest{InputText: "Call the dentist"}

	t.Run("missing token", func(t *testing.T) {
		rec := postProcessInput(t, env, "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := postProcessInput(t, env, "tok-mallory", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		env.logger.AssertLogged(t, zapcore.WarnLevel, "rejected bearer token")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/nlp/process-input", strings.NewReader(`{"inputText":"Call the dentist"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(echo.HeaderAuthorization, "Basic "+aliceToken)
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tokens never logged", func(t *testing.T) {
		_ = postProcessInput(t, env, aliceToken, body)
		env.logger.AssertNoSecrets(t)
	})

	assert.Equal(t, 1, env.store.Len(), "only the authenticated request creates a task")
}

func TestRateLimit(t *testing.T) {
	env := setupTestServer(t, func(cfg *Config, _ *[]service.Option) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 2
	})
	body := ProcessInputRequest{InputText: "Call the dentist"}

	assert.Equal(t, http.StatusOK, postProcessInput(t, env, aliceToken, body).Code)
	assert.Equal(t, http.StatusOK, postProcessInput(t, env, aliceToken, body).Code)

	rec := postProcessInput(t, env, aliceToken, body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate limit exceeded", decodeError(t, rec).Error)

	// Buckets are per user.
	assert.Equal(t, http.StatusOK, postProcessInput(t, env, "tok-bob", body).Code)
}

func TestServer_StartShutdown(t *testing.T) {
	proc, err := service.NewProcessor(extraction.NewAnalyzer())
	require.NoError(t, err)
	server, err := NewServer(Deps{
		Processor: proc,
		Tokens:    auth.NewStaticTokens(nil),
		Logger:    logging.NewNop(),
	}, &Config{Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))
	assert.ErrorIs(t, <-errCh, http.ErrServerClosed)
}
