package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avilyaev/script-coach/internal/api/handler"
	"github.com/avilyaev/script-coach/internal/api/response"
	"github.com/avilyaev/script-coach/internal/domain"
	"github.com/avilyaev/script-coach/internal/kvstore"
	"github.com/avilyaev/script-coach/internal/llm"
	"github.com/avilyaev/script-coach/internal/repository/localstore"
	"github.com/avilyaev/script-coach/internal/scripts"
	"github.com/avilyaev/script-coach/internal/service"
)

// fakeProvider is a canned llm.Provider for handler tests
type fakeProvider struct {
	name        string
	stream      string
	streamErr   error
	title       string
	titleErr    error
	streamCalls int
	lastSystem  string
}

func (p *fakeProvider) Name() string         { return p.name }
func (p *fakeProvider) DefaultModel() string { return "fake-model" }
func (p *fakeProvider) IsConfigured() bool   { return true }

func (p *fakeProvider) StreamChat(ctx context.Context, messages []domain.Message, system string) (io.ReadCloser, error) {
	p.streamCalls++
	p.lastSystem = system
	if p.streamErr != nil {
		return nil, p.streamErr
	}
	return io.NopCloser(strings.NewReader(p.stream)), nil
}

func (p *fakeProvider) GenerateTitle(ctx context.Context, messages []domain.Message) (string, error) {
	return p.title, p.titleErr
}

func newRegistry(p *fakeProvider) *llm.Registry {
	registry := llm.NewRegistry(p.name)
	registry.Register(p)
	return registry
}

func testPrompts() scripts.Prompts {
	return scripts.Prompts{System: "system prompt", Training: "training prompt"}
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec.Body)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]any{"status": "ok"}, resp.Data)
}

func TestListProviders(t *testing.T) {
	registry := newRegistry(&fakeProvider{name: "anthropic"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/llm-providers", nil)
	rec := httptest.NewRecorder()
	handler.ListProviders(registry)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec.Body)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "anthropic", data["default_provider"])
	assert.Equal(t, []any{"anthropic"}, data["providers"])
}

func TestChatHandler_Relay(t *testing.T) {
	sse := "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"Hi\"}}\n\n"

	t.Run("streams the upstream body verbatim", func(t *testing.T) {
		provider := &fakeProvider{name: "anthropic", stream: sse}
		h := handler.NewChatHandler(newRegistry(provider), testPrompts())

		body := `{"messages":[{"id":"u1","role":"user","content":"Hello"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Relay(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		assert.Equal(t, sse, rec.Body.String())
		assert.Equal(t, "system prompt", provider.lastSystem)
	})

	t.Run("training flag selects the training prompt", func(t *testing.T) {
		provider := &fakeProvider{name: "anthropic", stream: sse}
		h := handler.NewChatHandler(newRegistry(provider), testPrompts())

		body := `{"messages":[{"role":"user","content":"case"}],"training":true}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Relay(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "training prompt", provider.lastSystem)
	})

	t.Run("empty message list is rejected before any upstream call", func(t *testing.T) {
		provider := &fakeProvider{name: "anthropic", stream: sse}
		h := handler.NewChatHandler(newRegistry(provider), testPrompts())

		for _, body := range []string{`{"messages":[]}`, `{}`, `not json`} {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
			rec := httptest.NewRecorder()
			h.Relay(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
			resp := decodeEnvelope(t, rec.Body)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		}
		assert.Zero(t, provider.streamCalls)
	})

	t.Run("invalid role is rejected", func(t *testing.T) {
		h := handler.NewChatHandler(newRegistry(&fakeProvider{name: "anthropic"}), testPrompts())

		body := `{"messages":[{"role":"system","content":"sneaky"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Relay(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream failure maps to bad gateway", func(t *testing.T) {
		provider := &fakeProvider{name: "anthropic", streamErr: io.ErrUnexpectedEOF}
		h := handler.NewChatHandler(newRegistry(provider), testPrompts())

		body := `{"messages":[{"role":"user","content":"Hello"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Relay(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("missing provider maps to internal error", func(t *testing.T) {
		h := handler.NewChatHandler(llm.NewRegistry("anthropic"), testPrompts())

		body := `{"messages":[{"role":"user","content":"Hello"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Relay(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestTitleHandler_Generate(t *testing.T) {
	t.Run("falls back when the provider fails", func(t *testing.T) {
		provider := &fakeProvider{name: "anthropic", titleErr: io.ErrUnexpectedEOF}
		h := handler.NewTitleHandler(service.NewTitleGenerator(provider))

		body := `{"messages":[{"id":"u1","role":"user","content":"Hello"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/title", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Generate(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeEnvelope(t, rec.Body)
		data, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Hello", data["title"])
	})

	t.Run("bad json is rejected", func(t *testing.T) {
		h := handler.NewTitleHandler(service.NewTitleGenerator(nil))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/title", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		h.Generate(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func sessionRouter(t *testing.T) (*chi.Mux, *localstore.SessionRepository) {
	t.Helper()
	repo := localstore.New(kvstore.NewFileStore(t.TempDir()))
	h := handler.NewSessionHandler(repo)

	r := chi.NewRouter()
	r.Route("/api/v1/chats", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Delete("/", h.ClearAll)
		r.Route("/{chatID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Delete)
			r.Put("/messages", h.UpdateMessages)
			r.Patch("/title", h.UpdateTitle)
		})
	})
	return r, repo
}

func TestSessionHandler_CRUD(t *testing.T) {
	router, repo := sessionRouter(t)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var rd io.Reader
		if body != "" {
			rd = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, rd)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// create defaults to the greeting and the default title
	rec := do(http.MethodPost, "/api/v1/chats/", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeEnvelope(t, rec.Body)
	id := resp.Data.(map[string]any)["id"].(string)
	require.NotEmpty(t, id)

	session := repo.GetByID(id)
	require.NotNil(t, session)
	assert.Equal(t, domain.DefaultChatTitle, session.Title)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, domain.InitialAssistantMessageID, session.Messages[0].ID)

	// get
	rec = do(http.MethodGet, "/api/v1/chats/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(http.MethodGet, "/api/v1/chats/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// list
	rec = do(http.MethodGet, "/api/v1/chats/", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// update messages
	messages := `{"messages":[{"id":"u1","role":"user","content":"Hello"}]}`
	rec = do(http.MethodPut, "/api/v1/chats/"+id+"/messages", messages)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, repo.GetByID(id).Messages, 1)

	rec = do(http.MethodPut, "/api/v1/chats/missing/messages", messages)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// update title
	rec = do(http.MethodPatch, "/api/v1/chats/"+id+"/title", `{"title":"Renamed"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", repo.GetByID(id).Title)

	rec = do(http.MethodPatch, "/api/v1/chats/"+id+"/title", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// delete is idempotent
	rec = do(http.MethodDelete, "/api/v1/chats/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(http.MethodDelete, "/api/v1/chats/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, repo.GetByID(id))

	// clear all
	do(http.MethodPost, "/api/v1/chats/", `{"title":"a"}`)
	do(http.MethodPost, "/api/v1/chats/", `{"title":"b"}`)
	rec = do(http.MethodDelete, "/api/v1/chats/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, repo.Count())
}
