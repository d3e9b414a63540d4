package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linqiu/polychat/backend/internal/auth"
	"github.com/linqiu/polychat/backend/internal/handler"
	"github.com/linqiu/polychat/backend/internal/model/catalog"
	model "github.com/linqiu/polychat/backend/internal/model/chat"
	chatservice "github.com/linqiu/polychat/backend/internal/service/chat"
	"github.com/linqiu/polychat/backend/internal/store"
)

type stubGenerator struct {
	reply string
	err   error
}

func (g *stubGenerator) Generate(context.Context, string, []model.Turn) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

// spyStore counts reads so tests can assert an unauthenticated request
// never touches the store.
type spyStore struct {
	store.MessageStore
	historyReads int
}

func (s *spyStore) History(ctx context.Context, userID string, limit int) ([]model.Message, error) {
	s.historyReads++
	return s.MessageStore.History(ctx, userID, limit)
}

func setupRouter(gen chatservice.Generator) (http.Handler, *spyStore) {
	spy := &spyStore{MessageStore: store.NewMemoryStore()}
	chatSvc := chatservice.NewService(spy, gen, 0)
	models := catalog.NewMemoryStore(catalog.Seed())
	verifier := auth.NewStaticVerifier(map[string]string{
		"tok-a": "user-a",
		"tok-b": "user-b",
	})
	return handler.NewRouter(models, chatSvc, verifier, spy), spy
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal err: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestModelsEndpointIsPublic(t *testing.T) {
	r, _ := setupRouter(&stubGenerator{reply: "ok"})

	resp := doJSON(t, r, http.MethodGet, "/api/models", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var models []catalog.Model
	if err := json.Unmarshal(resp.Body.Bytes(), &models); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(models) != 5 {
		t.Fatalf("expected 5 models, got %d", len(models))
	}
}

func TestHistoryWithoutCredential(t *testing.T) {
	r, spy := setupRouter(&stubGenerator{reply: "ok"})

	resp := doJSON(t, r, http.MethodGet, "/api/chat/history", "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if spy.historyReads != 0 {
		t.Fatal("unauthenticated request must not read the store")
	}
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	r, _ := setupRouter(&stubGenerator{reply: "ok"})

	resp := doJSON(t, r, http.MethodGet, "/api/chat/history?limit=0", "tok-a", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodGet, "/api/chat/history?limit=abc", "tok-a", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSendThenHistoryEndToEnd(t *testing.T) {
	r, _ := setupRouter(&stubGenerator{reply: "nice to meet you"})

	resp := doJSON(t, r, http.MethodPost, "/api/chat/send", "tok-a", map[string]string{
		"modelTag": "gemini-2.0-flash",
		"prompt":   "hello",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var sendResp struct {
		Success bool   `json:"success"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &sendResp); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if !sendResp.Success || sendResp.Content != "nice to meet you" {
		t.Fatalf("unexpected send response: %+v", sendResp)
	}

	resp = doJSON(t, r, http.MethodGet, "/api/chat/history?limit=100", "tok-a", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var history []model.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Role != model.RoleUser || history[0].Content != "hello" {
		t.Fatalf("unexpected first message: %+v", history[0])
	}
	if history[1].Role != model.RoleAssistant || history[1].Content != "nice to meet you" {
		t.Fatalf("unexpected second message: %+v", history[1])
	}
}

func TestSendEmptyModelTag(t *testing.T) {
	r, _ := setupRouter(&stubGenerator{reply: "unused"})

	resp := doJSON(t, r, http.MethodPost, "/api/chat/send", "tok-a", map[string]string{
		"modelTag": "",
		"prompt":   "hello",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodGet, "/api/chat/history", "tok-a", nil)
	var history []model.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("invalid send must persist nothing, got %d messages", len(history))
	}
}

func TestSendGenerationFailure(t *testing.T) {
	r, _ := setupRouter(&stubGenerator{err: errors.New("model unavailable")})

	resp := doJSON(t, r, http.MethodPost, "/api/chat/send", "tok-a", map[string]string{
		"modelTag": "gemini-2.0-flash",
		"prompt":   "hello",
	})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}

	// The prompt is retained so a retry does not lose it.
	resp = doJSON(t, r, http.MethodGet, "/api/chat/history", "tok-a", nil)
	var history []model.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(history) != 1 || history[0].Role != model.RoleUser {
		t.Fatalf("expected retained user prompt, got %+v", history)
	}
}

func TestDeleteForeignMessageIsNoOp(t *testing.T) {
	r, _ := setupRouter(&stubGenerator{reply: "ok"})

	resp := doJSON(t, r, http.MethodPost, "/api/chat/send", "tok-a", map[string]string{
		"modelTag": "gemini-2.0-flash",
		"prompt":   "hello",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("send failed: %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodGet, "/api/chat/history", "tok-a", nil)
	var history []model.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	target := history[0].ID

	resp = doJSON(t, r, http.MethodDelete, "/api/chat/messages/"+target, "tok-b", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodGet, "/api/chat/history", "tok-a", nil)
	var after []model.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(after) != len(history) {
		t.Fatal("foreign delete must not remove messages")
	}
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := setupRouter(&stubGenerator{reply: "ok"})

	resp := doJSON(t, r, http.MethodGet, "/api/health", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
