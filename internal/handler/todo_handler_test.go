package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todoservice/internal/handler"
	"todoservice/internal/httpserver"
	"todoservice/internal/model"
	"todoservice/internal/repository/memory"
	"todoservice/internal/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	log := zap.NewNop()

	todoService := service.NewTodoService(store, nil, log)
	analyticsService := service.NewAnalyticsService(store, 7)
	authService := service.NewAuthService("test-secret")

	router := httpserver.NewRouter(
		handler.NewTodoHandler(todoService, log),
		handler.NewAnalyticsHandler(analyticsService, log),
		handler.NewAuthHandler(authService, log),
		log,
		nil,
		nil,
	)
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

// Full lifecycle over the HTTP surface: create, toggle, stats, delete.
func TestTodoLifecycleScenario(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/todos", map[string]string{
		"task":     "Buy milk",
		"category": "Shopping",
		"priority": "Low",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[model.Todo](t, w)
	if created.ID == 0 || created.Completed {
		t.Fatalf("unexpected created todo %+v", created)
	}
	if created.Category != "Shopping" || created.Priority != "Low" {
		t.Fatalf("unexpected created todo %+v", created)
	}

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/todos/%d", created.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d", w.Code)
	}
	toggled := decode[model.Todo](t, w)
	if !toggled.Completed || toggled.CompletedAt == nil {
		t.Fatalf("expected completed todo, got %+v", toggled)
	}

	w = doJSON(t, router, http.MethodGet, "/todos/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", w.Code)
	}
	stats := decode[service.Stats](t, w)
	if stats.Total != 1 || stats.Completed != 1 || stats.Pending != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/todos/%d", created.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/todos", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	todos := decode[[]model.Todo](t, w)
	if len(todos) != 0 {
		t.Fatalf("expected empty list after delete, got %v", todos)
	}
}

func TestCreateTodo_ValidationErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	cases := []map[string]string{
		{"task": ""},
		{"task": "   "},
		{"task": "x", "priority": "Critical"},
		{"task": "x", "recurrence": "yearly"},
		{"task": "x", "due_date": "not-a-date"},
	}
	for _, body := range cases {
		w := doJSON(t, router, http.MethodPost, "/todos", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", body, w.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp["error"] == "" {
			t.Fatalf("expected error body, got %s", w.Body.String())
		}
	}
}

func TestToggleAndDelete_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	if w := doJSON(t, router, http.MethodPut, "/todos/999", nil); w.Code != http.StatusNotFound {
		t.Fatalf("toggle: expected 404, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodDelete, "/todos/999", nil); w.Code != http.StatusNotFound {
		t.Fatalf("delete: expected 404, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodPut, "/todos/abc", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", w.Code)
	}
}

func TestListTodos_NewestFirst(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, task := range []string{"first", "second", "third"} {
		w := doJSON(t, router, http.MethodPost, "/todos", map[string]string{"task": task})
		if w.Code != http.StatusCreated {
			t.Fatalf("create %s: got %d", task, w.Code)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/todos", nil)
	todos := decode[[]model.Todo](t, w)
	if len(todos) != 3 {
		t.Fatalf("expected 3 todos, got %d", len(todos))
	}
	if todos[0].Task != "third" || todos[2].Task != "first" {
		t.Fatalf("expected newest first, got %v", []string{todos[0].Task, todos[1].Task, todos[2].Task})
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/todos", map[string]string{"task": "a", "category": "Work"})
	doJSON(t, router, http.MethodPost, "/todos", map[string]string{"task": "b"})

	w := doJSON(t, router, http.MethodGet, "/categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("categories: expected 200, got %d", w.Code)
	}
	categories := decode[[]string](t, w)
	if len(categories) != 2 || categories[0] != "General" || categories[1] != "Work" {
		t.Fatalf("expected [General Work], got %v", categories)
	}
}

func TestHistoryEndpoint_BadLimit(t *testing.T) {
	router, _ := newTestRouter(t)

	if w := doJSON(t, router, http.MethodGet, "/history?limit=0", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for limit=0, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/history?limit=x", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for limit=x, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/history", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for default limit, got %d", w.Code)
	}
}

func TestDayHistoryEndpoint_BadDate(t *testing.T) {
	router, _ := newTestRouter(t)

	if w := doJSON(t, router, http.MethodGet, "/history/03-05-2026", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/history/2026-03-05", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid date, got %d", w.Code)
	}
}

func TestLoginAndSession(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/login", map[string]string{
		"username": "alice",
		"password": "anything",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[map[string]string](t, w)
	if resp["token"] == "" || resp["username"] != "alice" {
		t.Fatalf("unexpected login response %v", resp)
	}

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set("Authorization", "Bearer "+resp["token"])
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("session: expected 200, got %d", rec.Code)
	}
	session := decode[map[string]string](t, rec)
	if session["username"] != "alice" {
		t.Fatalf("unexpected session response %v", session)
	}

	// empty credentials are the one thing the stub rejects
	w = doJSON(t, router, http.MethodPost, "/login", map[string]string{"username": "", "password": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty credentials, got %d", w.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	if w := doJSON(t, router, http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", w.Code)
	}
	// nil db and nil publisher: memory mode is always ready
	if w := doJSON(t, router, http.MethodGet, "/readyz", nil); w.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", w.Code)
	}
}
