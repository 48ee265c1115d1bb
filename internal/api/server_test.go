package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sanathshetty444/todoer/internal/api"
	"github.com/sanathshetty444/todoer/internal/auth"
	"github.com/sanathshetty444/todoer/internal/model"
	"github.com/sanathshetty444/todoer/tests/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	t      *testing.T
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := testutil.NewTestStore(t)
	cfg := model.AuthConfig{
		JWTSecret:             "test-secret-not-for-production",
		Issuer:                "todoer",
		Audience:              "todoer-web",
		AccessTokenTTLMinutes: 30,
		RefreshTokenTTLDays:   7,
		BcryptCost:            4,
	}
	m := auth.NewManager(s, cfg, nil)
	return &testServer{router: api.NewServer(s, m, cfg, nil).Router(), t: t}
}

// do sends a JSON request and returns the recorder.
func (ts *testServer) do(method, path, accessToken string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			ts.t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return out
}

func stringField(t *testing.T, body map[string]json.RawMessage, key string) string {
	t.Helper()
	var v string
	if err := json.Unmarshal(body[key], &v); err != nil {
		t.Fatalf("field %q missing or not a string in %v", key, body)
	}
	return v
}

// register creates an account and returns the access token plus the
// refresh cookie.
func (ts *testServer) register(email string) (accessToken string, refreshCookie *http.Cookie) {
	ts.t.Helper()

	w := ts.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"name":     "Test User",
		"password": "hunter22",
	})
	if w.Code != http.StatusCreated {
		ts.t.Fatalf("register: status = %d, body = %s", w.Code, w.Body.String())
	}

	accessToken = stringField(ts.t, decodeBody(ts.t, w), "accessToken")
	for _, c := range w.Result().Cookies() {
		if c.Name == "refreshToken" {
			refreshCookie = c
		}
	}
	if refreshCookie == nil {
		ts.t.Fatal("register set no refreshToken cookie")
	}
	return accessToken, refreshCookie
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	ts := newTestServer(t)

	_, cookie := ts.register("flow@example.com")
	if !cookie.HttpOnly {
		t.Error("refresh cookie is not HTTP-only")
	}

	// Login with the same credentials.
	w := ts.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "flow@example.com",
		"password": "hunter22",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", w.Code, w.Body.String())
	}

	// Wrong password is rejected without detail.
	w = ts.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "flow@example.com",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want 401", w.Code)
	}

	// Exchange the refresh cookie for a new access token.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/access-token", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("access-token: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	refreshed := stringField(t, decodeBody(t, rec), "accessToken")
	if refreshed == "" {
		t.Fatal("refresh returned empty access token")
	}

	// The refreshed token works against a protected route.
	w = ts.do(http.MethodGet, "/api/todos", refreshed, nil)
	if w.Code != http.StatusOK {
		t.Errorf("todos with refreshed token: status = %d", w.Code)
	}

	// Logout, then the refresh token is dead.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/access-token", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout: status = %d, want 401", rec.Code)
	}
}

func TestLogoutWithoutTokenSucceeds(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/auth/logout", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("bare logout: status = %d, want 200", w.Code)
	}
}

func TestRefreshWithHeader(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.register("header@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/access-token", nil)
	req.Header.Set("x-refresh-token", cookie.Value)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("header refresh: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/todos", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	w = ts.do(http.MethodGet, "/api/todos", "garbage", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", w.Code)
	}
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	ts := newTestServer(t)
	ts.register("taken@example.com")

	w := ts.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "taken@example.com",
		"name":     "Someone Else",
		"password": "hunter22",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate email: status = %d, want 409", w.Code)
	}
}

func TestSubtaskStatusPropagatesOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register("http-prop@example.com")

	w := ts.do(http.MethodPost, "/api/todos", token, gin.H{"title": "ship it"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create todo: status = %d, body = %s", w.Code, w.Body.String())
	}
	var created struct {
		Todo struct {
			ID        string `json:"id"`
			Completed bool   `json:"completed"`
		} `json:"todo"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode todo: %v", err)
	}
	if created.Todo.Completed {
		t.Error("new todo reports completed")
	}

	w = ts.do(http.MethodPost, "/api/todos/"+created.Todo.ID+"/subtasks", token, gin.H{"title": "step one"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create subtask: status = %d, body = %s", w.Code, w.Body.String())
	}
	var subCreated struct {
		Subtask struct {
			ID string `json:"id"`
		} `json:"subtask"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &subCreated); err != nil {
		t.Fatalf("decode subtask: %v", err)
	}

	w = ts.do(http.MethodPut, "/api/subtasks/"+subCreated.Subtask.ID+"/status", token, gin.H{"status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("set status: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = ts.do(http.MethodGet, "/api/todos/"+created.Todo.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get todo: status = %d", w.Code)
	}
	var fetched struct {
		Todo struct {
			Status    string `json:"status"`
			Completed bool   `json:"completed"`
		} `json:"todo"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fetched.Todo.Status != "completed" || !fetched.Todo.Completed {
		t.Errorf("parent = %s/completed=%v, want completed/true", fetched.Todo.Status, fetched.Todo.Completed)
	}
}

func TestSubtaskStatusRejectsUnknownValue(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register("badstatus-http@example.com")

	w := ts.do(http.MethodPost, "/api/todos", token, gin.H{"title": "strict"})
	var created struct {
		Todo struct {
			ID string `json:"id"`
		} `json:"todo"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = ts.do(http.MethodPost, "/api/todos/"+created.Todo.ID+"/subtasks", token, gin.H{"title": "s"})
	var sub struct {
		Subtask struct {
			ID string `json:"id"`
		} `json:"subtask"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &sub); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = ts.do(http.MethodPut, "/api/subtasks/"+sub.Subtask.ID+"/status", token, gin.H{"status": "done"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown status: status = %d, want 400", w.Code)
	}
}

func TestReorderTodosErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	owner, _ := ts.register("reorder-owner@example.com")
	intruder, _ := ts.register("reorder-intruder@example.com")

	w := ts.do(http.MethodPost, "/api/todos", owner, gin.H{"title": "mine"})
	var mine struct {
		Todo struct {
			ID string `json:"id"`
		} `json:"todo"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &mine); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Another user's reorder naming this todo is a 404, not a 403: the
	// id's existence is not disclosed.
	w = ts.do(http.MethodPut, "/api/todos/reorder", intruder, gin.H{
		"todo_orders": []gin.H{{"id": mine.Todo.ID, "sequence": 1}},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign reorder: status = %d, want 404", w.Code)
	}

	// Empty batch is a 400.
	w = ts.do(http.MethodPut, "/api/todos/reorder", owner, gin.H{"todo_orders": []gin.H{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty batch: status = %d, want 400", w.Code)
	}

	// Happy path returns the updated count.
	w = ts.do(http.MethodPut, "/api/todos/reorder", owner, gin.H{
		"todo_orders": []gin.H{{"id": mine.Todo.ID, "sequence": 9}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("reorder: status = %d, body = %s", w.Code, w.Body.String())
	}
	var result struct {
		UpdatedCount int `json:"updated_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.UpdatedCount != 1 {
		t.Errorf("updated_count = %d, want 1", result.UpdatedCount)
	}
}

func TestCategoryCRUDAndConflict(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register("categories@example.com")

	w := ts.do(http.MethodPost, "/api/categories", token, gin.H{"name": "inbox"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = ts.do(http.MethodPost, "/api/categories", token, gin.H{"name": "inbox"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate category: status = %d, want 409", w.Code)
	}

	w = ts.do(http.MethodGet, "/api/categories", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list categories: status = %d", w.Code)
	}
	var listed struct {
		Categories []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed.Categories) != 1 || listed.Categories[0].Name != "inbox" {
		t.Fatalf("categories = %v, want one named inbox", listed.Categories)
	}

	id := listed.Categories[0].ID
	w = ts.do(http.MethodPut, fmt.Sprintf("/api/categories/%s", id), token, gin.H{"name": "archive"})
	if w.Code != http.StatusOK {
		t.Errorf("rename category: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = ts.do(http.MethodDelete, fmt.Sprintf("/api/categories/%s", id), token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete category: status = %d", w.Code)
	}
}

func TestCrossUserTodoAccessHidden(t *testing.T) {
	ts := newTestServer(t)
	owner, _ := ts.register("hidden-owner@example.com")
	other, _ := ts.register("hidden-other@example.com")

	w := ts.do(http.MethodPost, "/api/todos", owner, gin.H{"title": "secret"})
	var created struct {
		Todo struct {
			ID string `json:"id"`
		} `json:"todo"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = ts.do(http.MethodGet, "/api/todos/"+created.Todo.ID, other, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign get: status = %d, want 404", w.Code)
	}

	w = ts.do(http.MethodDelete, "/api/todos/"+created.Todo.ID, other, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign delete: status = %d, want 404", w.Code)
	}

	// The owner still sees it.
	w = ts.do(http.MethodGet, "/api/todos/"+created.Todo.ID, owner, nil)
	if w.Code != http.StatusOK {
		t.Errorf("owner get after foreign delete attempt: status = %d", w.Code)
	}
}
