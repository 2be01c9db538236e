package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// okHandler records whether it ran and which userID it saw in the context.
type okHandler struct {
	called bool
	userID int64
}

func (h *okHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.userID, _ = UserIDFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func doRequest(t *testing.T, ts *TokenService, authHeader string) (*okHandler, *httptest.ResponseRecorder) {
	t.Helper()

	next := &okHandler{}
	handler := RequireAuth(ts)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return next, rr
}

func TestRequireAuth_ValidToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, _, err := ts.Issue(42, "a@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	next, rr := doRequest(t, ts, "Bearer "+token)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !next.called {
		t.Fatal("next handler was not called")
	}
	if next.userID != 42 {
		t.Errorf("userID in context = %d, want 42", next.userID)
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	ts := newTestTokenService(t)

	next, rr := doRequest(t, ts, "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if next.called {
		t.Fatal("next handler must not run without a token")
	}
}

func TestRequireAuth_WrongScheme(t *testing.T) {
	ts := newTestTokenService(t)
	token, _, _ := ts.Issue(42, "a@example.com")

	next, rr := doRequest(t, ts, "Basic "+token)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if next.called {
		t.Fatal("next handler must not run for a non-Bearer scheme")
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, _, err := ts.IssueWithDuration(42, "a@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("IssueWithDuration() error = %v", err)
	}

	next, rr := doRequest(t, ts, "Bearer "+token)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if next.called {
		t.Fatal("next handler must not run for an expired token")
	}

	// The body distinguishes expiry so clients know to re-authenticate
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["error"] != "token_expired" {
		t.Errorf(`body error = %q, want "token_expired"`, body["error"])
	}
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	ts := newTestTokenService(t)

	next, rr := doRequest(t, ts, "Bearer this.is.garbage")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if next.called {
		t.Fatal("next handler must not run for a garbage token")
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["error"] != "token_invalid" {
		t.Errorf(`body error = %q, want "token_invalid"`, body["error"])
	}
}

func TestUserIDFromContext_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id, ok := UserIDFromContext(req.Context()); ok || id != 0 {
		t.Errorf("UserIDFromContext() = (%d, %v), want (0, false)", id, ok)
	}
}
