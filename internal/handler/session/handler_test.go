package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/chatkit-broker/internal/config"
	sessionservice "github.com/zhouzirui/chatkit-broker/internal/service/session"
)

const testAPIKey = "sk-test-secret"

func setupRouter(upstreamURL, apiKey, defaultWorkflow string) *chi.Mux {
	svc := sessionservice.NewService(config.ChatKitConfig{
		APIKey:            apiKey,
		DefaultWorkflowID: defaultWorkflow,
		BaseURL:           upstreamURL,
		Timeout:           5,
	})
	handler := New(svc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

// countingUpstream serves sequential secrets (cs_1, cs_2, ...) so tests can prove
// secrets are never reused across calls.
func countingUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	var n atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"client_secret": "cs_" + strconv.FormatInt(n.Add(1), 10),
			"expires_after": 3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postSession(r http.Handler, body []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/create-session", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func trackingCookie(resp *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range resp.Result().Cookies() {
		if c.Name == TrackingCookieName {
			return c
		}
	}
	return nil
}

func TestCreateSessionSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"client_secret":"cs_abc","expires_after":3600}`))
	}))
	defer upstream.Close()

	r := setupRouter(upstream.URL, testAPIKey, "wf_default")
	resp := postSession(r, []byte(`{}`), nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		ClientSecret string `json:"client_secret"`
		ExpiresAfter int    `json:"expires_after"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.ClientSecret != "cs_abc" || body.ExpiresAfter != 3600 {
		t.Fatalf("unexpected body: %+v", body)
	}

	cookie := trackingCookie(resp)
	if cookie == nil {
		t.Fatal("expected tracking cookie to be set")
	}
	if cookie.Value == "" {
		t.Fatal("expected non-empty cookie value")
	}
	if !cookie.HttpOnly {
		t.Fatal("expected HttpOnly cookie")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", cookie.SameSite)
	}
	if cookie.MaxAge != 30*24*60*60 {
		t.Fatalf("expected 30 day Max-Age, got %d", cookie.MaxAge)
	}
}

func TestCreateSessionEmptyBody(t *testing.T) {
	upstream := countingUpstream(t)
	r := setupRouter(upstream.URL, testAPIKey, "wf_default")

	resp := postSession(r, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty body, got %d", resp.Code)
	}
}

func TestCreateSessionPreservesCookieIssuesFreshSecrets(t *testing.T) {
	upstream := countingUpstream(t)
	r := setupRouter(upstream.URL, testAPIKey, "wf_default")
	existing := &http.Cookie{Name: TrackingCookieName, Value: "visitor-fixed"}

	first := postSession(r, []byte(`{}`), existing)
	second := postSession(r, []byte(`{}`), existing)

	for _, resp := range []*httptest.ResponseRecorder{first, second} {
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		cookie := trackingCookie(resp)
		if cookie == nil || cookie.Value != "visitor-fixed" {
			t.Fatalf("expected cookie value preserved, got %v", cookie)
		}
	}

	var a, b map[string]any
	json.Unmarshal(first.Body.Bytes(), &a)
	json.Unmarshal(second.Body.Bytes(), &b)
	if a["client_secret"] == b["client_secret"] {
		t.Fatalf("expected independent secrets, both were %v", a["client_secret"])
	}
}

func TestCreateSessionUpstreamRejectionMirrorsStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"message":"invalid_workflow"}}`))
	}))
	defer upstream.Close()

	r := setupRouter(upstream.URL, testAPIKey, "wf_default")
	resp := postSession(r, []byte(`{}`), nil)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected mirrored 422, got %d", resp.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error != "invalid_workflow" {
		t.Fatalf("expected extracted message, got %q", body.Error)
	}
	if strings.Contains(resp.Body.String(), testAPIKey) {
		t.Fatal("credential leaked into response")
	}
	if trackingCookie(resp) != nil {
		t.Fatal("cookie must not be set on failure")
	}
}

func TestCreateSessionUnusableUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(399)
		w.Write([]byte(`{"error":{"message":"odd status"}}`))
	}))
	defer upstream.Close()

	r := setupRouter(upstream.URL, testAPIKey, "wf_default")
	resp := postSession(r, []byte(`{}`), nil)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for unusable upstream status, got %d", resp.Code)
	}
}

func TestCreateSessionTransportFailure(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	r := setupRouter(url, testAPIKey, "wf_default")
	resp := postSession(r, []byte(`{}`), nil)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), testAPIKey) {
		t.Fatal("credential leaked into response")
	}
}

func TestCreateSessionMissingWorkflow(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called on configuration error")
	}))
	defer upstream.Close()

	r := setupRouter(upstream.URL, testAPIKey, "")
	resp := postSession(r, []byte(`{}`), nil)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestCreateSessionMissingCredential(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called without a credential")
	}))
	defer upstream.Close()

	r := setupRouter(upstream.URL, "", "wf_default")
	resp := postSession(r, []byte(`{}`), nil)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestCreateSessionInvalidBody(t *testing.T) {
	upstream := countingUpstream(t)
	r := setupRouter(upstream.URL, testAPIKey, "wf_default")

	resp := postSession(r, []byte(`{"workflow":`), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
