package agent

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authfort-cli/internal/authapi"
	"authfort-cli/internal/handler"
	"authfort-cli/internal/service"
	"authfort-cli/internal/testutil"
)

type agentFixture struct {
	backend *testutil.FakeBackend
	tokens  *testutil.MockTokenRepository
	store   *service.SessionStore
	agent   *Agent
}

func newAgentFixture(t *testing.T, persisted string, interval time.Duration) *agentFixture {
	t.Helper()
	backend := testutil.NewFakeBackend(t, "123456")
	client, err := authapi.NewClient(backend.URL(), 5*time.Second)
	require.NoError(t, err)

	tokens := testutil.NewMockTokenRepository(persisted)
	store := service.NewSessionStore(context.Background(), tokens, client, &testutil.RecordingNotifier{})

	a, err := New(store, tokens, client, interval)
	require.NoError(t, err)

	return &agentFixture{
		backend: backend,
		tokens:  tokens,
		store:   store,
		agent:   a,
	}
}

func post(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func (f *agentFixture) serve(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.agent.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("agent did not shut down")
		}
	})
	return "http://" + ln.Addr().String()
}

func getSession(t *testing.T, url string) handler.SessionResponse {
	t.Helper()
	resp, err := http.Get(url + "/session")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out handler.SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAgent_Routes(t *testing.T) {
	f := newAgentFixture(t, "", time.Hour)
	router := f.agent.Router(context.Background())

	tests := []struct {
		method string
		path   string
		csrf   bool
		want   int
	}{
		{http.MethodGet, "/health", false, http.StatusOK},
		{http.MethodGet, "/health/ready", false, http.StatusOK},
		{http.MethodGet, "/metrics", false, http.StatusOK},
		{http.MethodGet, "/csrf-token", false, http.StatusOK},
		{http.MethodGet, "/session", false, http.StatusOK},
		{http.MethodPost, "/session/logout", true, http.StatusOK},
		{http.MethodPost, "/session/logout", false, http.StatusForbidden},
		{http.MethodPost, "/session/refresh", false, http.StatusForbidden},
		{http.MethodGet, "/session/logout", true, http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", false, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.csrf {
				req.Header.Set("X-CSRF-Token", f.agent.CSRFToken())
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			testutil.AssertStatusCode(t, w, tt.want)
		})
	}
}

func TestAgent_CSRFTokenEndpoint(t *testing.T) {
	f := newAgentFixture(t, "", time.Hour)
	router := f.agent.Router(context.Background())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/csrf-token", nil))

	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertHeader(t, w, "Cache-Control", "no-store")
	testutil.AssertJSONContains(t, w, "csrf_token", f.agent.CSRFToken())
}

func TestAgent_MetricsExposeSessionGauge(t *testing.T) {
	f := newAgentFixture(t, "", time.Hour)
	router := f.agent.Router(context.Background())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "authfort_session_logged_in")
}

func TestAgent_ServeChecksPersistedToken(t *testing.T) {
	f := newAgentFixture(t, "tok", time.Hour)
	f.backend.AddUser("tok", testutil.NewTestProfile(testutil.WithProfileName("Ada")))

	url := f.serve(t)

	session := getSession(t, url)
	assert.True(t, session.IsLoggedIn)
	require.NotNil(t, session.User)
	assert.Equal(t, "Ada", session.User.Name)
}

func TestAgent_LoginAndLogoutOverHTTP(t *testing.T) {
	f := newAgentFixture(t, "", time.Hour)
	f.backend.AddUser("fresh", testutil.NewTestProfile())
	url := f.serve(t)

	token := f.agent.CSRFToken()

	resp := post(t, url+"/session/login", "", `{"token":"fresh"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, getSession(t, url).HasToken)

	resp = post(t, url+"/session/login", token, `{"token":"fresh"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	assert.True(t, getSession(t, url).IsLoggedIn)

	resp = post(t, url+"/session/logout", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.False(t, getSession(t, url).HasToken)
	_, stored := f.tokens.Stored()
	assert.False(t, stored)
}

func TestAgent_RefreshLoopPicksUpBackendChanges(t *testing.T) {
	f := newAgentFixture(t, "later", 20*time.Millisecond)
	url := f.serve(t)

	assert.False(t, getSession(t, url).IsLoggedIn)

	// Token becomes valid on the backend after the agent started
	f.backend.AddUser("later", testutil.NewTestProfile())

	testutil.WaitFor(t, 2*time.Second, func() bool {
		return f.store.Snapshot().IsLoggedIn
	}, "background refresh to log the session in")
}
