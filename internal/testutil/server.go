package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cortexai/cortex-backend/internal/api"
	"github.com/cortexai/cortex-backend/internal/chat"
	"github.com/cortexai/cortex-backend/internal/config"
	"github.com/cortexai/cortex-backend/internal/conversation"
	"github.com/cortexai/cortex-backend/internal/notify"
	"github.com/cortexai/cortex-backend/internal/repository"
	"github.com/cortexai/cortex-backend/internal/service"
	"github.com/stretchr/testify/require"
)

// TestServer wires the full router against in-memory repositories and a
// scripted engine. Repository behavior against real Postgres is covered
// separately by the testcontainer tests.
type TestServer struct {
	Server   *httptest.Server
	Users    *MemoryUserRepo
	Sessions *MemorySessionRepo
	Engine   *FakeEngine
	Google   *FakeGoogleVerifier
	Store    *conversation.Store
	Services *service.Services
	Cfg      *config.Config
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := &config.Config{
		Port:               "0",
		Environment:        "test",
		JWTSecret:          "test-secret",
		JWTExpirationHours: 24,
		DefaultModel:       "fake-model",
		FrontendURL:        "http://localhost:5173",
	}

	users := NewMemoryUserRepo()
	sessions := NewMemorySessionRepo()
	repos := &repository.Repositories{User: users, Session: sessions}

	engine := &FakeEngine{}
	google := &FakeGoogleVerifier{}
	store := conversation.NewStore()
	notifier := notify.NewLogNotifier()

	services := service.NewServices(repos, notifier, google, cfg)
	chatService := chat.NewService(engine, store, cfg.DefaultModel)

	router := api.NewRouter(services, chatService, store, notifier, cfg)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &TestServer{
		Server:   srv,
		Users:    users,
		Sessions: sessions,
		Engine:   engine,
		Google:   google,
		Store:    store,
		Services: services,
		Cfg:      cfg,
	}
}

func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// PostJSON issues a JSON POST, optionally with a bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path, token string, body interface{}) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL(path), bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (ts *TestServer) Get(t *testing.T, path, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL(path), nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (ts *TestServer) Delete(t *testing.T, path, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, ts.URL(path), nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// RegisterUser registers a user through the API and returns its token.
func (ts *TestServer) RegisterUser(t *testing.T, username, email, password string) string {
	t.Helper()

	resp := ts.PostJSON(t, "/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

// DecodeJSON decodes a response body into v.
func DecodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}
