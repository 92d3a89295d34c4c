package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/continuum-ai/continuum/internal/auth"
	"github.com/continuum-ai/continuum/internal/catalog"
	"github.com/continuum-ai/continuum/internal/config"
	"github.com/continuum-ai/continuum/internal/download"
	"github.com/continuum-ai/continuum/internal/hardware"
	"github.com/continuum-ai/continuum/internal/httpapi"
	"github.com/continuum-ai/continuum/internal/httpapi/handlers"
	"github.com/continuum-ai/continuum/internal/privacy"
	"github.com/continuum-ai/continuum/internal/session"
)

type fixedProber struct{}

func (fixedProber) System() (hardware.SystemInfo, error) {
	return hardware.SystemInfo{RAMMB: 8192, CPUCores: 4, StorageAvailableMB: 50_000}, nil
}

func (fixedProber) GPU() (*hardware.GPUInfo, error) { return nil, nil }

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		APISecret:        "test-secret",
		APIToken:         "test-token",
		MaxContextLength: 8192,
	}
	tokenHash, err := auth.HashToken(cfg.APIToken)
	require.NoError(t, err)

	downloads := download.NewStore()
	manager, err := download.NewManager(downloads, nil, nil, t.TempDir())
	require.NoError(t, err)

	h := handlers.NewHandler(cfg, tokenHash,
		session.NewStore(nil), downloads, manager,
		privacy.NewStore(), hardware.NewDetector(fixedProber{}), catalog.NewStore(nil))
	return httpapi.NewRouter(h)
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearerToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/auth/token", "", map[string]string{"access_token": "test-token"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestPingIsPublic(t *testing.T) {
	r := testRouter(t)
	w := do(t, r, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	r := testRouter(t)

	w := do(t, r, http.MethodGet, "/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/sessions", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenExchangeRejectsBadToken(t *testing.T) {
	r := testRouter(t)
	w := do(t, r, http.MethodPost, "/auth/token", "", map[string]string{"access_token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRoundTrip(t *testing.T) {
	r := testRouter(t)
	token := bearerToken(t, r)

	w := do(t, r, http.MethodPost, "/sessions", token, map[string]string{"title": "Trip planning"})
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		Data session.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)
	assert.Equal(t, "Trip planning", created.Data.Title)
	assert.Equal(t, "local-only", created.Data.PrivacyMode)

	w = do(t, r, http.MethodPost, "/sessions/"+created.Data.ID+"/messages", token,
		map[string]string{"role": "user", "content": "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/sessions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data struct {
			Sessions        []session.Session `json:"sessions"`
			ActiveSessionID string            `json:"active_session_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Data.Sessions, 1)
	assert.Equal(t, created.Data.ID, listed.Data.ActiveSessionID)
	require.Len(t, listed.Data.Sessions[0].Messages, 1)
}

func TestAppendToUnknownSessionIs404(t *testing.T) {
	r := testRouter(t)
	token := bearerToken(t, r)

	w := do(t, r, http.MethodPost, "/sessions/ghost/messages", token,
		map[string]string{"role": "user", "content": "hello"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrivacyModeEndpoint(t *testing.T) {
	r := testRouter(t)
	token := bearerToken(t, r)

	w := do(t, r, http.MethodPost, "/privacy/mode", token, map[string]string{"mode": "cloud-enhanced"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/privacy/mode", token, map[string]string{"mode": "everything-goes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/privacy", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Data struct {
			Mode string `json:"mode"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "cloud-enhanced", got.Data.Mode)
}

func TestSessionHealthEndpoint(t *testing.T) {
	r := testRouter(t)
	token := bearerToken(t, r)

	w := do(t, r, http.MethodGet, "/sessions/health", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Data session.ContextHealth `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, session.HealthHealthy, got.Data.Status)
}

func TestSystemEndpoint(t *testing.T) {
	r := testRouter(t)
	token := bearerToken(t, r)

	w := do(t, r, http.MethodGet, "/system", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Data struct {
			System hardware.SystemInfo `json:"system"`
			GPU    *hardware.GPUInfo   `json:"gpu"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, uint64(8192), got.Data.System.RAMMB)
	assert.Nil(t, got.Data.GPU)
}
