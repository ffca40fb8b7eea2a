package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"reasoning-chat/internal/domain"
)

func TestRouter_ServesChatAndModelInfo(t *testing.T) {
	uc := &stubUseCase{
		completion: domain.Completion{Raw: json.RawMessage(rawCompletion)},
		info:       domain.ModelInfo{ModelName: "m", Endpoint: "e", Environment: "server"},
	}
	srv := httptest.NewServer(NewRouter(newTestHandler(t, uc)))
	defer srv.Close()

	res, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"messages":[{"role":"user","content":"Hello"}]}`))
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
	require.NotEmpty(t, res.Header.Get("X-Correlation-Id"))
	require.JSONEq(t, rawCompletion, string(body))

	res, err = http.Get(srv.URL + "/api/model-info")
	require.NoError(t, err)
	body, err = io.ReadAll(res.Body)
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"modelName":"m","endpoint":"e","environment":"server","enableReasoning":false}`, string(body))
}

func TestRouter_KeepsCallerCorrelationID(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newTestHandler(t, &stubUseCase{})))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/model-info", nil)
	require.NoError(t, err)
	req.Header.Set("x-correlation-id", "corr-local")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, "corr-local", res.Header.Get("X-Correlation-Id"))
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newTestHandler(t, &stubUseCase{})))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res, err = http.Get(srv.URL + "/api/chat")
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}
