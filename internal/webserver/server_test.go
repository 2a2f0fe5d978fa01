package webserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/qnkhuat/deepread/internal/logger"
	"github.com/qnkhuat/deepread/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type helloRoutes struct{}

func (helloRoutes) Routes(r chi.Router) {
	r.Get("/api/hello", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hi"))
	})
}

func TestWebServer_Routes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ws := NewWebServer("127.0.0.1:0", logger.NewFromCore(core), helloRoutes{})

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/ping", http.StatusOK, "pong"},
		{"/api/hello", http.StatusOK, "hi"},
		{"/missing", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ws.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}

	entries := logs.FilterMessage("Request served").AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, "/ping", entries[0].ContextMap()["path"])
}

func TestWebServer_StartStop(t *testing.T) {
	ws := NewWebServer("127.0.0.1:0", nil)
	require.NoError(t, ws.Start())
	t.Cleanup(func() { _ = ws.Stop() })

	require.NoError(t, ws.WaitReady(context.Background(), retry.Policy{Attempts: 20, Interval: 50 * time.Millisecond}))

	resp, err := http.Get("http://" + ws.Addr() + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	require.NoError(t, ws.Stop())
}

func TestWebServer_StartFailsOnBusyAddress(t *testing.T) {
	first := NewWebServer("127.0.0.1:0", nil)
	require.NoError(t, first.Start())
	t.Cleanup(func() { _ = first.Stop() })

	second := NewWebServer(first.Addr(), nil)
	assert.Error(t, second.Start())
}

func TestWebServer_StopBeforeStart(t *testing.T) {
	assert.NoError(t, NewWebServer("127.0.0.1:0", nil).Stop())
}
