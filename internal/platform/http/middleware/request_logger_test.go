package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newLoggedRouter(buf *bytes.Buffer) *gin.Engine {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.GET("/missing", func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{"error": "nope"}) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestRequestLogger_Fields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	router := newLoggedRouter(&buf)

	req := httptest.NewRequest(http.MethodGet, "/ok?x=1", nil)
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	entry := decodeLine(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/ok", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, float64(len("hello")), entry["size"])
	assert.Equal(t, "test-agent", entry["user_agent"])
	assert.Contains(t, entry, "ip")
	assert.Contains(t, entry, "duration")

	id, ok := entry["request_id"].(string)
	require.True(t, ok)
	_, err := uuid.Parse(id)
	assert.NoError(t, err, "generated request id should be a UUID")
	assert.Equal(t, id, w.Header().Get(HeaderRequestID))
}

func TestRequestLogger_EchoesIncomingRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	router := newLoggedRouter(&buf)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "abc-123", decodeLine(t, &buf)["request_id"])
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path      string
		wantLevel string
	}{
		{"/ok", "INFO"},
		{"/missing", "WARN"},
		{"/boom", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			router := newLoggedRouter(&buf)
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantLevel, decodeLine(t, &buf)["level"])
		})
	}
}
