package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "srtalert/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

func TestErrorHandlerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t).Sugar()

	router := gin.New()
	router.Use(RecoveryMiddleware(log), ErrorHandlerMiddleware(log))
	router.GET("/transient", func(c *gin.Context) {
		c.Error(apperrors.NewTransientError("obs", errors.New("refused")))
	})
	router.GET("/missing", func(c *gin.Context) {
		c.Error(apperrors.NewElementNotFoundError("Warning", "Main"))
	})
	router.GET("/plain", func(c *gin.Context) {
		c.Error(errors.New("boom"))
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("oops")
	})

	tests := []struct {
		path string
		code int
		want string
	}{
		{"/transient", http.StatusServiceUnavailable, "TRANSIENT_NETWORK"},
		{"/missing", http.StatusNotFound, "ELEMENT_NOT_FOUND"},
		{"/plain", http.StatusInternalServerError, "UNEXPECTED_FAULT"},
		{"/panic", http.StatusInternalServerError, "UNEXPECTED_FAULT"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

func TestTracingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	router := gin.New()
	router.Use(TracingMiddleware())
	router.GET("/status", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /status", spans[0].Name())
	assert.Equal(t, "GET unmatched", spans[1].Name())
}
