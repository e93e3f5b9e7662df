package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primoscope/echotune/internal/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitializeForTesting()
	os.Exit(m.Run())
}

func newRequestIDRouter() (*gin.Engine, *string) {
	var seen string
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		seen = c.GetString("request_id")
		c.Status(http.StatusNoContent)
	})
	return router, &seen
}

func TestRequestIDHonorsValidHeader(t *testing.T) {
	router, seen := newRequestIDRouter()
	supplied := uuid.New().String()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, supplied)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, supplied, *seen)
	assert.Equal(t, supplied, w.Header().Get(RequestIDHeader))
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	router, seen := newRequestIDRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.NotEmpty(t, *seen)
	assert.NotEqual(t, "not-a-uuid", *seen)
	_, err := uuid.Parse(*seen)
	assert.NoError(t, err)
	assert.Equal(t, *seen, w.Header().Get(RequestIDHeader))
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	router, seen := newRequestIDRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	_, err := uuid.Parse(*seen)
	assert.NoError(t, err)
}
