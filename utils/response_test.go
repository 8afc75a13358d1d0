package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestJSONAbortStopsChain(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reached := false
	router := gin.New()
	router.GET("/guarded",
		func(c *gin.Context) { JSONAbort(c, http.StatusForbidden, errors.New("role not allowed"), "forbidden") },
		func(c *gin.Context) { reached = true },
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))

	require.False(t, reached)
	require.Equal(t, http.StatusForbidden, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "forbidden", resp["message"])
	require.Equal(t, "role not allowed", resp["error"])
	require.Equal(t, float64(http.StatusForbidden), resp["status"])
}
