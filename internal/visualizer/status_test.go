package visualizer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *Interpreter) {
	gin.SetMode(gin.TestMode)
	in := NewInterpreter(discardLogger())
	h := NewStatusHandler(in, NewConnectionManager(discardLogger()))
	return NewStatusRouter(h), in
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestStatus_Variables(t *testing.T) {
	r, in := setupRouter(t)
	_, err := in.Exec("speed = 5.0")
	require.NoError(t, err)
	_, err = in.Exec("bad = NaN")
	require.NoError(t, err)

	w := get(r, "/variables")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 5.0, body["speed"])
	assert.Equal(t, "NaN", body["bad"])
}

func TestStatus_Variable(t *testing.T) {
	r, in := setupRouter(t)
	_, err := in.Exec("showPath = false")
	require.NoError(t, err)

	w := get(r, "/variables/showPath")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"showPath","value":false}`, w.Body.String())

	w = get(r, "/variables/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatus_HealthAndConnections(t *testing.T) {
	r, in := setupRouter(t)
	_, _ = in.Exec("speed = ")

	w := get(r, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(1), health["lines_failed"])
	assert.Equal(t, float64(0), health["connections"])

	w = get(r, "/connections")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
