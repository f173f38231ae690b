package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/miniblocks/blocks"
)

func newTestServer() *Server {
	return NewServer(Config{GinMode: gin.TestMode, Env: blocks.DefaultConfig()})
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func create(t *testing.T, s *Server, body any) createResponse {
	t.Helper()
	w := do(t, s, http.MethodPost, "/envs", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := createResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreate(t *testing.T) {
	s := newTestServer()
	resp := create(t, s, nil)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, [3]int{8, 8, 3}, resp.Observation.Shape)
	assert.Len(t, resp.Observation.Data, 8*8*3)
	assert.Equal(t, blocks.NumActions, resp.Metadata.NumActions)
	assert.Equal(t, 256, resp.Metadata.MaxSteps)
	assert.Equal(t, 1, s.Sessions())

	other := create(t, s, createRequest{Layout: "fam", AgentMode: "ghost"})
	assert.NotEqual(t, resp.ID, other.ID)
	assert.Equal(t, "fam", other.Metadata.Layout)
	assert.Equal(t, "ghost", other.Metadata.AgentMode)
}

func TestCreateRejectsBadConfig(t *testing.T) {
	s := newTestServer()
	w := do(t, s, http.MethodPost, "/envs", createRequest{Layout: "spiral"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/envs", createRequest{AgentMode: "invisible"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, s.Sessions())
}

func TestStepToGoal(t *testing.T) {
	s := newTestServer()
	id := create(t, s, nil).ID

	solution := []string{"d", "d", "d", "r", "r", "r", "r", "u", "r", "d", "d"}
	var last stepResponse
	for i, a := range solution {
		w := do(t, s, http.MethodPost, "/envs/"+id+"/step", stepRequest{Action: a})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &last))
		assert.Equal(t, i+1, last.Step)
	}
	assert.True(t, last.Done)
	assert.Equal(t, "goal", last.Event)
	assert.Equal(t, blocks.BlockReward, last.Reward)

	w := do(t, s, http.MethodPost, "/envs/"+id+"/step", stepRequest{Action: "right"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/envs/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, s, http.MethodPost, "/envs/"+id+"/step", stepRequest{Action: "right"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &last))
	assert.Equal(t, 1, last.Step)
	assert.InDelta(t, -1.0/256, last.Reward, 1e-12)
}

func TestStepErrors(t *testing.T) {
	s := newTestServer()
	id := create(t, s, nil).ID

	w := do(t, s, http.MethodPost, "/envs/"+id+"/step", stepRequest{Action: "jump"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/envs/"+id+"/step", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	w = do(t, s, http.MethodPost, "/envs/missing/step", stepRequest{Action: "right"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRenderMetadataDelete(t *testing.T) {
	s := newTestServer()
	id := create(t, s, nil).ID

	w := do(t, s, http.MethodGet, "/envs/"+id+"/render", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n"), 8)

	w = do(t, s, http.MethodGet, "/envs/"+id+"/metadata", nil)
	require.Equal(t, http.StatusOK, w.Code)
	meta := blocks.Metadata{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, 8, meta.GridSize)

	w = do(t, s, http.MethodDelete, "/envs/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, s, http.MethodDelete, "/envs/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, s, http.MethodGet, "/envs/"+id+"/render", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, s.Sessions())
}

func TestStream(t *testing.T) {
	s := newTestServer()
	id := create(t, s, nil).ID

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/envs/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(stepRequest{Action: "down"}))
	resp := stepResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, 1, resp.Step)
	assert.False(t, resp.Done)

	require.NoError(t, conn.WriteJSON(stepRequest{Reset: true}))
	resp = stepResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, 0, resp.Step)
	assert.Len(t, resp.Observation.Data, 8*8*3)

	require.NoError(t, conn.WriteJSON(stepRequest{Action: "fly"}))
	bad := errorResponse{}
	require.NoError(t, conn.ReadJSON(&bad))
	assert.Contains(t, bad.Error, "invalid action")
}

func TestStreamUnknownSession(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Handler())
	defer ts.Close()
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/envs/nope/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
