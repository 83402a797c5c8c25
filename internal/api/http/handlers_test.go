package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glasskit/windowd/internal/domain/exec"
	"github.com/glasskit/windowd/internal/domain/geometry"
	"github.com/glasskit/windowd/internal/domain/wm"
	"github.com/glasskit/windowd/internal/infrastructure/logging"
	"github.com/glasskit/windowd/internal/providers/ipc"
)

type testAPI struct {
	router  *gin.Engine
	manager *wm.Manager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.NewNop()
	loop := exec.NewLoop(logger, nil)
	loop.Start()
	t.Cleanup(loop.Stop)

	client := ipc.NewLoopback(logger)
	manager := wm.NewManager(loop, logger, nil, client, nil, nil, nil, wm.Options{})
	client.Bind(manager)

	require.NoError(t, manager.AddDisplay(wm.DisplayOptions{
		ID:              0,
		Name:            "main",
		Bounds:          geometry.NewRect(0, 0, 1080, 1920),
		Density:         160,
		FreeformCapable: true,
	}))

	h := NewHandlers(manager, nil, "test")
	router := gin.New()
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/tree", h.Tree)
	router.GET("/recents", h.Recents)
	router.POST("/launch", h.Launch)
	router.POST("/ensure-visible", h.EnsureVisible)
	router.POST("/taskgroups/:id/reparent", h.Reparent)
	router.POST("/taskgroups/:id/resize", h.Resize)
	router.POST("/taskgroups/:id/move-to-front", h.MoveToFront)
	router.POST("/taskgroups/:id/move-to-back", h.MoveToBack)
	router.GET("/taskgroups/:id/visibility", h.Visibility)
	router.POST("/units/:token/finish", h.FinishUnit)
	router.POST("/units/:token/deliver", h.Deliver)
	router.POST("/units/:token/ack-pause", h.AckPause)
	router.POST("/displays/:id/sleep", h.SleepDisplay)
	router.POST("/displays/:id/wake", h.WakeDisplay)
	router.POST("/processes/died", h.ProcessDied)
	router.POST("/processes/attach", h.AttachProcess)

	return &testAPI{router: router, manager: manager}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (a *testAPI) launch(t *testing.T, body gin.H) int {
	t.Helper()
	w := a.do(t, "POST", "/launch", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	task := decode(t, w)["task"].(map[string]interface{})
	return int(task["id"].(float64))
}

func TestLaunchReturnsTaskInfo(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, "POST", "/launch", gin.H{
		"display_id":  0,
		"mode":        "fullscreen",
		"description": "browser",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	task := decode(t, w)["task"].(map[string]interface{})
	assert.Equal(t, float64(0), task["display_id"])
	assert.Equal(t, "fullscreen", task["windowing_mode"])
	assert.Equal(t, "visible", task["visibility"])
	assert.NotEmpty(t, task["top_unit_token"])
}

func TestLaunchRejectsBadMode(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, "POST", "/launch", gin.H{"display_id": 0, "mode": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLaunchUnknownDisplayIs404(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, "POST", "/launch", gin.H{"display_id": 9})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResizeFreeformTask(t *testing.T) {
	a := newTestAPI(t)
	taskID := a.launch(t, gin.H{
		"display_id":  0,
		"mode":        "freeform",
		"resize_mode": "resizeable",
		"bounds":      gin.H{"left": 0, "top": 0, "right": 500, "bottom": 500},
	})

	w := a.do(t, "POST", "/taskgroups/"+itoa(taskID)+"/resize", gin.H{
		"bounds":          gin.H{"left": 100, "top": 100, "right": 600, "bottom": 600},
		"preserve_window": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["window_preserved"])
}

func TestReparentBetweenDisplays(t *testing.T) {
	a := newTestAPI(t)
	require.NoError(t, a.manager.AddDisplay(wm.DisplayOptions{
		ID:      1,
		Name:    "secondary",
		Bounds:  geometry.NewRect(0, 0, 1920, 1080),
		Density: 160,
	}))
	taskID := a.launch(t, gin.H{"display_id": 0})

	w := a.do(t, "POST", "/taskgroups/"+itoa(taskID)+"/reparent", gin.H{
		"target_display_id": 1,
		"move_mode":         "always-to-front",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["moved"])

	tree, err := a.manager.Snapshot()
	require.NoError(t, err)
	for _, d := range tree.Displays {
		switch d.ID {
		case 0:
			assert.Empty(t, d.Tasks)
		case 1:
			require.Len(t, d.Tasks, 1)
			assert.Equal(t, taskID, d.Tasks[0].Info.ID)
		}
	}
}

func TestReparentIntoOwnSubtreeIsConflict(t *testing.T) {
	a := newTestAPI(t)
	taskID := a.launch(t, gin.H{"display_id": 0})

	w := a.do(t, "POST", "/taskgroups/"+itoa(taskID)+"/reparent", gin.H{
		"target_task_id": taskID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVisibilityEndpoint(t *testing.T) {
	a := newTestAPI(t)
	back := a.launch(t, gin.H{"display_id": 0})
	a.launch(t, gin.H{"display_id": 0, "mode": "fullscreen"})

	w := a.do(t, "GET", "/taskgroups/"+itoa(back)+"/visibility", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "invisible", decode(t, w)["visibility"])
}

func TestVisibilityUnknownTaskIs404(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, "GET", "/taskgroups/41/visibility", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMoveToFrontAndBackEndpoints(t *testing.T) {
	a := newTestAPI(t)
	first := a.launch(t, gin.H{"display_id": 0})
	a.launch(t, gin.H{"display_id": 0})

	w := a.do(t, "POST", "/taskgroups/"+itoa(first)+"/move-to-front", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, "GET", "/taskgroups/"+itoa(first)+"/visibility", nil)
	assert.Equal(t, "visible", decode(t, w)["visibility"])

	w = a.do(t, "POST", "/taskgroups/"+itoa(first)+"/move-to-back", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, "GET", "/taskgroups/"+itoa(first)+"/visibility", nil)
	assert.Equal(t, "invisible", decode(t, w)["visibility"])
}

func TestEnsureVisibleEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.launch(t, gin.H{"display_id": 0})

	w := a.do(t, "POST", "/ensure-visible", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, "POST", "/ensure-visible", gin.H{"preserve_windows": true})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFinishUnitRemovesTask(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, "POST", "/launch", gin.H{"display_id": 0})
	require.Equal(t, http.StatusOK, w.Code)
	task := decode(t, w)["task"].(map[string]interface{})
	token := task["top_unit_token"].(string)

	w = a.do(t, "POST", "/units/"+token+"/finish", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestDeliverEndpoint(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, "POST", "/launch", gin.H{"display_id": 0, "pid": 1})
	require.Equal(t, http.StatusOK, w.Code)
	task := decode(t, w)["task"].(map[string]interface{})
	token := task["top_unit_token"].(string)

	w = a.do(t, "POST", "/units/"+token+"/deliver",
		gin.H{"kind": "result", "payload": gin.H{"code": 7}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "queued", decode(t, w)["status"])

	w = a.do(t, "POST", "/units/"+token+"/deliver", gin.H{"payload": gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, "POST", "/units/unit_missing/deliver", gin.H{"kind": "result"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSleepAndWakeDisplay(t *testing.T) {
	a := newTestAPI(t)
	a.launch(t, gin.H{"display_id": 0})

	w := a.do(t, "POST", "/displays/0/sleep", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, "POST", "/displays/0/wake", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, "POST", "/displays/5/sleep", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTreeEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.launch(t, gin.H{"display_id": 0})

	w := a.do(t, "GET", "/tree", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tree wm.TreeSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tree))
	require.Len(t, tree.Displays, 1)
	assert.Len(t, tree.Displays[0].Tasks, 1)
}

func TestRecentsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.launch(t, gin.H{"display_id": 0})
	a.launch(t, gin.H{"display_id": 0})

	w := a.do(t, "GET", "/recents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["count"])
}

func TestProcessEndpointsValidatePID(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, "POST", "/processes/died", gin.H{"pid": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, "POST", "/processes/attach", gin.H{"pid": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, "POST", "/processes/attach", gin.H{"pid": 42, "name": "shell"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
