package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/glasskit/windowd/internal/domain/geometry"
	"github.com/glasskit/windowd/internal/domain/wm"
	"github.com/glasskit/windowd/internal/infrastructure/monitoring"
	"github.com/glasskit/windowd/internal/shared/id"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	manager *wm.Manager
	metrics *monitoring.Metrics
	version string
}

// NewHandlers creates a new handler set.
func NewHandlers(manager *wm.Manager, metrics *monitoring.Metrics, version string) *Handlers {
	return &Handlers{
		manager: manager,
		metrics: metrics,
		version: version,
	}
}

// Root handles health check.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "windowd",
		"version": h.version,
	})
}

// Health handles detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	snap, err := h.manager.Snapshot()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"displays": len(snap.Displays),
	})
}

// MetricsSnapshot serves the aggregated metrics as JSON, next to the
// Prometheus exposition on /metrics.
func (h *Handlers) MetricsSnapshot(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// LaunchRequest is the wire form of a launch.
type LaunchRequest struct {
	DisplayID   int           `json:"display_id"`
	TaskGroupID int           `json:"task_group_id"`
	Affinity    string        `json:"affinity"`
	BaseIntent  string        `json:"base_intent"`
	Description string        `json:"description"`
	Mode        string        `json:"mode"`
	Type        string        `json:"type"`
	Bounds      geometry.Rect `json:"bounds"`
	ResizeMode  string        `json:"resize_mode"`
	PID         int           `json:"pid"`
	ProcessName string        `json:"process_name"`

	Translucent   bool   `json:"translucent"`
	ShowWallpaper bool   `json:"show_wallpaper"`
	Orientation   string `json:"orientation"`
}

// Launch creates a task group and screen unit and drives it to the
// resumed state.
func (h *Handlers) Launch(c *gin.Context) {
	var req LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode, err := wm.ParseWindowingMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actType, err := wm.ParseActivityType(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resizeMode, err := wm.ParseResizeMode(req.ResizeMode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	orientation, err := wm.ParseOrientation(req.Orientation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, err := h.manager.Launch(wm.LaunchRequest{
		DisplayID:   req.DisplayID,
		TaskGroupID: req.TaskGroupID,
		Affinity:    req.Affinity,
		BaseIntent:  req.BaseIntent,
		Description: req.Description,
		Mode:        mode,
		Type:        actType,
		Bounds:      req.Bounds,
		ResizeMode:  resizeMode,
		PID:         req.PID,
		ProcessName: req.ProcessName,
		Unit: wm.UnitOptions{
			Translucent:         req.Translucent,
			ShowWallpaper:       req.ShowWallpaper,
			RequiredOrientation: orientation,
		},
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": info})
}

// ReparentRequest is the wire form of a reparent.
type ReparentRequest struct {
	TargetDisplayID int    `json:"target_display_id"`
	TargetTaskID    int    `json:"target_task_id"`
	Position        *int   `json:"position"`
	MoveMode        string `json:"move_mode"`
	Animate         bool   `json:"animate"`
	DeferResume     bool   `json:"defer_resume"`
	Reason          string `json:"reason"`
}

// Reparent moves a task group to a new parent container.
func (h *Handlers) Reparent(c *gin.Context) {
	taskID, ok := h.taskParam(c)
	if !ok {
		return
	}
	var req ReparentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	moveMode, err := wm.ParseMoveMode(req.MoveMode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	position := wm.PositionTop
	if req.Position != nil {
		position = *req.Position
	}

	moved, err := h.manager.Reparent(wm.ReparentRequest{
		TaskID:          taskID,
		TargetDisplayID: req.TargetDisplayID,
		TargetTaskID:    req.TargetTaskID,
		Position:        position,
		MoveMode:        moveMode,
		Animate:         req.Animate,
		DeferResume:     req.DeferResume,
		Reason:          req.Reason,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"moved":   moved,
		"task_id": taskID,
	})
}

// ResizeRequest is the wire form of a resize.
type ResizeRequest struct {
	Bounds         geometry.Rect `json:"bounds"`
	PreserveWindow bool          `json:"preserve_window"`
}

// Resize applies a new requested bounds override to a task group.
func (h *Handlers) Resize(c *gin.Context) {
	taskID, ok := h.taskParam(c)
	if !ok {
		return
	}
	var req ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kept, err := h.manager.Resize(taskID, req.Bounds, req.PreserveWindow)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id":          taskID,
		"window_preserved": kept,
	})
}

// MoveToFront raises a task group in its display's z-order.
func (h *Handlers) MoveToFront(c *gin.Context) {
	h.move(c, h.manager.MoveToFront)
}

// MoveToBack lowers a task group to the bottom of its display.
func (h *Handlers) MoveToBack(c *gin.Context) {
	h.move(c, h.manager.MoveToBack)
}

func (h *Handlers) move(c *gin.Context, op func(int, string) error) {
	taskID, ok := h.taskParam(c)
	if !ok {
		return
	}
	reason := c.Query("reason")
	if err := op(taskID, reason); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": taskID})
}

// Visibility reports the resolved visibility of a task group.
func (h *Handlers) Visibility(c *gin.Context) {
	taskID, ok := h.taskParam(c)
	if !ok {
		return
	}
	vis, err := h.manager.VisibilityOf(taskID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id":    taskID,
		"visibility": vis.String(),
	})
}

// FinishUnit begins teardown of one screen unit.
func (h *Handlers) FinishUnit(c *gin.Context) {
	token := id.UnitToken(c.Param("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	if err := h.manager.FinishUnit(token); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// AckPause completes a pause round trip for a client process.
func (h *Handlers) AckPause(c *gin.Context) {
	token := id.UnitToken(c.Param("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	if err := h.manager.AckPause(token); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// DeliveryRequest is the wire form of a queued result or new-intent.
type DeliveryRequest struct {
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload"`
}

// Deliver queues a result or new-intent for a unit; a resumed unit
// receives it immediately, others on their next resume.
func (h *Handlers) Deliver(c *gin.Context) {
	token := id.UnitToken(c.Param("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	var req DeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Kind == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind is required"})
		return
	}
	if err := h.manager.QueueDelivery(token, wm.Delivery{Kind: req.Kind, Payload: req.Payload}); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "status": "queued"})
}

// SleepDisplay pauses everything on a display.
func (h *Handlers) SleepDisplay(c *gin.Context) {
	h.displayOp(c, h.manager.SleepDisplay)
}

// WakeDisplay resumes a sleeping display's focused stack.
func (h *Handlers) WakeDisplay(c *gin.Context) {
	h.displayOp(c, h.manager.WakeDisplay)
}

func (h *Handlers) displayOp(c *gin.Context, op func(int) error) {
	displayID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "display id must be an integer"})
		return
	}
	if err := op(displayID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"display_id": displayID})
}

// ProcessDiedRequest names the process that went away.
type ProcessDiedRequest struct {
	PID int `json:"pid"`
}

// ProcessDied reports a client process death.
func (h *Handlers) ProcessDied(c *gin.Context) {
	var req ProcessDiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pid must be positive"})
		return
	}
	if err := h.manager.NotifyProcessDied(req.PID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pid": req.PID})
}

// AttachProcessRequest names a process that (re)connected.
type AttachProcessRequest struct {
	PID  int    `json:"pid"`
	Name string `json:"name"`
}

// AttachProcess registers a process and adopts any units waiting on a
// replacement.
func (h *Handlers) AttachProcess(c *gin.Context) {
	var req AttachProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pid must be positive"})
		return
	}
	if err := h.manager.AttachProcess(req.PID, req.Name); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pid": req.PID})
}

// EnsureVisibleRequest optionally names a unit that is mid-launch and
// must count as content during the pass.
type EnsureVisibleRequest struct {
	StartingToken   string `json:"starting_token"`
	PreserveWindows bool   `json:"preserve_windows"`
}

// EnsureVisible re-evaluates visibility for the whole tree.
func (h *Handlers) EnsureVisible(c *gin.Context) {
	var req EnsureVisibleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := h.manager.EnsureVisible(id.UnitToken(req.StartingToken), req.PreserveWindows); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Tree serves the full container tree snapshot.
func (h *Handlers) Tree(c *gin.Context) {
	snap, err := h.manager.Snapshot()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Recents lists task groups per display, topmost first, with
// affiliation chains kept adjacent.
func (h *Handlers) Recents(c *gin.Context) {
	tasks, err := h.manager.Recents()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	})
}

func (h *Handlers) taskParam(c *gin.Context) (int, bool) {
	taskID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task id must be an integer"})
		return 0, false
	}
	return taskID, true
}

// fail maps domain errors onto HTTP statuses.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, wm.ErrNoSuchTask),
		errors.Is(err, wm.ErrNoSuchDisplay),
		errors.Is(err, wm.ErrNoSuchUnit):
		status = http.StatusNotFound
	case errors.Is(err, wm.ErrDisplayFull),
		errors.Is(err, wm.ErrWouldCycle),
		errors.Is(err, wm.ErrDetached):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
