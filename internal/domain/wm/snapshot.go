package wm

import (
	"github.com/glasskit/windowd/internal/domain/geometry"
	"github.com/glasskit/windowd/internal/shared/id"
)

// UnitInfo is the read-only view of one screen unit.
type UnitInfo struct {
	Token            id.UnitToken `json:"token"`
	State            string       `json:"state"`
	VisibleRequested bool         `json:"visible_requested"`
	Translucent      bool         `json:"translucent,omitempty"`
	ShowWallpaper    bool         `json:"show_wallpaper,omitempty"`
	PID              int          `json:"pid,omitempty"`
}

// TaskNode is one task group in the tree snapshot, front to back.
type TaskNode struct {
	Info     TaskInfo   `json:"info"`
	Children []TaskNode `json:"children,omitempty"`
	Units    []UnitInfo `json:"units,omitempty"`
}

// DisplayNode is one display in the tree snapshot.
type DisplayNode struct {
	ID              int           `json:"id"`
	Name            string        `json:"name"`
	Bounds          geometry.Rect `json:"bounds"`
	DensityDPI      int           `json:"density_dpi"`
	Sleeping        bool          `json:"sleeping"`
	FreeformCapable bool          `json:"freeform_capable"`
	FocusedTaskID   int           `json:"focused_task_id,omitempty"`
	Tasks           []TaskNode    `json:"tasks,omitempty"`
}

// TreeSnapshot is a point-in-time copy of the whole container tree.
type TreeSnapshot struct {
	Displays []DisplayNode `json:"displays"`
}

// Snapshot captures the tree for read-only consumers. Taken on the
// loop so it observes a consistent state.
func (m *Manager) Snapshot() (TreeSnapshot, error) {
	var snap TreeSnapshot
	err := m.loop.Call("snapshot", func() {
		for _, did := range m.displayOrder {
			d := m.displays[did]
			node := DisplayNode{
				ID:              d.ID,
				Name:            d.Name,
				Bounds:          d.Bounds(),
				DensityDPI:      d.c.resolved.DensityDPI,
				Sleeping:        d.sleeping,
				FreeformCapable: d.FreeformCapable,
			}
			if d.focusedTask != nil {
				node.FocusedTaskID = d.focusedTask.ID
			}
			for _, t := range d.topLevelTasks() {
				node.Tasks = append(node.Tasks, m.taskNode(t))
			}
			snap.Displays = append(snap.Displays, node)
		}
	})
	return snap, err
}

func (m *Manager) taskNode(t *TaskGroup) TaskNode {
	node := TaskNode{Info: m.taskInfo(t)}
	for i := len(t.c.children) - 1; i >= 0; i-- {
		c := t.c.children[i]
		switch c.kind {
		case KindTask:
			node.Children = append(node.Children, m.taskNode(c.task))
		case KindUnit:
			u := c.unit
			info := UnitInfo{
				Token:            u.Token,
				State:            u.state.String(),
				VisibleRequested: u.visibleRequested,
				Translucent:      u.translucent,
				ShowWallpaper:    u.showWallpaper,
			}
			if u.process != nil {
				info.PID = u.process.PID
			}
			node.Units = append(node.Units, info)
		}
	}
	return node
}
