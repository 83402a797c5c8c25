package wm

import (
	"github.com/glasskit/windowd/internal/domain/geometry"
	"github.com/glasskit/windowd/internal/shared/id"
)

// TaskInfo is the read-only snapshot of a task group handed to
// external collaborators. It carries copies only; holders can never
// mutate the tree through it.
type TaskInfo struct {
	ID            int            `json:"id"`
	DisplayID     int            `json:"display_id"`
	ParentTaskID  int            `json:"parent_task_id,omitempty"`
	Affinity      string         `json:"affinity,omitempty"`
	BaseIntent    string         `json:"base_intent,omitempty"`
	Description   string         `json:"description,omitempty"`
	Bounds        geometry.Rect  `json:"bounds"`
	WindowingMode WindowingMode  `json:"windowing_mode"`
	ActivityType  ActivityType   `json:"activity_type"`
	ResizeMode    ResizeMode     `json:"resize_mode"`
	UnitCount     int            `json:"unit_count"`
	TopUnitToken  id.UnitToken   `json:"top_unit_token,omitempty"`
	TopUnitState  string         `json:"top_unit_state,omitempty"`
	Visibility    string         `json:"visibility"`
}

// Organizer receives delegated callbacks about task group presentation
// changes. Dispatch is coalesced: at most one TaskInfoChanged per task
// group per mutation batch.
type Organizer interface {
	OnTaskAppeared(info TaskInfo)
	OnTaskVanished(info TaskInfo)
	OnTaskInfoChanged(info TaskInfo)
}

// TransitionKind names a visual transition for the compositing layer.
type TransitionKind string

const (
	TransitionNone    TransitionKind = "none"
	TransitionOpen    TransitionKind = "open"
	TransitionClose   TransitionKind = "close"
	TransitionToFront TransitionKind = "to-front"
	TransitionToBack  TransitionKind = "to-back"
	TransitionResize  TransitionKind = "resize"
)

// Compositor is the animation/compositing layer's surface. The core
// never waits for either call to complete.
type Compositor interface {
	PrepareTransition(kind TransitionKind)
	SetVisibility(token id.UnitToken, visible bool)
}

// TaskSnapshot is what the persistence layer is asked to save,
// fire-and-forget.
type TaskSnapshot struct {
	Info      TaskInfo      `json:"info"`
	LastNonFS geometry.Rect `json:"last_non_fullscreen_bounds"`
}

// Persister saves task snapshots. Implementations must not block the
// caller; the core calls this from the executor thread.
type Persister interface {
	SaveTask(snapshot TaskSnapshot)
}

// CombineOrganizers fans each callback out to every organizer given,
// in order. Nil entries are skipped; zero live entries collapses to
// NopOrganizer.
func CombineOrganizers(organizers ...Organizer) Organizer {
	live := make(multiOrganizer, 0, len(organizers))
	for _, o := range organizers {
		if o != nil {
			live = append(live, o)
		}
	}
	switch len(live) {
	case 0:
		return NopOrganizer{}
	case 1:
		return live[0]
	}
	return live
}

type multiOrganizer []Organizer

func (m multiOrganizer) OnTaskAppeared(info TaskInfo) {
	for _, o := range m {
		o.OnTaskAppeared(info)
	}
}

func (m multiOrganizer) OnTaskVanished(info TaskInfo) {
	for _, o := range m {
		o.OnTaskVanished(info)
	}
}

func (m multiOrganizer) OnTaskInfoChanged(info TaskInfo) {
	for _, o := range m {
		o.OnTaskInfoChanged(info)
	}
}

// NopOrganizer ignores all callbacks.
type NopOrganizer struct{}

func (NopOrganizer) OnTaskAppeared(TaskInfo)    {}
func (NopOrganizer) OnTaskVanished(TaskInfo)    {}
func (NopOrganizer) OnTaskInfoChanged(TaskInfo) {}

// NopCompositor drops all transition hints.
type NopCompositor struct{}

func (NopCompositor) PrepareTransition(TransitionKind) {}
func (NopCompositor) SetVisibility(id.UnitToken, bool) {}

// NopPersister drops all snapshots.
type NopPersister struct{}

func (NopPersister) SaveTask(TaskSnapshot) {}
