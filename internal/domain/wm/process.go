package wm

import (
	"github.com/glasskit/windowd/internal/infrastructure/resilience"
	"github.com/glasskit/windowd/internal/shared/id"
)

// CallbackKind names one lifecycle round trip to a client process.
type CallbackKind string

const (
	CallbackPause   CallbackKind = "pause"
	CallbackResume  CallbackKind = "resume"
	CallbackStop    CallbackKind = "stop"
	CallbackDestroy CallbackKind = "destroy"
)

// ProcessClient is the IPC layer's view from the core: it schedules a
// lifecycle callback on a client process and returns once the request
// is dispatched, not once the client acts on it. Acks re-enter the
// core through Manager.AckPause and friends.
type ProcessClient interface {
	ScheduleLifecycleCallback(pid int, token id.UnitToken, kind CallbackKind) error
	// DeliverToUnit hands queued results and new-intents to the client
	// process owning the unit.
	DeliverToUnit(pid int, token id.UnitToken, deliveries []Delivery) error
}

// ProcessRecord tracks one client process and the units it owns. Its
// breaker trips after repeated dispatch failures so a wedged client is
// treated like a detached one instead of costing a timeout per call.
type ProcessRecord struct {
	PID      int
	Name     string
	attached bool
	breaker  *resilience.Breaker
	units    []*ScreenUnit
}

func newProcessRecord(pid int, name string) *ProcessRecord {
	return &ProcessRecord{
		PID:      pid,
		Name:     name,
		attached: true,
		breaker:  resilience.New(name, resilience.DispatchSettings()),
	}
}

// Attached reports whether the process is alive and reachable.
func (p *ProcessRecord) Attached() bool { return p.attached }

func (p *ProcessRecord) addUnit(u *ScreenUnit) {
	p.units = append(p.units, u)
}

func (p *ProcessRecord) removeUnit(u *ScreenUnit) {
	for i, x := range p.units {
		if x == u {
			p.units = append(p.units[:i], p.units[i+1:]...)
			return
		}
	}
}

// dispatch routes one callback through the breaker. Any error means
// the caller must resolve the transition locally.
func (p *ProcessRecord) dispatch(client ProcessClient, token id.UnitToken, kind CallbackKind) error {
	return p.breaker.Do(func() error {
		return client.ScheduleLifecycleCallback(p.PID, token, kind)
	})
}

// deliver routes queued deliveries through the breaker. On error the
// caller keeps them queued for the next resume.
func (p *ProcessRecord) deliver(client ProcessClient, token id.UnitToken, deliveries []Delivery) error {
	return p.breaker.Do(func() error {
		return client.DeliverToUnit(p.PID, token, deliveries)
	})
}
