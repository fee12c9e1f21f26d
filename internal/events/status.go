package events

import (
	"sync/atomic"

	"jobagent-engine/internal/domain"
)

// Forwarder receives every accepted snapshot, e.g. to mirror it onto a
// message bus.
type Forwarder func(domain.RunProgress)

// Status is the latest-wins progress slot shared by the run and its
// observers. Readers always get a whole snapshot; an update older than the
// one already held is discarded.
type Status struct {
	cur     atomic.Pointer[domain.RunProgress]
	hub     *Hub
	forward []Forwarder
}

func NewStatus(hub *Hub, forward ...Forwarder) *Status {
	s := &Status{hub: hub, forward: forward}
	idle := domain.IdleProgress()
	s.cur.Store(&idle)
	return s
}

// Update installs p unless a snapshot with the same or a newer version is
// already held. It reports whether p was accepted.
func (s *Status) Update(p domain.RunProgress) bool {
	next := p
	for {
		old := s.cur.Load()
		if old.Version >= next.Version {
			return false
		}
		if s.cur.CompareAndSwap(old, &next) {
			break
		}
	}

	if s.hub != nil {
		s.hub.Publish(MakeEvent("", TypeProgress, next))
	}
	for _, f := range s.forward {
		f(next)
	}
	return true
}

func (s *Status) Snapshot() domain.RunProgress {
	return *s.cur.Load()
}
