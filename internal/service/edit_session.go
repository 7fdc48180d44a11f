package service

import (
	"sort"
	"sync"
)

// EditSessions tracks, per client edit session, which iterations changed since the last
// flush. It never touches the store.
type EditSessions struct {
	mu      sync.Mutex
	pending map[string]map[string]struct{}
}

// NewEditSessions constructs an empty tracker.
func NewEditSessions() *EditSessions {
	return &EditSessions{pending: make(map[string]map[string]struct{})}
}

// Mark records iterationID as changed within session. An empty session is ignored.
func (e *EditSessions) Mark(session, iterationID string) {
	if e == nil || session == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	set, ok := e.pending[session]
	if !ok {
		set = make(map[string]struct{})
		e.pending[session] = set
	}
	set[iterationID] = struct{}{}
}

// Pending lists the changed iterations of session without clearing them.
func (e *EditSessions) Pending(session string) []string {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return sortedKeys(e.pending[session])
}

// Flush returns and clears the changed iterations of session.
func (e *EditSessions) Flush(session string) []string {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := sortedKeys(e.pending[session])
	delete(e.pending, session)
	return ids
}

func sortedKeys(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
