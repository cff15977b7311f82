package services

import (
	"sync"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/session"
)

// scopeEntry serializes every operation on one scope. Bulk AI apply and imports
// hold the lock for their whole run, so they never interleave on a scope.
type scopeEntry struct {
	mu        sync.Mutex
	category  *session.CategorySession
	attribute *session.AttributeSession
}

// SessionRegistry owns one session per mapping scope.
type SessionRegistry struct {
	mu      sync.Mutex
	entries map[string]*scopeEntry
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{entries: make(map[string]*scopeEntry)}
}

// acquire locks the entry of scope and returns it with its unlock function.
func (r *SessionRegistry) acquire(scope mapping.Scope) (*scopeEntry, func()) {
	key := scope.Key()
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &scopeEntry{}
		r.entries[key] = e
	}
	r.mu.Unlock()
	e.mu.Lock()
	return e, e.mu.Unlock
}

// Invalidate drops the session of scopeKey unless it holds unsaved edits.
// It reports whether a session was dropped.
func (r *SessionRegistry) Invalidate(scopeKey string) bool {
	r.mu.Lock()
	e, ok := r.entries[scopeKey]
	r.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	dropped := false
	if e.category != nil && !e.category.Store().IsDirty() {
		e.category = nil
		dropped = true
	}
	if e.attribute != nil && !e.attribute.Store().IsDirty() {
		e.attribute = nil
		dropped = true
	}
	return dropped
}

// Len is the number of scopes seen.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
