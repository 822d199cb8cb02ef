package wiring

import (
	"sync"

	"github.com/dukex/botflow/pkg/models"
)

// Editor holds at most one open session. Focusing another node discards the previous session's
// uncommitted state.
type Editor struct {
	mu      sync.Mutex
	catalog ActionCatalog
	opts    []SessionOption
	session *Session
}

// NewEditor creates an editor whose sessions use the given catalog and options.
func NewEditor(catalog ActionCatalog, opts ...SessionOption) *Editor {
	return &Editor{catalog: catalog, opts: opts}
}

// Focus opens a session on nodeID, closing the current one.
func (e *Editor) Focus(doc *models.Workflow, nodeID string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		e.session.Close()
		e.session = nil
	}

	session, err := NewSession(doc, nodeID, e.catalog, e.opts...)
	if err != nil {
		return nil, err
	}

	e.session = session

	return session, nil
}

// Current returns the open session, or nil.
func (e *Editor) Current() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.session
}

// Close discards the open session.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		e.session.Close()
		e.session = nil
	}
}
