package wiring

import (
	"sync"
)

// PointerEventKind identifies a pointer event during a wire drag.
type PointerEventKind string

const (
	PointerMove   PointerEventKind = "move"
	PointerUp     PointerEventKind = "up"
	PointerCancel PointerEventKind = "cancel"
)

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointerEvent is one sample from the pointer. On PointerUp, NodeID and Output name the output
// port under the pointer, if any.
type PointerEvent struct {
	Kind   PointerEventKind `json:"kind"`
	At     Point            `json:"at"`
	NodeID string           `json:"node_id,omitempty"`
	Output string           `json:"output,omitempty"`
	Path   string           `json:"path,omitempty"`
}

// PointerSource delivers pointer events until the returned function is called.
type PointerSource interface {
	Subscribe(handler func(PointerEvent)) (unsubscribe func())
}

// DragState is the lifecycle state of a drag.
type DragState string

const (
	DragActive    DragState = "active"
	DragCommitted DragState = "committed"
	DragCancelled DragState = "cancelled"
)

// Drag draws a wire from a pointer gesture. A pointer-up over an output commits the wire through
// SelectWireSource; a pointer-up elsewhere, a pointer-cancel, or a mode change on the input
// cancels it. The pointer subscription is released exactly once in every case.
type Drag struct {
	mu          sync.Mutex
	session     *Session
	input       string
	from        Point
	to          Point
	state       DragState
	err         error
	unsubscribe func()
	onPreview   func(from, to Point)
}

// DragOption configures a Drag.
type DragOption func(*Drag)

// WithPreview registers a callback receiving the live preview curve endpoints.
func WithPreview(fn func(from, to Point)) DragOption {
	return func(d *Drag) {
		d.onPreview = fn
	}
}

// StartDrag begins drawing a wire into the input from the given anchor. A drag already running
// in the session is cancelled first.
func (s *Session) StartDrag(inputName string, pointer PointerSource, from Point, opts ...DragOption) (*Drag, error) {
	if _, err := s.input(inputName); err != nil {
		return nil, err
	}

	s.cancelDrag("")

	d := &Drag{
		session: s,
		input:   inputName,
		from:    from,
		to:      from,
		state:   DragActive,
	}

	for _, opt := range opts {
		opt(d)
	}

	s.drag = d

	unsubscribe := pointer.Subscribe(d.handle)

	d.mu.Lock()
	if d.state == DragActive {
		d.unsubscribe = unsubscribe
		d.mu.Unlock()
	} else {
		d.mu.Unlock()
		unsubscribe()
	}

	return d, nil
}

func (d *Drag) handle(event PointerEvent) {
	switch event.Kind {
	case PointerMove:
		d.mu.Lock()
		if d.state != DragActive {
			d.mu.Unlock()

			return
		}

		d.to = event.At
		preview := d.onPreview
		from, to := d.from, d.to
		d.mu.Unlock()

		if preview != nil {
			preview(from, to)
		}
	case PointerUp:
		if event.NodeID == "" || event.Output == "" {
			d.Cancel()

			return
		}

		d.commit(event)
	case PointerCancel:
		d.Cancel()
	}
}

func (d *Drag) commit(event PointerEvent) {
	d.mu.Lock()
	if d.state != DragActive {
		d.mu.Unlock()

		return
	}

	d.to = event.At
	d.err = d.session.SelectWireSource(d.input, event.NodeID, event.Output, event.Path)

	if d.err != nil {
		d.state = DragCancelled
	} else {
		d.state = DragCommitted
	}

	d.mu.Unlock()
	d.release()
}

// Cancel aborts the drag without touching the session. It is a no-op once the drag finished.
func (d *Drag) Cancel() {
	d.mu.Lock()
	if d.state != DragActive {
		d.mu.Unlock()

		return
	}

	d.state = DragCancelled
	d.mu.Unlock()
	d.release()
}

func (d *Drag) release() {
	d.mu.Lock()
	unsubscribe := d.unsubscribe
	d.unsubscribe = nil
	d.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	if d.session.drag == d {
		d.session.drag = nil
	}
}

// State returns the drag state.
func (d *Drag) State() DragState {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state
}

// Err returns the error that prevented a commit, if any.
func (d *Drag) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.err
}

// Preview returns the current endpoints of the preview curve.
func (d *Drag) Preview() (Point, Point) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.from, d.to
}
