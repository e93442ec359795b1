package traffic

import (
	"sync"
	"sync/atomic"
)

// Display tracks which selection is currently shown. It starts at AllTime
// and moves to WindowedAt(m) or back on every Apply.
//
// Applies may run concurrently (one per HTTP request); each takes a sequence
// number when issued and only commits if no later-issued apply has already
// committed, so the last-issued selection always ends up displayed.
type Display struct {
	issued atomic.Uint64

	mu        sync.RWMutex
	engine    *Engine
	committed uint64
	current   *Result
}

// NewDisplay creates a display in the AllTime state
func NewDisplay(engine *Engine) (*Display, error) {
	res, err := engine.Query(AllTime)
	if err != nil {
		return nil, err
	}
	return &Display{engine: engine, current: res}, nil
}

// Apply validates v, recomputes traffic for it and makes it the displayed
// selection. An invalid selector returns ErrInvalidSelector and leaves the
// displayed state untouched. The returned result is whatever is displayed
// once this apply settles.
func (d *Display) Apply(v int) (*Result, error) {
	sel, err := NewSelector(v)
	if err != nil {
		return nil, err
	}

	// Engine and sequence are taken together so a Reload can never be
	// overwritten by an apply that started against the old dataset.
	d.mu.RLock()
	engine := d.engine
	seq := d.issued.Add(1)
	d.mu.RUnlock()

	res, err := engine.Query(sel)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq > d.committed {
		d.committed = seq
		d.current = res
	}
	return d.current, nil
}

// Reload switches the display to a new engine and resets it to AllTime.
// Applies issued before the reload cannot commit afterwards.
func (d *Display) Reload(engine *Engine) (*Result, error) {
	res, err := engine.Query(AllTime)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.engine = engine
	d.committed = d.issued.Add(1)
	d.current = res
	return res, nil
}

// Engine returns the engine applies currently run against
func (d *Display) Engine() *Engine {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.engine
}

// Current returns the displayed result
func (d *Display) Current() *Result {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// Selector returns the displayed selection
func (d *Display) Selector() Selector {
	return d.Current().Selector
}
