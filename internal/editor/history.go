package editor

import "github.com/heimdex/heimdex-editor/internal/timeline"

type historyEntry struct {
	label  string
	before timeline.Snapshot
	after  timeline.Snapshot
}

// push records a committed edit. Caller holds e.mu.
func (e *Editor) push(h historyEntry) {
	e.undo = append(e.undo, h)
	if e.limit > 0 && len(e.undo) > e.limit {
		e.undo = e.undo[len(e.undo)-e.limit:]
	}
	e.redo = nil
}

// Undo reverts the last edit and returns its label.
func (e *Editor) Undo() (string, bool) {
	e.mu.Lock()
	if len(e.undo) == 0 {
		e.mu.Unlock()
		return "", false
	}
	h := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.tl.Restore(h.before)
	e.redo = append(e.redo, h)
	e.mu.Unlock()

	e.changed()
	e.SetStatus("Undo " + h.label)
	return h.label, true
}

// Redo reapplies the last undone edit and returns its label.
func (e *Editor) Redo() (string, bool) {
	e.mu.Lock()
	if len(e.redo) == 0 {
		e.mu.Unlock()
		return "", false
	}
	h := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.tl.Restore(h.after)
	e.undo = append(e.undo, h)
	e.mu.Unlock()

	e.changed()
	e.SetStatus("Redo " + h.label)
	return h.label, true
}

// History returns the labels of undoable edits, oldest first.
func (e *Editor) History() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	labels := make([]string, len(e.undo))
	for i, h := range e.undo {
		labels[i] = h.label
	}
	return labels
}

func (e *Editor) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.undo) > 0
}

func (e *Editor) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.redo) > 0
}
