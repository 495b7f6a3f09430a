// Package editor holds the editor's project state: the timeline, its media
// pool and the undo history. It is the host the project importer and the
// generation workflow run against.
package editor

import (
	"log/slog"
	"sync"

	"github.com/heimdex/heimdex-editor/internal/importer"
	"github.com/heimdex/heimdex-editor/internal/media"
	"github.com/heimdex/heimdex-editor/internal/metrics"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

// DefaultHistoryLimit caps the undo stack.
const DefaultHistoryLimit = 100

// Prompter asks the user questions. The front end in use provides it.
type Prompter interface {
	Confirm(title, message string) bool
	Warn(title, message string)
}

// Editor is safe for concurrent use. Edits are serialized; an edit in
// progress blocks readers until it is committed or rolled back.
type Editor struct {
	pool   *media.Pool
	logger *slog.Logger

	mu          sync.RWMutex
	tl          *timeline.Timeline
	undo        []historyEntry
	redo        []historyEntry
	limit       int
	projectPath string

	uiMu     sync.RWMutex
	prompter Prompter
	status   string
	onStatus []func(string)
	onChange []func()
}

type Option func(*Editor)

func WithPrompter(p Prompter) Option {
	return func(e *Editor) { e.prompter = p }
}

func WithHistoryLimit(n int) Option {
	return func(e *Editor) { e.limit = n }
}

func New(pool *media.Pool, logger *slog.Logger, opts ...Option) *Editor {
	e := &Editor{
		pool:   pool,
		logger: logger,
		tl:     timeline.New(),
		limit:  DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPrompter replaces the prompter. Front ends call it once their window
// exists.
func (e *Editor) SetPrompter(p Prompter) {
	e.uiMu.Lock()
	defer e.uiMu.Unlock()
	e.prompter = p
}

// OnStatus registers fn to receive every status message.
func (e *Editor) OnStatus(fn func(string)) {
	e.uiMu.Lock()
	defer e.uiMu.Unlock()
	e.onStatus = append(e.onStatus, fn)
}

// OnChange registers fn to run after every committed change to the
// timeline.
func (e *Editor) OnChange(fn func()) {
	e.uiMu.Lock()
	defer e.uiMu.Unlock()
	e.onChange = append(e.onChange, fn)
}

func (e *Editor) Pool() *media.Pool {
	return e.pool
}

// HasContent reports whether the project has clips or registered media.
func (e *Editor) HasContent() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tl.ClipCount() > 0 || e.pool.Len() > 0
}

// Confirm asks the prompter. Without one nothing destructive is confirmed.
func (e *Editor) Confirm(title, message string) bool {
	e.uiMu.RLock()
	p := e.prompter
	e.uiMu.RUnlock()
	if p == nil {
		return false
	}
	return p.Confirm(title, message)
}

func (e *Editor) Warn(title, message string) {
	if e.logger != nil {
		e.logger.Warn(title, "message", message)
	}
	e.uiMu.RLock()
	p := e.prompter
	e.uiMu.RUnlock()
	if p != nil {
		p.Warn(title, message)
	}
}

func (e *Editor) SetStatus(message string) {
	e.uiMu.Lock()
	e.status = message
	sinks := append([]func(string){}, e.onStatus...)
	e.uiMu.Unlock()

	if e.logger != nil {
		e.logger.Debug("status", "message", message)
	}
	for _, fn := range sinks {
		fn(message)
	}
}

// Status returns the last status message.
func (e *Editor) Status() string {
	e.uiMu.RLock()
	defer e.uiMu.RUnlock()
	return e.status
}

// NewProject empties the timeline and the media pool and drops the undo
// history.
func (e *Editor) NewProject() {
	e.mu.Lock()
	e.tl.Clear()
	e.pool.Clear()
	e.undo = nil
	e.redo = nil
	e.projectPath = ""
	e.mu.Unlock()

	e.changed()
	e.SetStatus("New project created.")
}

// PerformEdit runs fn against the timeline as one undoable edit named
// label. If fn fails the timeline is restored and nothing is recorded.
func (e *Editor) PerformEdit(label string, fn func(dst importer.Destination) error) error {
	return e.edit(label, func(tl *timeline.Timeline) error { return fn(tl) })
}

func (e *Editor) edit(label string, fn func(tl *timeline.Timeline) error) error {
	e.mu.Lock()
	before := e.tl.Snapshot()
	if err := fn(e.tl); err != nil {
		e.tl.Restore(before)
		e.mu.Unlock()
		metrics.EditsTotal.WithLabelValues("failed").Inc()
		if e.logger != nil {
			e.logger.Warn("edit rolled back", "label", label, "error", err)
		}
		return err
	}
	e.push(historyEntry{label: label, before: before, after: e.tl.Snapshot()})
	e.mu.Unlock()

	metrics.EditsTotal.WithLabelValues("committed").Inc()
	e.changed()
	return nil
}

// Timeline returns a copy of the current timeline state.
func (e *Editor) Timeline() timeline.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tl.Snapshot()
}

func (e *Editor) ClipCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tl.ClipCount()
}

func (e *Editor) TotalDurationMs() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tl.TotalDurationMs()
}

// ProjectPath is the file the project was last saved to or opened from.
func (e *Editor) ProjectPath() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.projectPath
}

func (e *Editor) changed() {
	metrics.TimelineClips.Set(float64(e.ClipCount()))

	e.uiMu.RLock()
	fns := append([]func(){}, e.onChange...)
	e.uiMu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}
