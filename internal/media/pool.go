package media

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/heimdex/heimdex-editor/internal/catalog"
	"github.com/heimdex/heimdex-editor/internal/metrics"
)

// Store is the persistent probe cache. catalog.Repository satisfies it.
type Store interface {
	GetMedia(ctx context.Context, path string) (*catalog.MediaEntry, error)
	UpsertMedia(ctx context.Context, entry *catalog.MediaEntry) error
}

// Entry is one registered file.
type Entry struct {
	Path string `json:"path"`
	Properties
}

// Pool is the set of media files known to the current project. It is safe
// for concurrent use.
type Pool struct {
	prober Prober
	store  Store
	logger *slog.Logger

	mu    sync.RWMutex
	props map[string]Properties
	order []string
}

// NewPool creates a pool probing with prober. store may be nil, in which
// case every file is probed on registration.
func NewPool(prober Prober, store Store, logger *slog.Logger) *Pool {
	return &Pool{
		prober: prober,
		store:  store,
		logger: logger,
		props:  make(map[string]Properties),
	}
}

// Register adds each existing file in paths to the pool. Registering a path
// twice is a no-op. Files that do not exist or cannot be probed are logged
// and left out, so Properties reports them as unavailable. Only context
// cancellation is returned as an error.
func (p *Pool) Register(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.has(path) {
			continue
		}

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			p.debug("skipping unregisterable media", "path", path, "error", err)
			continue
		}

		props, ok := p.lookup(ctx, path, info)
		if !ok {
			continue
		}

		p.mu.Lock()
		if _, exists := p.props[path]; !exists {
			p.props[path] = props
			p.order = append(p.order, path)
		}
		p.mu.Unlock()
	}
	return nil
}

func (p *Pool) lookup(ctx context.Context, path string, info os.FileInfo) (Properties, bool) {
	if p.store != nil {
		entry, err := p.store.GetMedia(ctx, path)
		if err != nil {
			p.warn("failed to read media cache", "path", path, "error", err)
		} else if entry != nil && entry.Fresh(info.Size(), info.ModTime()) {
			metrics.RecordProbe("cache", 0)
			return fromEntry(entry), true
		}
	}

	timer := metrics.NewTimer()
	props, err := p.prober.Probe(ctx, path)
	if err != nil {
		p.warn("failed to probe media", "path", path, "error", err)
		return Properties{}, false
	}
	metrics.RecordProbe("probe", timer.Duration())

	if props.Size == 0 {
		props.Size = info.Size()
	}

	if p.store != nil {
		if err := p.store.UpsertMedia(ctx, toEntry(path, props, info.ModTime())); err != nil {
			p.warn("failed to cache media properties", "path", path, "error", err)
		}
	}
	return props, true
}

// Add registers path with known properties without probing.
func (p *Pool) Add(path string, props Properties) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.props[path]; !exists {
		p.order = append(p.order, path)
	}
	p.props[path] = props
}

func (p *Pool) Properties(path string) (Properties, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	props, ok := p.props[path]
	return props, ok
}

func (p *Pool) has(path string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.props[path]
	return ok
}

// Paths returns registered paths in registration order.
func (p *Pool) Paths() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Entries returns every registered file with its properties in
// registration order.
func (p *Pool) Entries() []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Entry, 0, len(p.order))
	for _, path := range p.order {
		out = append(out, Entry{Path: path, Properties: p.props[path]})
	}
	return out
}

func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// Clear forgets every registered file. The persistent cache is kept.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.props = make(map[string]Properties)
	p.order = nil
}

func (p *Pool) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pool) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
