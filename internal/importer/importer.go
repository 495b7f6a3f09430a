// Package importer rebuilds a VideoPad project on the editor timeline.
//
// The Engine resolves decoded placements against the project's media and
// tracks and appends clips to a Destination. The Importer drives one whole
// import against a Host: confirmation, parsing, clearing the project and
// running the engine inside a single undoable edit.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/heimdex/heimdex-editor/internal/catalog"
	"github.com/heimdex/heimdex-editor/internal/logging"
	"github.com/heimdex/heimdex-editor/internal/metrics"
	"github.com/heimdex/heimdex-editor/internal/vpj"
)

var (
	// ErrUnreadable is returned when the project file cannot be read.
	ErrUnreadable = errors.New("project file unreadable")
	// ErrNothingToImport is returned when the project has no media or no
	// placements. It wraps vpj.ErrNoContent when nothing at all decoded.
	ErrNothingToImport = errors.New("no media or timeline clips found")
	// ErrCancelled is returned when the user declines to replace the
	// current project.
	ErrCancelled = errors.New("import cancelled")
)

const (
	confirmTitle   = "Confirm Import"
	confirmMessage = "This will clear your current project. Are you sure you want to continue?"
	errorTitle     = "Import Error"
)

// Host is the editor an import runs against.
type Host interface {
	HasContent() bool
	Confirm(title, message string) bool
	NewProject()
	// PerformEdit runs fn as one labelled undoable edit. If fn fails the
	// edit is rolled back.
	PerformEdit(label string, fn func(dst Destination) error) error
	SetStatus(message string)
	Warn(title, message string)
}

// Recorder stores import history. catalog.Repository satisfies it.
type Recorder interface {
	CreateImport(ctx context.Context, rec *catalog.ImportRecord) error
	FinishImport(ctx context.Context, rec *catalog.ImportRecord) error
}

// Outcome is a finished import.
type Outcome struct {
	ID          string  `json:"id"`
	ProjectPath string  `json:"project_path"`
	Result      Result  `json:"result"`
	Summary     Summary `json:"summary"`
}

type Importer struct {
	host     Host
	parser   *vpj.Parser
	engine   *Engine
	recorder Recorder
	logger   *slog.Logger
}

type Option func(*Importer)

// WithRecorder records every import that gets past confirmation.
func WithRecorder(r Recorder) Option {
	return func(i *Importer) { i.recorder = r }
}

func New(host Host, engine *Engine, logger *slog.Logger, opts ...Option) *Importer {
	i := &Importer{
		host:   host,
		parser: vpj.NewParser(logger),
		engine: engine,
		logger: logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// WithHost returns a copy of the importer running against host.
func (i *Importer) WithHost(host Host) *Importer {
	c := *i
	c.host = host
	return &c
}

// Run imports the project at path, replacing the host's current project.
func (i *Importer) Run(ctx context.Context, path string) (*Outcome, error) {
	timer := metrics.NewTimer()
	out := &Outcome{ID: catalog.NewID(), ProjectPath: path}

	logger := i.logger
	if logger != nil {
		logger = logging.WithPath(logging.WithImportID(logger, out.ID), path)
	}

	if i.host.HasContent() && !i.host.Confirm(confirmTitle, confirmMessage) {
		metrics.RecordImport(catalog.ImportStatusCancelled, timer.Duration())
		return nil, ErrCancelled
	}

	rec := i.begin(ctx, out, logger)

	project, err := i.load(path)
	if err != nil {
		i.host.Warn(errorTitle, importErrorMessage(err))
		i.host.SetStatus("Import failed.")
		i.finish(ctx, rec, catalog.ImportStatusFailed, Result{}, err, logger)
		metrics.RecordImport(catalog.ImportStatusFailed, timer.Duration())
		return nil, err
	}

	if logger != nil {
		logger.Info("parsed project",
			"media", len(project.Media),
			"tracks", len(project.Tracks),
			"placements", len(project.Placements),
		)
	}

	// past this point the current project is replaced, so a caller that
	// has gone away must stop here
	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("import aborted: %w", err)
		i.host.SetStatus("Import cancelled.")
		i.finish(ctx, rec, catalog.ImportStatusFailed, Result{}, err, logger)
		metrics.RecordImport(catalog.ImportStatusFailed, timer.Duration())
		return nil, err
	}

	i.host.NewProject()
	i.host.SetStatus("Importing media files...")

	label := fmt.Sprintf("Import VideoPad Project '%s'", filepath.Base(path))
	err = i.host.PerformEdit(label, func(dst Destination) error {
		res, err := i.engine.Populate(context.WithoutCancel(ctx), project, dst)
		out.Result = res
		return err
	})
	if err != nil {
		err = fmt.Errorf("import failed: %w", err)
		i.host.SetStatus("Import failed.")
		i.finish(ctx, rec, catalog.ImportStatusFailed, out.Result, err, logger)
		metrics.RecordImport(catalog.ImportStatusFailed, timer.Duration())
		return nil, err
	}

	out.Summary = Summarize(out.Result)
	if out.Summary.Message != "" {
		i.host.Warn(missingFilesTitle, out.Summary.Message)
	}
	i.host.SetStatus(out.Summary.Status)

	i.finish(ctx, rec, catalog.ImportStatusCompleted, out.Result, nil, logger)
	metrics.RecordImport(catalog.ImportStatusCompleted, timer.Duration())
	return out, nil
}

// load parses path and applies the all-or-nothing gate: an import needs
// both media and placements.
func (i *Importer) load(path string) (*vpj.Project, error) {
	project, err := i.parser.ParseFile(path)
	switch {
	case errors.Is(err, vpj.ErrNoContent):
		return nil, fmt.Errorf("%w: %w", ErrNothingToImport, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if len(project.Media) == 0 || len(project.Placements) == 0 {
		return nil, ErrNothingToImport
	}
	return project, nil
}

func importErrorMessage(err error) string {
	if errors.Is(err, ErrUnreadable) {
		return fmt.Sprintf("Failed to read the VideoPad project file: %v", err)
	}
	return "Failed to parse the VideoPad project file or no media/timeline clips were found. See the log for details."
}

func (i *Importer) begin(ctx context.Context, out *Outcome, logger *slog.Logger) *catalog.ImportRecord {
	if i.recorder == nil {
		return nil
	}
	now := time.Now()
	rec := &catalog.ImportRecord{
		ID:          out.ID,
		ProjectPath: out.ProjectPath,
		Status:      catalog.ImportStatusRunning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := i.recorder.CreateImport(ctx, rec); err != nil {
		if logger != nil {
			logger.Warn("failed to record import", "error", err)
		}
		return nil
	}
	return rec
}

func (i *Importer) finish(ctx context.Context, rec *catalog.ImportRecord, status string, res Result, runErr error, logger *slog.Logger) {
	if logger != nil {
		if runErr != nil {
			logger.Error("import failed", "error", runErr)
		} else {
			logger.Info("import completed", "clips_created", res.ClipsCreated)
		}
	}
	if rec == nil {
		return
	}

	rec.Status = status
	rec.ClipsCreated = res.ClipsCreated
	rec.Discarded = res.Discarded()
	rec.MissingFiles = len(res.Missing)
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	rec.UpdatedAt = time.Now()

	// the edit is done; a cancelled caller must not lose the history row
	if err := i.recorder.FinishImport(context.WithoutCancel(ctx), rec); err != nil && logger != nil {
		logger.Warn("failed to record import result", "error", err)
	}
}
