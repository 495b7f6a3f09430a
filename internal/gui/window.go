// Package gui runs the editor's desktop window: the File menu entries for
// importing, opening and saving projects, a clip list and a status line.
package gui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize/english"

	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/importer"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

const appID = "co.heimdex.editor"

type Window struct {
	ctx      context.Context
	editor   *editor.Editor
	importer *importer.Importer
	logger   *slog.Logger

	app     fyne.App
	win     fyne.Window
	status  *widget.Label
	summary *widget.Label
	list    *widget.List

	mu   sync.Mutex
	rows []string
}

type Config struct {
	Editor   *editor.Editor
	Importer *importer.Importer
	Logger   *slog.Logger
	Version  string
	Icon     []byte
	OnQuit   func()
}

// New builds the window and installs it as the editor's prompter. The
// window is shown by Run.
func New(ctx context.Context, cfg Config) *Window {
	a := app.NewWithID(appID)
	if len(cfg.Icon) > 0 {
		a.SetIcon(fyne.NewStaticResource("icon.png", cfg.Icon))
	}

	w := &Window{
		ctx:      ctx,
		editor:   cfg.Editor,
		importer: cfg.Importer,
		logger:   cfg.Logger,
		app:      a,
		win:      a.NewWindow(fmt.Sprintf("Heimdex Editor %s", cfg.Version)),
		status:   widget.NewLabel("Ready"),
		summary:  widget.NewLabel(summaryText(0, 0)),
	}
	w.win.Resize(fyne.NewSize(760, 480))

	w.list = widget.NewList(
		func() int {
			w.mu.Lock()
			defer w.mu.Unlock()
			return len(w.rows)
		},
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			w.mu.Lock()
			defer w.mu.Unlock()
			if id < len(w.rows) {
				o.(*widget.Label).SetText(w.rows[id])
			}
		},
	)

	w.win.SetMainMenu(w.menu())
	w.win.SetContent(container.NewBorder(w.summary, w.status, nil, nil, w.list))
	if cfg.OnQuit != nil {
		w.win.SetOnClosed(cfg.OnQuit)
	}

	cfg.Editor.SetPrompter(&dialogPrompter{win: w.win})
	cfg.Editor.OnStatus(func(msg string) {
		fyne.Do(func() { w.status.SetText(msg) })
	})
	cfg.Editor.OnChange(w.refresh)

	return w
}

// Run shows the window and blocks until it is closed. It must be called
// from the main goroutine.
func (w *Window) Run() {
	w.win.ShowAndRun()
}

func (w *Window) Quit() {
	fyne.Do(w.app.Quit)
}

func (w *Window) menu() *fyne.MainMenu {
	file := fyne.NewMenu("File",
		fyne.NewMenuItem("New Project", func() { go w.newProject() }),
		fyne.NewMenuItem("Open Project...", w.showOpen),
		fyne.NewMenuItem("Save Project As...", w.showSave),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import VideoPad Project...", w.showImport),
	)
	edit := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", func() { w.editor.Undo() }),
		fyne.NewMenuItem("Redo", func() { w.editor.Redo() }),
	)
	return fyne.NewMainMenu(file, edit)
}

func (w *Window) showImport() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		// the import may prompt, which blocks until the dialog is answered
		go w.runImport(path)
	}, w.win)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".vpj"}))
	fd.Show()
}

func (w *Window) runImport(path string) {
	out, err := w.importer.Run(w.ctx, path)
	if err != nil {
		w.logger.Info("import did not complete", "path", path, "error", err)
		return
	}
	w.logger.Info("import finished from window", "import_id", out.ID, "clips", out.Result.ClipsCreated)
}

func (w *Window) newProject() {
	if w.editor.HasContent() && !w.editor.Confirm("New Project", "This will clear your current project. Are you sure you want to continue?") {
		return
	}
	w.editor.NewProject()
}

func (w *Window) showOpen() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		go func() {
			if err := w.editor.OpenProject(w.ctx, path); err != nil {
				w.editor.Warn("Open Error", fmt.Sprintf("Failed to open %s: %v", filepath.Base(path), err))
			}
		}()
	}, w.win)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	fd.Show()
}

func (w *Window) showSave() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if filepath.Ext(path) == "" {
			path += ".json"
		}
		go func() {
			if err := w.editor.SaveProject(path); err != nil {
				w.editor.Warn("Save Error", err.Error())
			}
		}()
	}, w.win)
	fd.SetFileName("project.json")
	fd.Show()
}

// refresh rebuilds the clip rows from the editor's timeline. It runs on
// whatever goroutine committed the change.
func (w *Window) refresh() {
	snap := w.editor.Timeline()
	rows := make([]string, len(snap.Clips))
	for i, c := range snap.Clips {
		rows[i] = clipRow(c)
	}
	total := w.editor.TotalDurationMs()

	w.mu.Lock()
	w.rows = rows
	w.mu.Unlock()

	fyne.Do(func() {
		w.summary.SetText(summaryText(len(rows), total))
		w.list.Refresh()
	})
}

func clipRow(c timeline.Clip) string {
	track := "V"
	if c.TrackType == timeline.TrackAudio {
		track = "A"
	}
	return fmt.Sprintf("%s%d  %s  %s  %s",
		track, c.TrackIndex,
		formatMs(c.TimelineStartMs),
		formatMs(c.DurationMs),
		filepath.Base(c.SourcePath))
}

func summaryText(clips int, totalMs int64) string {
	return fmt.Sprintf("%s, %s", english.Plural(clips, "clip", ""), formatMs(totalMs))
}

// formatMs renders a millisecond count as m:ss.mmm, or h:mm:ss.mmm from
// one hour up.
func formatMs(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := ms / 60000 % 60
	s := ms / 1000 % 60
	frac := ms % 1000
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, frac)
	}
	return fmt.Sprintf("%d:%02d.%03d", m, s, frac)
}
