// Package ui runs the editor's system tray front end.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize/english"
	"github.com/getlantern/systray"
)

const maxStatusLen = 48

// Editor is the part of the editor the tray drives.
type Editor interface {
	Undo() (string, bool)
	Redo() (string, bool)
	ClipCount() int
	CanUndo() bool
	CanRedo() bool
	OnStatus(fn func(string))
	OnChange(fn func())
}

type Tray struct {
	editor Editor
	logger *slog.Logger

	statusItem *systray.MenuItem
	clipsItem  *systray.MenuItem
	undoItem   *systray.MenuItem
	redoItem   *systray.MenuItem

	mu    sync.Mutex
	ready bool

	onQuit func()
}

type TrayConfig struct {
	Editor Editor
	Logger *slog.Logger
	OnQuit func()
}

func NewTray(cfg TrayConfig) *Tray {
	t := &Tray{
		editor: cfg.Editor,
		logger: cfg.Logger,
		onQuit: cfg.OnQuit,
	}
	cfg.Editor.OnStatus(t.UpdateStatus)
	cfg.Editor.OnChange(t.refresh)
	return t
}

// Run blocks until the tray quits. It must be called from the main
// goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Heimdex")
	systray.SetTooltip("Heimdex Editor")

	t.mu.Lock()
	t.statusItem = systray.AddMenuItem("Status: Ready", "Last editor status")
	t.statusItem.Disable()

	t.clipsItem = systray.AddMenuItem(clipsTitle(0), "Clips on the timeline")
	t.clipsItem.Disable()

	systray.AddSeparator()

	t.undoItem = systray.AddMenuItem("Undo", "Undo the last edit")
	t.redoItem = systray.AddMenuItem("Redo", "Redo the last undone edit")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Heimdex Editor")
	t.ready = true
	t.mu.Unlock()

	t.refresh()

	go func() {
		for {
			select {
			case <-t.undoItem.ClickedCh:
				if label, ok := t.editor.Undo(); ok {
					t.logger.Info("undo from tray", "edit", label)
				}
			case <-t.redoItem.ClickedCh:
				if label, ok := t.editor.Redo(); ok {
					t.logger.Info("redo from tray", "edit", label)
				}
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

// refresh updates the clip count and the undo and redo items.
func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}

	t.clipsItem.SetTitle(clipsTitle(t.editor.ClipCount()))
	setEnabled(t.undoItem, t.editor.CanUndo())
	setEnabled(t.redoItem, t.editor.CanRedo())
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}
	t.statusItem.SetTitle(statusTitle(status))
}

func (t *Tray) Quit() {
	systray.Quit()
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

func clipsTitle(n int) string {
	return fmt.Sprintf("Timeline: %s", english.Plural(n, "clip", ""))
}

// statusTitle keeps the menu narrow: only the first line of a status is
// shown, cut to maxStatusLen runes.
func statusTitle(status string) string {
	for i, r := range status {
		if r == '\n' {
			status = status[:i]
			break
		}
	}
	runes := []rune(status)
	if len(runes) > maxStatusLen {
		status = string(runes[:maxStatusLen-3]) + "..."
	}
	if status == "" {
		status = "Ready"
	}
	return "Status: " + status
}
