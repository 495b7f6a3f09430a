package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
)

// dialogPrompter shows editor questions as window dialogs. Confirm blocks
// until the user answers, so it must be called off the UI goroutine.
type dialogPrompter struct {
	win fyne.Window
}

func (p *dialogPrompter) Confirm(title, message string) bool {
	answer := make(chan bool, 1)
	fyne.Do(func() {
		dialog.ShowConfirm(title, message, func(ok bool) { answer <- ok }, p.win)
	})
	return <-answer
}

func (p *dialogPrompter) Warn(title, message string) {
	fyne.Do(func() {
		dialog.ShowInformation(title, message, p.win)
	})
}
