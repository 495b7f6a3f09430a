package ui

import _ "embed"

//go:embed icon.png
var iconBytes []byte

// Icon returns the PNG application icon.
func Icon() []byte {
	return iconBytes
}
