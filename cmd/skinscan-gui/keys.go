package main

import (
	"errors"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/oukeidos/skinscan/internal/auth"
	"github.com/oukeidos/skinscan/internal/reconcile"
)

var saveKey = auth.SaveKey

// saveKeyToKeychain stores a trimmed, non-empty key.
func saveKeyToKeychain(svc auth.Service, key string, saveFn func(auth.Service, string) error) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("key is empty")
	}
	return saveFn(svc, key)
}

func (a *guiApp) createKeyView() fyne.CanvasObject {
	input := widget.NewPasswordEntry()
	input.SetPlaceHolder("Backend key")

	title := widget.NewLabelWithStyle("Set backend key", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	backToCapture := func() {
		input.SetText("")
		a.show(reconcile.RouteCapture)
	}
	saveBtn := widget.NewButton("Save", func() {
		if err := saveKeyToKeychain(auth.ServiceBackend, input.Text, saveKey); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		backToCapture()
	})
	saveBtn.Importance = widget.HighImportance

	onceBtn := widget.NewButton("Use once", func() {
		key := strings.TrimSpace(input.Text)
		if key == "" {
			return
		}
		a.sessionKey = key
		backToCapture()
	})

	card := container.NewVBox(title, input, container.NewGridWithColumns(2, saveBtn, onceBtn))
	return container.NewCenter(container.NewPadded(container.NewGridWrap(fyne.NewSize(380, 160), card)))
}
