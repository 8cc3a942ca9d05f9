package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/oukeidos/skinscan/internal/progress"
	"github.com/oukeidos/skinscan/internal/reconcile"
	"github.com/oukeidos/skinscan/internal/submission"
)

const noPhoto = "No photo"

func (a *guiApp) createHomeView() fyne.CanvasObject {
	title := widget.NewLabelWithStyle("skinscan", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	intro := widget.NewLabel("Take up to three photos of your face and get a skin analysis with a suggested routine.")
	intro.Wrapping = fyne.TextWrapWord
	intro.Alignment = fyne.TextAlignCenter
	start := widget.NewButton("Start scan", func() { a.push(reconcile.RouteCapture) })
	start.Importance = widget.HighImportance
	return container.NewCenter(container.NewVBox(title, intro, start))
}

func (a *guiApp) createCaptureView() fyne.CanvasObject {
	rows := container.NewVBox()
	for i, slot := range submission.Slots {
		label := widget.NewLabel(noPhoto)
		a.photoLabels[i] = label
		pick := widget.NewButton("Choose "+slot.String(), func() { a.choosePhoto(i) })
		rows.Add(container.NewBorder(nil, nil, pick, nil, label))
	}

	a.analyzeBtn = widget.NewButton("Analyze", func() { a.startAnalysis() })
	a.analyzeBtn.Importance = widget.HighImportance
	a.analyzeBtn.Disable()
	back := widget.NewButton("Back", func() {
		a.safeDo("nav.capture_back", func() {
			a.stack = popToRoute(a.stack, reconcile.RouteHome)
			a.show(reconcile.RouteHome)
		})
	})

	header := widget.NewLabelWithStyle("Photos", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	hint := widget.NewLabel("The front photo is enough; side profiles improve the result.")
	hint.Wrapping = fyne.TextWrapWord
	return container.NewBorder(
		container.NewVBox(header, hint),
		container.NewHBox(back, a.analyzeBtn),
		nil, nil,
		rows,
	)
}

func (a *guiApp) choosePhoto(i int) {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if rc == nil {
			return
		}
		_ = rc.Close()
		a.photos[i] = rc.URI().Path()
		a.photoLabels[i].SetText(rc.URI().Name())
		a.analyzeBtn.Enable()
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".jpg", ".jpeg", ".png", ".webp", ".heic"}))
	d.Show()
}

func (a *guiApp) createLoadingView() fyne.CanvasObject {
	a.progressBar = widget.NewProgressBar()
	a.caption = widget.NewLabelWithStyle(phaseCaption(progress.PhaseIdle), fyne.TextAlignCenter, fyne.TextStyle{})
	return container.NewCenter(container.NewVBox(
		widget.NewLabelWithStyle("Analyzing your skin", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		container.NewGridWrap(fyne.NewSize(360, 36), a.progressBar),
		a.caption,
	))
}

func (a *guiApp) createResultView() fyne.CanvasObject {
	a.resultText = widget.NewLabel("")
	a.resultText.TextStyle = fyne.TextStyle{Monospace: true}
	a.resultText.Wrapping = fyne.TextWrapWord
	done := widget.NewButton("Done", func() { a.ResetTo(reconcile.RouteHome) })
	return container.NewBorder(nil, done, nil, nil, container.NewVScroll(a.resultText))
}

func phaseCaption(p progress.Phase) string {
	switch p {
	case progress.PhaseRampingRandom:
		return "Uploading photos..."
	case progress.PhaseFinalCreep:
		return "Almost there..."
	case progress.PhaseCompleting, progress.PhaseDone:
		return "Done"
	default:
		return "Preparing..."
	}
}

// Choose implements screen.Chooser with one button per choice.
func (a *guiApp) Choose(title, message string, choices []reconcile.Choice, pick func(reconcile.Choice)) {
	a.safeDo("dialog.choose", func() {
		msg := widget.NewLabel(message)
		msg.Wrapping = fyne.TextWrapWord
		buttons := container.NewHBox()
		var d dialog.Dialog
		for _, c := range choices {
			b := widget.NewButton(c.Label, func() {
				d.Hide()
				pick(c)
			})
			if !c.Reset {
				b.Importance = widget.HighImportance
			}
			buttons.Add(b)
		}
		d = dialog.NewCustomWithoutButtons(title, container.NewVBox(msg, container.NewCenter(buttons)), a.window)
		d.Resize(fyne.NewSize(380, 180))
		d.Show()
	})
}
