package main

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"

	"github.com/oukeidos/skinscan/internal/config"
	"github.com/oukeidos/skinscan/internal/logger"
)

// largeTheme increases the base text size globally.
type largeTheme struct{ fyne.Theme }

func (m largeTheme) Size(n fyne.ThemeSizeName) float32 {
	if n == theme.SizeNameText {
		return 18
	}
	if n == theme.SizeNameCaptionText {
		return 14
	}
	return theme.DefaultTheme().Size(n)
}

func main() {
	logger.Init(logger.LevelInfo, nil)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Unrecovered GUI panic", "scope", "main", "panic", fmt.Sprint(r))
			os.Exit(1)
		}
	}()

	cfg, err := config.Load("")
	if err != nil {
		logger.Error("Config not loaded; using defaults", "error", err)
		cfg = config.Defaults()
	}
	for _, note := range cfg.Normalize() {
		logger.Warn("Config adjusted", "note", note)
	}
	logger.Init(logger.ParseLevel(cfg.LogLevel), nil)

	myApp := app.NewWithID("com.skinscan.app")
	myApp.Settings().SetTheme(largeTheme{Theme: theme.DefaultTheme()})

	w := myApp.NewWindow("skinscan")
	w.SetMaster()
	w.Resize(fyne.NewSize(520, 620))
	w.CenterOnScreen()

	ga := newGUIApp(w, cfg)
	w.SetCloseIntercept(func() {
		ga.leaveLoading("window closed")
		w.SetCloseIntercept(nil)
		w.Close()
	})

	w.ShowAndRun()
}
