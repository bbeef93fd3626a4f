// Package main provides the entry point for the Image Compare application.
package main

import (
	"os"
	"time"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"image-compare/internal/app"
	"image-compare/internal/metrics"
	"image-compare/internal/version"
	"image-compare/ui/mainwindow"
	"image-compare/ui/prefs"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	if os.Getenv("IMGCMP_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Info().Str("version", version.Version).Msg("starting image-compare")

	fyneApp := fyneapp.NewWithID("net.imagecompare.app")
	appPrefs := prefs.Load()

	scheduler := metrics.NewScheduler(&metrics.OpenCVKernel{})
	state := app.NewState(scheduler)

	win := mainwindow.New(fyneApp, state, scheduler, appPrefs)

	// Images named on the command line are loaded at startup.
	for _, path := range os.Args[1:] {
		if err := state.AddImage(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping argument")
		}
	}
	if appPrefs.Bool(prefs.KeyMetricsEnabled, false) {
		state.SetMetricsEnabled(true)
	}

	setupHotReload(win)

	win.ShowAndRun()
}

// setupHotReload offers a restart when a newer binary lands during
// development.
func setupHotReload(win *mainwindow.MainWindow) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Debug().Msg("hot reload disabled: executable path unavailable")
		return
	}

	reloader.OnNewBinary = func() {
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if !restart {
					reloader.ResetBaseline()
					reloader.Start()
					return
				}
				if err := reloader.Restart(); err != nil {
					log.Error().Err(err).Msg("restart failed")
				}
			}, win.Window)
	}
	reloader.Start()
}
