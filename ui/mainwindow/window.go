// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/rs/zerolog/log"

	"image-compare/internal/app"
	"image-compare/internal/curtain"
	"image-compare/internal/diff"
	"image-compare/internal/layout"
	"image-compare/internal/metrics"
	"image-compare/internal/surface"
	"image-compare/internal/version"
	"image-compare/internal/viewsync"
	"image-compare/pkg/geometry"
	"image-compare/ui/canvas"
	"image-compare/ui/prefs"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	scheduler *metrics.Scheduler

	// Grid state
	group *viewsync.Group
	views []*canvas.ImageView

	// Widgets
	content      *fyne.Container
	statusBar    *widget.Label
	metricsLabel *widget.Label
	layoutSelect *widget.Select
	curtainCheck *widget.Check
	diffCheck    *widget.Check
	metricsCheck *widget.Check
	thresholdBox *widget.Slider

	stopCh chan struct{}
}

// New creates the main window.
func New(fyneApp fyne.App, state *app.State, scheduler *metrics.Scheduler, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Image Compare")

	mw := &MainWindow{
		Window:    win,
		app:       fyneApp,
		state:     state,
		prefs:     p,
		scheduler: scheduler,
		stopCh:    make(chan struct{}),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupDragAndDrop()
	go mw.drainMetricsEvents()

	win.Resize(fyne.NewSize(
		float32(p.Int(prefs.KeyWindowWidth, 1200)),
		float32(p.Int(prefs.KeyWindowHeight, 800)),
	))
	win.SetOnClosed(mw.onClosed)
	return mw
}

// setupUI creates the main layout: toolbar, panel area, status bar.
func (mw *MainWindow) setupUI() {
	mw.statusBar = widget.NewLabel("Ready")
	mw.metricsLabel = widget.NewLabel("")
	mw.content = container.NewStack()

	mw.state.SetDiffThreshold(mw.prefs.Float(prefs.KeyDiffThreshold, app.DefaultDiffThreshold))

	toolbar := mw.createToolbar()
	statusArea := container.NewBorder(nil, nil, nil, mw.metricsLabel, mw.statusBar)

	root := container.NewBorder(
		toolbar,
		container.NewPadded(statusArea),
		nil,
		nil,
		mw.content,
	)
	mw.SetContent(root)
	mw.rebuildPanels()
}

// createToolbar builds the top control strip.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	addBtn := widget.NewButton("+", mw.onAddImage)
	removeBtn := widget.NewButton("-", mw.onRemoveImage)
	resetBtn := widget.NewButton("Reset View", mw.onResetView)

	mw.layoutSelect = widget.NewSelect(nil, func(label string) {
		for _, o := range layout.Options(len(mw.state.Images())) {
			if o.Label() == label {
				mw.state.SetArrangement(o)
				return
			}
		}
	})
	mw.layoutSelect.PlaceHolder = "Layout"

	mw.curtainCheck = widget.NewCheck("Curtain", mw.onCurtainToggled)
	mw.diffCheck = widget.NewCheck("Difference", mw.onDiffToggled)
	mw.diffCheck.Disable()

	mw.metricsCheck = widget.NewCheck("Metrics", func(on bool) {
		mw.state.SetMetricsEnabled(on)
		mw.prefs.SetBool(prefs.KeyMetricsEnabled, on)
	})

	mw.thresholdBox = widget.NewSlider(0, 1)
	mw.thresholdBox.Step = 0.01
	mw.thresholdBox.Value = mw.state.DiffThreshold()
	mw.thresholdBox.OnChanged = func(v float64) {
		mw.state.SetDiffThreshold(v)
		mw.prefs.SetFloat(prefs.KeyDiffThreshold, v)
	}
	thresholdArea := container.NewBorder(nil, nil, widget.NewLabel("Sensitivity:"), nil, mw.thresholdBox)
	thresholdArea.Resize(fyne.NewSize(220, thresholdArea.MinSize().Height))

	return container.NewBorder(nil, nil,
		container.NewHBox(
			addBtn,
			removeBtn,
			widget.NewSeparator(),
			widget.NewLabel("Layout:"),
			mw.layoutSelect,
			mw.curtainCheck,
			mw.diffCheck,
			mw.metricsCheck,
			resetBtn,
		),
		nil,
		thresholdArea,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Add Images...", mw.onAddImage),
		fyne.NewMenuItem("Remove Last Image", mw.onRemoveImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export View...", mw.onExportView),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Reset View", mw.onResetView),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Curtain Mode", func() {
			mw.curtainCheck.SetChecked(!mw.curtainCheck.Checked)
		}),
		fyne.NewMenuItem("Difference Overlay", func() {
			if !mw.diffCheck.Disabled() {
				mw.diffCheck.SetChecked(!mw.diffCheck.Checked)
			}
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventImagesChanged, func(data interface{}) {
		mw.updateLayoutOptions()
		mw.rebuildPanels()
		if images, ok := data.([]*app.Image); ok {
			mw.updateStatus(fmt.Sprintf("%d image(s) loaded", len(images)))
		}
	})

	mw.state.On(app.EventModeChanged, func(interface{}) {
		mw.syncModeControls()
		mw.rebuildPanels()
	})

	mw.state.On(app.EventLayoutChanged, func(interface{}) {
		mw.rebuildPanels()
	})

	mw.state.On(app.EventThresholdChanged, func(interface{}) {
		mw.refreshPanels()
	})
}

// setupDragAndDrop accepts image files dropped onto the window.
func (mw *MainWindow) setupDragAndDrop() {
	mw.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		for _, uri := range uris {
			path := uri.Path()
			if !surface.IsSupportedFormat(path) {
				mw.updateStatus("Unsupported file: " + filepath.Base(path))
				continue
			}
			if err := mw.state.AddImage(path); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("dropped file rejected")
				mw.updateStatus("Could not load " + filepath.Base(path))
			}
		}
	})
}

// rebuildPanels replaces the center content for the active mode.
func (mw *MainWindow) rebuildPanels() {
	if mw.group != nil {
		mw.group.Close()
		mw.group = nil
	}
	mw.views = nil

	switch mode := mw.state.Mode().(type) {
	case *app.CurtainMode:
		view := canvas.NewCurtainView(mode)
		view.Threshold = mw.state.DiffThreshold
		view.ZoomStep = mw.prefs.Float(prefs.KeyZoomStep, canvas.DefaultZoomStep)
		mw.content.Objects = []fyne.CanvasObject{view}

	default:
		mw.content.Objects = []fyne.CanvasObject{mw.buildGrid()}
	}
	mw.content.Refresh()
}

// buildGrid lays the loaded images out per the current arrangement, all
// panels joined into one sync group.
func (mw *MainWindow) buildGrid() fyne.CanvasObject {
	images := mw.state.Images()
	if len(images) == 0 {
		return container.NewCenter(widget.NewLabel("Drop images here or use + to add them"))
	}

	arrangement := layout.Default(len(images))
	if grid, ok := mw.state.Mode().(app.GridMode); ok {
		arrangement = grid.Arrangement
	}

	mw.group = viewsync.NewGroup()
	zoomStep := mw.prefs.Float(prefs.KeyZoomStep, canvas.DefaultZoomStep)
	objects := make([]fyne.CanvasObject, 0, len(images))
	for _, img := range images {
		view := canvas.NewImageView(img.Surface)
		view.ZoomStep = zoomStep
		if err := mw.group.AddMember(view.Viewport()); err != nil {
			log.Error().Err(err).Msg("sync group membership failed")
		} else {
			view.SetGroup(mw.group)
		}
		view.OnViewChanged = mw.refreshPanels
		mw.views = append(mw.views, view)

		label := widget.NewLabel(filepath.Base(img.Path))
		label.Alignment = fyne.TextAlignCenter
		label.Truncation = fyne.TextTruncateEllipsis
		objects = append(objects, container.NewBorder(nil, label, nil, nil, view))
	}

	cols := arrangement.Cols
	if cols < 1 {
		cols = 1
	}
	return container.NewGridWithColumns(cols, objects...)
}

// refreshPanels repaints every grid panel after a sync broadcast.
func (mw *MainWindow) refreshPanels() {
	for _, v := range mw.views {
		v.Refresh()
	}
	mw.content.Refresh()
}

// updateLayoutOptions refills the layout selector for the current panel
// count and defaults to the horizontal arrangement.
func (mw *MainWindow) updateLayoutOptions() {
	options := layout.Options(len(mw.state.Images()))
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = o.Label()
	}
	mw.layoutSelect.Options = labels
	if len(mw.state.Images()) > 0 {
		mw.layoutSelect.SetSelected(layout.Default(len(mw.state.Images())).Label())
	} else {
		mw.layoutSelect.ClearSelected()
	}
}

// syncModeControls aligns the curtain and diff toggles with the mode.
func (mw *MainWindow) syncModeControls() {
	mode, inCurtain := mw.state.Mode().(*app.CurtainMode)
	if inCurtain {
		mw.diffCheck.Enable()
		mw.diffCheck.SetChecked(mode.ShowDiff)
	} else {
		if mw.curtainCheck.Checked {
			mw.curtainCheck.SetChecked(false)
		}
		mw.diffCheck.SetChecked(false)
		mw.diffCheck.Disable()
	}
}

func (mw *MainWindow) onCurtainToggled(on bool) {
	if !on {
		mw.state.ExitCurtain()
		return
	}

	size := mw.Canvas().Size()
	err := mw.state.EnterCurtain(geometry.NewSize(float64(size.Width), float64(size.Height)))
	if err != nil {
		mw.updateStatus("Curtain mode needs exactly two images")
		mw.curtainCheck.SetChecked(false)
	}
}

func (mw *MainWindow) onDiffToggled(on bool) {
	mode, ok := mw.state.Mode().(*app.CurtainMode)
	if !ok {
		return
	}
	mode.ShowDiff = on
	if on {
		if res, err := mode.DiffResult(mw.state.DiffThreshold()); err == nil {
			stats := diff.Summarize(res)
			mw.updateStatus(fmt.Sprintf("%.2f%% different (%d px, %d anti-aliased)",
				stats.DiffPercentage, stats.DifferentPixels, stats.AntiAliasedPixels))
		}
	}
	mw.rebuildPanels()
}

func (mw *MainWindow) onAddImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.AddImage(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(surface.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onRemoveImage() {
	mw.state.RemoveLastImage()
}

func (mw *MainWindow) onResetView() {
	switch mode := mw.state.Mode().(type) {
	case *app.CurtainMode:
		mode.Curtain.Viewport.Reset()
		mw.refreshPanels()
	default:
		for _, v := range mw.views {
			v.ResetView()
			break // one broadcast resets the whole group
		}
	}
}

// onExportView saves the current comparison as a PNG: the curtain or
// overlay frame in curtain mode, the stitched panel grid otherwise.
func (mw *MainWindow) onExportView() {
	frame := mw.renderComposite()
	if frame == nil {
		mw.updateStatus("Nothing to export")
		return
	}

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if filepath.Ext(path) != ".png" {
			path += ".png"
		}
		mw.saveLastDir(path)

		f, err := os.Create(path)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		defer f.Close()
		if err := png.Encode(f, frame); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		log.Info().Str("path", path).Msg("comparison exported")
		mw.updateStatus("Exported " + filepath.Base(path))
	}, mw.Window)
	fd.SetFileName("comparison.png")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// renderComposite renders the active view into a standalone frame.
func (mw *MainWindow) renderComposite() *image.RGBA {
	switch mode := mw.state.Mode().(type) {
	case *app.CurtainMode:
		if mode.ShowDiff {
			overlay, err := mode.OverlaySurface(mw.state.DiffThreshold())
			if err == nil {
				if frame, err := curtain.RenderSingle(overlay, mode.Curtain); err == nil {
					return frame
				}
			}
			log.Error().Err(err).Msg("overlay export failed")
			return nil
		}
		frame, err := curtain.Render(mode.Left, mode.Right, mode.Curtain)
		if err != nil {
			log.Error().Err(err).Msg("curtain export failed")
			return nil
		}
		return frame

	default:
		images := mw.state.Images()
		if len(images) == 0 || len(mw.views) != len(images) {
			return nil
		}
		arrangement := layout.Default(len(images))
		if grid, ok := mw.state.Mode().(app.GridMode); ok {
			arrangement = grid.Arrangement
		}

		// Uniform cells sized to the largest live panel.
		cellW, cellH := 1, 1
		for _, v := range mw.views {
			size := v.Viewport().ViewSize()
			if int(size.Width) > cellW {
				cellW = int(size.Width)
			}
			if int(size.Height) > cellH {
				cellH = int(size.Height)
			}
		}

		out := image.NewRGBA(image.Rect(0, 0, cellW*arrangement.Cols, cellH*arrangement.Rows))
		for i, img := range images {
			row, col := arrangement.CellOf(i)
			cell := canvas.RenderSurface(img.Surface, mw.views[i].Viewport(), cellW, cellH)
			target := image.Rect(col*cellW, row*cellH, (col+1)*cellW, (row+1)*cellH)
			draw.Draw(out, target, cell, image.Point{}, draw.Src)
		}
		return out
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Image Compare",
		fmt.Sprintf("Image Compare v%s\n\n"+
			"Side-by-side and curtain image comparison with\n"+
			"perceptual difference overlay and quality metrics.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

func (mw *MainWindow) onClosed() {
	close(mw.stopCh)
	mw.scheduler.Stop()

	size := mw.Canvas().Size()
	mw.prefs.SetInt(prefs.KeyWindowWidth, int(size.Width))
	mw.prefs.SetInt(prefs.KeyWindowHeight, int(size.Height))
	if err := mw.prefs.Save(); err != nil {
		log.Warn().Err(err).Msg("saving preferences failed")
	}
}

// drainMetricsEvents keeps the metrics label current with the background
// run, reporting rows as they complete. Events from a superseded run may
// still be buffered; anything from a stale generation is dropped unseen.
func (mw *MainWindow) drainMetricsEvents() {
	for {
		select {
		case <-mw.stopCh:
			return
		case ev := <-mw.scheduler.Events():
			if ev.Generation != mw.scheduler.Generation() {
				continue
			}
			if ev.Done {
				mw.metricsLabel.SetText(fmt.Sprintf("Metrics complete (%d images)", ev.Total))
				continue
			}
			if ev.Row.Err != nil {
				mw.metricsLabel.SetText(fmt.Sprintf("%s: failed", filepath.Base(ev.Row.Path)))
				continue
			}
			mw.metricsLabel.SetText(fmt.Sprintf("[%d/%d] %s  PSNR %s  SSIM %s  LPIPS %s",
				ev.Index+1, ev.Total, filepath.Base(ev.Row.Path),
				ev.Row.Scores.PSNR, ev.Row.Scores.SSIM, ev.Row.Scores.LPIPS))
		}
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDirectory)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDirectory, filepath.Dir(filePath))
}
