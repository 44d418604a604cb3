package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// Preview is a window with one tab per rendered canvas.
type Preview struct {
	app     fyne.App
	window  fyne.Window
	gallery *Gallery

	tabBar *container.AppTabs
	status *widget.Label
}

// NewPreview creates the preview window for frames on app.
func NewPreview(a fyne.App, title string, frames []Frame) *Preview {
	w := a.NewWindow(title)
	w.Resize(fyne.NewSize(800, 600))

	p := &Preview{
		app:     a,
		window:  w,
		gallery: NewGallery(frames),
	}
	p.setupUI()
	p.setupKeyboardShortcuts()
	return p
}

// setupUI builds the tab bar and status line.
func (p *Preview) setupUI() {
	p.tabBar = container.NewAppTabs()
	p.tabBar.SetTabLocation(container.TabLocationTop)
	for _, f := range p.gallery.Frames {
		p.tabBar.Append(newFrameTab(f))
	}
	p.tabBar.OnSelected = func(item *container.TabItem) {
		p.gallery.Select(p.tabIndex(item))
		p.updateStatus()
	}

	p.status = widget.NewLabel("")
	var content fyne.CanvasObject = p.tabBar
	if len(p.gallery.Frames) == 0 {
		placeholder := widget.NewLabel("No canvases were drawn")
		placeholder.Alignment = fyne.TextAlignCenter
		content = container.NewCenter(placeholder)
	}

	p.window.SetContent(container.NewBorder(nil, p.status, nil, nil, content))
	p.updateStatus()
}

func newFrameTab(f Frame) *container.TabItem {
	img := canvas.NewImageFromImage(f.Image)
	img.FillMode = canvas.ImageFillOriginal
	img.ScaleMode = canvas.ImageScalePixels
	return container.NewTabItem(f.Name, container.NewScroll(img))
}

func (p *Preview) tabIndex(item *container.TabItem) int {
	for i, it := range p.tabBar.Items {
		if it == item {
			return i
		}
	}
	return -1
}

// setupKeyboardShortcuts binds tab navigation keys.
func (p *Preview) setupKeyboardShortcuts() {
	// Ctrl+W: close tab
	p.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyW,
		Modifier: fyne.KeyModifierControl,
	}, func(_ fyne.Shortcut) {
		p.CloseActive()
	})

	// Ctrl+Right / Ctrl+Left: next and previous tab
	p.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyRight,
		Modifier: fyne.KeyModifierControl,
	}, func(_ fyne.Shortcut) {
		p.gallery.Next()
		p.syncSelection()
	})
	p.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyLeft,
		Modifier: fyne.KeyModifierControl,
	}, func(_ fyne.Shortcut) {
		p.gallery.Prev()
		p.syncSelection()
	})
}

// CloseActive removes the active tab.
func (p *Preview) CloseActive() {
	i := p.gallery.Active
	if i < 0 {
		return
	}
	p.gallery.Close(i)
	p.tabBar.RemoveIndex(i)
	p.syncSelection()
}

func (p *Preview) syncSelection() {
	if p.gallery.Active >= 0 && p.gallery.Active < len(p.tabBar.Items) {
		p.tabBar.SelectIndex(p.gallery.Active)
	}
	p.updateStatus()
}

func (p *Preview) updateStatus() {
	if f := p.gallery.ActiveFrame(); f != nil {
		p.status.SetText(f.Title())
		return
	}
	p.status.SetText("")
}

// Gallery returns the preview state.
func (p *Preview) Gallery() *Gallery {
	return p.gallery
}

// Window returns the preview window.
func (p *Preview) Window() fyne.Window {
	return p.window
}

// Run shows the window and blocks until it is closed.
func (p *Preview) Run() {
	p.window.ShowAndRun()
}
