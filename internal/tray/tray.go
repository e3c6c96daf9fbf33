// Package tray provides a system tray menu that mirrors the overlay state.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/interaction"
)

// Tray represents the system tray application.
type Tray struct {
	onCamera  func(on bool)
	onOpen    func()
	onDataDir func()
	onQuit    func()

	mu     sync.RWMutex
	camera bool
	view   interaction.View
	last   string

	// Menu items stored for later updates
	menuCamera *systray.MenuItem
	menuStatus *systray.MenuItem
	menuRec    *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a new Tray showing the initial overlay state.
func New() *Tray {
	return &Tray{view: interaction.New().View()}
}

// OnCamera sets the callback for the camera menu item. It receives the
// requested state.
func (t *Tray) OnCamera(fn func(on bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCamera = fn
}

// OnOpen sets the callback for the open overlay menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnDataDir sets the callback for the open artifacts folder menu item.
func (t *Tray) OnDataDir(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDataDir = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit ends Run from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// Watch applies notifications until ch is closed.
func (t *Tray) Watch(ch <-chan app.Notification) {
	for n := range ch {
		t.Apply(n)
	}
}

// Apply updates the tray state and menu from one notification.
func (t *Tray) Apply(n app.Notification) {
	t.mu.Lock()
	switch n.Kind {
	case app.NotifyView:
		t.view = n.View
	case app.NotifyCamera:
		t.camera = n.Camera
	case app.NotifyArtifact:
		if n.Artifact != nil {
			t.last = n.Artifact.Filename
		}
	}
	t.mu.Unlock()
	t.refresh()
}

// Camera reports whether the tray shows the camera as running.
func (t *Tray) Camera() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.camera
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Abhinaya")
	systray.SetTooltip("Abhinaya gesture overlay")

	t.mu.Lock()
	t.menuCamera = systray.AddMenuItem(cameraTitle(false), "Start or stop the server camera")
	systray.AddSeparator()
	t.menuStatus = systray.AddMenuItem(statusTitle(t.view), "Current zoom and mood")
	t.menuStatus.Disable()
	t.menuRec = systray.AddMenuItem(recordingTitle(false), "Recording state")
	t.menuRec.Disable()
	t.menuLast = systray.AddMenuItem(lastTitle(""), "Last saved artifact")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Overlay...", "Open the overlay in a browser")
	menuData := systray.AddMenuItem("Open Artifacts Folder", "Show saved snapshots and recordings")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Abhinaya")

	t.refresh()

	go func() {
		for {
			select {
			case <-t.menuCamera.ClickedCh:
				t.handleCamera()
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuData.ClickedCh:
				t.call(func() func() { return t.onDataDir })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

// handleCamera asks for the opposite of the current camera state. The
// menu changes once the app reports the new state.
func (t *Tray) handleCamera() {
	t.mu.RLock()
	want := !t.camera
	callback := t.onCamera
	t.mu.RUnlock()

	if callback != nil {
		callback(want)
	}
}

// call runs the callback returned by get outside the lock.
func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) refresh() {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuCamera == nil {
		return
	}
	t.menuCamera.SetTitle(cameraTitle(t.camera))
	t.menuStatus.SetTitle(statusTitle(t.view))
	t.menuRec.SetTitle(recordingTitle(t.view.Recording))
	t.menuLast.SetTitle(lastTitle(t.last))
}

func cameraTitle(on bool) string {
	if on {
		return "● Camera on"
	}
	return "○ Camera off"
}

func statusTitle(v interaction.View) string {
	return fmt.Sprintf("Zoom %s  %s", v.ZoomText, v.EmotionLabel)
}

func recordingTitle(on bool) string {
	if on {
		return "● Recording"
	}
	return "Not recording"
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}
