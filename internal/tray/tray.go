// Package tray provides the system tray interface for the Mohini
// capture daemon.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(paused bool)
	onQuit   func()
	paused   bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastCapture *systray.MenuItem
}

// New creates a new Tray instance with the preview running by default.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback function to be called when the preview is
// paused or resumed from the menu.
func (t *Tray) OnToggle(fn func(paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
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
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	// Set the tray title and tooltip
	systray.SetTitle("Mohini")
	systray.SetTooltip("Mohini Camera Capture")

	// Create menu items
	t.menuToggle = systray.AddMenuItem("● Preview running", "Pause or resume the camera preview")
	systray.AddSeparator()

	t.menuLastCapture = systray.AddMenuItem("Last capture: none", "Most recent photo or recording")
	t.menuLastCapture.Disable()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mohini")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handleToggle handles the pause/resume menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.paused = !t.paused
	paused := t.paused

	// Update menu item text based on new state
	if paused {
		t.menuToggle.SetTitle("○ Preview paused")
	} else {
		t.menuToggle.SetTitle("● Preview running")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(paused)
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastCapture updates the last capture display in the menu.
func (t *Tray) SetLastCapture(path string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastCapture != nil {
		if path == "" {
			t.menuLastCapture.SetTitle("Last capture: none")
		} else {
			t.menuLastCapture.SetTitle("Last capture: " + path)
		}
	}
}

// IsPaused returns whether the preview was paused from the menu.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}
