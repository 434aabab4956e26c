// Package watch provides run control via the .weft/control directory.
// Dropping a "stop" file ends the run at the next wave boundary; a
// "pause" file holds new waves until it is removed.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pausePollInterval bounds how long a resume can go unnoticed when the
// watcher missed the removal event.
const pausePollInterval = 200 * time.Millisecond

// Controller tracks stop and pause requests for one workspace.
type Controller struct {
	controlDir string

	mu          sync.RWMutex
	stopSignal  bool
	pauseSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewController creates a controller watching the workspace's
// .weft/control directory. The watcher is best effort: when it cannot be
// started, stat-based polling alone drives the signals.
func NewController(root string) (*Controller, error) {
	controlDir := filepath.Join(root, ".weft", "control")
	if err := os.MkdirAll(controlDir, 0755); err != nil {
		return nil, err
	}

	c := &Controller{
		controlDir: controlDir,
		done:       make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return c, nil
	}
	c.watcher = watcher

	if err := watcher.Add(controlDir); err != nil {
		watcher.Close()
		c.watcher = nil
		return c, nil
	}

	go c.watchControl()

	return c, nil
}

// watchControl monitors the control directory for stop/pause files.
func (c *Controller) watchControl() {
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			created := event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0
			removed := event.Op&fsnotify.Remove != 0 || event.Op&fsnotify.Rename != 0

			c.mu.Lock()
			switch filepath.Base(event.Name) {
			case "stop":
				if created {
					c.stopSignal = true
				}
			case "pause":
				if created {
					c.pauseSignal = true
				} else if removed {
					c.pauseSignal = false
				}
			}
			c.mu.Unlock()
		case <-c.watcher.Errors:
			// Keep watching.
		}
	}
}

// Stopped returns true if a stop has been requested. The stop file is
// also checked directly in case the watcher missed it.
func (c *Controller) Stopped() bool {
	if _, err := os.Stat(filepath.Join(c.controlDir, "stop")); err == nil {
		c.mu.Lock()
		c.stopSignal = true
		c.mu.Unlock()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stopSignal
}

// paused reconciles the pause flag with the file on disk and returns it.
func (c *Controller) paused() bool {
	_, err := os.Stat(filepath.Join(c.controlDir, "pause"))

	c.mu.Lock()
	c.pauseSignal = err == nil
	paused := c.pauseSignal
	c.mu.Unlock()
	return paused
}

// WaitIfPaused blocks while the pause file exists, returning early if the
// context is cancelled or a stop is requested.
func (c *Controller) WaitIfPaused(ctx context.Context) error {
	for c.paused() {
		if c.Stopped() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pausePollInterval):
		}
	}
	return nil
}

// RequestStop creates the stop file.
func (c *Controller) RequestStop() error {
	return os.WriteFile(filepath.Join(c.controlDir, "stop"), []byte(time.Now().Format(time.RFC3339)), 0644)
}

// RequestPause creates the pause file.
func (c *Controller) RequestPause() error {
	return os.WriteFile(filepath.Join(c.controlDir, "pause"), []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Resume removes the pause file.
func (c *Controller) Resume() error {
	err := os.Remove(filepath.Join(c.controlDir, "pause"))
	if os.IsNotExist(err) {
		return nil
	}

	c.mu.Lock()
	c.pauseSignal = false
	c.mu.Unlock()
	return err
}

// Clear removes all control files and resets signal state.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopSignal = false
	c.pauseSignal = false

	os.Remove(filepath.Join(c.controlDir, "stop"))
	os.Remove(filepath.Join(c.controlDir, "pause"))
}

// ControlDir returns the path to the control directory.
func (c *Controller) ControlDir() string {
	return c.controlDir
}

// Close shuts down the controller's watcher.
func (c *Controller) Close() {
	close(c.done)
	if c.watcher != nil {
		c.watcher.Close()
	}
}
