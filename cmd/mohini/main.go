package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ayusman/mohini/internal/config"
	"github.com/ayusman/mohini/internal/host"
	"github.com/ayusman/mohini/internal/media"
	"github.com/ayusman/mohini/internal/server"
	"github.com/ayusman/mohini/internal/store"
	"github.com/ayusman/mohini/internal/tray"
)

// logResult discards call outcomes triggered from the tray, logging
// failures.
type logResult struct {
	op string
}

func (r logResult) Success(value any) {}

func (r logResult) Error(code, message string) {
	log.Printf("%s failed: %s: %s", r.op, code, message)
}

func main() {
	fmt.Println("Mohini - Camera Capture Daemon")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	for _, dir := range []string{cfg.DataDir, cfg.MediaDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	// Initialize the capture index
	dbPath := filepath.Join(cfg.DataDir, "mohini.db")
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	registry := media.NewTextureRegistry()
	pipeline := media.NewWebcamPipeline()

	// Find web directory
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	// Configure the server
	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Registry:  registry,
		Pipeline:  pipeline,
		MediaDir:  cfg.MediaDir,
	})

	channel := srv.Channel()
	t := tray.New()

	// Surface completed timed recordings in the tray menu
	channel.SetEventHook(func(event string, cameraID int64, data map[string]any) {
		if event != host.VideoRecordedEvent {
			return
		}
		if path, ok := data["path"].(string); ok {
			t.SetLastCapture(path)
		}
	})

	// Pause or resume every active preview from the tray menu
	t.OnToggle(func(paused bool) {
		for _, camera := range channel.Cameras() {
			if paused {
				camera.PausePreview(logResult{op: "pausePreview"})
			} else {
				camera.ResumePreview(logResult{op: "resumePreview"})
			}
		}
	})

	t.OnQuit(func() {
		channel.DisposeAll()
	})

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.ServerAddr)
		if err := srv.ListenAndServe(cfg.ServerAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Blocks until quit is selected from the tray menu
	t.Run()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mohini/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mohini", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
