package media

import "testing"

func TestPlatformLifecycle(t *testing.T) {
	t.Run("startup and shutdown balance", func(t *testing.T) {
		if PlatformStarted() {
			t.Fatal("platform should not be started initially")
		}

		if err := Startup(); err != nil {
			t.Fatalf("Startup failed: %v", err)
		}
		if !PlatformStarted() {
			t.Error("platform should be started after Startup")
		}

		Shutdown()
		if PlatformStarted() {
			t.Error("platform should be stopped after balanced Shutdown")
		}
	})

	t.Run("nested references keep platform alive", func(t *testing.T) {
		if err := Startup(); err != nil {
			t.Fatalf("first Startup failed: %v", err)
		}
		if err := Startup(); err != nil {
			t.Fatalf("second Startup failed: %v", err)
		}

		Shutdown()
		if !PlatformStarted() {
			t.Error("platform should stay started while a reference remains")
		}

		Shutdown()
		if PlatformStarted() {
			t.Error("platform should stop after the last reference is released")
		}
	})

	t.Run("unbalanced shutdown is ignored", func(t *testing.T) {
		Shutdown()
		if PlatformStarted() {
			t.Error("unbalanced Shutdown should not start the platform")
		}

		if err := Startup(); err != nil {
			t.Fatalf("Startup failed: %v", err)
		}
		if !PlatformStarted() {
			t.Error("platform should start normally after unbalanced Shutdown")
		}
		Shutdown()
	})
}
