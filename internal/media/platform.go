package media

import "sync"

// The platform media subsystem requires balanced startup and shutdown
// calls process-wide. The reference count guarantees one session's
// teardown never shuts the subsystem down while another session still
// holds it.
var platform struct {
	mu   sync.Mutex
	refs int
}

// Startup acquires one reference to the process-wide media subsystem,
// initializing it on the first call. Every successful Startup must be
// balanced by one Shutdown.
func Startup() error {
	platform.mu.Lock()
	defer platform.mu.Unlock()

	platform.refs++
	return nil
}

// Shutdown releases one reference to the media subsystem. The subsystem
// is torn down when the last reference is released. Unbalanced calls
// are ignored.
func Shutdown() {
	platform.mu.Lock()
	defer platform.mu.Unlock()

	if platform.refs > 0 {
		platform.refs--
	}
}

// PlatformStarted reports whether the media subsystem currently holds
// at least one reference.
func PlatformStarted() bool {
	platform.mu.Lock()
	defer platform.mu.Unlock()

	return platform.refs > 0
}
