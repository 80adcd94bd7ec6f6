package media

import "sync"

// PixelBuffer is one presentation frame in RGBA layout with opaque alpha.
type PixelBuffer struct {
	Pixels []byte
	Width  int
	Height int
}

// PixelBufferProvider is the pull callback backing a registered texture.
// It returns the latest completed presentation frame, or nil when
// dimensions are not yet known.
type PixelBufferProvider func() *PixelBuffer

type texture struct {
	provider PixelBufferProvider
	frames   chan struct{}
}

// TextureRegistry registers pull-based textures and notifies consumers
// when new frames are available. It is the in-process stand-in for the
// host UI's texture registrar.
type TextureRegistry struct {
	mu       sync.Mutex
	nextID   int64
	textures map[int64]*texture
}

// NewTextureRegistry creates an empty registry.
func NewTextureRegistry() *TextureRegistry {
	return &TextureRegistry{
		textures: make(map[int64]*texture),
	}
}

// Register registers a texture backed by the given provider and returns
// its texture id.
func (r *TextureRegistry) Register(provider PixelBufferProvider) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.textures[id] = &texture{
		provider: provider,
		frames:   make(chan struct{}, 1),
	}
	return id
}

// Unregister removes a texture. Consumers acquiring the id afterwards
// receive nil frames.
func (r *TextureRegistry) Unregister(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.textures, id)
}

// MarkFrameAvailable signals consumers that the texture has a new frame
// to pull. The notification is coalesced: pending signals collapse into
// one.
func (r *TextureRegistry) MarkFrameAvailable(id int64) {
	r.mu.Lock()
	t, ok := r.textures[id]
	r.mu.Unlock()
	if !ok {
		return
	}

	select {
	case t.frames <- struct{}{}:
	default:
	}
}

// Frames returns the frame-available notification channel for a
// texture, or nil if the id is unknown.
func (r *TextureRegistry) Frames(id int64) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.textures[id]
	if !ok {
		return nil
	}
	return t.frames
}

// Acquire pulls the latest presentation frame from a texture. The
// provider runs outside the registry lock so it may take its own locks.
func (r *TextureRegistry) Acquire(id int64) *PixelBuffer {
	r.mu.Lock()
	t, ok := r.textures[id]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	return t.provider()
}
