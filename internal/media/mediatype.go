// Package media defines the capture pipeline abstraction for the Mohini
// camera daemon: media formats, the engine capability interfaces, the
// process-wide platform lifecycle and the texture registry that carries
// preview frames to presentation consumers.
package media

import (
	"errors"
	"fmt"
	"strings"
)

// Stream indexes within a capture source.
type StreamKind int

const (
	// StreamPreview is the source stream used for the live preview feed.
	StreamPreview StreamKind = iota
	// StreamRecord is the source stream used for video recording and photo capture.
	StreamRecord
)

// ResolutionPreset selects the maximum preview resolution for a session.
type ResolutionPreset int

const (
	// PresetLow caps the preview at 240p.
	PresetLow ResolutionPreset = iota
	// PresetMedium caps the preview at 480p.
	PresetMedium
	// PresetHigh caps the preview at 720p.
	PresetHigh
	// PresetVeryHigh caps the preview at 1080p.
	PresetVeryHigh
	// PresetUltraHigh caps the preview at 2160p.
	PresetUltraHigh
	// PresetAuto applies no preview height cap.
	PresetAuto
)

// noHeightCap marks a preset without a preview height limit.
const noHeightCap = ^uint32(0)

// ErrUnknownPreset is returned when parsing an unrecognized preset name.
var ErrUnknownPreset = errors.New("unknown resolution preset")

// ParsePreset parses a preset name such as "medium" or "ultraHigh".
// An empty name maps to PresetAuto.
func ParsePreset(name string) (ResolutionPreset, error) {
	switch strings.ToLower(name) {
	case "low":
		return PresetLow, nil
	case "medium":
		return PresetMedium, nil
	case "high":
		return PresetHigh, nil
	case "veryhigh":
		return PresetVeryHigh, nil
	case "ultrahigh":
		return PresetUltraHigh, nil
	case "auto", "max", "":
		return PresetAuto, nil
	}
	return PresetAuto, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// String returns the canonical preset name.
func (p ResolutionPreset) String() string {
	switch p {
	case PresetLow:
		return "low"
	case PresetMedium:
		return "medium"
	case PresetHigh:
		return "high"
	case PresetVeryHigh:
		return "veryHigh"
	case PresetUltraHigh:
		return "ultraHigh"
	default:
		return "auto"
	}
}

// MaxPreviewHeight returns the preview height cap for the preset.
// PresetAuto has no cap.
func (p ResolutionPreset) MaxPreviewHeight() uint32 {
	switch p {
	case PresetLow:
		return 240
	case PresetMedium:
		return 480
	case PresetHigh:
		return 720
	case PresetVeryHigh:
		return 1080
	case PresetUltraHigh:
		return 2160
	default:
		return noHeightCap
	}
}

// Subtype names for MediaType. SubtypeBGRA is the fixed 32-bit layout
// preview sinks are configured with.
const (
	SubtypeBGRA = "BGRA"
)

// MediaType describes one native format a capture device can produce.
type MediaType struct {
	Width     uint32
	Height    uint32
	FrameRate float64
	Subtype   string

	// AllSamplesIndependent is set on preview formats so every delivered
	// frame can be presented without reference to earlier frames.
	AllSamplesIndependent bool
}

// String formats the media type for logs.
func (mt MediaType) String() string {
	return fmt.Sprintf("%dx%d@%.0f %s", mt.Width, mt.Height, mt.FrameRate, mt.Subtype)
}

// BuildPreviewMediaType clones the base capture format for the preview
// sink, forcing the 32-bit BGRA subtype and marking all samples
// independent.
func BuildPreviewMediaType(base MediaType) MediaType {
	preview := base
	preview.Subtype = SubtypeBGRA
	preview.AllSamplesIndependent = true
	return preview
}

// FindBestMediaType selects the device format with height no greater
// than maxHeight, scanning candidates in enumeration order and keeping
// any entry that improves on the best seen width or height. The final
// choice is therefore the last-seen format passing the improvement
// test. Returns false when no candidate satisfies the cap.
func FindBestMediaType(candidates []MediaType, maxHeight uint32) (MediaType, bool) {
	var (
		best       MediaType
		bestWidth  uint32
		bestHeight uint32
		found      bool
	)

	for _, mt := range candidates {
		if mt.Height > maxHeight {
			continue
		}
		if bestWidth < mt.Width || bestHeight < mt.Height {
			best = mt
			bestWidth = mt.Width
			bestHeight = mt.Height
			found = true
		}
	}

	return best, found
}
