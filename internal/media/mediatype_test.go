package media

import (
	"errors"
	"testing"
)

func TestParsePreset(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   ResolutionPreset
		hasErr bool
	}{
		{"low", "low", PresetLow, false},
		{"medium", "medium", PresetMedium, false},
		{"high", "high", PresetHigh, false},
		{"veryHigh", "veryHigh", PresetVeryHigh, false},
		{"ultraHigh", "ultraHigh", PresetUltraHigh, false},
		{"auto", "auto", PresetAuto, false},
		{"max maps to auto", "max", PresetAuto, false},
		{"empty maps to auto", "", PresetAuto, false},
		{"case insensitive", "MEDIUM", PresetMedium, false},
		{"unknown", "gigantic", PresetAuto, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePreset(tt.input)
			if tt.hasErr {
				if err == nil {
					t.Fatalf("expected error for %q, got nil", tt.input)
				}
				if !errors.Is(err, ErrUnknownPreset) {
					t.Errorf("expected ErrUnknownPreset, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParsePreset(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolutionPreset_MaxPreviewHeight(t *testing.T) {
	tests := []struct {
		preset ResolutionPreset
		want   uint32
	}{
		{PresetLow, 240},
		{PresetMedium, 480},
		{PresetHigh, 720},
		{PresetVeryHigh, 1080},
		{PresetUltraHigh, 2160},
		{PresetAuto, noHeightCap},
	}

	for _, tt := range tests {
		t.Run(tt.preset.String(), func(t *testing.T) {
			if got := tt.preset.MaxPreviewHeight(); got != tt.want {
				t.Errorf("MaxPreviewHeight() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildPreviewMediaType(t *testing.T) {
	base := MediaType{Width: 1280, Height: 720, FrameRate: 30, Subtype: "YUY2"}

	preview := BuildPreviewMediaType(base)

	if preview.Width != base.Width || preview.Height != base.Height {
		t.Errorf("dimensions changed: got %dx%d, want %dx%d",
			preview.Width, preview.Height, base.Width, base.Height)
	}
	if preview.FrameRate != base.FrameRate {
		t.Errorf("frame rate changed: got %f, want %f", preview.FrameRate, base.FrameRate)
	}
	if preview.Subtype != SubtypeBGRA {
		t.Errorf("expected subtype %q, got %q", SubtypeBGRA, preview.Subtype)
	}
	if !preview.AllSamplesIndependent {
		t.Error("preview format should mark all samples independent")
	}

	// The base format must not be mutated
	if base.Subtype != "YUY2" || base.AllSamplesIndependent {
		t.Error("base format was mutated")
	}
}

func TestFindBestMediaType(t *testing.T) {
	candidates := []MediaType{
		{Width: 640, Height: 480},
		{Width: 1920, Height: 1080},
		{Width: 1280, Height: 720},
		{Width: 320, Height: 240},
	}

	t.Run("uncapped picks largest", func(t *testing.T) {
		best, ok := FindBestMediaType(candidates, noHeightCap)
		if !ok {
			t.Fatal("expected a result")
		}
		if best.Width != 1920 || best.Height != 1080 {
			t.Errorf("got %dx%d, want 1920x1080", best.Width, best.Height)
		}
	})

	t.Run("cap filters taller formats", func(t *testing.T) {
		best, ok := FindBestMediaType(candidates, 480)
		if !ok {
			t.Fatal("expected a result")
		}
		if best.Width != 640 || best.Height != 480 {
			t.Errorf("got %dx%d, want 640x480", best.Width, best.Height)
		}
	})

	t.Run("no candidate under cap", func(t *testing.T) {
		tall := []MediaType{
			{Width: 1920, Height: 1080},
			{Width: 1280, Height: 720},
		}
		if _, ok := FindBestMediaType(tall, 480); ok {
			t.Error("expected no result when every candidate exceeds the cap")
		}
	})

	t.Run("empty candidates", func(t *testing.T) {
		if _, ok := FindBestMediaType(nil, noHeightCap); ok {
			t.Error("expected no result for empty candidates")
		}
	})

	t.Run("later improvement wins", func(t *testing.T) {
		// The scan keeps any candidate improving on best width or
		// height, so the last improving entry is the final choice.
		ordered := []MediaType{
			{Width: 1280, Height: 720, FrameRate: 15},
			{Width: 1280, Height: 720, FrameRate: 30},
			{Width: 1920, Height: 1080, FrameRate: 30},
		}
		best, ok := FindBestMediaType(ordered, noHeightCap)
		if !ok {
			t.Fatal("expected a result")
		}
		if best.Width != 1920 || best.FrameRate != 30 {
			t.Errorf("got %v, want the 1920x1080@30 entry", best)
		}
	})
}
