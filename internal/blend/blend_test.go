package blend

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestChannel(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		cb, cs float64
		want   float64
	}{
		{"normal", Normal, 0.2, 0.7, 0.7},
		{"multiply", Multiply, 0.5, 0.5, 0.25},
		{"divide", Divide, 0.25, 0.5, 0.5},
		{"divide clamps", Divide, 0.8, 0.2, 1},
		{"divide by zero source", Divide, 0.3, 0, 1},
		{"divide zero by zero", Divide, 0, 0, 1},
		{"add", Add, 0.25, 0.5, 0.75},
		{"add clamps", Add, 0.75, 0.5, 1},
		{"subtract", Subtract, 0.75, 0.25, 0.5},
		{"subtract clamps", Subtract, 0.25, 0.75, 0},
		{"difference", Difference, 0.25, 0.75, 0.5},
		{"screen", Screen, 0.5, 0.5, 0.75},
		{"darken", Darken, 0.3, 0.6, 0.3},
		{"lighten", Lighten, 0.3, 0.6, 0.6},
		{"unknown is normal", Mode(200), 0.3, 0.6, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Channel(tt.mode, tt.cb, tt.cs)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Channel(%v, %v, %v) = %v, want %v", tt.mode, tt.cb, tt.cs, got, tt.want)
			}
		})
	}
}

func TestCompositeSourceAlpha(t *testing.T) {
	// Fully opaque source yields the blended value.
	if got := Composite(Normal, 0.1, 0.9, 1); math.Abs(got-0.9) > epsilon {
		t.Errorf("opaque Normal = %v, want 0.9", got)
	}
	// Fully transparent source keeps the backdrop.
	for _, m := range Modes() {
		if got := Composite(m, 0.4, 0.9, 0); math.Abs(got-0.4) > epsilon {
			t.Errorf("%v with alpha 0 = %v, want 0.4", m, got)
		}
	}
	// Half alpha interpolates.
	if got := Composite(Normal, 0, 1, 0.5); math.Abs(got-0.5) > epsilon {
		t.Errorf("half Normal = %v, want 0.5", got)
	}
}

func TestOverAlpha(t *testing.T) {
	if got := OverAlpha(1, 0); got != 1 {
		t.Errorf("OverAlpha(1, 0) = %v", got)
	}
	if got := OverAlpha(0, 0.5); got != 0.5 {
		t.Errorf("OverAlpha(0, 0.5) = %v", got)
	}
	if got := OverAlpha(0.5, 0.5); math.Abs(got-0.75) > epsilon {
		t.Errorf("OverAlpha(0.5, 0.5) = %v", got)
	}
}

func TestModeNames(t *testing.T) {
	for _, m := range Modes() {
		got, ok := ParseMode(m.String())
		if !ok || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, ok)
		}
	}
	if _, ok := ParseMode("Overlay"); ok {
		t.Error("ParseMode accepted an unsupported mode")
	}
	if Mode(99).String() != "Unknown" {
		t.Errorf("Mode(99).String() = %q", Mode(99).String())
	}
	if Mode(99).IsValid() {
		t.Error("Mode(99) should be invalid")
	}
}
