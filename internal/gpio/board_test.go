package gpio

import (
	"testing"

	"github.com/sensdot/sensdot/internal/profile"
)

func TestOpenDisabled(t *testing.T) {
	if _, err := Open(profile.GPIOProfile{Enabled: false}); err != ErrDisabled {
		t.Errorf("Open with gpio disabled: err = %v, want ErrDisabled", err)
	}
}

func TestPressedPolarity(t *testing.T) {
	tests := []struct {
		name      string
		raw       int
		activeLow bool
		want      bool
	}{
		{"Active-low pressed reads 0", 0, true, true},
		{"Active-low released reads 1", 1, true, false},
		{"Active-high pressed reads 1", 1, false, true},
		{"Active-high released reads 0", 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pressed(tt.raw, tt.activeLow); got != tt.want {
				t.Errorf("pressed(%d, activeLow=%v) = %v, want %v", tt.raw, tt.activeLow, got, tt.want)
			}
		})
	}
}

func TestLevelForPolarity(t *testing.T) {
	tests := []struct {
		name      string
		on        bool
		activeLow bool
		want      int
	}{
		{"Active-high on drives 1", true, false, 1},
		{"Active-high off drives 0", false, false, 0},
		{"Active-low on drives 0", true, true, 0},
		{"Active-low off drives 1", false, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := levelFor(tt.on, tt.activeLow); got != tt.want {
				t.Errorf("levelFor(on=%v, activeLow=%v) = %d, want %d", tt.on, tt.activeLow, got, tt.want)
			}
		})
	}
}
