package naming

import (
	"testing"
	"time"
)

func TestInstance(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	got := Instance("gpu-vm", created)
	expected := "gpu-vm-2025-03-14-09-26-53"
	if got != expected {
		t.Errorf("Instance() = %q, expected %q", got, expected)
	}
}

func TestRegion(t *testing.T) {
	tests := []struct {
		name     string
		zone     string
		expected string
	}{
		{
			name:     "standard zone",
			zone:     "us-central1-a",
			expected: "us-central1",
		},
		{
			name:     "european zone",
			zone:     "europe-west4-b",
			expected: "europe-west4",
		},
		{
			name:     "no separator",
			zone:     "zone",
			expected: "zone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Region(tt.zone); got != tt.expected {
				t.Errorf("Region(%q) = %q, expected %q", tt.zone, got, tt.expected)
			}
		})
	}
}
