package identity

import "testing"

func TestFromString(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantID  string
		wantErr bool
	}{
		{
			name:   "machine id takes trailing twelve chars",
			raw:    "4f1c2e9ab83d4b6fa1c2d3e4f5a6b7c8",
			wantID: "d3e4f5a6b7c8",
		},
		{
			name:   "exact length mac",
			raw:    "a1b2c3d4e5f6",
			wantID: "a1b2c3d4e5f6",
		},
		{
			name:   "uppercase input lowered",
			raw:    "A1B2C3D4E5F6",
			wantID: "a1b2c3d4e5f6",
		},
		{
			name:   "surrounding whitespace trimmed",
			raw:    "  a1b2c3d4e5f6\n",
			wantID: "a1b2c3d4e5f6",
		},
		{
			name:    "too short",
			raw:     "abc123",
			wantErr: true,
		},
		{
			name:    "non hex",
			raw:     "zzzzzzzzzzzz",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := FromString(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("FromString(%q) expected error, got %q", tt.raw, id.DeviceID)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromString(%q) unexpected error: %v", tt.raw, err)
			}
			if id.DeviceID != tt.wantID {
				t.Errorf("DeviceID = %q, want %q", id.DeviceID, tt.wantID)
			}
		})
	}
}

func TestDerivedNames(t *testing.T) {
	id, err := FromString("a1b2c3d4e5f6")
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}

	if got, want := id.APSSID(), "SensDot-E5F6"; got != want {
		t.Errorf("APSSID() = %q, want %q", got, want)
	}
	if got, want := id.ClientID(), "sensdot_a1b2c3d4e5f6"; got != want {
		t.Errorf("ClientID() = %q, want %q", got, want)
	}
	if got, want := id.DefaultTopicPrefix(), "sensdot/a1b2c3d4e5f6"; got != want {
		t.Errorf("DefaultTopicPrefix() = %q, want %q", got, want)
	}
}
