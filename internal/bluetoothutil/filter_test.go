package bluetoothutil

import "testing"

func TestMatchesNamePrefix(t *testing.T) {
	prefixes := []string{"WIDI Jack"}
	tests := []struct {
		name     string
		prefixes []string
		want     bool
	}{
		{name: "WIDI Jack", prefixes: prefixes, want: true},
		{name: "WIDI Jack3", prefixes: prefixes, want: true},
		{name: " WIDI Jack2 ", prefixes: prefixes, want: true},
		{name: "widi jack", prefixes: prefixes, want: false},
		{name: "WIDI Master", prefixes: prefixes, want: false},
		{name: "", prefixes: prefixes, want: false},
		{name: "", prefixes: nil, want: false},
		{name: "Anything", prefixes: nil, want: true},
	}

	for _, tc := range tests {
		if got := MatchesNamePrefix(tc.name, tc.prefixes); got != tc.want {
			t.Fatalf("%q %v: want %v, got %v", tc.name, tc.prefixes, tc.want, got)
		}
	}
}

func TestNormalizeAddress(t *testing.T) {
	if got := NormalizeAddress(" aa:bb:cc:dd:ee:ff "); got != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("unexpected address: %q", got)
	}
}
