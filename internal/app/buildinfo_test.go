package app

import "testing"

func TestBuildVersion(t *testing.T) {
	original := Version
	t.Cleanup(func() { Version = original })

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "dev"},
		{in: "   ", want: "dev"},
		{in: " 1.2.3 ", want: "1.2.3"},
	}
	for _, tt := range tests {
		Version = tt.in
		if got := BuildVersion(); got != tt.want {
			t.Fatalf("BuildVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildDateYMD(t *testing.T) {
	original := BuildDate
	t.Cleanup(func() { BuildDate = original })

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty stays empty", in: "", want: ""},
		{name: "rfc3339", in: "2026-03-14T09:26:53Z", want: "2026-03-14"},
		{name: "date prefix", in: "2026-03-14_0926", want: "2026-03-14"},
		{name: "unknown format kept", in: "yesterday", want: "yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			BuildDate = tt.in
			if got := BuildDateYMD(); got != tt.want {
				t.Fatalf("BuildDateYMD() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersionLine(t *testing.T) {
	originalVersion, originalDate := Version, BuildDate
	t.Cleanup(func() {
		Version = originalVersion
		BuildDate = originalDate
	})

	Version, BuildDate = "0.3.0", ""
	if got := VersionLine(); got != "bledm 0.3.0" {
		t.Fatalf("unexpected version line: %q", got)
	}

	BuildDate = "2026-03-14T09:26:53Z"
	if got := VersionLine(); got != "bledm 0.3.0 (2026-03-14)" {
		t.Fatalf("unexpected version line with date: %q", got)
	}
}
