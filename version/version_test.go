package version

import (
	"strings"
	"testing"
)

func restore(t *testing.T) {
	v, c, b := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = v, c, b })
}

func TestGet_LinkerVariables(t *testing.T) {
	restore(t)
	Version, Commit, BuildTime = "1.4.0", "0123456789abcdef", "2026-01-15T10:30:00Z"

	info := Get()
	if info.Version != "1.4.0" || info.Commit != "0123456789abcdef" || info.BuildTime != "2026-01-15T10:30:00Z" {
		t.Errorf("linker variables not kept: %+v", info)
	}
}

func TestInfo_Short(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", Commit: "abc"}, "1.0.0-abc"},
		{Info{Version: "1.0.0", Commit: "0123456789"}, "1.0.0-0123456"},
		{Info{Version: "1.0.0", Commit: "0123456789", Dirty: true}, "1.0.0-0123456-dirty"},
	}
	for _, tc := range tests {
		if got := tc.info.Short(); got != tc.want {
			t.Errorf("Short(%+v) = %q, want %q", tc.info, got, tc.want)
		}
	}
}

func TestInfo_String(t *testing.T) {
	s := Info{Version: "1.0.0", BuildTime: "2026-01-15T10:30:00Z", GoVersion: "go1.26.0"}.String()
	if s != "1.0.0 (built 2026-01-15T10:30:00Z) go1.26.0" {
		t.Errorf("String() = %q", s)
	}
}

func TestUserAgent(t *testing.T) {
	restore(t)
	Version, Commit = "2.0.0", ""
	if ua := UserAgent("apicontract"); !strings.HasPrefix(ua, "apicontract/2.0.0") {
		t.Errorf("UserAgent = %q", ua)
	}
}
