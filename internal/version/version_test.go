package version

import (
	"strings"
	"testing"
)

func TestPlainStripsColour(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3", "1.2.3"},
		{"\x1b[33;1m0\x1b[0m.\x1b[32;1m3\x1b[0m.0-dev", "0.3.0-dev"},
		{"", ""},
	}
	for _, tt := range tests {
		Version = tt.in
		if got := Plain(); got != tt.want {
			t.Errorf("Plain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultVersion(t *testing.T) {
	if !strings.HasSuffix(Plain(), "-dev") {
		t.Errorf("default version %q should be a dev build", Plain())
	}
}
