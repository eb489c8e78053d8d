package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/jbridge/errors"
)

func TestParse_Defaults(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(empty) failed: %v", err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Errorf("empty file mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Overrides(t *testing.T) {
	c, err := Parse([]byte(`
[bridge]
log-level = "debug"
field-cache = false
development = true

[runtime]
package-name = "org.example"
global-capacity = 10000

[storage]
preferences = "/var/lib/bridge/prefs.db"
keystore = "/var/lib/bridge/keys.db"
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := Default()
	want.Bridge.LogLevel = "debug"
	want.Bridge.FieldCache = false
	want.Bridge.Development = true
	want.Runtime.PackageName = "org.example"
	want.Runtime.GlobalCapacity = 10000
	want.Storage = Storage{Preferences: "/var/lib/bridge/prefs.db", KeyStore: "/var/lib/bridge/keys.db"}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", `[bridge`},
		{"unknown key", "[bridge]\nverbose = true"},
		{"unknown table", "[network]\nport = 1"},
		{"wrong type", "[bridge]\nglobal-capacity = \"many\""},
		{"bad level", "[bridge]\nlog-level = \"loud\""},
		{"zero capacity", "[bridge]\nglobal-capacity = 0"},
		{"runtime below bridge", "[runtime]\nglobal-capacity = 16"},
		{"zero locals", "[runtime]\nlocal-capacity = 0"},
		{"empty package", "[runtime]\npackage-name = \"\""},
		{"bad sdk", "[runtime]\nsdk = -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			var e *errors.Error
			if !errors.As(err, &e) || e.Phase != errors.PhaseConfig || e.Kind != errors.KindInvalidInput {
				t.Errorf("error = %v, want config invalid input", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.toml")
	if err := os.WriteFile(path, []byte("[runtime]\nsdk = 21\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Runtime.SDK != 21 {
		t.Errorf("SDK = %d, want 21", c.Runtime.SDK)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("Load(missing) = %v, want invalid input", err)
	}
}

func TestLogger(t *testing.T) {
	c := Default()
	c.Bridge.LogLevel = "error"
	log, err := c.Logger()
	if err != nil {
		t.Fatalf("Logger failed: %v", err)
	}
	defer log.Sync()
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug enabled at error level")
	}
	if !log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error level disabled")
	}
}
