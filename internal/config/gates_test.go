package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGatesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gates.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write gates file: %v", err)
	}
	return path
}

func TestLoadGates(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		gates, err := LoadGates("")
		if err != nil {
			t.Fatalf("LoadGates() error = %v", err)
		}
		if gates != nil {
			t.Errorf("LoadGates() = %v, want nil", gates)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()
		path := writeGatesFile(t, `
endpoints:
  - path: /api/v1/sensitive
    max_requests: 1
    window_seconds: 10
  - path: /api/v1/export
    max_requests: 5
    window_seconds: 60
`)
		gates, err := LoadGates(path)
		if err != nil {
			t.Fatalf("LoadGates() error = %v", err)
		}
		if len(gates) != 2 {
			t.Fatalf("LoadGates() = %v, want 2 gates", gates)
		}
		if gates[0].Path != "/api/v1/sensitive" || gates[0].MaxRequests != 1 || gates[0].WindowSeconds != 10 {
			t.Errorf("gates[0] = %+v, want {/api/v1/sensitive 1 10}", gates[0])
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		if _, err := LoadGates(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("LoadGates() error = nil, want read error")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		path := writeGatesFile(t, "endpoints: [:::")
		if _, err := LoadGates(path); err == nil {
			t.Error("LoadGates() error = nil, want parse error")
		}
	})

	invalid := []struct {
		name    string
		content string
	}{
		{
			"path without leading slash",
			`
endpoints:
  - path: api/v1/sensitive
    max_requests: 1
    window_seconds: 10
`,
		},
		{
			"non-positive max requests",
			`
endpoints:
  - path: /api/v1/sensitive
    max_requests: 0
    window_seconds: 10
`,
		},
		{
			"missing window",
			`
endpoints:
  - path: /api/v1/sensitive
    max_requests: 1
`,
		},
		{
			"duplicate path",
			`
endpoints:
  - path: /api/v1/sensitive
    max_requests: 1
    window_seconds: 10
  - path: /api/v1/sensitive
    max_requests: 2
    window_seconds: 20
`,
		},
	}
	for _, tt := range invalid {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeGatesFile(t, tt.content)
			if _, err := LoadGates(path); err == nil {
				t.Error("LoadGates() error = nil, want validation error")
			}
		})
	}
}
