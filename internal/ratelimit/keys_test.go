package ratelimit

import "testing"

func TestCounterKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		scope      Scope
		identifier string
		path       string
		windowID   int64
		want       string
	}{
		{"global", ScopeGlobal, "1.2.3.4", "", 100, "rate:global:1.2.3.4:100"},
		{"endpoint", ScopeEndpoint, "1.2.3.4", "/api/v1/sensitive", 600, "rate:endpoint:/api/v1/sensitive:1.2.3.4:600"},
		{"principal identifier", ScopeGlobal, "sub:user-1", "", 42, "rate:global:sub:user-1:42"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := counterKey(tt.scope, tt.identifier, tt.path, tt.windowID)
			if got != tt.want {
				t.Errorf("counterKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCounterPattern(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		scope      Scope
		identifier string
		path       string
		want       string
	}{
		{"no filters", "", "", "", "rate:*"},
		{"scope only", ScopeGlobal, "", "", "rate:global:*"},
		{"identifier any scope", "", "1.2.3.4", "", "rate:*:1.2.3.4:*"},
		{"identifier global", ScopeGlobal, "1.2.3.4", "", "rate:global:1.2.3.4:*"},
		{"identifier endpoint", ScopeEndpoint, "1.2.3.4", "", "rate:endpoint:*:1.2.3.4:*"},
		{"path only", "", "", "/api/v1/sensitive", "rate:endpoint:/api/v1/sensitive:*"},
		{"identifier and path", "", "1.2.3.4", "/api/v1/sensitive", "rate:endpoint:/api/v1/sensitive:1.2.3.4:*"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := counterPattern(tt.scope, tt.identifier, tt.path)
			if got != tt.want {
				t.Errorf("counterPattern() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseCounterKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		key    string
		wantOK bool
		want   parsedKey
	}{
		{
			"global",
			"rate:global:1.2.3.4:100",
			true,
			parsedKey{scope: "global", path: "global", client: "1.2.3.4", windowID: "100"},
		},
		{
			"endpoint",
			"rate:endpoint:/api/v1/sensitive:1.2.3.4:600",
			true,
			parsedKey{scope: "endpoint", path: "/api/v1/sensitive", client: "1.2.3.4", windowID: "600"},
		},
		{"wrong prefix", "other:global:1.2.3.4:100", false, parsedKey{}},
		{"unknown scope", "rate:weird:1.2.3.4:100", false, parsedKey{}},
		{"too short", "rate:global", false, parsedKey{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parseCounterKey(tt.key)
			if ok != tt.wantOK {
				t.Fatalf("parseCounterKey() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("parseCounterKey() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
