package main

import "testing"

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	required := []string{"run", "deliberate", "agents", "config"}
	for _, name := range required {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestParseRoundMode(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"round_robin", false},
		{"", false},
		{"debate", false},
		{"moderated", false},
		{"free_form", false},
		{"freeform", false},
		{"bogus", true},
	}
	for _, tt := range tests {
		_, err := parseRoundMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRoundMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestResolveConfigPathDefaultsWhenBlank(t *testing.T) {
	t.Setenv("CONCLAVE_CONFIG", "")
	if got := resolveConfigPath(""); got != "conclave.yaml" {
		t.Errorf("resolveConfigPath(\"\") = %q, want conclave.yaml", got)
	}
	if got := resolveConfigPath("custom.yaml"); got != "custom.yaml" {
		t.Errorf("resolveConfigPath(\"custom.yaml\") = %q, want custom.yaml", got)
	}
}

func TestResolveConfigPathUsesEnvVar(t *testing.T) {
	t.Setenv("CONCLAVE_CONFIG", "env.yaml")
	if got := resolveConfigPath(""); got != "env.yaml" {
		t.Errorf("resolveConfigPath(\"\") = %q, want env.yaml", got)
	}
}
