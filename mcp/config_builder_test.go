package mcp

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	globalconfig "mcporch/config"
)

func TestParseProviderPairs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []globalconfig.ProviderEntry
		wantErr bool
	}{
		{name: "none", args: nil, wantErr: true},
		{name: "odd", args: []string{"text", "t.py", "data"}, wantErr: true},
		{
			name: "two pairs",
			args: []string{"text", "server/text.py", "data", "builtin:data"},
			want: []globalconfig.ProviderEntry{
				{Name: "text", Path: "server/text.py"},
				{Name: "data", Path: "builtin:data"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProviderPairs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIsBuiltin(t *testing.T) {
	if name, ok := IsBuiltin(globalconfig.ProviderEntry{Name: "t", Path: "builtin:text"}); !ok || name != "text" {
		t.Errorf("IsBuiltin() = %q, %v", name, ok)
	}
	if _, ok := IsBuiltin(globalconfig.ProviderEntry{Name: "t", Path: "server/text.py"}); ok {
		t.Error("script path reported as builtin")
	}
}

func TestBuildLaunchSpec(t *testing.T) {
	t.Setenv("MCPORCH_TEST_TOKEN", "s3cret")

	dir := t.TempDir()
	exe := filepath.Join(dir, "server")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	rc := fakeChecker(
		map[string]string{"python3": "/usr/bin/python3"},
		map[string]string{"/usr/bin/python3": "Python 3.12.1\n"},
	)

	tests := []struct {
		name  string
		entry globalconfig.ProviderEntry
		want  LaunchSpec
	}{
		{
			name:  "script path",
			entry: globalconfig.ProviderEntry{Name: "text", Path: "server/text.py", Args: []string{"--verbose"}},
			want: LaunchSpec{
				Command:   "/usr/bin/python3",
				Args:      []string{"server/text.py", "--verbose"},
				Transport: TransportStdio,
			},
		},
		{
			name:  "executable path",
			entry: globalconfig.ProviderEntry{Name: "bin", Path: exe},
			want:  LaunchSpec{Command: exe, Transport: TransportStdio},
		},
		{
			name: "command with env",
			entry: globalconfig.ProviderEntry{
				Name:    "fs",
				Command: "npx",
				Args:    []string{"-y", "server-filesystem"},
				Env:     map[string]string{"TOKEN": "${MCPORCH_TEST_TOKEN}", "MODE": "ro"},
			},
			want: LaunchSpec{
				Command:   "npx",
				Args:      []string{"-y", "server-filesystem"},
				Env:       map[string]string{"TOKEN": "s3cret", "MODE": "ro"},
				Transport: TransportStdio,
			},
		},
		{
			name: "remote",
			entry: globalconfig.ProviderEntry{
				Name:      "remote",
				URL:       "https://tools.example.com/mcp",
				Transport: TransportStreamableHTTP,
				Headers:   map[string]string{"Authorization": "Bearer ${MCPORCH_TEST_TOKEN}"},
				Env:       map[string]string{"IGNORED": "1"},
			},
			want: LaunchSpec{
				URL:       "https://tools.example.com/mcp",
				Transport: TransportStreamableHTTP,
				Headers:   map[string]string{"Authorization": "Bearer s3cret"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildLaunchSpec(rc, tt.entry)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildLaunchSpecErrors(t *testing.T) {
	rc := fakeChecker(nil, nil)

	for _, entry := range []globalconfig.ProviderEntry{
		{Name: "empty"},
		{Name: "nopython", Path: "server.py"},
		{Name: "missing", Path: filepath.Join(t.TempDir(), "nope")},
	} {
		_, err := BuildLaunchSpec(rc, entry)
		var connErr *ConnectionError
		if !errors.As(err, &connErr) {
			t.Errorf("%s: expected ConnectionError, got %v", entry.Name, err)
			continue
		}
		if connErr.Provider != entry.Name {
			t.Errorf("%s: error names provider %q", entry.Name, connErr.Provider)
		}
	}
}

func TestExpandEnvRefs(t *testing.T) {
	t.Setenv("MCPORCH_A", "alpha")
	os.Unsetenv("MCPORCH_UNSET")

	got := ExpandEnvRefs(map[string]string{
		"a":     "${MCPORCH_A}",
		"mixed": "x-${MCPORCH_A}-${MCPORCH_UNSET}-y",
		"plain": "$MCPORCH_A",
	})
	want := map[string]string{"a": "alpha", "mixed": "x-alpha--y", "plain": "$MCPORCH_A"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if ExpandEnvRefs(nil) != nil {
		t.Error("expected nil for empty input")
	}
}
