package mcp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func fakeChecker(paths map[string]string, versions map[string]string) *RuntimeChecker {
	rc := NewRuntimeChecker()
	rc.lookPath = func(name string) (string, error) {
		if p, ok := paths[name]; ok {
			return p, nil
		}
		return "", errors.New("not found")
	}
	rc.version = func(cmd string, args ...string) (string, error) {
		if v, ok := versions[cmd]; ok {
			return v, nil
		}
		return "", errors.New("no version")
	}
	return rc
}

func TestResolveLaunchSpecScripts(t *testing.T) {
	rc := fakeChecker(
		map[string]string{"python3": "/usr/bin/python3", "node": "/usr/bin/node"},
		map[string]string{"/usr/bin/python3": "Python 3.12.1\n", "node": "v20.11.0\n"},
	)

	tests := []struct {
		path    string
		command string
	}{
		{path: "server/simple_server.py", command: "/usr/bin/python3"},
		{path: "server/Tool.PY", command: "/usr/bin/python3"},
		{path: "server/index.js", command: "/usr/bin/node"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			spec, err := rc.ResolveLaunchSpec(tt.path)
			if err != nil {
				t.Fatalf("ResolveLaunchSpec: %v", err)
			}
			if spec.Command != tt.command {
				t.Errorf("expected command %q, got %q", tt.command, spec.Command)
			}
			if len(spec.Args) != 1 || spec.Args[0] != tt.path {
				t.Errorf("expected args [%s], got %v", tt.path, spec.Args)
			}
			if spec.Transport != TransportStdio || spec.IsRemote() {
				t.Errorf("expected local stdio spec, got %+v", spec)
			}
		})
	}

	py, err := rc.CheckRuntime("python")
	if err != nil {
		t.Fatal(err)
	}
	if py.Version != "3.12.1" {
		t.Errorf("expected python version 3.12.1, got %q", py.Version)
	}
	node, err := rc.CheckRuntime("node")
	if err != nil {
		t.Fatal(err)
	}
	if node.Version != "20.11.0" {
		t.Errorf("expected node version 20.11.0, got %q", node.Version)
	}
}

func TestResolveLaunchSpecPythonFallback(t *testing.T) {
	rc := fakeChecker(
		map[string]string{"python": "/opt/bin/python"},
		map[string]string{"/opt/bin/python": "Python 3.9.0"},
	)

	spec, err := rc.ResolveLaunchSpec("server.py")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Command != "/opt/bin/python" {
		t.Errorf("expected fallback to python, got %q", spec.Command)
	}
}

func TestResolveLaunchSpecMissingRuntime(t *testing.T) {
	rc := fakeChecker(nil, nil)

	if _, err := rc.ResolveLaunchSpec("server.py"); err == nil {
		t.Error("expected error without python")
	}
	if _, err := rc.ResolveLaunchSpec("server.js"); err == nil {
		t.Error("expected error without node")
	}
}

func TestResolveLaunchSpecExecutable(t *testing.T) {
	dir := t.TempDir()

	exe := filepath.Join(dir, "textserver")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(plain, []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	rc := fakeChecker(nil, nil)

	spec, err := rc.ResolveLaunchSpec(exe)
	if err != nil {
		t.Fatalf("ResolveLaunchSpec(executable): %v", err)
	}
	if spec.Command != exe || len(spec.Args) != 0 {
		t.Errorf("unexpected spec %+v", spec)
	}

	for _, path := range []string{plain, dir, filepath.Join(dir, "missing")} {
		if _, err := rc.ResolveLaunchSpec(path); err == nil {
			t.Errorf("expected error for %s", path)
		}
	}
}

func TestCheckRuntimeUnknown(t *testing.T) {
	if _, err := NewRuntimeChecker().CheckRuntime("ruby"); err == nil {
		t.Error("expected error for unknown runtime")
	}
}
