package mcp

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type Runtime struct {
	Name      string
	Installed bool
	Version   string
	Path      string
	Error     string
}

// RuntimeChecker finds the interpreters used to launch script providers.
type RuntimeChecker struct {
	runtimes map[string]*Runtime
	lookPath func(string) (string, error)
	version  func(cmd string, args ...string) (string, error)
}

func NewRuntimeChecker() *RuntimeChecker {
	return &RuntimeChecker{
		runtimes: make(map[string]*Runtime),
		lookPath: exec.LookPath,
		version: func(cmd string, args ...string) (string, error) {
			out, err := exec.Command(cmd, args...).Output()
			return string(out), err
		},
	}
}

func (rc *RuntimeChecker) CheckRuntime(name string) (*Runtime, error) {
	runtime, ok := rc.runtimes[name]
	if !ok {
		switch name {
		case "node":
			rc.detectNodeJS()
		case "python":
			rc.detectPython()
		default:
			return nil, fmt.Errorf("unknown runtime: %s", name)
		}
		runtime = rc.runtimes[name]
	}

	if !runtime.Installed {
		if runtime.Error != "" {
			return nil, fmt.Errorf("%s", runtime.Error)
		}
		return nil, fmt.Errorf("%s not found", name)
	}

	return runtime, nil
}

func (rc *RuntimeChecker) detectNodeJS() {
	runtime := &Runtime{Name: "node"}

	path, err := rc.lookPath("node")
	if err != nil {
		runtime.Error = "Node.js not found"
		rc.runtimes["node"] = runtime
		return
	}

	output, err := rc.version("node", "--version")
	if err != nil {
		runtime.Error = "Failed to get Node.js version"
		rc.runtimes["node"] = runtime
		return
	}

	runtime.Installed = true
	runtime.Version = strings.TrimPrefix(strings.TrimSpace(output), "v")
	runtime.Path = path
	rc.runtimes["node"] = runtime
}

func (rc *RuntimeChecker) detectPython() {
	runtime := &Runtime{Name: "python"}

	for _, cmd := range []string{"python3", "python"} {
		if path, err := rc.lookPath(cmd); err == nil {
			runtime.Path = path
			break
		}
	}

	if runtime.Path == "" {
		runtime.Error = "Python not found"
		rc.runtimes["python"] = runtime
		return
	}

	output, err := rc.version(runtime.Path, "--version")
	if err != nil {
		runtime.Error = "Failed to get Python version"
		rc.runtimes["python"] = runtime
		return
	}

	runtime.Installed = true
	runtime.Version = strings.TrimPrefix(strings.TrimSpace(output), "Python ")
	rc.runtimes["python"] = runtime
}

// ResolveLaunchSpec turns a provider path from the command line into a
// LaunchSpec: .py scripts run under Python, .js scripts under Node.js and
// any other executable file runs directly.
func (rc *RuntimeChecker) ResolveLaunchSpec(path string) (LaunchSpec, error) {
	var interpreter string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		interpreter = "python"
	case ".js":
		interpreter = "node"
	}

	if interpreter != "" {
		runtime, err := rc.CheckRuntime(interpreter)
		if err != nil {
			return LaunchSpec{}, err
		}
		return LaunchSpec{
			Command:   runtime.Path,
			Args:      []string{path},
			Transport: TransportStdio,
		}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return LaunchSpec{}, fmt.Errorf("server %s: %w", path, err)
	}
	if info.IsDir() || info.Mode().Perm()&0111 == 0 {
		return LaunchSpec{}, errors.New("server script must be a .py or .js file or an executable")
	}

	return LaunchSpec{Command: path, Transport: TransportStdio}, nil
}
