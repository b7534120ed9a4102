package mcp

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"mcporch/servers"
)

// stdioServerEnv makes the test binary act as a stdio provider instead of
// running tests. "serve" exits when stdin closes, "hang" keeps running.
const stdioServerEnv = "MCPORCH_TEST_STDIO_SERVER"

func TestMain(m *testing.M) {
	switch os.Getenv(stdioServerEnv) {
	case "serve":
		if err := server.ServeStdio(servers.NewTextServer()); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	case "hang":
		server.ServeStdio(servers.NewTextServer())
		time.Sleep(time.Hour)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func helperSpec(mode string) LaunchSpec {
	return LaunchSpec{
		Transport: TransportStdio,
		Command:   os.Args[0],
		Args:      []string{"-test.run=^$"},
		Env:       map[string]string{stdioServerEnv: mode},
	}
}

func TestStdioSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Connect(ctx, "text", helperSpec("serve"))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if s.cmd == nil || s.cmd.Process == nil {
		t.Fatal("expected a spawned subprocess")
	}
	if len(s.Tools()) != 2 {
		t.Errorf("expected 2 tools, got %d", len(s.Tools()))
	}

	res, err := s.Invoke(ctx, "reverse-text", map[string]any{"text": "abc"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Text != "cba" {
		t.Errorf("expected cba, got %q", res.Text)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if s.cmd.ProcessState == nil || !s.cmd.ProcessState.Exited() {
		t.Error("provider process still running after Close")
	}

	_, err = s.Invoke(ctx, "reverse-text", map[string]any{"text": "abc"})
	if !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed after Close, got %v", err)
	}
}

func TestStdioCloseKillsStuckProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process liveness check needs signal 0")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Connect(ctx, "stuck", helperSpec("hang"), WithCloseTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	err = s.Close()
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected close timeout, got %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if errors.Is(s.cmd.Process.Signal(syscall.Signal(0)), os.ErrProcessDone) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stuck provider was not killed")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStdioMissingCommand(t *testing.T) {
	_, err := Connect(context.Background(), "ghost", LaunchSpec{
		Transport: TransportStdio,
		Command:   "/nonexistent/mcporch-provider",
	})

	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %T: %v", err, err)
	}
	if connErr.Provider != "ghost" {
		t.Errorf("expected provider ghost, got %q", connErr.Provider)
	}
}
