package mcp

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	globalconfig "mcporch/config"
)

// BuiltinPrefix marks a provider path naming an in-process server, e.g.
// "builtin:text".
const BuiltinPrefix = "builtin:"

var envRefRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ParseProviderPairs turns command-line arguments of the form
// <name> <path> [<name> <path> ...] into provider entries.
func ParseProviderPairs(args []string) ([]globalconfig.ProviderEntry, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one <name> <path> pair is required")
	}
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("provider %q has no path", args[len(args)-1])
	}

	entries := make([]globalconfig.ProviderEntry, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		entries = append(entries, globalconfig.ProviderEntry{Name: args[i], Path: args[i+1]})
	}
	return entries, nil
}

// IsBuiltin reports whether the entry names an in-process server and
// returns the server's name.
func IsBuiltin(entry globalconfig.ProviderEntry) (string, bool) {
	if !strings.HasPrefix(entry.Path, BuiltinPrefix) {
		return "", false
	}
	return strings.TrimPrefix(entry.Path, BuiltinPrefix), true
}

// BuildLaunchSpec converts a configured provider into a LaunchSpec. A URL
// selects a remote transport, a command is run as given and a path is
// resolved to an interpreter or executable by rc.
func BuildLaunchSpec(rc *RuntimeChecker, entry globalconfig.ProviderEntry) (LaunchSpec, error) {
	var spec LaunchSpec
	switch {
	case entry.URL != "":
		spec = LaunchSpec{
			URL:       entry.URL,
			Transport: entry.Transport,
			Headers:   ExpandEnvRefs(entry.Headers),
		}
	case entry.Command != "":
		spec = LaunchSpec{
			Command:   entry.Command,
			Args:      entry.Args,
			Transport: TransportStdio,
		}
	case entry.Path != "":
		resolved, err := rc.ResolveLaunchSpec(globalconfig.ExpandPath(entry.Path))
		if err != nil {
			return LaunchSpec{}, &ConnectionError{Provider: entry.Name, Err: err}
		}
		spec = resolved
		spec.Args = append(spec.Args, entry.Args...)
	default:
		return LaunchSpec{}, &ConnectionError{Provider: entry.Name, Err: fmt.Errorf("no path, command or url configured")}
	}

	if !spec.IsRemote() {
		spec.Env = ExpandEnvRefs(entry.Env)
	}

	if globalconfig.DebugLog != nil {
		globalconfig.DebugLog.Printf("[ConfigBuilder] %s: command=%q args=%v url=%q transport=%q env=%d",
			entry.Name, spec.Command, spec.Args, spec.URL, spec.Transport, len(spec.Env))
	}

	return spec, nil
}

// ExpandEnvRefs replaces ${VAR} references in values with the variable from
// the process environment. Unset variables expand to the empty string.
func ExpandEnvRefs(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}

	out := make(map[string]string, len(values))
	for key, value := range values {
		out[key] = envRefRegex.ReplaceAllStringFunc(value, func(ref string) string {
			name := envRefRegex.FindStringSubmatch(ref)[1]
			return os.Getenv(name)
		})
	}
	return out
}
