// Package stacktrace filters runtime stacks down to frames that belong to
// this module, which keeps panic logs readable.
package stacktrace

import (
	"strings"
)

const modulePath = "github.com/aruna-labs/identra"

// InternalPaths extracts the "file.go:line" locations inside this module from
// a raw stack dump as produced by debug.Stack, innermost first.
func InternalPaths(stack []byte) []string {
	var paths []string

	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, modulePath) {
			continue
		}

		idx := strings.Index(line, modulePath)
		rest := line[idx+len(modulePath):]
		rest = strings.TrimPrefix(rest, "/")
		if rest == "" || !strings.Contains(rest, ".go:") {
			continue
		}

		// drop the trailing " +0x..." offset
		if sp := strings.IndexByte(rest, ' '); sp >= 0 {
			rest = rest[:sp]
		}
		paths = append(paths, rest)
	}

	return paths
}
