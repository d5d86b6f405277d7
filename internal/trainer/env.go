// env.go computes the child process environment.
package trainer

import (
	"os"
	"strings"
)

// pythonPathKey is the environment variable the trainer resolves its
// imports through.
const pythonPathKey = "PYTHONPATH"

// BuildEnv returns a copy of base with the source root appended to
// PYTHONPATH. An existing PYTHONPATH value is preserved in front of the
// appended root; when the variable is unset the root becomes its only
// entry. All other variables pass through unchanged.
func BuildEnv(base []string, sourceRoot string) []string {
	prefix := pythonPathKey + "="
	existing := ""

	env := make([]string, 0, len(base)+1)
	for _, kv := range base {
		if strings.HasPrefix(kv, prefix) {
			existing = strings.TrimPrefix(kv, prefix)
			continue
		}
		env = append(env, kv)
	}

	value := sourceRoot
	if existing != "" {
		value = existing + string(os.PathListSeparator) + sourceRoot
	}
	return append(env, prefix+value)
}
