package trainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildEnv_Unset verifies that PYTHONPATH becomes exactly the source
// root when the variable is not present in the base environment.
func TestBuildEnv_Unset(t *testing.T) {
	base := []string{"HOME=/home/user", "PATH=/usr/bin"}
	env := BuildEnv(base, "/src/trainer")

	require.Len(t, env, 3)
	assert.Contains(t, env, "HOME=/home/user")
	assert.Contains(t, env, "PATH=/usr/bin")
	assert.Contains(t, env, "PYTHONPATH=/src/trainer")
}

// TestBuildEnv_Appends verifies that an existing PYTHONPATH is preserved
// in front of the appended source root.
func TestBuildEnv_Appends(t *testing.T) {
	base := []string{"PYTHONPATH=/opt/lib", "HOME=/home/user"}
	env := BuildEnv(base, "/src/trainer")

	require.Len(t, env, 2)
	assert.Contains(t, env, "PYTHONPATH=/opt/lib:/src/trainer")
}

// TestBuildEnv_EmptyValue verifies that an empty PYTHONPATH does not
// produce a leading separator in the rebuilt value.
func TestBuildEnv_EmptyValue(t *testing.T) {
	base := []string{"PYTHONPATH="}
	env := BuildEnv(base, "/src/trainer")

	require.Len(t, env, 1)
	assert.Equal(t, "PYTHONPATH=/src/trainer", env[0])
}

// TestBuildEnv_DoesNotMutateBase verifies the base slice is left intact,
// since it is usually the shared os.Environ() result.
func TestBuildEnv_DoesNotMutateBase(t *testing.T) {
	base := []string{"PYTHONPATH=/opt/lib", "HOME=/home/user"}
	_ = BuildEnv(base, "/src/trainer")

	assert.Equal(t, []string{"PYTHONPATH=/opt/lib", "HOME=/home/user"}, base)
}
