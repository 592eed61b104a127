package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.lp")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunScript(t *testing.T) {
	script := `# a small push/pop session
unsigned x y
x + y <= 20
check x y
push
x >= 30
check
pop
check x y

bool w
w = x < y
check x y w
`
	require.NoError(t, run(writeScript(t, script)))
}

func TestRunMissingFile(t *testing.T) {
	require.Error(t, run(filepath.Join(t.TempDir(), "missing.lp")))
}

func TestRunErrors(t *testing.T) {
	scripts := []string{
		"pop",
		"unsigned",
		"unsigned x\nx <=",
		"ghost <= 1",
		"unsigned x\nbool x",
	}
	for _, script := range scripts {
		require.Error(t, run(writeScript(t, script)), "script %q", script)
	}
}
