package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"filex/internal/constants"
	"filex/internal/logging"
)

type cliEnv struct {
	configPath string
	stateDir   string
	root       string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	orig := newLogger
	newLogger = func(logging.Config) (*zap.Logger, error) { return zap.NewNop(), nil }
	t.Cleanup(func() { newLogger = orig })

	base := t.TempDir()
	env := &cliEnv{
		configPath: filepath.Join(base, "config.json"),
		stateDir:   filepath.Join(base, "state"),
		root:       filepath.Join(base, "tree"),
	}

	cfg := map[string]any{
		"persistence": map[string]any{"state_dir": env.stateDir},
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(env.configPath, data, 0644))

	for _, d := range []string{"alpha", "beta", "beta/inner"} {
		require.NoError(t, os.MkdirAll(filepath.Join(env.root, d), 0755))
	}
	files := map[string]string{
		"file10.txt": "ten",
		"file2.txt":  "two!",
		".hidden":    "h",
		"page.html":  "<html><body>hi</body></html>",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(env.root, name), []byte(body), 0644))
	}
	return env
}

// run executes one command line against a fresh command tree
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd := NewRootCmd(&Runtime{})
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestListCommand(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "list", env.root)
	assert.Contains(t, out, "alpha")
	assert.NotContains(t, out, ".hidden")
	// directories first, then natural order
	assert.Less(t, strings.Index(out, "beta"), strings.Index(out, "file2.txt"))
	assert.Less(t, strings.Index(out, "file2.txt"), strings.Index(out, "file10.txt"))

	out = env.mustRun(t, "ls", "-a", env.root)
	assert.Contains(t, out, ".hidden")

	out = env.mustRun(t, "ls", "--sort", "size", "--order", "desc", "--pattern", "*.txt", env.root)
	assert.NotContains(t, out, "page.html")
	assert.Less(t, strings.Index(out, "file2.txt"), strings.Index(out, "file10.txt"))
}

func TestListCommandJSON(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "list", "--json", "--ext", "txt", env.root)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "file2.txt", entries[0]["name"])
	assert.Equal(t, "file10.txt", entries[1]["name"])
}

func TestListCommandRejectsBadSort(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "list", "--sort", "colour", env.root)
	assert.Error(t, err)

	_, err = env.run(t, "list", filepath.Join(env.root, "missing"))
	assert.Error(t, err)
}

func TestInfoCommand(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "info", filepath.Join(env.root, "page.html"))
	assert.Contains(t, out, "text/html")
	assert.Contains(t, out, "Hidden:      false")

	out = env.mustRun(t, "info", filepath.Join(env.root, ".hidden"))
	assert.Contains(t, out, "Hidden:      true")

	out = env.mustRun(t, "info", filepath.Join(env.root, "alpha"))
	assert.Contains(t, out, "inode/directory")
}

func TestTabCommands(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "tab", "open", filepath.Join(env.root, "alpha"))
	assert.Contains(t, out, "Opened alpha")
	env.mustRun(t, "tab", "open", filepath.Join(env.root, "beta"))

	out = env.mustRun(t, "tab", "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "alpha")
	assert.NotContains(t, lines[1], "*")
	assert.Contains(t, lines[2], "*")

	env.mustRun(t, "tab", "activate", "1")
	out = env.mustRun(t, "tab", "list")
	lines = strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines[1], "*")

	out = env.mustRun(t, "tab", "cd", "2", filepath.Join(env.root, "beta", "inner"))
	assert.Equal(t, filepath.Join(env.root, "beta", "inner"), strings.TrimSpace(out))
	out = env.mustRun(t, "tab", "list")
	assert.Contains(t, out, filepath.Join(env.root, "beta", "inner"))

	out = env.mustRun(t, "tab", "up", "2")
	assert.Equal(t, filepath.Join(env.root, "beta"), strings.TrimSpace(out))

	out = env.mustRun(t, "tab", "close", "1")
	assert.Contains(t, out, "Closed alpha")
	out = env.mustRun(t, "tab", "list")
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "*")
}

func TestTabCommandErrors(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "tab", "open", filepath.Join(env.root, "page.html"))
	assert.Error(t, err)

	_, err = env.run(t, "tab", "close", "7")
	assert.Error(t, err)

	env.mustRun(t, "tab", "open", filepath.Join(env.root, "alpha"))
	_, err = env.run(t, "tab", "cd", "1", filepath.Join(env.root, "nowhere"))
	assert.Error(t, err)
}

func TestStateCommands(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "state", "list")
	assert.Contains(t, out, "No state files")

	env.mustRun(t, "tab", "open", filepath.Join(env.root, "alpha"))
	env.mustRun(t, "tab", "open", filepath.Join(env.root, "beta"))

	out = env.mustRun(t, "state", "list")
	assert.Equal(t, constants.AppStateKey, strings.TrimSpace(out))

	out = env.mustRun(t, "state", "show")
	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Len(t, st["tabs"], 2)

	out = env.mustRun(t, "state", "backups")
	assert.NotEmpty(t, strings.TrimSpace(out))

	out = env.mustRun(t, "state", "restore")
	assert.Contains(t, out, "Restored")
	out = env.mustRun(t, "state", "show")
	st = nil
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Len(t, st["tabs"], 1)

	env.mustRun(t, "state", "rm", constants.AppStateKey)
	out = env.mustRun(t, "state", "list")
	assert.Contains(t, out, "No state files")

	_, err := env.run(t, "state", "rm", "../escape.json")
	assert.Error(t, err)
}

func TestConfigCommands(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "config", "path")
	assert.Equal(t, env.configPath, strings.TrimSpace(out))

	out = env.mustRun(t, "config", "show")
	assert.Contains(t, out, env.stateDir)

	_, err := env.run(t, "config", "init")
	assert.Error(t, err)

	fresh := filepath.Join(t.TempDir(), "nested", "config.json")
	rootCmd := NewRootCmd(&Runtime{})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--config", fresh, "config", "init"})
	require.NoError(t, rootCmd.Execute())
	_, err = os.Stat(fresh)
	assert.NoError(t, err)

	out = env.mustRun(t, "config", "init", "--force")
	assert.Contains(t, out, "Wrote")
}

func TestInvalidConfigFails(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, os.WriteFile(env.configPath, []byte(`{"sort":{"sort_by":"colour"}}`), 0644))

	_, err := env.run(t, "list", env.root)
	assert.Error(t, err)
}
