package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rlpath/store"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rlpath.yaml")
	content := fmt.Sprintf(`logger:
  level: error
training:
  learning_rate: 1
  discount: 0.8
  parallelism: 2
store:
  backend: file
  dir: %s
`, filepath.Join(dir, "experiments"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	root := GetRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTrainMazeThenRoute(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "train", "maze", "--epochs", "50", "--actions", "1000", "--seed", "7", "--policy", "random")
	require.NoError(t, err)
	assert.Contains(t, out, "maze: ")

	out, err = run(t, cfg, "route", "maze")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6, out)
	assert.Equal(t, "outcome: GoalReached", lines[0])
	assert.Contains(t, lines[5], "7 --move to 11--> 11")

	executed, err := run(t, cfg, "route", "maze", "--execute")
	require.NoError(t, err)
	assert.Equal(t, out, executed)

	out, err = run(t, cfg, "route", "maze", "--max-steps", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "outcome: StepsExhausted"), out)
}

func TestTrainRunsInParallelAndInspect(t *testing.T) {
	cfg := writeConfig(t)
	plot := filepath.Join(t.TempDir(), "curve.png")

	graph := filepath.Join(t.TempDir(), "graph.json")

	out, err := run(t, cfg, "train", "maze", "--name", "classic", "--runs", "3", "--epochs", "5", "--plot", plot, "--graph", graph)
	require.NoError(t, err)
	assert.FileExists(t, graph)
	for i := 1; i <= 3; i++ {
		assert.Contains(t, out, fmt.Sprintf("classic-%d: ", i))
	}
	assert.FileExists(t, plot)

	out, err = run(t, cfg, "inspect")
	require.NoError(t, err)
	assert.Equal(t, "classic-1\nclassic-2\nclassic-3\n", out)

	out, err = run(t, cfg, "inspect", "classic-2", "--entries")
	require.NoError(t, err)
	assert.Contains(t, out, "name: classic-2")
	assert.Contains(t, out, "STATE")
	assert.Contains(t, out, "move to")
}

func TestResumeKeepsLearnedEntries(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "train", "maze", "--epochs", "3", "--seed", "1")
	require.NoError(t, err)
	before, err := run(t, cfg, "inspect", "maze")
	require.NoError(t, err)

	_, err = run(t, cfg, "train", "maze", "--epochs", "3", "--seed", "2", "--resume")
	require.NoError(t, err)
	after, err := run(t, cfg, "inspect", "maze")
	require.NoError(t, err)

	entries := func(s string) int {
		var n int
		for _, line := range strings.Split(s, "\n") {
			if _, err := fmt.Sscanf(line, "entries: %d", &n); err == nil {
				return n
			}
		}
		t.Fatalf("no entries line in %q", s)
		return 0
	}
	assert.GreaterOrEqual(t, entries(after), entries(before))
}

func TestTrainGridWithHeatmap(t *testing.T) {
	cfg := writeConfig(t)
	heatmap := filepath.Join(t.TempDir(), "visits.png")

	_, err := run(t, cfg, "train", "grid", "--height", "4", "--width", "4", "--grids", "2", "--settle", "1",
		"--epochs", "40", "--actions", "300", "--heatmap", heatmap)
	require.NoError(t, err)
	assert.FileExists(t, heatmap)

	out, err := run(t, cfg, "route", "grid", "--max-steps", "50")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "outcome: "), out)
}

func TestTrainWithStrictRule(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "train", "maze", "--epochs", "10", "--policy", "strict", "--rule", "8=move to 9")
	require.NoError(t, err)

	out, err := run(t, cfg, "inspect", "maze", "--entries")
	require.NoError(t, err)
	tookRule := false
	for _, line := range strings.Split(out, "\n") {
		f := strings.Fields(line)
		if len(f) < 4 || f[0] != "8" {
			continue
		}
		// STATE ACTION(move to N) RESULT VALUE
		assert.Equal(t, "9", f[3], "room 8 always follows its rule: %s", line)
		tookRule = true
	}
	assert.True(t, tookRule, out)

	_, err = run(t, cfg, "train", "maze", "--policy", "strict", "--rule", "no separator")
	assert.ErrorContains(t, err, "state=action")

	_, err = run(t, cfg, "train", "maze", "--policy", "strict")
	assert.ErrorContains(t, err, "training.rules")
}

func TestErrors(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "route", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = run(t, cfg, "train", "maze", "--policy", "oracle")
	assert.ErrorContains(t, err, "unknown policy")

	_, err = run(t, cfg, "train", "maze", "--runs", "0")
	assert.Error(t, err)

	_, err = run(t, cfg, "train", "grid", "--grids", "0")
	assert.Error(t, err)

	_, err = run(t, filepath.Join(t.TempDir(), "absent.yaml"), "inspect")
	assert.Error(t, err)
}
