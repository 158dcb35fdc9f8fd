package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTestCommand(format string, args ...string) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := newTestTestCommand("text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := newTestTestCommand("text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	buf, err := newTestTestCommand("text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	buf, err := newTestTestCommand("json", t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
	assert.Empty(t, resp.Data.Scenarios)
}

func TestTestCommandAllPass(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "fanout.yaml", fanoutScenario)
	writeScenario(t, dir, "delayed.cue", delayCUEScenario)
	writeScenario(t, dir, "notes.txt", "not a scenario")

	buf, err := newTestTestCommand("text", dir)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "✓ fanout")
	assert.Contains(t, out, "✓ delayed")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "All scenarios passed")
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "fanout.yaml", fanoutScenario)
	writeScenario(t, dir, "failing.yaml", failingScenario)

	buf, err := newTestTestCommand("text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ failing")
	assert.Contains(t, buf.String(), "1 passed, 1 failed, 2 total")
}

func TestTestCommandLoadFailureCounted(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", invalidScenario)

	buf, err := newTestTestCommand("json", dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "broken.yaml", resp.Data.Scenarios[0].Name)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "failed to load scenario")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "fanout.yaml", fanoutScenario)
	writeScenario(t, dir, "failing.yaml", failingScenario)

	buf, err := newTestTestCommand("text", dir, "--filter", "fan*")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1 passed, 0 failed, 1 total")
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "fanout.yaml", fanoutScenario)

	_, err := newTestTestCommand("text", dir, "--update")
	require.NoError(t, err)

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "fanout.golden"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(golden, []byte(`{"scenario":"fanout","trace":[`)))

	buf, err := newTestTestCommand("text", dir)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ fanout")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "fanout.yaml", fanoutScenario)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "fanout.golden"), []byte(`{}`), 0644))

	buf, err := newTestTestCommand("text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "does not match golden file")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "delay.golden"),
		goldenFilePath(filepath.Join("scenarios", "delay.cue")))
}
