package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidateCommand(format string, args ...string) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestValidateCommandMissingArgs(t *testing.T) {
	_, err := newTestValidateCommand("text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestValidateCommandValid(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeScenario(t, dir, "fanout.yaml", fanoutScenario)
	cuePath := writeScenario(t, dir, "delayed.cue", delayCUEScenario)

	buf, err := newTestValidateCommand("text", yamlPath, cuePath)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ "+yamlPath+" (fanout)")
	assert.Contains(t, buf.String(), "✓ "+cuePath+" (delayed)")
}

func TestValidateCommandInvalid(t *testing.T) {
	dir := t.TempDir()
	good := writeScenario(t, dir, "fanout.yaml", fanoutScenario)
	bad := writeScenario(t, dir, "broken.yaml", invalidScenario)

	buf, err := newTestValidateCommand("json", good, bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Files, 2)
	assert.True(t, resp.Data.Files[0].Valid)
	assert.False(t, resp.Data.Files[1].Valid)
	assert.Equal(t, ErrCodeInvalid, resp.Data.Files[1].Code)
	assert.Contains(t, resp.Data.Files[1].Error, "unknown source")
}

func TestValidateCommandUnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "extra.yaml", fanoutScenario+"extra: true\n")

	buf, err := newTestValidateCommand("text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeLoadFailed)
}

func TestValidateCommandMissingFile(t *testing.T) {
	buf, err := newTestValidateCommand("text", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeNotFound)
}
