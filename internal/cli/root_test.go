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

func runCommand(t *testing.T, args ...string) (map[string]any, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	var body map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &body), out.String())
	return body, nil
}

func TestIDValidateCommand(t *testing.T) {
	body, err := runCommand(t, "id", "validate", "--gts-id", "gts.acme.core.events.event.v1~")
	require.NoError(t, err)
	assert.Equal(t, true, body["valid"])

	body, err = runCommand(t, "id", "validate", "--gts-id", "nope")
	require.NoError(t, err)
	assert.Equal(t, false, body["valid"])
}

func TestIDParseCommand(t *testing.T) {
	body, err := runCommand(t, "id", "parse", "--gts-id", "gts.acme.core.events.event.v1.2~")
	require.NoError(t, err)
	assert.Equal(t, true, body["ok"])
}

func TestIDMatchCommand(t *testing.T) {
	body, err := runCommand(t, "id", "match",
		"--candidate", "gts.acme.core.events.event.v1~acme.app.main.boot.v1",
		"--pattern", "gts.acme.core.*")
	require.NoError(t, err)
	assert.Equal(t, true, body["match"])
}

func TestIDUUIDCommand(t *testing.T) {
	body, err := runCommand(t, "id", "uuid", "--gts-id", "gts.acme.core.events.event.v1~")
	require.NoError(t, err)
	assert.NotEmpty(t, body["uuid"])

	_, err = runCommand(t, "id", "uuid", "--gts-id", "bad")
	require.Error(t, err)
}

func TestListCommandFromPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "e.json"),
		[]byte(`{"$id": "gts.acme.core.events.event.v1~acme.app.main.boot.v1", "name": "x"}`), 0o644))

	body, err := runCommand(t, "list", "--json", "--path", dir)
	require.NoError(t, err)
	assert.Equal(t, float64(1), body["total"])
}

func TestQueryCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "e.json"),
		[]byte(`{"$id": "gts.acme.core.events.event.v1~acme.app.main.boot.v1", "status": "active"}`), 0o644))

	body, err := runCommand(t, "query", "--path", dir,
		"--expr", "gts.acme.core.events.event.v1~*[status=active]")
	require.NoError(t, err)
	assert.Equal(t, float64(1), body["count"])
}

func TestGetCommandMissing(t *testing.T) {
	body, err := runCommand(t, "get", "--gts-id", "gts.acme.core.events.event.v1~acme.app.main.nope.v1")
	require.NoError(t, err)
	assert.Equal(t, false, body["ok"])
}

func TestVersionCommand(t *testing.T) {
	body, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version, body["version"])
}

func TestAddCommandInline(t *testing.T) {
	body, err := runCommand(t, "add", "--content",
		`{"$id": "gts.acme.core.events.event.v1~acme.app.main.inline.v1"}`)
	require.NoError(t, err)
	assert.Equal(t, true, body["ok"])
}
