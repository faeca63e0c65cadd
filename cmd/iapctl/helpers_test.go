package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// runCLI executes iapctl with args against a fresh command tree and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

// newDevice initialises a blank simulated device in a temporary directory.
func newDevice(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "device")
	_, err := runCLI(t, "init", "--device", dir)
	require.NoError(t, err)
	return dir
}

// writeTestFile writes data to name in a temporary directory and returns its path.
func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// decodeJSON unmarshals command output into a generic map.
func decodeJSON(t *testing.T, output string) map[string]interface{} {
	t.Helper()

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result), "output: %s", output)
	return result
}
