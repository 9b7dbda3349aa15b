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

const failingScenario = `name: wrong_password
description: "Expects a login to succeed with the wrong password"
flow:
  - invoke: Auth.login
    args: { email: john.doe@company.com, password: nope }
    expect: { case: Success }
assertions:
  - type: trace_count
    action: Auth.login
    count: 1
`

const passingScenario = `name: employee_login
description: "An employee signs in"
flow:
  - invoke: Auth.login
    args: { email: jane.smith@company.com, password: emp123 }
    expect: { case: Success, result: { user_id: "3", role: employee } }
assertions:
  - type: final_state
    table: session
    expect: { id: "3" }
`

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeScenario(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandMissingDir(t *testing.T) {
	out, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [INVALID_INPUT]: scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	dir := t.TempDir()

	out, err := runTestCommand(t, "text", dir)
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)

	out, err = runTestCommand(t, "json", dir)
	require.NoError(t, err)
	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Data.Scenarios)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := runTestCommand(t, "text", filepath.Join("..", "harness", "testdata"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ plan_edit_cap\n")
	assert.Contains(t, out, "✓ admin_users\n")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wrong_password.yaml", failingScenario)

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_password\n")
	assert.Contains(t, out, `expected case "Success", got "AUTH_FAILED"`)
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")

	out, err = runTestCommand(t, "json", dir)
	require.Error(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nflow: []\n")

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml\n")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandUpdateWritesGolden(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "employee_login.yaml", passingScenario)

	out, err := runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ employee_login (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "employee_login.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name": "employee_login"`)

	// A second run compares against the file just written.
	out, err = runTestCommand(t, "text", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ employee_login\n")

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0644))
	out, err = runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "employee_login.yaml", passingScenario)
	writeScenario(t, dir, "wrong_password.yaml", failingScenario)
	writeScenario(t, dir, "notes.txt", "not a scenario")

	out, err := runTestCommand(t, "text", dir, "--filter", "employee_*")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "wrong_password")

	_, err = runTestCommand(t, "text", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
