package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "worktrack", cmd.Use)
	assert.Contains(t, cmd.Long, "three times")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"init"}, {"login"}, {"logout"}, {"whoami"},
		{"plan", "submit"}, {"plan", "show"},
		{"eod", "submit"}, {"eod", "show"},
		{"user", "list"}, {"user", "add"}, {"user", "update"}, {"user", "delete"},
		{"report", "stats"}, {"report", "compliance"}, {"report", "weekly"},
		{"report", "summary"}, {"report", "history"}, {"report", "recent"},
		{"test"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestEODSubmitFlags(t *testing.T) {
	cmd := NewRootCommand()
	submit, _, err := cmd.Find([]string{"eod", "submit"})
	require.NoError(t, err)

	done := submit.Flags().Lookup("done")
	require.NotNil(t, done)
	assert.Equal(t, "d", done.Shorthand)

	hours := submit.Flags().Lookup("hours")
	require.NotNil(t, hours)
	assert.Equal(t, []string{"true"}, hours.Annotations["cobra_annotation_bash_completion_one_required_flag"])
}

func TestReportRecentDefaultLimit(t *testing.T) {
	cmd := NewRootCommand()
	recent, _, err := cmd.Find([]string{"report", "recent"})
	require.NoError(t, err)

	limit := recent.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "5", limit.DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "whoami"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.False(t, IsReported(err))
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
