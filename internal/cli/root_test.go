package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "yamlpath", cmd.Use)
	assert.Contains(t, cmd.Long, "per-path policies")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"merge", "paths", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	for name, short := range map[string]string{"debug": "d", "verbose": "v", "quiet": "q"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, short, flag.Shorthand)
		assert.Equal(t, "false", flag.DefValue)
	}
}

func TestMergeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	mergeCmd, _, err := cmd.Find([]string{"merge"})
	require.NoError(t, err)

	shorthands := map[string]string{
		"config":          "c",
		"anchors":         "a",
		"arrays":          "A",
		"hashes":          "H",
		"aoh":             "O",
		"mergeat":         "m",
		"output":          "o",
		"document-format": "D",
		"nostdin":         "S",
	}
	for name, short := range shorthands {
		flag := mergeCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, short, flag.Shorthand, name)
	}

	assert.Equal(t, "/", mergeCmd.Flags().Lookup("mergeat").DefValue)
	assert.Equal(t, "auto", mergeCmd.Flags().Lookup("document-format").DefValue)
	require.NotNil(t, mergeCmd.Flags().Lookup("journal"))
}

func TestPathsCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	pathsCmd, _, err := cmd.Find([]string{"paths"})
	require.NoError(t, err)

	searchFlag := pathsCmd.Flags().Lookup("search")
	require.NotNil(t, searchFlag)
	assert.Equal(t, "s", searchFlag.Shorthand)

	sepFlag := pathsCmd.Flags().Lookup("pathsep")
	require.NotNil(t, sepFlag)
	assert.Equal(t, "dot", sepFlag.DefValue)
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

	formatFlag := testCmd.Flags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestNoiseFlagsAreExclusive(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-q", "-d", "test", t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestLevel(t *testing.T) {
	tests := []struct {
		name  string
		opts  RootOptions
		quiet bool
		want  slog.Level
	}{
		{"default", RootOptions{}, false, slog.LevelWarn},
		{"verbose", RootOptions{Verbose: true}, false, slog.LevelInfo},
		{"debug", RootOptions{Debug: true}, false, slog.LevelDebug},
		{"quiet_flag", RootOptions{Quiet: true}, false, slog.LevelError},
		{"forced_quiet", RootOptions{Debug: true}, true, slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.Level(tt.quiet))
		})
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	opts := &RootOptions{Verbose: true}
	logger := opts.Logger(buf, false)

	logger.Debug("hidden")
	logger.Info("shown", "source", "a.yaml")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "source=a.yaml")
}

func TestPrintError(t *testing.T) {
	buf := &bytes.Buffer{}
	PrintError(buf, NewExitError(ExitParse, "merge failed"))
	assert.Equal(t, "yamlpath: merge failed\n", buf.String())
}
