package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBareInvocationDefaultsToRun(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, CommandRun, parsed.Command)
	require.False(t, parsed.ShowHelp)
}

func TestParseCommands(t *testing.T) {
	for _, name := range []string{"run", "stop", "status", "ping", "doctor", "version"} {
		parsed, err := Parse([]string{name})
		require.NoError(t, err, name)
		require.Equal(t, Command(name), parsed.Command)
	}
}

func TestParseLangWithArgument(t *testing.T) {
	parsed, err := Parse([]string{"lang", "CS"})
	require.NoError(t, err)
	require.Equal(t, CommandLang, parsed.Command)
	require.Equal(t, "cs", parsed.LangArg)

	parsed, err = Parse([]string{"lang"})
	require.NoError(t, err)
	require.Empty(t, parsed.LangArg)
}

func TestParseConfigFlag(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/custom.conf", "status"})
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.conf", parsed.ConfigPath)
	require.Equal(t, CommandStatus, parsed.Command)

	_, err = Parse([]string{"--config"})
	require.Error(t, err)
}

func TestParseRejectsUnknownInput(t *testing.T) {
	_, err := Parse([]string{"--frobnicate"})
	require.Error(t, err)

	_, err = Parse([]string{"transcribe"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown command")

	_, err = Parse([]string{"stop", "extra"})
	require.Error(t, err)
}

func TestParseHelpAndVersionFlags(t *testing.T) {
	parsed, err := Parse([]string{"--help"})
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)

	parsed, err = Parse([]string{"--version"})
	require.NoError(t, err)
	require.Equal(t, CommandVersion, parsed.Command)
}

func TestHelpTextMentionsCommands(t *testing.T) {
	text := HelpText("dicto")
	for _, name := range []string{"run", "stop", "status", "ping", "lang", "doctor"} {
		require.True(t, strings.Contains(text, name), name)
	}
	require.Contains(t, text, "dicto")
}
