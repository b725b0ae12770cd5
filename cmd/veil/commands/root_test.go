package commands

import (
	"bytes"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	env := setupCommandTest(t)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	require.NoError(t, env.run())
	assert.Contains(t, buf.String(), "Usage:")
	assert.Contains(t, buf.String(), "veil")
}

func TestRootCommand_LogLevel(t *testing.T) {
	env := setupCommandTest(t)
	orig := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(orig) })

	require.NoError(t, env.run("--log-level", "debug", "classify", "a"))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	err := env.run("--log-level", "chatty", "classify", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --log-level")
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"init", "up", "down", "hubs", "put", "list", "watch", "classify", "mint", "kick", "inspect"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestSetVersionInfo(t *testing.T) {
	orig := rootCmd.Version
	t.Cleanup(func() { rootCmd.Version = orig })

	SetVersionInfo("1.2.3", "abc", "today")
	assert.Equal(t, "1.2.3 (commit: abc, built: today)", rootCmd.Version)
}
