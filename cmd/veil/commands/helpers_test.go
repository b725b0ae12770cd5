package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/veil/internal/printer"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cmdEnv is a hub and a config location for one command test.
type cmdEnv struct {
	mr     *miniredis.Miniredis
	url    string
	config string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// setupCommandTest resets global command state and starts a miniredis hub.
func setupCommandTest(t *testing.T) *cmdEnv {
	t.Helper()

	resetFlags(rootCmd)
	t.Setenv("VEIL_REDIS_URL", "")

	var stdout, stderr bytes.Buffer
	printer.SetOutput(&stdout, &stderr)
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = prev
		printer.SetOutput(os.Stdout, os.Stderr)
		resetFlags(rootCmd)
	})

	mr := miniredis.RunT(t)
	return &cmdEnv{
		mr:     mr,
		url:    "redis://" + mr.Addr(),
		config: filepath.Join(t.TempDir(), "veil.yml"),
		stdout: &stdout,
		stderr: &stderr,
	}
}

// run executes the root command against the test hub and config.
func (e *cmdEnv) run(args ...string) error {
	full := append([]string{"--config", e.config, "--redis-url", e.url}, args...)
	rootCmd.SetArgs(full)
	return rootCmd.Execute()
}

// resetFlags restores every flag of c and its subcommands to its default.
func resetFlags(c *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				sv.Replace(nil)
			} else {
				f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
