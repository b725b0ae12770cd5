package commands

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	redisURL    string
	sessionName string
	logLevel    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "veil",
	Short: "Veil - privacy layer for live collaboration presence",
	Long: `Veil sits between a live collaboration session's shared presence store
and everything that reads it. Participant keys are replaced with stable
pseudonyms that land in a chosen color bucket, and sensitive presence fields
(pointer, username, selection) are stripped before they are stored.

Presence is shared through a Redis hash per session; 'veil up' starts a local
hub if you do not already have one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		log.SetLevel(level)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "veil.yml", "Path to veil.yml (defaults apply if missing)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis-url", "", "Redis URL of the presence hub (overrides config and VEIL_REDIS_URL)")
	rootCmd.PersistentFlags().StringVarP(&sessionName, "session", "s", "", "Collaboration session name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "Log level (debug, info, warning, error)")
}
