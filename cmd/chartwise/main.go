// Command chartwise runs medical record analyses from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/casualjim/chartwise"
	"github.com/casualjim/chartwise/internal/config"
	"github.com/casualjim/chartwise/internal/logging"
	"github.com/casualjim/chartwise/providers"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

type globalFlags struct {
	envFile   string
	logLevel  string
	logFormat string
	templates []string
	debug     bool
	noColor   bool
}

// session is what every subcommand works with once the root pre-run is done.
type session struct {
	flags   globalFlags
	app     *chartwise.App
	cleanup func()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	s := &session{cleanup: func() {}}

	rootCmd := &cobra.Command{
		Use:           "chartwise",
		Short:         "Structured AI analysis of medical records",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if s.flags.noColor {
				color.NoColor = true
			}
			cfg, err := config.Load(providers.BuiltInIDs(), s.flags.envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
				cfg.LogLevel = s.flags.logLevel
			}
			if cmd.Flags().Changed("log-format") || cfg.LogFormat == "" {
				cfg.LogFormat = s.flags.logFormat
			}
			if _, err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}

			app, cleanup, err := buildApp(cfg, s.flags)
			if err != nil {
				return err
			}
			s.app, s.cleanup = app, cleanup
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			s.cleanup()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&s.flags.envFile, "env-file", ".env", "dotenv file with API keys and CHARTWISE_* settings")
	flags.StringVar(&s.flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringVar(&s.flags.logFormat, "log-format", logging.FormatConsole, "log format (console, json)")
	flags.StringArrayVar(&s.flags.templates, "template-file", nil, "extra template file (JSON or YAML), repeatable")
	flags.BoolVar(&s.flags.debug, "debug", false, "dump full result envelopes")
	flags.BoolVar(&s.flags.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		providersCmd(s),
		templatesCmd(s),
		validateCmd(s),
		runCmd(s),
		batchCmd(s),
	)
	return rootCmd
}
