/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fulmenhq/cachestamp/internal/ops"
	"github.com/fulmenhq/cachestamp/pkg/buildinfo"
	"github.com/fulmenhq/cachestamp/pkg/config"
	"github.com/fulmenhq/cachestamp/pkg/exitcode"
	"github.com/fulmenhq/cachestamp/pkg/logger"
	"github.com/fulmenhq/cachestamp/pkg/stamp"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cachestamp",
		Short: "Service worker cache manifest and version stamping",
		Long: `Cachestamp post-processes a finished front-end build. It writes a resources
manifest listing the output assets a service worker should pre-cache, and bumps
the cache version declared in the service worker so clients pick up new assets.

Examples:
   cachestamp run dist                    # Manifest + version bump for ./dist
   cachestamp run dist --group js='glob:**/*.js' --group css='glob:**/*.css'
   cachestamp manifest dist --format yaml # Print the manifest only
   cachestamp patch --handler hash        # Bump the version without a build
   cachestamp init                        # Scaffold a service worker`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("no-op", false, "Report what would change without emitting or writing anything")
	cmd.PersistentFlags().String("log-file", "", "Also append JSON logs to this file (size-rotated)")
	cmd.PersistentFlags().String("config", "", "Config file (default: cachestamp.{yaml,yml,json,toml} in the working directory)")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("cachestamp {{.Version}}\n")

	// Grouped help by command group (Build → Support)
	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		if c.HasParent() {
			defaultHelp(c, args)
			return
		}
		reg := ops.GetRegistry()
		c.Println(c.Long)
		c.Println()
		for _, group := range ops.Groups() {
			c.Printf("%s:\n", group.Title())
			for _, r := range reg.GetCommandsByGroup(group) {
				c.Printf("  %-12s %s\n", r.Name, r.Description)
			}
			c.Println()
		}
		c.Println("Flags:")
		c.Print(c.LocalFlags().FlagUsages())
	})

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newManifestCommand())
	cmd.AddCommand(newPatchCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newVersionCommand())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func init() {
	registerSubcommands(rootCmd)
	groups := ops.CoreCommands()
	for _, c := range rootCmd.Commands() {
		if group, ok := groups[c.Name()]; ok {
			if err := ops.RegisterCommand(c.Name(), group, c, c.Short); err != nil {
				panic(fmt.Sprintf("Failed to register %s command: %v", c.Name(), err))
			}
		}
	}
	if errs := ops.Validate(ops.GetRegistry()); len(errs) > 0 {
		panic(ops.FormatErrors(errs))
	}
}

// Execute runs the CLI and exits with a code derived from the error.
// This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error("Command execution failed", logger.Err(err))
	}
	_ = logger.Close()
	if err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// diagnosticsError fails a run that reported recoverable problems under --strict.
type diagnosticsError struct {
	count int
}

func (e *diagnosticsError) Error() string {
	return fmt.Sprintf("%d diagnostic(s) reported (--strict)", e.count)
}

func exitCodeFor(err error) int {
	var (
		cfgErr   *config.ConfigError
		writeErr *stamp.ScriptWriteError
		emitErr  *stamp.EmitError
		diagErr  *diagnosticsError
	)
	switch {
	case err == nil:
		return exitcode.Success
	case errors.As(err, &cfgErr):
		return exitcode.ConfigError
	case errors.As(err, &diagErr):
		return exitcode.DiagnosticError
	case errors.Is(err, os.ErrPermission):
		return exitcode.PermissionError
	case errors.As(err, &writeErr), errors.As(err, &emitErr):
		return exitcode.FileSystemError
	default:
		return exitcode.GeneralError
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	noOp, _ := cmd.Flags().GetBool("no-op")
	logFile, _ := cmd.Flags().GetString("log-file")

	cfg := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "cachestamp",
		NoOp:      noOp,
		File:      logFile,
	}

	if err := logger.Initialize(cfg); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
}
