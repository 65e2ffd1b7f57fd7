package cmd

import (
	"github.com/fulmenhq/cachestamp/pkg/config"
	"github.com/fulmenhq/cachestamp/pkg/logger"
	"github.com/fulmenhq/cachestamp/pkg/patcher"
	"github.com/spf13/cobra"
)

// addMatchFlags registers the manifest selection flags.
func addMatchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("match", "", `Asset pattern: "re:<regexp>", "/<regexp>/", "glob:<glob>" or a bare glob (default re:\.(js|css)$)`)
	f.StringToString("group", nil, "Labelled pattern, label=pattern (repeatable; produces a grouped manifest)")
	f.String("output-path", "", "Prefix for emitted assets inside the output directory")
	f.String("manifest-name", "", "Manifest file name (default resources-manifest.json)")
	f.String("format", "", "Manifest encoding: json, json-pretty, yaml, toml (default json)")
	f.Int64("max-size", 0, "Only list assets smaller than this many bytes (0 = unbounded)")
	f.Bool("no-ignore", false, "Do not honour .gitignore / .cachestampignore in the output directory")
	f.StringSlice("ignore", nil, "Extra gitignore-style patterns excluded from the listing")
}

// addScriptFlags registers the version patching flags.
func addScriptFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("root", "", "Directory the service worker path is relative to (default .)")
	f.String("sw-path", "", "Service worker to rewrite (default service-worker.js)")
	f.String("sw-output", "", "Asset name for the rewritten service worker (default base name of --sw-path)")
	f.String("handler", "", "Version handler: INCREMENT, COUNT, TIMESTAMP, HASH, GIT_SHA (default INCREMENT)")
	f.String("identifier", "", "Declared identifier holding the version (default CACHE_VERSION)")
	f.String("keyword", "", "Declaration keyword (default const)")
	f.Bool("dry-run", false, "Show what would change without emitting or writing")
}

// loadOptions layers config file, environment and flags, then resolves them.
func loadOptions(cmd *cobra.Command) (config.Options, string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	file, used, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return config.Options{}, "", err
	}
	opts, err := config.Resolve(*file, patcher.Env{})
	if err != nil {
		return config.Options{}, "", err
	}
	if noOp, _ := cmd.Flags().GetBool("no-op"); noOp {
		opts.DryRun = true
	}
	if used != "" {
		logger.Debug("Loaded configuration", logger.String("file", used))
	}
	return opts, used, nil
}
