package cmd

import (
	"fmt"

	"github.com/fulmenhq/cachestamp/pkg/config"
	"github.com/fulmenhq/cachestamp/pkg/host"
	"github.com/fulmenhq/cachestamp/pkg/logger"
	"github.com/fulmenhq/cachestamp/pkg/manifest"
	"github.com/fulmenhq/cachestamp/pkg/patcher"
	"github.com/fulmenhq/cachestamp/pkg/safeio"
	"github.com/fulmenhq/cachestamp/pkg/stamp"
	"github.com/spf13/cobra"
)

func newPatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch [service-worker]",
		Short: "Rewrite the service worker cache version in place",
		Long: `Patch rewrites "<keyword> <identifier> = <value>;" in the service worker with
the value computed by the version handler, without building a manifest.
Handlers that read the manifest (COUNT, HASH) need --assets pointing at the
build output, or --manifest pointing at a manifest emitted earlier.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPatch,
	}
	addScriptFlags(cmd)
	addMatchFlags(cmd)
	cmd.Flags().String("assets", "", "Build output directory used to compute the manifest for COUNT and HASH")
	cmd.Flags().String("manifest", "", "Previously emitted manifest file under --root, in --format, used for COUNT and HASH")
	cmd.Flags().Bool("print", false, "Print the rewritten script to stdout")
	return cmd
}

func runPatch(cmd *cobra.Command, args []string) error {
	opts, _, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		opts.ScriptPath = args[0]
	}
	assetsDir, _ := cmd.Flags().GetString("assets")
	manifestFile, _ := cmd.Flags().GetString("manifest")
	printText, _ := cmd.Flags().GetBool("print")
	if assetsDir != "" && manifestFile != "" {
		return &config.ConfigError{Key: "manifest", Err: fmt.Errorf("--assets and --manifest are mutually exclusive")}
	}

	var m manifest.Manifest
	if assetsDir != "" {
		comp, err := host.NewDirectory(assetsDir, host.DirectoryOptions{
			NoIgnore: opts.NoIgnore,
			Ignore:   opts.Ignore,
			Exclude:  []string{opts.ManifestAssetPath(), opts.ScriptAssetPath()},
		})
		if err != nil {
			return err
		}
		if m, _, err = stamp.New(opts, nil).Manifest(cmd.Context(), comp); err != nil {
			return err
		}
	}
	if manifestFile != "" {
		data, err := safeio.ReadFileContained(opts.Root, manifestFile)
		if err != nil {
			return err
		}
		if m, err = manifest.Decode(data, opts.Format); err != nil {
			return fmt.Errorf("decode %s: %w", manifestFile, err)
		}
	}
	if assetsDir == "" && manifestFile == "" && !opts.Handler.IsIncrement() {
		logger.Debug("No manifest given; handler sees an empty asset list", logger.String("handler", opts.Handler.Name()))
	}

	store := host.FileStore{Root: opts.Root}
	text, err := store.ReadText(opts.ScriptPath)
	if err != nil {
		return &stamp.ScriptReadError{Path: opts.ScriptPath, Err: err}
	}
	res, err := patcher.Patch(text, opts.Declaration, opts.Handler, m)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if printText {
		fmt.Fprint(out, res.Text)
	} else {
		fmt.Fprintf(out, "%s %s: %s -> %s\n", opts.ScriptPath, opts.Declaration.Identifier, res.Previous, res.Next)
	}

	if opts.DryRun {
		logger.Info("Dry run: service worker not written", logger.String("script", opts.ScriptPath))
		return nil
	}
	if err := store.WriteText(opts.ScriptPath, res.Text); err != nil {
		return &stamp.ScriptWriteError{Path: opts.ScriptPath, Err: err}
	}
	logger.Debug("Updated cache version", logger.String("script", opts.ScriptPath), logger.String("handler", res.Handler))
	return nil
}
