package cmd

import (
	"fmt"

	"github.com/fulmenhq/cachestamp/pkg/host"
	"github.com/fulmenhq/cachestamp/pkg/logger"
	"github.com/fulmenhq/cachestamp/pkg/stamp"
	"github.com/spf13/cobra"
)

func newManifestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest [output-dir]",
		Short: "Build the resources manifest without touching the service worker",
		Long: `Manifest lists the output directory and prints the resources manifest to
stdout. With --emit it is also written into the output directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runManifest,
	}
	addMatchFlags(cmd)
	cmd.Flags().Bool("emit", false, "Write the manifest into the output directory")
	return cmd
}

func runManifest(cmd *cobra.Command, args []string) error {
	outDir := "."
	if len(args) == 1 {
		outDir = args[0]
	}
	emit, _ := cmd.Flags().GetBool("emit")

	opts, _, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	comp, err := host.NewDirectory(outDir, host.DirectoryOptions{
		NoIgnore: opts.NoIgnore,
		Ignore:   opts.Ignore,
		Exclude:  []string{opts.ManifestAssetPath(), opts.ScriptAssetPath()},
	})
	if err != nil {
		return err
	}

	m, encoded, err := stamp.New(opts, nil).Manifest(cmd.Context(), comp)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(encoded))
	if len(encoded) > 0 && encoded[len(encoded)-1] != '\n' {
		fmt.Fprintln(out)
	}

	if emit && !opts.DryRun {
		if err := comp.EmitAsset(opts.ManifestAssetPath(), encoded); err != nil {
			return &stamp.EmitError{Name: opts.ManifestAssetPath(), Err: err}
		}
		logger.Info("Emitted manifest", logger.String("path", opts.ManifestAssetPath()), logger.Int("assets", m.Count()))
	}
	return nil
}
