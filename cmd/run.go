/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fulmenhq/cachestamp/pkg/ascii"
	"github.com/fulmenhq/cachestamp/pkg/host"
	"github.com/fulmenhq/cachestamp/pkg/logger"
	"github.com/fulmenhq/cachestamp/pkg/stamp"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [output-dir]",
		Short: "Emit the resources manifest and bump the service worker version",
		Long: `Run lists the files of a finished build output directory, writes the resources
manifest into it, rewrites the cache version declaration of the service worker,
places the rewritten worker next to the manifest and saves it back to its source.

A missing or malformed version declaration is reported and leaves the worker
untouched; the manifest is still written. Use --strict to fail in that case.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}
	addMatchFlags(cmd)
	addScriptFlags(cmd)
	cmd.Flags().Bool("strict", false, "Exit non-zero when diagnostics were reported")
	cmd.Flags().String("report", "summary", "Report style: summary, json, none")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	outDir := "."
	if len(args) == 1 {
		outDir = args[0]
	}
	strict, _ := cmd.Flags().GetBool("strict")
	reportStyle, _ := cmd.Flags().GetString("report")

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

	report, err := stamp.New(opts, host.FileStore{Root: opts.Root}).Apply(cmd.Context(), comp)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch reportStyle {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %v", err)
		}
		fmt.Fprintln(out, string(data))
	case "none":
	default:
		writeSummary(out, report)
	}

	if strict && len(report.Diagnostics) > 0 {
		return &diagnosticsError{count: len(report.Diagnostics)}
	}
	if len(report.Diagnostics) > 0 {
		logger.Warn("Build finished with diagnostics", logger.Int("count", len(report.Diagnostics)))
	}
	return nil
}

// writeSummary prints a boxed overview of the run.
func writeSummary(out io.Writer, r stamp.Report) {
	var rows [][]string
	if r.Manifest.Grouped {
		for _, label := range r.Manifest.Labels() {
			names := r.Manifest.Group(label)
			rows = append(rows, []string{ascii.Title(label), strconv.Itoa(len(names)), firstName(names)})
		}
	} else {
		rows = append(rows, []string{"Assets", strconv.Itoa(len(r.Manifest.Names)), firstName(r.Manifest.Names)})
	}

	lines := []string{fmt.Sprintf("Manifest %s (%d of %d assets)", r.ManifestPath, r.Manifest.Count(), r.Assets)}
	lines = append(lines, ascii.Table(rows)...)

	switch {
	case r.Patch == nil:
		lines = append(lines, "Version  unchanged")
	case !r.Patch.Changed():
		lines = append(lines, fmt.Sprintf("Version  %s unchanged (%s)", r.Patch.Next, r.Patch.Handler))
	case r.DryRun:
		lines = append(lines, fmt.Sprintf("Version  %s -> %s (dry run)", r.Patch.Previous, r.Patch.Next))
	default:
		lines = append(lines, fmt.Sprintf("Version  %s -> %s (%s)", r.Patch.Previous, r.Patch.Next, r.Patch.Handler))
	}
	for _, d := range r.Diagnostics {
		lines = append(lines, "Warning  "+ascii.Truncate(d.Message, 72))
	}
	fmt.Fprint(out, ascii.Box(lines))
}

func firstName(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return ascii.Truncate(names[0], 40)
	default:
		return ascii.Truncate(names[0], 40) + fmt.Sprintf(" (+%d)", len(names)-1)
	}
}
