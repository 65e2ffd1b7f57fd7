package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/aymerick/raymond"
	"github.com/fulmenhq/cachestamp/internal/assets"
	"github.com/fulmenhq/cachestamp/pkg/config"
	"github.com/fulmenhq/cachestamp/pkg/logger"
	"github.com/fulmenhq/cachestamp/pkg/pattern"
	"github.com/fulmenhq/cachestamp/pkg/safeio"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a service worker (and optionally a config file)",
		Long: `Init writes a service worker that pre-caches the resources manifest and
declares the cache version cachestamp rewrites. Existing files are kept unless
--force is given.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
	addScriptFlags(cmd)
	addMatchFlags(cmd)
	cmd.Flags().String("cache-name", "app", "Cache name prefix used by the worker")
	cmd.Flags().String("manifest-url", "", "URL the worker fetches the manifest from (default /<output-path>/<manifest-name>)")
	cmd.Flags().Int("initial-version", 1, "Initial cache version")
	cmd.Flags().Bool("with-config", false, "Also write cachestamp.yaml with the effective settings")
	cmd.Flags().Bool("force", false, "Overwrite existing files")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	opts, _, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	cacheName, _ := cmd.Flags().GetString("cache-name")
	manifestURL, _ := cmd.Flags().GetString("manifest-url")
	initial, _ := cmd.Flags().GetInt("initial-version")
	withConfig, _ := cmd.Flags().GetBool("with-config")
	force, _ := cmd.Flags().GetBool("force")

	if manifestURL == "" {
		manifestURL = "/" + opts.ManifestAssetPath()
	}

	script, err := renderServiceWorker(map[string]interface{}{
		"keyword":     opts.Declaration.Keyword,
		"identifier":  opts.Declaration.Identifier,
		"version":     initial,
		"cacheName":   cacheName,
		"manifestUrl": manifestURL,
		"grouped":     opts.Rule.IsGrouped(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.DryRun {
		fmt.Fprint(out, script)
		return nil
	}

	if err := writeScaffold(opts.Root, opts.ScriptPath, []byte(script), force); err != nil {
		return err
	}
	fmt.Fprintf(out, "Created %s\n", path.Join(opts.Root, opts.ScriptPath))

	if withConfig {
		doc, err := starterConfig(opts)
		if err != nil {
			return err
		}
		if err := writeScaffold(".", "cachestamp.yaml", doc, force); err != nil {
			return err
		}
		fmt.Fprintln(out, "Created cachestamp.yaml")
	}
	return nil
}

func renderServiceWorker(ctx map[string]interface{}) (string, error) {
	tpl, err := assets.GetTemplate("service-worker.js.hbs")
	if err != nil {
		return "", fmt.Errorf("load service worker template: %w", err)
	}
	out, err := raymond.Render(string(tpl), ctx)
	if err != nil {
		return "", fmt.Errorf("render service worker template: %w", err)
	}
	return out, nil
}

func writeScaffold(root, rel string, data []byte, force bool) error {
	target, err := safeio.ResolveContained(root, rel)
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", rel)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := safeio.WriteFileContained(root, rel, data); err != nil {
		return err
	}
	logger.Debug("Wrote scaffold file", logger.String("path", target))
	return nil
}

func starterConfig(opts config.Options) ([]byte, error) {
	f := config.File{
		Match:          config.MatchSpec{Single: pattern.DefaultSpec},
		OutputPath:     opts.OutputPath,
		ManifestName:   opts.ManifestName,
		ManifestFormat: string(opts.Format),
		SWPath:         opts.ScriptPath,
		Root:           opts.Root,
		VersionHandler: opts.Handler.Name(),
		Identifier:     opts.Declaration.Identifier,
		Keyword:        opts.Declaration.Keyword,
	}
	if limit, ok := opts.Ceiling.Limit(); ok {
		f.MaxSize = limit
	}
	if opts.Rule.IsGrouped() {
		groups := map[string]string{}
		for _, label := range opts.Rule.Labels() {
			m, _ := opts.Rule.Matcher(label)
			groups[label] = m.String()
		}
		f.Match = config.MatchSpec{Groups: groups}
	} else if m, ok := opts.Rule.Matcher(""); ok {
		f.Match = config.MatchSpec{Single: m.String()}
	}
	return yaml.Marshal(f)
}
