package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fulmenhq/cachestamp/pkg/config"
	"github.com/fulmenhq/cachestamp/pkg/patcher"
	"github.com/fulmenhq/cachestamp/pkg/pattern"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate cachestamp configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after file, environment and flags",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
	addMatchFlags(show)
	addScriptFlags(show)
	show.Flags().String("output", "yaml", "Output format: yaml or json")
	show.Flags().Bool("explain", false, "Also print the regular expression each pattern compiles to")

	validate := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a config file against the embedded schema",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigValidate,
	}

	schema := &cobra.Command{
		Use:   "schema",
		Short: "Print the embedded config schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.SchemaDocument()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(show, validate, schema)
	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	output, _ := cmd.Flags().GetString("output")
	explain, _ := cmd.Flags().GetBool("explain")

	file, used, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	opts, err := loadResolved(*file)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(output) {
	case "json":
		data, err := json.MarshalIndent(file, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %v", err)
		}
		fmt.Fprintln(out, string(data))
	case "yaml", "":
		if used != "" {
			fmt.Fprintf(out, "# source: %s\n", used)
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(file); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		return &config.ConfigError{Key: "output", Err: fmt.Errorf("unsupported output %q (yaml, json)", output)}
	}

	if explain {
		explainRule(out, opts)
	}
	return nil
}

func loadResolved(file config.File) (config.Options, error) {
	return config.Resolve(file, patcher.Env{})
}

func explainRule(out io.Writer, opts config.Options) {
	fmt.Fprintln(out, "# patterns")
	labels := opts.Rule.Labels()
	if len(labels) == 0 {
		labels = []string{""}
	}
	for _, label := range labels {
		m, ok := opts.Rule.Matcher(label)
		if !ok {
			continue
		}
		name := label
		if name == "" {
			name = "match"
		}
		fmt.Fprintf(out, "# %s: %s (%s) => %s\n", name, m.String(), m.Kind(), pattern.Explain(m))
	}
	fmt.Fprintf(out, "# max size: %s\n", opts.Ceiling)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	target, _ := cmd.Flags().GetString("config")
	if len(args) == 1 {
		target = args[0]
	}
	if target == "" {
		_, used, err := config.Load("", nil)
		if err != nil {
			return err
		}
		if used == "" {
			return &config.ConfigError{Err: errors.New("no config file found; pass a path or --config")}
		}
		target = used
	}

	res, err := config.ValidateFile(target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Valid {
		file, _, err := config.Load(target, nil)
		if err != nil {
			return err
		}
		if _, err := loadResolved(*file); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: valid\n", target)
		return nil
	}
	fmt.Fprintf(out, "%s: invalid\n", target)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "  - %s: %s\n", e.Path, e.Message)
	}
	return &config.ConfigError{Err: fmt.Errorf("%s failed schema validation with %d error(s)", target, len(res.Errors))}
}
