/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/fulmenhq/cachestamp/internal/gitctx"
	"github.com/fulmenhq/cachestamp/pkg/buildinfo"
	"github.com/fulmenhq/cachestamp/pkg/patcher"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show cachestamp version and build information",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show detailed build and git information")
	cmd.Flags().String("output", "text", "Output format: text or json")
	return cmd
}

type versionInfo struct {
	Version       string   `json:"version"`
	ModuleVersion string   `json:"moduleVersion,omitempty"`
	Revision      string   `json:"revision,omitempty"`
	GoVersion     string   `json:"goVersion"`
	Platform      string   `json:"platform"`
	Handlers      []string `json:"handlers,omitempty"`
	GitCommit     string   `json:"gitCommit,omitempty"`
	GitBranch     string   `json:"gitBranch,omitempty"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	output, _ := cmd.Flags().GetString("output")

	info := versionInfo{
		Version:   buildinfo.BinaryVersion,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if extended {
		info.ModuleVersion = buildinfo.ModuleVersion()
		info.Revision = buildinfo.VCSRevision()
		info.Handlers = patcher.Names()
		// Working tree commit, as GIT_SHA would stamp it.
		if head, err := gitctx.Head("."); err == nil {
			info.GitCommit = head.Short()
			info.GitBranch = head.Branch
		}
	}

	out := cmd.OutOrStdout()
	if output == "json" {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %v", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "cachestamp %s\n", info.Version)
	fmt.Fprintf(out, "Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "OS/Arch: %s\n", info.Platform)
	if extended {
		if info.ModuleVersion != "" {
			fmt.Fprintf(out, "Module: %s\n", info.ModuleVersion)
		}
		if info.Revision != "" {
			fmt.Fprintf(out, "Build revision: %s\n", info.Revision)
		}
		fmt.Fprintf(out, "Version handlers: %v\n", info.Handlers)
		if info.GitCommit != "" {
			fmt.Fprintf(out, "Git commit: %s", info.GitCommit)
			if info.GitBranch != "" {
				fmt.Fprintf(out, " (%s)", info.GitBranch)
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}
