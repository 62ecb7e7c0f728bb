package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"minipack/internal/version"
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show minipack build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		full, err := cmd.Flags().GetBool("full")
		if err != nil {
			return err
		}
		payload := collectVersion(full)
		switch strings.ToLower(format) {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		case "pretty", "":
			renderVersionPretty(cmd.OutOrStdout(), payload)
			return nil
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("full", false, "include commit, build date and Go version")
}

// collectVersion prefers ldflags values and falls back to the VCS stamp the
// Go toolchain embeds.
func collectVersion(full bool) versionPayload {
	p := versionPayload{Tool: "minipack", Version: version.Plain()}
	if !full {
		return p
	}
	p.GitCommit = strings.TrimSpace(version.GitCommit)
	p.BuildDate = strings.TrimSpace(version.BuildDate)
	p.GoVersion = runtime.Version()
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && p.GitCommit == "":
				p.GitCommit = s.Value
			case s.Key == "vcs.time" && p.BuildDate == "":
				p.BuildDate = s.Value
			}
		}
	}
	if p.GitCommit == "" {
		p.GitCommit = "unknown"
	}
	if p.BuildDate == "" {
		p.BuildDate = "unknown"
	}
	return p
}

func renderVersionPretty(out io.Writer, p versionPayload) {
	fmt.Fprintf(out, "minipack %s\n", version.Version)
	if p.GitCommit != "" {
		fmt.Fprintf(out, "commit: %s\nbuilt:  %s\ngo:     %s\n", p.GitCommit, p.BuildDate, p.GoVersion)
	}
}
