package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"minipack/internal/buildpipeline"
	"minipack/internal/config"
	"minipack/internal/diag"
	"minipack/internal/metafile"
)

var graphCmd = &cobra.Command{
	Use:   "graph [flags] [entry]",
	Short: "Print the module table of an entry",
	Long: `Discover the module graph of an entry and print every module with its id
and import mapping. Nothing is written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: graphExecution,
}

func init() {
	addBundleFlags(graphCmd, false)
	graphCmd.Flags().String("format", "text", "output format (text|json|msgpack)")
}

func graphExecution(cmd *cobra.Command, args []string) error {
	cleanup, err := instrument(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := readOutputOpts(cmd)
	if err != nil {
		return err
	}
	bf, err := readBundleFlags(cmd)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	var encoding metafile.Format
	if format != "text" {
		if encoding, err = metafile.ParseFormat(format); err != nil {
			return fmt.Errorf("unsupported format %q (must be text, json or msgpack)", format)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	manifest, _, err := config.Load(cwd)
	if err != nil {
		return err
	}
	reqs, err := planBuilds(bf, args, manifest, cwd)
	if err != nil {
		return err
	}
	req := reqs[0]
	req.Write = false
	req.Metafile = true

	report := buildReport{bag: newBag(out)}
	req.Reporter = diag.BagReporter{Bag: report.bag}
	res, err := buildpipeline.Build(cmd.Context(), &req)
	report.files = res.Files
	report.err = err
	if printErr := printReports(os.Stderr, out, []buildReport{report}); printErr != nil {
		return printErr
	}
	if err != nil {
		return errReported
	}

	meta := res.Meta
	meta.Output = nil
	if format == "text" {
		renderGraphTable(cmd.OutOrStdout(), meta, cwd)
		return nil
	}
	return metafile.Encode(cmd.OutOrStdout(), meta, encoding)
}

// renderGraphTable prints
//
//	ID  MODULE          IMPORTS
//	0   src/entry.js    ./message.js -> 1
func renderGraphTable(w io.Writer, m *metafile.Metafile, cwd string) {
	paths := make([]string, len(m.Modules))
	pathWidth := runewidth.StringWidth("MODULE")
	idWidth := len("ID")
	for i, mod := range m.Modules {
		paths[i] = displayPath(cwd, mod.Path)
		pathWidth = max(pathWidth, runewidth.StringWidth(paths[i]))
		idWidth = max(idWidth, len(strconv.FormatUint(uint64(mod.ID), 10)))
	}

	fmt.Fprintf(w, "%-*s  %s  %s\n", idWidth, "ID", runewidth.FillRight("MODULE", pathWidth), "IMPORTS")
	for i, mod := range m.Modules {
		imports := make([]string, len(mod.Imports))
		for j, imp := range mod.Imports {
			imports[j] = imp.Specifier + " -> " + strconv.FormatUint(uint64(imp.ID), 10)
		}
		line := fmt.Sprintf("%-*d  %s  %s", idWidth, mod.ID, runewidth.FillRight(paths[i], pathWidth), strings.Join(imports, ", "))
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	fmt.Fprintf(w, "\n%d modules, policy %s, memoize %t\n", len(m.Modules), m.Policy, m.Memoize)
}
