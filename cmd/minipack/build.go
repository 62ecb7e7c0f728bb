package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"minipack/internal/buildpipeline"
	"minipack/internal/config"
	"minipack/internal/diag"
	"minipack/internal/diagfmt"
	"minipack/internal/metafile"
	"minipack/internal/observ"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [entries...]",
	Short: "Bundle entry modules",
	Long: `Bundle every entry into <outdir>/<name>.bundle.js. Without arguments the
entries listed in minipack.toml are built.`,
	RunE: buildExecution,
}

func init() {
	addBundleFlags(buildCmd, true)
	buildCmd.Flags().Bool("analyze", false, "print a size breakdown of each bundle (implies --metafile)")
	buildCmd.Flags().Int("jobs", 0, "entries built in parallel (0 = all)")
	buildCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
}

func buildExecution(cmd *cobra.Command, args []string) error {
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
	analyze, err := cmd.Flags().GetBool("analyze")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	view, err := parseProgressView(uiValue)
	if err != nil {
		return err
	}
	if jobs < 0 {
		return fmt.Errorf("--jobs must not be negative")
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

	var timer *observ.Timer
	if out.timings {
		timer = observ.NewTimer()
	}
	reports := make([]buildReport, len(reqs))
	names := make([]string, len(reqs))
	for i := range reqs {
		reports[i].bag = newBag(out)
		reqs[i].Reporter = diag.BagReporter{Bag: reports[i].bag}
		reqs[i].Timer = timer
		reqs[i].Metafile = reqs[i].Metafile || analyze
		names[i] = displayPath(cwd, reqs[i].Entry)
	}

	var results []buildpipeline.Result
	if view.enabled(out, isTerminal(os.Stdout)) {
		entries := make([]string, len(reqs))
		for i := range reqs {
			entries[i] = reqs[i].Entry
		}
		results, err = runBuildsWithUI(cmd.Context(), "minipack build", entries, reqs, jobs)
	} else {
		results, err = buildpipeline.BuildAll(cmd.Context(), reqs, jobs)
	}

	attributed := false
	for i := range results {
		reports[i].files = results[i].Files
		reports[i].err = results[i].Err
		if results[i].Err != nil {
			attributed = true
		}
	}
	if err != nil && !attributed {
		// rejected before any entry ran
		return err
	}
	jsonTimings := out.timings && out.format == diagfmt.FormatJSON
	if jsonTimings {
		for i := range results {
			reports[i].bag.Add(buildpipeline.TimingDiagnostic(names[i], results[i].Timings))
		}
	}
	if printErr := printReports(os.Stderr, out, reports); printErr != nil {
		return printErr
	}

	stdout := cmd.OutOrStdout()
	if out.timings && !jsonTimings {
		for i := range results {
			printStageTimings(stdout, names[i], results[i].Timings)
		}
		printTimerReport(stdout, timer)
	}
	if err != nil {
		return errReported
	}

	for i := range results {
		res := &results[i]
		if !out.quiet {
			modules := 0
			if res.Graph != nil {
				modules = res.Graph.Len()
			}
			fmt.Fprintf(stdout, "built %s (%s, %d modules)\n", displayPath(cwd, res.OutputPath), humanBytes(len(res.Bundle)), modules)
			if res.MetafilePath != "" {
				fmt.Fprintf(stdout, "meta  %s\n", displayPath(cwd, res.MetafilePath))
			}
		}
		if analyze && res.Meta != nil {
			fmt.Fprintln(stdout)
			metafile.Display(stdout, metafile.Analyze(res.Meta), false)
		}
	}
	return nil
}

func humanBytes(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KiB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1024*1024))
	}
}
