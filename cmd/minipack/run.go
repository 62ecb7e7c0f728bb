package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"minipack/internal/buildpipeline"
	"minipack/internal/config"
	"minipack/internal/diag"
	"minipack/internal/jsrun"
	"minipack/internal/observ"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [entry]",
	Short: "Bundle an entry in memory and execute it",
	Long: `Bundle an entry without writing it and evaluate the result in an embedded
JavaScript engine. console.log goes to stdout. Without an argument the first
entry of minipack.toml is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExecution,
}

func init() {
	addBundleFlags(runCmd, false)
	runCmd.Flags().Duration("timeout", 0, "interrupt the script after this long (0 = no limit)")
}

func runExecution(cmd *cobra.Command, args []string) error {
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
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
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
	req.Metafile = false

	report := buildReport{bag: newBag(out)}
	req.Reporter = diag.BagReporter{Bag: report.bag}
	var timer *observ.Timer
	if out.timings {
		timer = observ.NewTimer()
		req.Timer = timer
	}

	res, err := buildpipeline.Build(cmd.Context(), &req)
	report.files = res.Files
	report.err = err
	if printErr := printReports(os.Stderr, out, []buildReport{report}); printErr != nil {
		return printErr
	}
	if err != nil {
		return errReported
	}

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	runner := &jsrun.Runner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	name := filepath.Base(req.Entry) + ".bundle.js"
	err = timer.Track("run "+filepath.Base(req.Entry), func() (string, error) {
		return "", runner.Run(ctx, name, res.Bundle)
	})
	if out.timings {
		printTimerReport(cmd.ErrOrStderr(), timer)
	}
	if err != nil {
		var se *jsrun.ScriptError
		if errors.As(err, &se) && se.Stack != "" {
			return fmt.Errorf("%s", se.Stack)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s did not finish within %s", name, timeout.Round(time.Millisecond))
		}
		return err
	}
	return nil
}
