package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"minipack/internal/buildpipeline"
	"minipack/internal/config"
	"minipack/internal/graph"
	"minipack/internal/lower"
	"minipack/internal/metafile"
)

const noManifestMessage = "no entry given and no " + config.FileName + " found (pass an entry or run `minipack init`)"

// bundleFlags are the graph and output flags shared by build, run and graph.
// set records which of them the user passed explicitly.
type bundleFlags struct {
	outfile        string
	outdir         string
	target         string
	noDedupe       bool
	noMemoize      bool
	maxModules     int
	metafile       bool
	metafileFormat string

	set map[string]bool
}

func addBundleFlags(cmd *cobra.Command, withOutput bool) {
	f := cmd.Flags()
	f.String("target", lower.DefaultTarget, "language level of emitted module code (es5, es2015..es2022, esnext)")
	f.Bool("no-dedupe", false, "load a fresh module copy for every import occurrence")
	f.Bool("no-memoize", false, "re-run a module body on every require")
	f.Int("max-modules", graph.DefaultMaxModules, "abort when the graph grows past this many modules")
	if withOutput {
		f.StringP("outfile", "o", "", "output file (single entry only)")
		f.String("outdir", "", "output directory (default from "+config.FileName+" or dist)")
		f.Bool("metafile", false, "write a metafile next to each bundle")
		f.String("metafile-format", metafile.FormatJSON.String(), "metafile encoding (json|msgpack)")
	}
}

func readBundleFlags(cmd *cobra.Command) (bundleFlags, error) {
	f := cmd.Flags()
	bf := bundleFlags{set: make(map[string]bool)}
	var err error
	if bf.target, err = f.GetString("target"); err != nil {
		return bf, err
	}
	if bf.noDedupe, err = f.GetBool("no-dedupe"); err != nil {
		return bf, err
	}
	if bf.noMemoize, err = f.GetBool("no-memoize"); err != nil {
		return bf, err
	}
	if bf.maxModules, err = f.GetInt("max-modules"); err != nil {
		return bf, err
	}
	if f.Lookup("outfile") != nil {
		if bf.outfile, err = f.GetString("outfile"); err != nil {
			return bf, err
		}
		if bf.outdir, err = f.GetString("outdir"); err != nil {
			return bf, err
		}
		if bf.metafile, err = f.GetBool("metafile"); err != nil {
			return bf, err
		}
		if bf.metafileFormat, err = f.GetString("metafile-format"); err != nil {
			return bf, err
		}
	}
	for _, name := range []string{"target", "max-modules", "outdir", "metafile-format"} {
		if fl := f.Lookup(name); fl != nil && fl.Changed {
			bf.set[name] = true
		}
	}
	return bf, nil
}

// planBuilds merges the manifest (may be nil) with flags into one request
// per entry. Relative entries and outputs resolve against cwd.
func planBuilds(bf bundleFlags, args []string, manifest *config.Manifest, cwd string) ([]buildpipeline.Request, error) {
	cfg := config.Default()
	if manifest != nil {
		cfg = manifest.Config
	}

	var entries []string
	switch {
	case len(args) > 0:
		for _, a := range args {
			entries = append(entries, absFrom(cwd, a))
		}
	case manifest != nil && len(cfg.Build.Entries) > 0:
		entries = manifest.EntryPaths()
	default:
		return nil, errors.New(noManifestMessage)
	}
	if bf.outfile != "" && len(entries) > 1 {
		return nil, fmt.Errorf("--outfile needs exactly one entry, got %d", len(entries))
	}

	target := cfg.Build.Target
	if bf.set["target"] {
		target = bf.target
	}
	if _, err := lower.ParseTarget(target); err != nil {
		return nil, err
	}

	maxModules := cfg.Graph.MaxModules
	if bf.set["max-modules"] {
		maxModules = bf.maxModules
	}
	if maxModules <= 0 {
		return nil, fmt.Errorf("--max-modules must be positive, got %d", maxModules)
	}

	policy := cfg.Policy()
	if bf.noDedupe {
		policy = graph.PolicyLiteral
	}
	memoize := cfg.Runtime.Memoize && !bf.noMemoize

	outdir := absFrom(cwd, cfg.Build.OutDir)
	if manifest != nil {
		outdir = manifest.OutDir()
	}
	if bf.set["outdir"] {
		outdir = absFrom(cwd, bf.outdir)
	}

	formatName := cfg.Build.MetafileFormat
	if bf.set["metafile-format"] {
		formatName = bf.metafileFormat
	}
	format, err := metafile.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	reqs := make([]buildpipeline.Request, len(entries))
	for i, entry := range entries {
		reqs[i] = buildpipeline.Request{
			Entry:          entry,
			OutDir:         outdir,
			Target:         target,
			Policy:         policy,
			MaxModules:     maxModules,
			Memoize:        memoize,
			Write:          true,
			Metafile:       bf.metafile || cfg.Build.Metafile,
			MetafileFormat: format,
		}
		if bf.outfile != "" {
			reqs[i].Outfile = absFrom(cwd, bf.outfile)
		}
	}
	return reqs, nil
}

func absFrom(cwd, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(cwd, p)
}

// displayPath shortens p for terminal output.
func displayPath(cwd, p string) string {
	if cwd == "" || p == "" {
		return p
	}
	rel, err := filepath.Rel(cwd, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
