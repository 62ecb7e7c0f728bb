package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"minipack/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a minipack.toml",
	Long: `Write a starter minipack.toml into dir (default: the current directory) and,
when it does not exist yet, the entry module it points at.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("entry", "src/index.js", "entry module recorded in the manifest")
}

func runInit(cmd *cobra.Command, args []string) error {
	entry, err := cmd.Flags().GetString("entry")
	if err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := wd
	if len(args) == 1 && args[0] != "." {
		target = absFrom(wd, args[0])
	}
	if st, err := os.Stat(target); err == nil && !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}
	if filepath.IsAbs(entry) {
		return fmt.Errorf("--entry must be relative to the project directory")
	}

	path, err := config.WriteStarter(target, entry)
	if errors.Is(err, config.ErrExists) {
		return fmt.Errorf("project already initialized: %s exists", displayPath(wd, path))
	}
	if err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized minipack project in %s\n", displayPath(wd, target))
	fmt.Fprintf(out, "  - %s\n", config.FileName)
	fmt.Fprintf(out, "  - %s\n", filepath.ToSlash(entry))
	return nil
}
