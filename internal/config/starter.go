package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Starter renders a manifest for a project whose entry is entry.
func Starter(entry string) string {
	d := Default()
	return fmt.Sprintf(`# minipack project manifest

[build]
entries = [%s]
outdir = %s
target = %s
metafile = false
metafile_format = %s

[graph]
# false loads a fresh copy of a module for every import occurrence
dedupe = true
max_modules = %d

[runtime]
# false re-runs a module body on every require
memoize = true
`,
		strconv.Quote(filepath.ToSlash(entry)),
		strconv.Quote(d.Build.OutDir),
		strconv.Quote(d.Build.Target),
		strconv.Quote(d.Build.MetafileFormat),
		d.Graph.MaxModules,
	)
}

// ErrExists is returned by WriteStarter when the manifest is already there.
var ErrExists = errors.New(FileName + " already exists")

// WriteStarter creates dir/minipack.toml and, when missing, the entry file.
func WriteStarter(dir, entry string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, ErrExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := os.WriteFile(path, []byte(Starter(entry)), 0o600); err != nil {
		return "", err
	}

	entryPath := filepath.Join(dir, filepath.FromSlash(entry))
	if _, err := os.Stat(entryPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(entryPath), 0o750); err != nil {
			return path, err
		}
		if err := os.WriteFile(entryPath, []byte("console.log('hello from minipack');\n"), 0o600); err != nil {
			return path, err
		}
	}
	return path, nil
}
