package buildpipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"minipack/internal/diag"
)

// OutputPath derives the bundle path for entry: <outdir>/<name>.bundle.js.
func OutputPath(entry, outdir string) string {
	base := filepath.Base(entry)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outdir, base+".bundle.js")
}

// writeAtomic replaces path with data through a temp file in the same directory.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return diag.Errorf(diag.BundleWriteFailed, path, err, "cannot create output directory: %v", err)
	}
	f, err := os.CreateTemp(dir, ".minipack-*")
	if err != nil {
		return diag.Errorf(diag.BundleWriteFailed, path, err, "cannot create temp file: %v", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return diag.Errorf(diag.BundleWriteFailed, path, err, "write: %v", err)
	}
	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		return diag.Errorf(diag.BundleWriteFailed, path, err, "chmod: %v", err)
	}
	if err := f.Close(); err != nil {
		return diag.Errorf(diag.BundleWriteFailed, path, err, "close: %v", err)
	}
	// атомарная замена
	if err := os.Rename(f.Name(), path); err != nil {
		return diag.Errorf(diag.BundleWriteFailed, path, err, "rename: %v", err)
	}
	return nil
}

func sizeLabel(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
