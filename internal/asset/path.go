package asset

import (
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// Canonical returns the absolute, cleaned form of path. The bytes of each
// name are kept as written: the filesystem compares them byte for byte.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// Key is the dedupe key of a canonical path. NFC and NFD spellings of one
// name share a key.
func Key(canon string) string {
	return norm.NFC.String(canon)
}

// Resolve joins spec against the directory of importer. Resolution is purely
// lexical: no extension inference, no index files, no package lookup.
func Resolve(importer, spec string) (string, error) {
	if filepath.IsAbs(spec) {
		return Canonical(spec)
	}
	return Canonical(filepath.Join(filepath.Dir(importer), filepath.FromSlash(spec)))
}
