// Package emit writes the final bundle: a module table keyed by asset id and
// a small loader runtime that evaluates it.
package emit

import (
	"encoding/json"
	"fmt"
	"strings"

	"minipack/internal/asset"
	"minipack/internal/diag"
)

// Options control the emitted runtime.
type Options struct {
	// Memoize caches module.exports per id; the record is cached before the
	// factory runs, so cyclic requires see the partially filled exports.
	// Without it every require re-runs the module body.
	Memoize bool
}

// DefaultOptions returns the memoizing runtime.
func DefaultOptions() Options {
	return Options{Memoize: true}
}

const runtimeHead = `(function (modules) {
`

const runtimeCache = `  var cache = {};
`

const runtimeRequire = `  function require(id) {
`

const runtimeCacheHit = `    if (Object.prototype.hasOwnProperty.call(cache, id)) {
      return cache[id].exports;
    }
`

const runtimeBody = `    var fn = modules[id][0];
    var mapping = modules[id][1];

    function localRequire(name) {
      if (!Object.prototype.hasOwnProperty.call(mapping, name)) {
        throw new Error("Cannot find module '" + name + "' from module " + id);
      }
      return require(mapping[name]);
    }

    var module = { exports: {} };
`

const runtimeCacheStore = `    cache[id] = module;
`

const runtimeCall = `    fn(localRequire, module, module.exports);
    return module.exports;
  }

  require(0);
})({
`

const runtimeTail = `});
`

// Bundle renders assets as one self-contained script.
// Module code is inserted verbatim.
func Bundle(assets []*asset.Asset, opts Options) ([]byte, error) {
	if err := Validate(assets); err != nil {
		return nil, err
	}

	var sb strings.Builder
	size := len(runtimeHead) + len(runtimeBody) + len(runtimeCall) + 256
	for _, a := range assets {
		size += len(a.Code) + 64
	}
	sb.Grow(size)

	sb.WriteString(runtimeHead)
	if opts.Memoize {
		sb.WriteString(runtimeCache)
	}
	sb.WriteString(runtimeRequire)
	if opts.Memoize {
		sb.WriteString(runtimeCacheHit)
	}
	sb.WriteString(runtimeBody)
	if opts.Memoize {
		sb.WriteString(runtimeCacheStore)
	}
	sb.WriteString(runtimeCall)

	for _, a := range assets {
		fmt.Fprintf(&sb, "  %d: [function (require, module, exports) {\n", a.ID)
		sb.WriteString(a.Code)
		if !strings.HasSuffix(a.Code, "\n") {
			sb.WriteByte('\n')
		}
		sb.WriteString("  }, ")
		if err := writeMapping(&sb, a.Mapping); err != nil {
			return nil, diag.Errorf(diag.BundleCorruptGraph, a.Path, err, "cannot encode mapping: %v", err)
		}
		sb.WriteString("],\n")
	}
	sb.WriteString(runtimeTail)
	return []byte(sb.String()), nil
}

// writeMapping emits {"spec": id, ...} in insertion order.
func writeMapping(sb *strings.Builder, m *asset.Mapping) error {
	sb.WriteByte('{')
	for i, e := range m.Entries() {
		if i > 0 {
			sb.WriteString(", ")
		}
		key, err := json.Marshal(e.Specifier)
		if err != nil {
			return err
		}
		sb.Write(key)
		fmt.Fprintf(sb, ": %d", e.ID)
	}
	sb.WriteByte('}')
	return nil
}

// Validate checks that ids are dense from 0, every asset is linked and
// every mapping value names an asset in the table.
func Validate(assets []*asset.Asset) error {
	if len(assets) == 0 {
		return diag.Errorf(diag.BundleCorruptGraph, "", nil, "empty module table")
	}
	for i, a := range assets {
		if a == nil {
			return diag.Errorf(diag.BundleCorruptGraph, "", nil, "asset %d is nil", i)
		}
		if int(a.ID) != i {
			return diag.Errorf(diag.BundleCorruptGraph, a.Path, nil, "asset at position %d has id %d", i, a.ID)
		}
		if !a.Linked() {
			return diag.Errorf(diag.BundleCorruptGraph, a.Path, nil, "asset %d has no mapping", a.ID)
		}
		for _, e := range a.Mapping.Entries() {
			if int(e.ID) >= len(assets) {
				return diag.Errorf(diag.BundleCorruptGraph, a.Path, nil,
					"specifier %q maps to unknown asset %d", e.Specifier, e.ID)
			}
		}
	}
	return nil
}
