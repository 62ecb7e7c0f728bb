// Package jsparse parses ES modules and lists their static imports.
//
// Only top-level `import ... from "x"`, `import "x"` and the re-export forms
// `export ... from "x"` are reported. Dynamic import() and hand-written
// require calls are left to the runtime.
package jsparse
