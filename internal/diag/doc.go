// Package diag defines the diagnostic model shared by the bundling phases.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error (severity.go).
//   - Code – compact numeric identifier with a stable ID such as BND1002.
//   - Message – short human text.
//   - Path and Primary – the module file and, when known, the byte span
//     (for example the specifier literal of a failing import).
//   - Notes – secondary spans, e.g. "imported from here".
//
// # Fatal vs. collected
//
// Every loading failure aborts the whole run. Those are returned as *Error,
// which embeds a Diagnostic and wraps the underlying cause; callers test the
// kind with errors.Is against ErrUnreadableSource, ErrSyntaxError and friends.
// Non-fatal findings (import cycles under the deduplicating policy,
// duplicate specifiers, transformer warnings) go through a Reporter into a Bag.
//
// Rendering lives in internal/diagfmt.
package diag
