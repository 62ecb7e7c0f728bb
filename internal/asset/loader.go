package asset

import (
	"context"
	"errors"
	"io/fs"
	"strconv"

	"minipack/internal/diag"
	"minipack/internal/source"
	"minipack/internal/trace"
)

// Tree is a parsed module. Its concrete shape belongs to the parser.
type Tree interface {
	File() *source.File
}

// Parser turns module text into a tree.
type Parser interface {
	Parse(file *source.File) (Tree, error)
}

// ImportScanner lists the static import specifiers of a tree in source order.
type ImportScanner interface {
	Imports(tree Tree) ([]Import, error)
}

// Transformer lowers a tree to CommonJS-shaped code.
type Transformer interface {
	Transform(tree Tree) (string, error)
}

// Loader reads, parses, scans and transforms one module.
// It leaves ID and Mapping unset.
type Loader struct {
	Files       *source.FileSet
	Parser      Parser
	Scanner     ImportScanner
	Transformer Transformer
}

// Load produces an Asset for path. Every failure is a *diag.Error.
func (l *Loader) Load(ctx context.Context, path string) (a *Asset, err error) {
	canon, err := Canonical(path)
	if err != nil {
		return nil, diag.Errorf(diag.BundleUnreadableSource, path, err, "cannot resolve path: %v", err)
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeModule, "module:"+canon, trace.ParentSpan(ctx))
	defer func() {
		if err != nil {
			trace.Fail(tracer, trace.ScopeModule, "module:"+canon, err, span.ID())
			span.End("failed")
			return
		}
		span.WithExtra("imports", strconv.Itoa(len(a.Imports)))
		span.End("")
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := l.Files.Load(canon)
	if err != nil {
		return nil, diag.Errorf(diag.BundleUnreadableSource, canon, err, "cannot read module: %v", unwrapPathError(err))
	}
	file := l.Files.Get(id)

	tree, err := l.Parser.Parse(file)
	if err != nil {
		return nil, asDiag(err, diag.BundleSyntaxError, canon, "syntax error")
	}
	imports, err := l.Scanner.Imports(tree)
	if err != nil {
		return nil, asDiag(err, diag.BundleSyntaxError, canon, "cannot read imports")
	}
	code, err := l.Transformer.Transform(tree)
	if err != nil {
		return nil, asDiag(err, diag.BundleTransformError, canon, "transform failed")
	}

	return &Asset{
		Path:    canon,
		Key:     Key(canon),
		File:    id,
		Hash:    file.Hash,
		Imports: imports,
		Code:    code,
	}, nil
}

// asDiag keeps a collaborator's own *diag.Error and wraps anything else.
func asDiag(err error, code diag.Code, path, what string) *diag.Error {
	if de, ok := diag.AsError(err); ok {
		return de
	}
	return diag.Errorf(code, path, err, "%s: %v", what, err)
}

func unwrapPathError(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
