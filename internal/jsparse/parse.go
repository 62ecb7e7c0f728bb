package jsparse

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"
	"vimagination.zapto.org/javascript"
	"vimagination.zapto.org/parser"

	"minipack/internal/asset"
	"minipack/internal/diag"
	"minipack/internal/source"
)

// Tree is a parsed module together with the file it came from.
type Tree struct {
	file   *source.File
	Module *javascript.Module
}

func (t *Tree) File() *source.File { return t.file }

// Parser implements asset.Parser and asset.ImportScanner.
type Parser struct{}

func (Parser) Parse(file *source.File) (asset.Tree, error) {
	return Parse(file)
}

func (Parser) Imports(tree asset.Tree) ([]asset.Import, error) {
	t, ok := tree.(*Tree)
	if !ok {
		return nil, fmt.Errorf("jsparse: unexpected tree type %T", tree)
	}
	return Imports(t)
}

// Parse parses file as an ES module.
func Parse(file *source.File) (*Tree, error) {
	tk := parser.NewStringTokeniser(string(file.Content))
	m, err := javascript.ParseModule(&tk)
	if err != nil {
		return nil, diag.Errorf(diag.BundleSyntaxError, file.Path, err, "%v", err)
	}
	return &Tree{file: file, Module: m}, nil
}

// Imports returns the module specifiers of t in source order.
func Imports(t *Tree) ([]asset.Import, error) {
	var (
		out    []asset.Import
		cursor int
	)
	for i := range t.Module.ModuleListItems {
		tok := moduleSpecifier(&t.Module.ModuleListItems[i])
		if tok == nil {
			continue
		}
		spec, err := javascript.Unquote(tok.Data)
		if err != nil {
			return nil, diag.Errorf(diag.BundleSyntaxError, t.file.Path, err, "invalid module specifier %s", tok.Data)
		}
		start := locate(t.file.Content, tok, cursor)
		sp := source.Span{File: t.file.ID}
		if start >= 0 {
			sp = source.SpanOf(t.file.ID, start, len(tok.Data))
			cursor = start + len(tok.Data)
		}
		out = append(out, asset.Import{Specifier: spec, Span: sp})
	}
	return out, nil
}

func moduleSpecifier(item *javascript.ModuleItem) *javascript.Token {
	switch {
	case item.ImportDeclaration != nil:
		return item.ImportDeclaration.FromClause.ModuleSpecifier
	case item.ExportDeclaration != nil && item.ExportDeclaration.FromClause != nil:
		return item.ExportDeclaration.FromClause.ModuleSpecifier
	}
	return nil
}

// locate finds the byte offset of the specifier literal. The token position
// is trusted when it points at the literal, otherwise the text is searched
// forward from cursor.
func locate(content []byte, tok *javascript.Token, cursor int) int {
	if pos, err := safecast.Conv[int](tok.Pos); err == nil {
		if end := pos + len(tok.Data); pos >= 0 && end <= len(content) && string(content[pos:end]) == tok.Data {
			return pos
		}
	}
	if cursor > len(content) {
		return -1
	}
	idx := bytes.Index(content[cursor:], []byte(tok.Data))
	if idx < 0 {
		return -1
	}
	return cursor + idx
}
