package javasrc

import (
	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/metadata"
)

// sourceFile is the syntax-level view of one compilation unit
type sourceFile struct {
	path      string
	pkg       string
	imports   []string // single-type imports, canonical names
	wildcards []string // on-demand imports: packages or enclosing types
	types     []*typeDecl
}

type typeDecl struct {
	file       *sourceFile
	outer      *typeDecl
	simpleName string
	binaryName string
	category   metadata.TypeCategory
	superclass string
	interfaces []string
	// Annotations holds the annotations written on the declaration
	annotations []*annotationUse
	members     []*memberDecl
	methods     []*methodDecl
	nested      map[string]*typeDecl
	loc         errors.SourceLocation
}

// canonicalName is the binary name with nested separators written as dots
func (t *typeDecl) canonicalName() string {
	if t.outer != nil {
		return t.outer.canonicalName() + "." + t.simpleName
	}
	if t.file.pkg == "" {
		return t.simpleName
	}
	return t.file.pkg + "." + t.simpleName
}

type memberDecl struct {
	name     string
	typeName string
	array    bool
	def      *valueExpr
	loc      errors.SourceLocation
}

type methodDecl struct {
	name        string
	params      []*paramDecl
	annotations []*annotationUse
	loc         errors.SourceLocation
}

type paramDecl struct {
	name        string
	typeName    string
	annotations []*annotationUse
	loc         errors.SourceLocation
}

type annotationUse struct {
	name   string
	values []namedValue
	loc    errors.SourceLocation
}

type namedValue struct {
	name  string
	value *valueExpr
}

type exprKind int

const (
	stringExpr exprKind = iota
	intExpr
	boolExpr
	classExpr
	constantExpr // enum constants and other names
	annotationExpr
	arrayExpr
	rawExpr // anything else, kept as source text
)

type valueExpr struct {
	kind       exprKind
	text       string // literal value, type name or source text
	intValue   int64
	boolValue  bool
	annotation *annotationUse
	elems      []*valueExpr
	loc        errors.SourceLocation
}
