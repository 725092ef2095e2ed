package javasrc

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/metadata"
)

// extractor turns a tree-sitter syntax tree into declarations
type extractor struct {
	file    *sourceFile
	content []byte
}

func (x *extractor) text(n *sitter.Node) string {
	return string(x.content[n.StartByte():n.EndByte()])
}

func (x *extractor) location(n *sitter.Node) errors.SourceLocation {
	p := n.StartPoint()
	return errors.SourceLocation{File: x.file.path, Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func (x *extractor) compilationUnit(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_declaration":
			x.file.pkg = x.packageName(child)
		case "import_declaration":
			x.importDeclaration(child)
		default:
			x.declaration(child, nil)
		}
	}
}

func (x *extractor) packageName(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "scoped_identifier" || child.Type() == "identifier" {
			return x.text(child)
		}
	}
	return ""
}

func (x *extractor) importDeclaration(n *sitter.Node) {
	var name string
	static, wildcard := false, false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "static":
			static = true
		case "asterisk":
			wildcard = true
		case "scoped_identifier", "identifier":
			name = x.text(child)
		}
	}
	if name == "" {
		return
	}
	switch {
	case wildcard:
		x.file.wildcards = append(x.file.wildcards, name)
	case static:
		// static member imports never name a type
	default:
		x.file.imports = append(x.file.imports, name)
	}
}

// declaration extracts a type declaration and everything nested in it
func (x *extractor) declaration(n *sitter.Node, outer *typeDecl) {
	var category metadata.TypeCategory
	switch n.Type() {
	case "class_declaration":
		category = metadata.ClassCategory
	case "interface_declaration":
		category = metadata.InterfaceCategory
	case "annotation_type_declaration":
		category = metadata.AnnotationCategory
	case "enum_declaration":
		category = metadata.EnumCategory
	case "record_declaration":
		category = metadata.RecordCategory
	default:
		return
	}

	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	decl := &typeDecl{
		file:        x.file,
		outer:       outer,
		simpleName:  x.text(nameNode),
		category:    category,
		annotations: x.modifierAnnotations(n),
		nested:      make(map[string]*typeDecl),
		loc:         x.location(n),
	}
	if outer != nil {
		decl.binaryName = outer.binaryName + "$" + decl.simpleName
		outer.nested[decl.simpleName] = decl
	} else {
		decl.binaryName = decl.canonicalName()
	}
	x.file.types = append(x.file.types, decl)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "superclass":
			if child.NamedChildCount() > 0 {
				decl.superclass = x.typeName(child.NamedChild(0))
			}
		case "super_interfaces", "extends_interfaces":
			decl.interfaces = append(decl.interfaces, x.typeList(child)...)
		}
	}

	if body := n.ChildByFieldName("body"); body != nil {
		x.body(body, decl)
	}
}

func (x *extractor) typeList(n *sitter.Node) []string {
	var names []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "type_list" {
			return x.typeList(child)
		}
		if name := x.typeName(child); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (x *extractor) body(body *sitter.Node, decl *typeDecl) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "method_declaration":
			x.method(child, decl)
		case "annotation_type_element_declaration":
			x.member(child, decl)
		case "enum_body_declarations":
			x.body(child, decl)
		default:
			x.declaration(child, decl)
		}
	}
}

func (x *extractor) method(n *sitter.Node, decl *typeDecl) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	m := &methodDecl{
		name:        x.text(nameNode),
		annotations: x.modifierAnnotations(n),
		loc:         x.location(n),
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			child := params.NamedChild(i)
			switch child.Type() {
			case "formal_parameter", "spread_parameter":
				m.params = append(m.params, x.parameter(child))
			}
		}
	}
	decl.methods = append(decl.methods, m)
}

func (x *extractor) parameter(n *sitter.Node) *paramDecl {
	p := &paramDecl{
		annotations: x.modifierAnnotations(n),
		loc:         x.location(n),
	}
	spread := n.Type() == "spread_parameter"
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "modifiers":
		case "identifier":
			p.name = x.text(child)
		case "variable_declarator":
			if name := child.ChildByFieldName("name"); name != nil {
				p.name = x.text(name)
			}
		case "dimensions":
			p.typeName += x.compact(child)
		default:
			if p.typeName == "" {
				p.typeName = x.typeName(child)
			}
		}
	}
	if spread {
		p.typeName += "..."
	}
	return p
}

func (x *extractor) member(n *sitter.Node, decl *typeDecl) {
	nameNode := n.ChildByFieldName("name")
	typeNode := n.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return
	}
	m := &memberDecl{
		name:     x.text(nameNode),
		typeName: x.typeName(typeNode),
		array:    typeNode.Type() == "array_type" || n.ChildByFieldName("dimensions") != nil,
		loc:      x.location(n),
	}
	m.typeName = strings.TrimSuffix(m.typeName, "[]")
	if def := n.ChildByFieldName("value"); def != nil {
		m.def = x.value(def)
	}
	decl.members = append(decl.members, m)
}

// typeName returns a type as written, without generic arguments
func (x *extractor) typeName(n *sitter.Node) string {
	switch n.Type() {
	case "generic_type":
		if n.NamedChildCount() > 0 {
			return x.typeName(n.NamedChild(0))
		}
	case "array_type":
		elem := n.ChildByFieldName("element")
		dims := n.ChildByFieldName("dimensions")
		if elem != nil && dims != nil {
			return x.typeName(elem) + x.compact(dims)
		}
	case "scoped_type_identifier":
		// generic arguments may appear on outer segments
		var parts []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "annotation" || child.Type() == "marker_annotation" {
				continue
			}
			parts = append(parts, x.typeName(child))
		}
		return strings.Join(parts, ".")
	}
	return x.compact(n)
}

// compact returns the node text without whitespace
func (x *extractor) compact(n *sitter.Node) string {
	return strings.Join(strings.Fields(x.text(n)), "")
}

// modifierAnnotations returns the annotations inside the node's modifiers
func (x *extractor) modifierAnnotations(n *sitter.Node) []*annotationUse {
	var out []*annotationUse
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			if a := x.annotation(child.NamedChild(j)); a != nil {
				out = append(out, a)
			}
		}
	}
	return out
}

func (x *extractor) annotation(n *sitter.Node) *annotationUse {
	if n.Type() != "annotation" && n.Type() != "marker_annotation" {
		return nil
	}
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	a := &annotationUse{name: x.compact(nameNode), loc: x.location(n)}

	args := n.ChildByFieldName("arguments")
	if args == nil {
		return a
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "element_value_pair" {
			key := child.ChildByFieldName("key")
			value := child.ChildByFieldName("value")
			if key != nil && value != nil {
				a.values = append(a.values, namedValue{name: x.text(key), value: x.value(value)})
			}
			continue
		}
		if child.Type() == "comment" || child.Type() == "line_comment" || child.Type() == "block_comment" {
			continue
		}
		a.values = append(a.values, namedValue{name: "value", value: x.value(child)})
	}
	return a
}

func (x *extractor) value(n *sitter.Node) *valueExpr {
	v := &valueExpr{text: x.text(n), loc: x.location(n)}
	switch n.Type() {
	case "string_literal":
		v.kind = stringExpr
		v.text = unquote(v.text)
	case "character_literal":
		v.kind = stringExpr
		v.text = unquote(v.text)
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		if i, ok := parseInt(v.text); ok {
			v.kind, v.intValue = intExpr, i
		} else {
			v.kind = rawExpr
		}
	case "unary_expression":
		if i, ok := parseInt(x.compact(n)); ok {
			v.kind, v.intValue = intExpr, i
		} else {
			v.kind = rawExpr
		}
	case "true", "false":
		v.kind, v.boolValue = boolExpr, n.Type() == "true"
	case "class_literal":
		v.kind = classExpr
		if n.NamedChildCount() > 0 {
			v.text = x.typeName(n.NamedChild(0))
		}
	case "identifier", "field_access", "scoped_identifier":
		v.kind = constantExpr
		v.text = x.compact(n)
	case "annotation", "marker_annotation":
		v.kind = annotationExpr
		v.annotation = x.annotation(n)
	case "element_value_array_initializer":
		v.kind = arrayExpr
		v.elems = []*valueExpr{}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if strings.HasSuffix(child.Type(), "comment") {
				continue
			}
			v.elems = append(v.elems, x.value(child))
		}
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return x.value(n.NamedChild(0))
		}
		v.kind = rawExpr
	default:
		v.kind = rawExpr
	}
	return v
}

func unquote(literal string) string {
	if s, err := strconv.Unquote(literal); err == nil {
		return s
	}
	if len(literal) >= 2 {
		return literal[1 : len(literal)-1]
	}
	return literal
}

func parseInt(text string) (int64, bool) {
	text = strings.TrimRight(strings.ReplaceAll(text, "_", ""), "lL")
	negative := strings.HasPrefix(text, "-")
	text = strings.TrimPrefix(text, "-")
	base := 10
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		base, text = 16, text[2:]
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		base, text = 2, text[2:]
	case len(text) > 1 && strings.HasPrefix(text, "0"):
		base, text = 8, text[1:]
	}
	i, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		i = -i
	}
	return i, true
}

// firstError finds the first syntax error or missing node
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsMissing() || n.Type() == "ERROR" {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstError(n.Child(i)); found != nil {
			return found
		}
	}
	return n
}
