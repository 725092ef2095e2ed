package javasrc

import (
	"log/slog"
	"strings"

	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/metadata"
)

const (
	inheritedKind  = "java.lang.annotation.Inherited"
	repeatableKind = "java.lang.annotation.Repeatable"
)

var primitiveTypes = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true, "void": true,
}

// wellKnown lists platform types referenced without an explicit import
var wellKnown = map[string]bool{
	"java.lang.Object": true, "java.lang.String": true, "java.lang.Class": true,
	"java.lang.Enum": true, "java.lang.Record": true, "java.lang.Integer": true,
	"java.lang.Long": true, "java.lang.Boolean": true, "java.lang.Character": true,
	"java.lang.Number": true, "java.lang.Deprecated": true, "java.lang.Override": true,
	"java.lang.SuppressWarnings": true, "java.lang.FunctionalInterface": true,
	"java.lang.SafeVarargs": true, "java.lang.Runnable": true, "java.lang.Iterable": true,
	"java.lang.Comparable": true, "java.lang.AutoCloseable": true, "java.lang.Exception": true,
	"java.lang.RuntimeException": true, "java.lang.Throwable": true, "java.lang.Void": true,
	"java.lang.annotation.Inherited": true, "java.lang.annotation.Repeatable": true,
	"java.lang.annotation.Retention": true, "java.lang.annotation.Target": true,
	"java.lang.annotation.Documented": true, "java.lang.annotation.ElementType": true,
	"java.lang.annotation.RetentionPolicy": true,
}

// annotatable is implemented by every declared element
type annotatable interface {
	metadata.Element
	Annotate(kind metadata.Kind, values metadata.Values) *metadata.Annotation
	AnnotateRepeated(kind metadata.Kind, values ...metadata.Values) []*metadata.Annotation
}

// linker resolves names across files and builds the model
type linker struct {
	logger   *slog.Logger
	platform bool
	model    *metadata.Model
	decls    map[string]*typeDecl // by canonical name
	classes  map[*typeDecl]*metadata.Class
}

func newLinker(logger *slog.Logger, platform bool) *linker {
	return &linker{
		logger:   logger,
		platform: platform,
		model:    metadata.NewModel(),
		decls:    make(map[string]*typeDecl),
		classes:  make(map[*typeDecl]*metadata.Class),
	}
}

func (lk *linker) link(files []*sourceFile) (*metadata.Model, error) {
	var multiple *errors.MultipleErrors
	var declared []*typeDecl

	for _, file := range files {
		for _, decl := range file.types {
			class := metadata.NewClass(decl.binaryName, decl.category)
			class.SetLocation(decl.loc)
			if err := lk.model.Register(class); err != nil {
				if coded, ok := err.(errors.AnnoscopeError); ok {
					errors.AddToMultiple(&multiple, coded)
				}
				continue
			}
			lk.decls[decl.canonicalName()] = decl
			lk.classes[decl] = class
			declared = append(declared, decl)
		}
	}
	if err := multiple.ErrOrNil(); err != nil {
		return nil, err
	}

	if lk.platform {
		for _, kind := range platformKinds() {
			if _, exists := lk.model.Lookup(kind.Name()); !exists {
				lk.model.MustRegister(kind)
			}
		}
	}

	for _, decl := range declared {
		lk.linkType(decl)
	}
	for _, decl := range declared {
		if decl.category == metadata.AnnotationCategory {
			lk.linkKind(decl)
		}
	}
	for _, decl := range declared {
		lk.linkAnnotations(decl)
	}

	if err := lk.model.CheckHierarchy(); err != nil {
		return nil, err
	}
	lk.logger.Debug("linked java model", "declared", len(declared), "types", lk.model.Len())
	return lk.model, nil
}

func (lk *linker) linkType(decl *typeDecl) {
	class := lk.classes[decl]
	if decl.outer != nil {
		class.SetEnclosing(lk.classes[decl.outer])
	}

	switch decl.category {
	case metadata.ClassCategory:
		super := decl.superclass
		if super == "" {
			super = metadata.ObjectTypeName
		}
		if decl.binaryName != metadata.ObjectTypeName {
			class.SetSuperclass(lk.typeFor(decl, super, metadata.ClassCategory))
		}
	case metadata.EnumCategory:
		class.SetSuperclass(lk.typeFor(decl, "java.lang.Enum", metadata.ClassCategory))
	case metadata.RecordCategory:
		class.SetSuperclass(lk.typeFor(decl, "java.lang.Record", metadata.ClassCategory))
	}
	for _, iface := range decl.interfaces {
		class.AddInterface(lk.typeFor(decl, iface, metadata.InterfaceCategory))
	}

	for _, m := range decl.methods {
		method := class.AddMethod(m.name)
		method.SetLocation(m.loc)
		for _, p := range m.params {
			param := method.AddParameter(p.typeName, p.name)
			param.SetLocation(p.loc)
		}
	}
}

// linkKind applies the kind attributes: members, @Inherited and @Repeatable
func (lk *linker) linkKind(decl *typeDecl) {
	kind := lk.classes[decl]
	for _, m := range decl.members {
		member := metadata.Member{Name: m.name, Type: lk.memberType(decl, m)}
		if m.def != nil {
			def := lk.convert(decl, m.def, &member.Type, kind)
			member.Default = &def
		}
		kind.AddMember(member)
	}

	for _, use := range decl.annotations {
		switch lk.kindFor(decl, use.name).Name() {
		case inheritedKind:
			kind.SetInherited(true)
		case repeatableKind:
			for _, nv := range use.values {
				if nv.name != "value" || nv.value.kind != classExpr {
					continue
				}
				container := lk.typeFor(decl, nv.value.text, metadata.AnnotationCategory)
				kind.SetRepeatableContainer(container)
			}
		}
	}
}

func (lk *linker) memberType(scope *typeDecl, m *memberDecl) metadata.MemberType {
	t := metadata.MemberType{Array: m.array, TypeName: m.typeName}
	switch m.typeName {
	case "String", "java.lang.String", "char", "float", "double":
		t.Kind = metadata.StringValue
	case "int", "long", "short", "byte":
		t.Kind = metadata.IntValue
	case "boolean":
		t.Kind = metadata.BoolValue
	case "Class", "java.lang.Class":
		t.Kind = metadata.ClassValue
	default:
		resolved := lk.typeFor(scope, m.typeName, metadata.EnumCategory)
		if resolved.Category() == metadata.AnnotationCategory {
			t.Kind, t.Annotation = metadata.AnnotationValue, resolved
		} else {
			t.Kind = metadata.EnumValue
		}
	}
	return t
}

func (lk *linker) linkAnnotations(decl *typeDecl) {
	class := lk.classes[decl]
	lk.annotate(decl, class, decl.annotations)

	methods := class.Methods()
	for i, m := range decl.methods {
		lk.annotate(decl, methods[i], m.annotations)
		params := methods[i].Params()
		for j, p := range m.params {
			lk.annotate(decl, params[j], p.annotations)
		}
	}
}

// annotate declares the uses on target the way a compiler stores them:
// repeated uses of a repeatable kind are wrapped into one container
func (lk *linker) annotate(scope *typeDecl, target annotatable, uses []*annotationUse) {
	var order []string
	groups := make(map[string][]*annotationUse)
	kinds := make(map[string]*metadata.Class)
	for _, use := range uses {
		kind := lk.kindFor(scope, use.name)
		if _, seen := groups[kind.Name()]; !seen {
			order = append(order, kind.Name())
			kinds[kind.Name()] = kind
		}
		groups[kind.Name()] = append(groups[kind.Name()], use)
	}

	for _, name := range order {
		kind, group := kinds[name], groups[name]
		if len(group) == 1 || kind.RepeatableContainer() == nil {
			for _, use := range group {
				a := target.Annotate(kind, lk.values(scope, kind, use, target))
				a.SetLocation(use.loc)
			}
			continue
		}

		values := make([]metadata.Values, len(group))
		for i, use := range group {
			values[i] = lk.values(scope, kind, use, target)
		}
		nested := target.AnnotateRepeated(kind, values...)
		for i, a := range nested {
			a.SetLocation(group[i].loc)
		}
		declared := target.DeclaredAnnotations()
		declared[len(declared)-1].SetLocation(group[0].loc)
	}
}

func (lk *linker) values(scope *typeDecl, kind *metadata.Class, use *annotationUse, declarer metadata.Element) metadata.Values {
	out := make(metadata.Values, len(use.values))
	for _, nv := range use.values {
		var memberType *metadata.MemberType
		if member, ok := kind.Member(nv.name); ok {
			memberType = &member.Type
		}
		out[nv.name] = lk.convert(scope, nv.value, memberType, declarer)
	}
	return out
}

// convert turns a syntactic value into a model value. A single value for an
// array-typed member becomes a one-element array.
func (lk *linker) convert(scope *typeDecl, expr *valueExpr, memberType *metadata.MemberType, declarer metadata.Element) metadata.Value {
	var component *metadata.MemberType
	if memberType != nil {
		c := *memberType
		c.Array = false
		component = &c
		if memberType.Array && expr.kind != arrayExpr {
			return metadata.Array(lk.convert(scope, expr, component, declarer))
		}
	}

	switch expr.kind {
	case stringExpr:
		return metadata.String(expr.text)
	case intExpr:
		return metadata.Int(expr.intValue)
	case boolExpr:
		return metadata.Bool(expr.boolValue)
	case classExpr:
		return metadata.ClassRef(lk.classLiteral(scope, expr.text))
	case annotationExpr:
		kind := lk.kindFor(scope, expr.annotation.name)
		nested := metadata.NewAnnotation(kind, declarer, lk.values(scope, kind, expr.annotation, declarer))
		nested.SetLocation(expr.annotation.loc)
		return metadata.Nested(nested)
	case arrayExpr:
		elems := make([]metadata.Value, len(expr.elems))
		for i, e := range expr.elems {
			elems[i] = lk.convert(scope, e, component, declarer)
		}
		return metadata.Array(elems...)
	case constantExpr:
		if component != nil && component.Kind == metadata.StringValue {
			return metadata.String(expr.text)
		}
		return metadata.Enum(expr.text)
	default:
		return metadata.String(expr.text)
	}
}

func (lk *linker) classLiteral(scope *typeDecl, written string) string {
	base := strings.TrimRight(written, "[]")
	dims := written[len(base):]
	if primitiveTypes[base] {
		return written
	}
	name, _ := lk.resolve(scope, base)
	return name + dims
}

// kindFor returns the annotation kind a written name refers to, creating an
// external placeholder for kinds outside the sources
func (lk *linker) kindFor(scope *typeDecl, written string) *metadata.Class {
	return lk.typeFor(scope, written, metadata.AnnotationCategory)
}

// typeFor returns the type a written name refers to, creating an external
// placeholder with the given category when it is not declared
func (lk *linker) typeFor(scope *typeDecl, written string, category metadata.TypeCategory) *metadata.Class {
	name, decl := lk.resolve(scope, written)
	if decl != nil {
		return lk.classes[decl]
	}
	if c, ok := lk.model.Lookup(name); ok {
		return c
	}
	c := metadata.NewExternal(name, category)
	lk.model.MustRegister(c)
	lk.logger.Debug("external type", "name", name, "category", category.String(), "written", written)
	return c
}

// resolve maps a name written inside scope to a binary name, following
// Java's lookup order: member types of the enclosing chain, types of the same
// file, single-type imports, the same package, on-demand imports and
// java.lang. It returns the declaration when the name is declared.
func (lk *linker) resolve(scope *typeDecl, written string) (string, *typeDecl) {
	written = strings.TrimSpace(written)
	if primitiveTypes[written] {
		return written, nil
	}
	parts := strings.Split(written, ".")

	if decl := lk.lookupSimple(scope, parts[0]); decl != nil {
		return lk.descend(decl, parts[1:])
	}
	if len(parts) > 1 {
		for i := len(parts) - 1; i > 0; i-- {
			if decl := lk.decls[strings.Join(parts[:i], ".")]; decl != nil {
				return lk.descend(decl, parts[i:])
			}
		}
		return canonicalToBinary(written), nil
	}
	return lk.guess(scope.file, written), nil
}

func (lk *linker) descend(decl *typeDecl, rest []string) (string, *typeDecl) {
	for i, part := range rest {
		nested := decl.nested[part]
		if nested == nil {
			return decl.binaryName + "$" + strings.Join(rest[i:], "$"), nil
		}
		decl = nested
	}
	return decl.binaryName, decl
}

func (lk *linker) lookupSimple(scope *typeDecl, name string) *typeDecl {
	for s := scope; s != nil; s = s.outer {
		if s.simpleName == name {
			return s
		}
		if nested := s.nested[name]; nested != nil {
			return nested
		}
	}

	file := scope.file
	for _, t := range file.types {
		if t.outer == nil && t.simpleName == name {
			return t
		}
	}
	for _, imp := range file.imports {
		if lastSegment(imp) == name {
			return lk.decls[imp]
		}
	}
	if decl := lk.decls[qualify(file.pkg, name)]; decl != nil {
		return decl
	}
	for _, w := range file.wildcards {
		if decl := lk.decls[w+"."+name]; decl != nil {
			return decl
		}
	}
	return lk.decls["java.lang."+name]
}

// guess names an undeclared simple type: an explicit import, a known type of
// an on-demand import or of java.lang, otherwise the file's package
func (lk *linker) guess(file *sourceFile, name string) string {
	for _, imp := range file.imports {
		if lastSegment(imp) == name {
			return canonicalToBinary(imp)
		}
	}
	for _, w := range file.wildcards {
		if lk.known(w + "." + name) {
			return canonicalToBinary(w + "." + name)
		}
	}
	if lk.known("java.lang." + name) {
		return "java.lang." + name
	}
	return canonicalToBinary(qualify(file.pkg, name))
}

func (lk *linker) known(canonical string) bool {
	if wellKnown[canonical] {
		return true
	}
	_, ok := lk.model.Lookup(canonicalToBinary(canonical))
	return ok
}

// canonicalToBinary guesses the binary name of an undeclared canonical name:
// segments after the first capitalised one are nested types
func canonicalToBinary(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		if part != "" && part[0] >= 'A' && part[0] <= 'Z' {
			return strings.Join(append(parts[:i:i], strings.Join(parts[i:], "$")), ".")
		}
	}
	return name
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
