package yamlmodel

import (
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/metadata"
)

const annotationTypePrefix = "annotation:"

type annotatable interface {
	metadata.Element
	Annotate(kind metadata.Kind, values metadata.Values) *metadata.Annotation
	AnnotateRepeated(kind metadata.Kind, values ...metadata.Values) []*metadata.Annotation
}

// builder turns a decoded document into a model. Errors are collected so one
// load reports every broken reference.
type builder struct {
	file    string
	logger  *slog.Logger
	classes map[string]*metadata.Class
	order   []*metadata.Class
	object  *metadata.Class
	errs    *errors.MultipleErrors
}

func newBuilder(file string, logger *slog.Logger) *builder {
	return &builder{
		file:    file,
		logger:  logger,
		classes: make(map[string]*metadata.Class),
	}
}

func (b *builder) at(line, column int) errors.SourceLocation {
	return errors.SourceLocation{File: b.file, Line: line, Column: column}
}

func (b *builder) fail(err *errors.BaseError) {
	errors.AddToMultiple(&b.errs, err)
}

func (b *builder) build(doc *document) (*metadata.Model, error) {
	for _, k := range doc.Kinds {
		b.declare(k.Name, metadata.AnnotationCategory, b.at(k.line, k.column))
	}
	for _, t := range doc.Types {
		category, err := metadata.ParseTypeCategory(t.Category)
		if err != nil {
			b.fail(errors.Wrap(errors.ValidationErrorCode, "invalid type category", err).
				WithLocation(b.at(t.line, t.column)))
			continue
		}
		if category == metadata.AnnotationCategory {
			b.fail(errors.Newf(errors.ValidationErrorCode, "annotation type %s must be declared under kinds", t.Name).
				WithLocation(b.at(t.line, t.column)))
			continue
		}
		b.declare(t.Name, category, b.at(t.line, t.column))
	}
	if err := b.errs.ErrOrNil(); err != nil {
		return nil, err
	}

	for _, k := range doc.Kinds {
		b.kindAttributes(k)
	}
	for _, k := range doc.Kinds {
		b.memberDefaults(k)
	}
	for _, t := range doc.Types {
		b.typeRelations(t)
	}
	for _, k := range doc.Kinds {
		b.annotate(b.classes[k.Name], k.Annotations)
	}
	for _, t := range doc.Types {
		b.typeAnnotations(t)
	}
	if err := b.errs.ErrOrNil(); err != nil {
		return nil, err
	}

	model := metadata.NewModel()
	for _, c := range b.order {
		if err := model.Register(c); err != nil {
			if coded, ok := err.(errors.AnnoscopeError); ok {
				errors.AddToMultiple(&b.errs, coded)
			}
		}
	}
	if err := b.errs.ErrOrNil(); err != nil {
		return nil, err
	}
	if err := model.CheckHierarchy(); err != nil {
		return nil, err
	}
	return model, nil
}

func (b *builder) declare(name string, category metadata.TypeCategory, loc errors.SourceLocation) {
	if name == "" {
		b.fail(errors.New(errors.ValidationErrorCode, "type name cannot be empty").WithLocation(loc))
		return
	}
	if _, exists := b.classes[name]; exists || name == metadata.ObjectTypeName {
		b.fail(errors.Newf(errors.ValidationErrorCode, "type %s is declared twice", name).WithLocation(loc))
		return
	}
	c := metadata.NewClass(name, category)
	c.SetLocation(loc)
	b.classes[name] = c
	b.order = append(b.order, c)
}

// resolve finds a declared type by binary name, simple name or qualified
// suffix and records a failure when there is none. The universal base is
// always available.
func (b *builder) resolve(what, name string, loc errors.SourceLocation) *metadata.Class {
	c, err := b.find(what, name, loc)
	if err != nil {
		b.fail(err)
	}
	return c
}

func (b *builder) resolveKind(name string, loc errors.SourceLocation) *metadata.Class {
	c, err := b.findKind(name, loc)
	if err != nil {
		b.fail(err)
	}
	return c
}

func (b *builder) find(what, name string, loc errors.SourceLocation) (*metadata.Class, *errors.BaseError) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "@")
	if name == metadata.ObjectTypeName || name == "Object" {
		return b.universalBase(), nil
	}
	if c, ok := b.classes[name]; ok {
		return c, nil
	}

	var candidates []string
	for _, c := range b.order {
		if metadata.MatchesTypeName(c.Name(), name) {
			candidates = append(candidates, c.Name())
		}
	}
	switch len(candidates) {
	case 0:
		return nil, errors.Unresolved(what, name).WithLocation(loc)
	case 1:
		return b.classes[candidates[0]], nil
	default:
		return nil, errors.Ambiguous(what, name, candidates).WithLocation(loc)
	}
}

func (b *builder) findKind(name string, loc errors.SourceLocation) (*metadata.Class, *errors.BaseError) {
	c, err := b.find("annotation kind", name, loc)
	if err != nil {
		return nil, err
	}
	if c.Category() != metadata.AnnotationCategory {
		return nil, errors.Newf(errors.ValidationErrorCode, "%s is a %s, not an annotation kind", c.Name(), c.Category()).
			WithLocation(loc)
	}
	return c, nil
}

func (b *builder) universalBase() *metadata.Class {
	if b.object == nil {
		b.object = metadata.NewExternal(metadata.ObjectTypeName, metadata.ClassCategory)
		b.order = append([]*metadata.Class{b.object}, b.order...)
	}
	return b.object
}

func (b *builder) kindAttributes(k *kindSpec) {
	kind := b.classes[k.Name]
	loc := b.at(k.line, k.column)
	kind.SetInherited(k.Inherited)
	if k.Repeatable != "" {
		if container := b.resolveKind(k.Repeatable, loc); container != nil {
			kind.SetRepeatableContainer(container)
		}
	}

	for _, m := range k.Members {
		if memberType, ok := b.memberType(m.Type, loc); ok {
			kind.AddMember(metadata.Member{Name: m.Name, Type: memberType})
		}
	}
}

// memberDefaults runs once every kind has its members so defaults may hold
// nested annotations of any kind
func (b *builder) memberDefaults(k *kindSpec) {
	kind := b.classes[k.Name]
	members := kind.Members()
	changed := false
	for _, m := range k.Members {
		if m.Default == nil {
			continue
		}
		for i := range members {
			if members[i].Name != m.Name || members[i].Default != nil {
				continue
			}
			def, err := b.value(m.Default, members[i].Type, kind)
			if err != nil {
				b.fail(err)
				break
			}
			members[i].Default = &def
			changed = true
			break
		}
	}
	if changed {
		kind.SetMembers(members)
	}
}

// memberType parses string, int, boolean, class, enum or annotation:<Kind>,
// each optionally suffixed with [] for arrays
func (b *builder) memberType(written string, loc errors.SourceLocation) (metadata.MemberType, bool) {
	t := metadata.MemberType{TypeName: written}
	base := strings.TrimSpace(written)
	if strings.HasSuffix(base, "[]") {
		t.Array = true
		base = strings.TrimSpace(strings.TrimSuffix(base, "[]"))
	}

	if strings.HasPrefix(base, annotationTypePrefix) {
		kind := b.resolveKind(strings.TrimPrefix(base, annotationTypePrefix), loc)
		if kind == nil {
			return t, false
		}
		t.Kind, t.Annotation, t.TypeName = metadata.AnnotationValue, kind, kind.SimpleName()
		return t, true
	}

	kind, err := metadata.ParseValueKind(base)
	if err != nil || kind == metadata.AnnotationValue {
		b.fail(errors.Newf(errors.ValidationErrorCode, "unknown member type '%s'", written).
			WithLocation(loc).
			WithSuggestion("Use string, int, boolean, class, enum or annotation:<Kind>, optionally with []"))
		return t, false
	}
	t.Kind, t.TypeName = kind, base
	return t, true
}

func (b *builder) typeRelations(t *typeSpec) {
	class := b.classes[t.Name]
	if class == nil {
		return
	}
	loc := b.at(t.line, t.column)

	switch {
	case t.Superclass != "":
		if class.Category() == metadata.InterfaceCategory {
			b.fail(errors.Newf(errors.ValidationErrorCode, "interface %s cannot have a superclass", t.Name).WithLocation(loc))
		} else if super := b.resolve("type", t.Superclass, loc); super != nil {
			class.SetSuperclass(super)
		}
	case class.Category() != metadata.InterfaceCategory:
		class.SetSuperclass(b.universalBase())
	}

	for _, name := range t.Interfaces {
		if iface := b.resolve("type", name, loc); iface != nil {
			class.AddInterface(iface)
		}
	}
	if t.Enclosing != "" {
		if outer := b.resolve("type", t.Enclosing, loc); outer != nil && outer != class {
			class.SetEnclosing(outer)
		}
	}

	for _, m := range t.Methods {
		method := class.AddMethod(m.Name)
		method.SetLocation(b.at(m.line, m.column))
		for _, p := range m.Parameters {
			param := method.AddParameter(p.Type, p.Name)
			param.SetLocation(b.at(p.line, p.column))
		}
	}
}

func (b *builder) typeAnnotations(t *typeSpec) {
	class := b.classes[t.Name]
	if class == nil {
		return
	}
	b.annotate(class, t.Annotations)

	methods := class.Methods()
	for i, m := range t.Methods {
		b.annotate(methods[i], m.Annotations)
		params := methods[i].Params()
		for j, p := range m.Parameters {
			b.annotate(params[j], p.Annotations)
		}
	}
}

// annotate declares the annotations on target. Several uses of a repeatable
// kind are stored in one container instance.
func (b *builder) annotate(target annotatable, specs []*annotationSpec) {
	type group struct {
		kind  *metadata.Class
		specs []*annotationSpec
	}
	var groups []*group
	byKind := make(map[*metadata.Class]*group)
	for _, spec := range specs {
		kind := b.resolveKind(spec.Kind, b.at(spec.line, spec.column))
		if kind == nil {
			continue
		}
		g, ok := byKind[kind]
		if !ok {
			g = &group{kind: kind}
			byKind[kind] = g
			groups = append(groups, g)
		}
		g.specs = append(g.specs, spec)
	}

	for _, g := range groups {
		values := make([]metadata.Values, 0, len(g.specs))
		for _, spec := range g.specs {
			v, err := b.values(g.kind, spec, target)
			if err != nil {
				b.fail(err)
				return
			}
			values = append(values, v)
		}

		if len(values) == 1 || g.kind.RepeatableContainer() == nil {
			for i, v := range values {
				a := target.Annotate(g.kind, v)
				a.SetLocation(b.at(g.specs[i].line, g.specs[i].column))
			}
			continue
		}
		for i, a := range target.AnnotateRepeated(g.kind, values...) {
			a.SetLocation(b.at(g.specs[i].line, g.specs[i].column))
		}
		declared := target.DeclaredAnnotations()
		declared[len(declared)-1].SetLocation(b.at(g.specs[0].line, g.specs[0].column))
	}
}

func (b *builder) values(kind *metadata.Class, spec *annotationSpec, declarer metadata.Element) (metadata.Values, *errors.BaseError) {
	out := make(metadata.Values, len(spec.Values))
	for _, mv := range spec.Values {
		member, ok := kind.Member(mv.name)
		if !ok {
			return nil, errors.Newf(errors.ValidationErrorCode, "annotation @%s has no member '%s'", kind.SimpleName(), mv.name).
				WithLocation(b.at(mv.node.Line, mv.node.Column)).
				WithContext("kind", kind.Name())
		}
		v, err := b.value(mv.node, member.Type, declarer)
		if err != nil {
			return nil, err
		}
		out[mv.name] = v
	}
	return out, nil
}

// value converts a YAML node to a value of the member type. A scalar given
// for an array member becomes a one-element array.
func (b *builder) value(node *yaml.Node, t metadata.MemberType, declarer metadata.Element) (metadata.Value, *errors.BaseError) {
	node = resolveAlias(node)
	loc := b.at(node.Line, node.Column)

	if t.Array {
		component := t
		component.Array = false
		if node.Kind != yaml.SequenceNode {
			v, err := b.value(node, component, declarer)
			if err != nil {
				return metadata.Value{}, err
			}
			return metadata.Array(v), nil
		}
		elems := make([]metadata.Value, 0, len(node.Content))
		for _, elem := range node.Content {
			v, err := b.value(elem, component, declarer)
			if err != nil {
				return metadata.Value{}, err
			}
			elems = append(elems, v)
		}
		return metadata.Array(elems...), nil
	}

	if t.Kind == metadata.AnnotationValue {
		return b.nested(node, t, declarer)
	}
	if node.Kind != yaml.ScalarNode {
		return metadata.Value{}, errors.ValidateError("value", t.Kind.String(), "a collection").WithLocation(loc)
	}

	switch t.Kind {
	case metadata.IntValue:
		i, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return metadata.Value{}, errors.ValidateError("value", "int", node.Value).WithLocation(loc)
		}
		return metadata.Int(i), nil
	case metadata.BoolValue:
		v, err := strconv.ParseBool(node.Value)
		if err != nil {
			return metadata.Value{}, errors.ValidateError("value", "boolean", node.Value).WithLocation(loc)
		}
		return metadata.Bool(v), nil
	case metadata.ClassValue:
		return metadata.ClassRef(node.Value), nil
	case metadata.EnumValue:
		return metadata.Enum(node.Value), nil
	default:
		return metadata.String(node.Value), nil
	}
}

func (b *builder) nested(node *yaml.Node, t metadata.MemberType, declarer metadata.Element) (metadata.Value, *errors.BaseError) {
	loc := b.at(node.Line, node.Column)
	spec, err := parseAnnotation(node)
	if err != nil {
		return metadata.Value{}, errors.Wrap(errors.ValidationErrorCode, "invalid nested annotation", err).WithLocation(loc)
	}
	kind, kerr := b.findKind(spec.Kind, loc)
	if kerr != nil {
		return metadata.Value{}, kerr
	}
	if t.Annotation != nil && !metadata.SameKind(kind, t.Annotation) {
		return metadata.Value{}, errors.ValidateError("nested annotation", "@"+simpleName(t.Annotation), "@"+kind.SimpleName()).
			WithLocation(loc)
	}
	values, verr := b.values(kind, spec, declarer)
	if verr != nil {
		return metadata.Value{}, verr
	}
	a := metadata.NewAnnotation(kind, declarer, values)
	a.SetLocation(loc)
	return metadata.Nested(a), nil
}

func simpleName(k metadata.Kind) string {
	name := k.Name()
	if i := strings.LastIndexAny(name, ".$"); i >= 0 {
		return name[i+1:]
	}
	return name
}
