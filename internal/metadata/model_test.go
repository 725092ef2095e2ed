package metadata

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/annoscope/internal/errors"
)

func TestModelRegister(t *testing.T) {
	model := NewModel()

	require.NoError(t, model.Register(NewClass("com.acme.Suite", ClassCategory)))
	err := model.Register(NewClass("com.acme.Suite", ClassCategory))
	require.Error(t, err)
	assert.Equal(t, errors.ValidationErrorCode, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "already registered")

	err = model.Register(NewClass("", ClassCategory))
	require.Error(t, err)

	got, ok := model.Lookup("com.acme.Suite")
	require.True(t, ok)
	assert.Equal(t, "com.acme.Suite", got.Name())
	assert.Equal(t, 1, model.Len())
}

func TestModelRegisterValidatesMembers(t *testing.T) {
	tests := []struct {
		name    string
		members []Member
		wantErr string
	}{
		{
			name:    "empty member name",
			members: []Member{{Type: MemberType{Kind: StringValue}}},
			wantErr: "member name cannot be empty",
		},
		{
			name: "duplicate member",
			members: []Member{
				{Name: "value", Type: MemberType{Kind: StringValue}},
				{Name: "value", Type: MemberType{Kind: IntValue}},
			},
			wantErr: "declared twice",
		},
		{
			name:    "default of wrong kind",
			members: []Member{{Name: "value", Type: MemberType{Kind: IntValue}, Default: valuePtr(String("x"))}},
			wantErr: "must be int",
		},
		{
			name:    "scalar default for array member",
			members: []Member{{Name: "value", Type: MemberType{Kind: StringValue, Array: true}, Default: valuePtr(String("x"))}},
			wantErr: "must be an array",
		},
		{
			name:    "valid array default",
			members: []Member{{Name: "value", Type: MemberType{Kind: StringValue, Array: true}, Default: valuePtr(Array(String("x")))}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind := NewKind("com.acme.Tag")
			for _, m := range tt.members {
				kind.AddMember(m)
			}
			err := NewModel().Register(kind)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestModelDefine(t *testing.T) {
	model := NewModel()
	first := model.Define("com.acme.Base", ClassCategory)
	second := model.Define("com.acme.Base", InterfaceCategory)

	assert.Same(t, first, second)
	assert.Equal(t, ClassCategory, second.Category())
}

func TestModelTypesAndKinds(t *testing.T) {
	model := NewModel()
	model.MustRegister(NewClass("com.acme.Zeta", ClassCategory))
	model.MustRegister(NewKind("com.acme.Tag"))
	model.MustRegister(NewClass("com.acme.Alpha", ClassCategory))

	var names []string
	for _, c := range model.Types() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"com.acme.Alpha", "com.acme.Tag", "com.acme.Zeta"}, names)

	kinds := model.Kinds()
	require.Len(t, kinds, 1)
	assert.Equal(t, "com.acme.Tag", kinds[0].Name())

	_, ok := model.LookupKind("com.acme.Alpha")
	assert.False(t, ok)
}

func TestModelResolveType(t *testing.T) {
	model := NewModel()
	model.MustRegister(NewClass("com.acme.Outer", ClassCategory))
	model.MustRegister(NewClass("com.acme.Outer$Inner", ClassCategory))
	model.MustRegister(NewClass("com.other.Inner", ClassCategory))
	model.MustRegister(NewKind("com.acme.Tag"))
	model.MustRegister(NewExternal("org.lib.Tag", AnnotationCategory))

	tests := []struct {
		name     string
		input    string
		expected string
		code     errors.ErrorCode
	}{
		{name: "exact", input: "com.acme.Outer$Inner", expected: "com.acme.Outer$Inner"},
		{name: "dotted nested", input: "com.acme.Outer.Inner", expected: "com.acme.Outer$Inner"},
		{name: "suffix", input: "Outer.Inner", expected: "com.acme.Outer$Inner"},
		{name: "simple", input: "Outer", expected: "com.acme.Outer"},
		{name: "ambiguous simple", input: "Inner", code: errors.ResolutionErrorCode},
		{name: "missing", input: "Nope", code: errors.ResolutionErrorCode},
		{name: "declared wins over external", input: "@Tag", expected: "com.acme.Tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.ResolveType(tt.input)
			if tt.expected == "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Name())
		})
	}
}

func TestModelResolveKindSkipsClasses(t *testing.T) {
	model := NewModel()
	model.MustRegister(NewClass("com.acme.Tag", ClassCategory))

	_, err := model.ResolveKind("Tag")
	require.Error(t, err)

	var coded errors.AnnoscopeError
	require.True(t, stderrors.As(err, &coded))
	assert.Equal(t, errors.ResolutionErrorCode, coded.ErrorCode())
	assert.Contains(t, err.Error(), "annotation kind 'Tag' not found")
}

func TestClassNames(t *testing.T) {
	outer := NewClass("com.acme.Outer", ClassCategory)
	inner := NewClass("com.acme.Outer$Inner", ClassCategory)
	inner.SetEnclosing(outer)

	assert.Equal(t, "Inner", inner.SimpleName())
	assert.Equal(t, "com.acme", inner.Package())
	assert.Equal(t, "", NewClass("Plain", ClassCategory).Package())
	assert.Same(t, outer, inner.EnclosingType())

	// absent relations are nil interfaces
	assert.Nil(t, outer.EnclosingType())
	assert.Nil(t, outer.Superclass())
	assert.True(t, outer.Superclass() == nil)
	assert.True(t, NewKind("com.acme.Tag").RepeatableContainer() == nil)

	method := inner.AddMethod("runs")
	method.AddParameter("int", "count")
	p := method.AddParameter("String", "label")

	assert.Equal(t, "com.acme.Outer$Inner#runs(int, String)", method.Name())
	assert.Equal(t, "com.acme.Outer$Inner#runs(int, String)[1]", p.Name())
	assert.Equal(t, 1, p.Index())
	assert.Equal(t, "label", p.VarName())
	assert.Same(t, inner, method.DeclaringType())
	assert.Len(t, inner.MethodsNamed("runs"), 1)
	assert.Empty(t, inner.MethodsNamed("other"))
}

func valuePtr(v Value) *Value { return &v }

func TestCheckHierarchy(t *testing.T) {
	at := errors.SourceLocation{File: "model.yaml", Line: 4}

	t.Run("acyclic", func(t *testing.T) {
		model := NewModel()
		object := model.MustRegister(NewClass("java.lang.Object", ClassCategory))
		iface := model.MustRegister(NewClass("p.I", InterfaceCategory))
		base := model.MustRegister(NewClass("p.Base", ClassCategory))
		base.SetSuperclass(object)
		base.AddInterface(iface)
		derived := model.MustRegister(NewClass("p.Derived", ClassCategory))
		derived.SetSuperclass(base)
		derived.AddInterface(iface)
		inner := model.MustRegister(NewClass("p.Derived$Inner", ClassCategory))
		inner.SetEnclosing(derived)
		inner.SetSuperclass(derived)

		assert.NoError(t, model.CheckHierarchy())
	})

	t.Run("superclass", func(t *testing.T) {
		a := NewClass("p.A", ClassCategory)
		b := NewClass("p.B", ClassCategory)
		a.SetSuperclass(b)
		a.SetLocation(at)
		b.SetSuperclass(a)

		err := CheckHierarchy(a)
		require.NotNil(t, err)
		assert.Equal(t, errors.ValidationErrorCode, err.ErrorCode())
		assert.Equal(t, at, err.Location())
		assert.Equal(t, "p.A", err.Context()["type"])
		assert.Contains(t, err.Error(), "p.A -> p.B -> p.A")
	})

	t.Run("interface", func(t *testing.T) {
		i := NewClass("p.I", InterfaceCategory)
		j := NewClass("p.J", InterfaceCategory)
		i.AddInterface(j)
		j.AddInterface(i)

		err := CheckHierarchy(j)
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "type p.J inherits from itself: p.J -> p.I -> p.J")
	})

	t.Run("enclosing", func(t *testing.T) {
		a := NewClass("p.A", ClassCategory)
		b := NewClass("p.B", ClassCategory)
		a.SetEnclosing(b)
		b.SetEnclosing(a)

		err := CheckHierarchy(b)
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "type p.B encloses itself: p.B -> p.A -> p.B")
	})

	t.Run("only members of the cycle are reported", func(t *testing.T) {
		model := NewModel()
		a := model.MustRegister(NewClass("p.A", ClassCategory))
		b := model.MustRegister(NewClass("p.B", ClassCategory))
		c := model.MustRegister(NewClass("p.C", ClassCategory))
		a.SetSuperclass(b)
		b.SetSuperclass(a)
		c.SetSuperclass(a)
		c.SetEnclosing(a)

		assert.Nil(t, CheckHierarchy(c))

		var multiple *errors.MultipleErrors
		require.True(t, stderrors.As(model.CheckHierarchy(), &multiple))
		assert.Equal(t, 2, multiple.Count())
	})
}
