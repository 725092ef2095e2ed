package yamlmodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/metadata"
	"github.com/toyz/annoscope/internal/search"
)

const fixture = `
kinds:
  - name: com.acme.Tag
    inherited: true
    repeatable: com.acme.Tags
    members:
      - {name: value, type: string}
  - name: com.acme.Tags
    inherited: true
    members:
      - {name: value, type: "annotation:Tag[]"}
  - name: com.acme.Marker
  - name: com.acme.Timed
    annotations:
      - Marker
    members:
      - {name: millis, type: int, default: 1000}
      - {name: labels, type: "string[]", default: []}
      - {name: tag, type: "annotation:Tag", default: {kind: Tag, value: timed}}
      - {name: unit, type: enum, default: SECONDS}
      - {name: provider, type: class, default: com.acme.Provider}
      - {name: strict, type: boolean, default: false}

types:
  - name: com.acme.BaseTest
    annotations:
      - {kind: Tag, value: base}
  - name: com.acme.Feature
    category: interface
    annotations:
      - {kind: Tag, value: feature}
  - name: com.acme.OuterTest
    superclass: BaseTest
    interfaces: [Feature]
    annotations:
      - {kind: Tag, value: a}
      - {kind: Tag, value: b}
  - name: com.acme.OuterTest$Inner
    enclosing: OuterTest
    methods:
      - name: runs
        annotations:
          - {kind: Timed, millis: 0x10, labels: slow}
        parameters:
          - {type: int, name: n}
          - type: String
            name: s
            annotations:
              - {kind: Tag, value: param}
`

func parseFixture(t *testing.T) *metadata.Model {
	t.Helper()
	model, err := NewLoader().Parse("model.yaml", []byte(fixture))
	require.NoError(t, err)
	return model
}

func lookup(t *testing.T, model *metadata.Model, name string) *metadata.Class {
	t.Helper()
	c, ok := model.Lookup(name)
	require.True(t, ok, "type %s not in model", name)
	return c
}

func TestParseKinds(t *testing.T) {
	model := parseFixture(t)

	tag := lookup(t, model, "com.acme.Tag")
	assert.True(t, tag.Inherited())
	require.NotNil(t, tag.RepeatableContainer())
	assert.Equal(t, "com.acme.Tags", tag.RepeatableContainer().Name())

	tags := lookup(t, model, "com.acme.Tags")
	member, ok := tags.Member("value")
	require.True(t, ok)
	assert.True(t, member.Type.Array)
	assert.Equal(t, "Tag[]", member.Type.String())
	contained, ok := search.ContainedKind(tags)
	require.True(t, ok)
	assert.Equal(t, tag.Name(), contained.Name())

	names := make([]string, 0)
	for _, k := range model.Kinds() {
		names = append(names, k.Name())
	}
	assert.Equal(t, []string{"com.acme.Marker", "com.acme.Tag", "com.acme.Tags", "com.acme.Timed"}, names)
}

func TestParseMemberDefaults(t *testing.T) {
	timed := lookup(t, parseFixture(t), "com.acme.Timed")

	tests := map[string]string{
		"millis":   "1000",
		"labels":   "{}",
		"tag":      `@Tag("timed")`,
		"unit":     "SECONDS",
		"provider": "Provider.class",
		"strict":   "false",
	}
	for name, want := range tests {
		member, ok := timed.Member(name)
		require.True(t, ok, name)
		require.NotNil(t, member.Default, name)
		assert.Equal(t, want, member.Default.String(), name)
	}

	require.Len(t, timed.DeclaredAnnotations(), 1)
	assert.Equal(t, "com.acme.Marker", timed.DeclaredAnnotations()[0].Kind().Name())
}

func TestParseTypes(t *testing.T) {
	model := parseFixture(t)

	base := lookup(t, model, "com.acme.BaseTest")
	assert.Equal(t, metadata.ObjectTypeName, base.Superclass().Name())
	object := lookup(t, model, metadata.ObjectTypeName)
	assert.True(t, object.External())

	feature := lookup(t, model, "com.acme.Feature")
	assert.Equal(t, metadata.InterfaceCategory, feature.Category())
	assert.Nil(t, feature.Superclass())

	outer := lookup(t, model, "com.acme.OuterTest")
	assert.Equal(t, base, outer.Superclass())
	require.Len(t, outer.Interfaces(), 1)
	assert.Equal(t, feature, outer.Interfaces()[0])

	declared := outer.DeclaredAnnotations()
	require.Len(t, declared, 1, "repeated uses are stored in the container")
	assert.Equal(t, "com.acme.Tags", declared[0].Kind().Name())
	assert.Equal(t, `@Tags({@Tag("a"), @Tag("b")})`, declared[0].String())
	assert.Equal(t, "model.yaml", declared[0].Location().File)

	inner := lookup(t, model, "com.acme.OuterTest$Inner")
	assert.Equal(t, outer, inner.EnclosingType())
}

func TestParseMethods(t *testing.T) {
	inner := lookup(t, parseFixture(t), "com.acme.OuterTest$Inner")

	runs := inner.MethodsNamed("runs")
	require.Len(t, runs, 1)
	assert.Equal(t, "com.acme.OuterTest$Inner#runs(int, String)", runs[0].Name())

	timed := runs[0].DeclaredAnnotations()[0]
	millis, err := timed.Value("millis")
	require.NoError(t, err)
	assert.Equal(t, int64(16), millis.Int)
	labels, err := timed.Value("labels")
	require.NoError(t, err)
	assert.Equal(t, `{"slow"}`, labels.String())
	strict, err := timed.Value("strict")
	require.NoError(t, err)
	assert.False(t, strict.Bool, "falls back to the default")

	params := runs[0].Params()
	require.Len(t, params, 2)
	assert.Empty(t, params[0].DeclaredAnnotations())
	require.Len(t, params[1].DeclaredAnnotations(), 1)
	assert.Equal(t, `@Tag("param")`, params[1].DeclaredAnnotations()[0].String())
}

func TestParsedModelSearch(t *testing.T) {
	model := parseFixture(t)
	engine := search.NewEngine()
	tag := lookup(t, model, "com.acme.Tag")
	inner := lookup(t, model, "com.acme.OuterTest$Inner")
	runs := inner.MethodsNamed("runs")[0]

	found, err := engine.FindAllEnclosingRepeatableAnnotations(search.ForMethod(runs), tag)
	require.NoError(t, err)
	var values []string
	for _, a := range found {
		v, err := a.Value("value")
		require.NoError(t, err)
		values = append(values, v.Str)
	}
	assert.Equal(t, []string{"base", "feature", "a", "b"}, values)

	marker := lookup(t, model, "com.acme.Marker")
	meta, err := engine.FindAnnotatedAnnotations(runs, marker)
	require.NoError(t, err)
	require.Len(t, meta, 1)
	assert.Equal(t, "com.acme.Timed", meta[0].Kind().Name())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		code    errors.ErrorCode
		message string
	}{
		{
			name:    "invalid yaml",
			yaml:    "kinds: [",
			code:    errors.SyntaxErrorCode,
			message: "failed to parse model.yaml",
		},
		{
			name:    "unknown kind",
			yaml:    "types:\n  - name: A\n    annotations: [Missing]\n",
			code:    errors.ResolutionErrorCode,
			message: "Missing",
		},
		{
			name:    "unknown superclass",
			yaml:    "types:\n  - name: A\n    superclass: Nowhere\n",
			code:    errors.ResolutionErrorCode,
			message: "Nowhere",
		},
		{
			name:    "duplicate type",
			yaml:    "types:\n  - name: A\n  - name: A\n",
			code:    errors.ValidationErrorCode,
			message: "type A is declared twice",
		},
		{
			name:    "annotation under types",
			yaml:    "types:\n  - name: A\n    category: annotation\n",
			code:    errors.ValidationErrorCode,
			message: "must be declared under kinds",
		},
		{
			name:    "unknown category",
			yaml:    "types:\n  - name: A\n    category: struct\n",
			code:    errors.ValidationErrorCode,
			message: "unknown type category",
		},
		{
			name:    "unknown member type",
			yaml:    "kinds:\n  - name: K\n    members:\n      - {name: v, type: float}\n",
			code:    errors.ValidationErrorCode,
			message: "unknown member type 'float'",
		},
		{
			name:    "class used as kind",
			yaml:    "types:\n  - name: A\n    annotations: [B]\n  - name: B\n",
			code:    errors.ValidationErrorCode,
			message: "B is a class, not an annotation kind",
		},
		{
			name:    "unknown member",
			yaml:    "kinds:\n  - name: K\ntypes:\n  - name: A\n    annotations:\n      - {kind: K, value: x}\n",
			code:    errors.ValidationErrorCode,
			message: "annotation @K has no member 'value'",
		},
		{
			name:    "bad int",
			yaml:    "kinds:\n  - name: K\n    members:\n      - {name: n, type: int}\ntypes:\n  - name: A\n    annotations:\n      - {kind: K, n: many}\n",
			code:    errors.ValidationErrorCode,
			message: "expected int, got many",
		},
		{
			name:    "wrong nested kind",
			yaml:    "kinds:\n  - name: K\n  - name: L\n  - name: H\n    members:\n      - {name: k, type: \"annotation:K\"}\ntypes:\n  - name: A\n    annotations:\n      - {kind: H, k: {kind: L}}\n",
			code:    errors.ValidationErrorCode,
			message: "expected @K, got @L",
		},
		{
			name:    "ambiguous reference",
			yaml:    "types:\n  - name: a.Same\n  - name: b.Same\n  - name: C\n    superclass: Same\n",
			code:    errors.ResolutionErrorCode,
			message: "Same",
		},
		{
			name:    "mutual superclasses",
			yaml:    "types:\n  - name: p.A\n    superclass: p.B\n  - name: p.B\n    superclass: p.A\n",
			code:    errors.ValidationErrorCode,
			message: "type p.A inherits from itself: p.A -> p.B -> p.A",
		},
		{
			name:    "own superclass",
			yaml:    "types:\n  - name: A\n    superclass: A\n",
			code:    errors.ValidationErrorCode,
			message: "type A inherits from itself: A -> A",
		},
		{
			name:    "interface cycle",
			yaml:    "types:\n  - name: I\n    category: interface\n    interfaces: [J]\n  - name: J\n    category: interface\n    interfaces: [I]\n",
			code:    errors.ValidationErrorCode,
			message: "type I inherits from itself: I -> J -> I",
		},
		{
			name:    "cycle through interface and superclass",
			yaml:    "types:\n  - name: A\n    interfaces: [I]\n  - name: I\n    category: interface\n    interfaces: [B]\n  - name: B\n    superclass: A\n",
			code:    errors.ValidationErrorCode,
			message: "type A inherits from itself: A -> I -> B -> A",
		},
		{
			name:    "enclosing cycle",
			yaml:    "types:\n  - name: A\n    enclosing: B\n  - name: B\n    enclosing: A\n",
			code:    errors.ValidationErrorCode,
			message: "type A encloses itself: A -> B -> A",
		},
		{
			name:    "default kind mismatch",
			yaml:    "kinds:\n  - name: K\n    members:\n      - {name: n, type: int, default: [1]}\n",
			code:    errors.ValidationErrorCode,
			message: "expected int, got a collection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Parse("model.yaml", []byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParseReportsAllErrors(t *testing.T) {
	yaml := "types:\n  - name: A\n    superclass: X\n  - name: B\n    superclass: Y\n"
	_, err := NewLoader().Parse("model.yaml", []byte(yaml))
	require.Error(t, err)

	var multiple *errors.MultipleErrors
	require.ErrorAs(t, err, &multiple)
	assert.Equal(t, 2, multiple.Count())
	assert.Equal(t, 2, multiple.Location().Line)
}

func TestParseRejectsCyclicHierarchy(t *testing.T) {
	yaml := "types:\n  - name: p.Root\n  - name: p.A\n    superclass: p.B\n  - name: p.B\n    superclass: p.A\n  - name: p.C\n    superclass: p.A\n"
	_, err := NewLoader().Parse("model.yaml", []byte(yaml))
	require.Error(t, err)

	var multiple *errors.MultipleErrors
	require.ErrorAs(t, err, &multiple)
	assert.Equal(t, 2, multiple.Count(), "only types on the cycle are reported")
	assert.Equal(t, errors.ValidationErrorCode, multiple.ErrorCode())
	assert.Equal(t, "model.yaml", multiple.Location().File)
	assert.Equal(t, 3, multiple.Location().Line)
	assert.NotContains(t, err.Error(), "type p.C")
}

func TestParseEmpty(t *testing.T) {
	model, err := NewLoader().Parse("empty.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, model.Len())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	model, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	lookup(t, model, "com.acme.Tag")

	_, err = NewLoader().LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.FileSystemErrorCode, errors.CodeOf(err))
}
