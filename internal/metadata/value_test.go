package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	tag := NewKind("com.acme.Tag")
	nested := NewAnnotation(tag, NewClass("com.acme.Suite", ClassCategory), Values{"value": String("fast")})

	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"string", String("a\"b"), `"a\"b"`},
		{"int", Int(42), "42"},
		{"bool", Bool(true), "true"},
		{"class", ClassRef("com.acme.Outer$Inner"), "Inner.class"},
		{"enum", Enum("Mode.FAST"), "Mode.FAST"},
		{"nested", Nested(nested), `@Tag("fast")`},
		{"array", Array(Int(1), Int(2)), "{1, 2}"},
		{"empty array", Array(), "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}

func TestValueInterface(t *testing.T) {
	tag := NewKind("com.acme.Tag")
	nested := NewAnnotation(tag, NewClass("com.acme.Suite", ClassCategory), Values{"value": String("fast")})

	got := Array(Nested(nested), Int(3)).Interface()
	assert.Equal(t, []interface{}{
		map[string]interface{}{"kind": "com.acme.Tag", "value": "fast"},
		int64(3),
	}, got)
}

func TestParseValueKind(t *testing.T) {
	kind, err := ParseValueKind("boolean")
	require.NoError(t, err)
	assert.Equal(t, BoolValue, kind)

	_, err = ParseValueKind("double[]")
	assert.Error(t, err)
}

func TestMemberTypeString(t *testing.T) {
	tag := NewKind("com.acme.Tag")
	assert.Equal(t, "Tag[]", MemberType{Kind: AnnotationValue, Array: true, Annotation: tag}.String())
	assert.Equal(t, "String", MemberType{Kind: StringValue, TypeName: "String"}.String())
	assert.Equal(t, "int", MemberType{Kind: IntValue}.String())
}

func TestAnnotationValueDefaults(t *testing.T) {
	kind := NewKind("com.acme.Timeout")
	def := Int(10)
	kind.AddMember(Member{Name: "seconds", Type: MemberType{Kind: IntValue}, Default: &def})
	kind.AddMember(Member{Name: "reason", Type: MemberType{Kind: StringValue}})

	suite := NewClass("com.acme.Suite", ClassCategory)
	ann := suite.Annotate(kind, Values{"reason": String("slow")})

	seconds, err := ann.Value("seconds")
	require.NoError(t, err)
	assert.Equal(t, int64(10), seconds.Int)

	reason, err := ann.Value("reason")
	require.NoError(t, err)
	assert.Equal(t, "slow", reason.Str)

	_, err = ann.Value("missing")
	assert.Error(t, err)

	assert.Equal(t, `@Timeout(reason="slow")`, ann.String())
	assert.Equal(t, "@Timeout", suite.Annotate(kind, nil).String())
}

func TestAnnotateRepeatedWrapsIntoContainer(t *testing.T) {
	tag := NewKind("com.acme.Tag")
	tags := NewKind("com.acme.Tags")
	tags.AddMember(Member{Name: "value", Type: MemberType{Kind: AnnotationValue, Array: true, Annotation: tag}})
	tag.SetRepeatableContainer(tags)

	suite := NewClass("com.acme.Suite", ClassCategory)
	nested := suite.AnnotateRepeated(tag, Values{"value": String("a")}, Values{"value": String("b")})
	require.Len(t, nested, 2)

	declared := suite.DeclaredAnnotations()
	require.Len(t, declared, 1)
	assert.Equal(t, "com.acme.Tags", declared[0].Kind().Name())

	held, err := declared[0].Value("value")
	require.NoError(t, err)
	require.Len(t, held.Elems, 2)
	assert.Same(t, nested[0], held.Elems[0].Annotation)
	assert.Same(t, suite, nested[1].Declarer())

	// identities are distinct per declaration even on the same declarer
	assert.NotEqual(t, nested[0].Identity(), nested[1].Identity())
	assert.Equal(t, "com.acme.Suite", nested[0].Identity().Declarer)

	single := NewClass("com.acme.Single", ClassCategory).AnnotateRepeated(tag, Values{"value": String("only")})
	require.Len(t, single, 1)
	assert.Equal(t, "com.acme.Tag", single[0].Kind().Name())
}
