package javasrc

import "github.com/toyz/annoscope/internal/metadata"

// Well-known JUnit kinds. Test sources rarely ship them, so the loader adds
// them as external kinds with their real attributes unless the sources
// declare them.
const (
	ArgumentsSourceKind          = "org.junit.jupiter.params.provider.ArgumentsSource"
	ArgumentsSourcesKind         = "org.junit.jupiter.params.provider.ArgumentsSources"
	ValueSourceKind              = "org.junit.jupiter.params.provider.ValueSource"
	CartesianArgumentsSourceKind = "org.junitpioneer.jupiter.cartesian.CartesianArgumentsSource"
	CartesianValuesKind          = "org.junitpioneer.jupiter.cartesian.CartesianTest$Values"
	TagKind                      = "org.junit.jupiter.api.Tag"
	TagsKind                     = "org.junit.jupiter.api.Tags"
	ExtendWithKind               = "org.junit.jupiter.api.extension.ExtendWith"
	ExtensionsKind               = "org.junit.jupiter.api.extension.Extensions"
)

func platformKinds() []*metadata.Class {
	argumentsSource := platformKind(ArgumentsSourceKind, false)
	argumentsSource.AddMember(metadata.Member{Name: "value", Type: metadata.MemberType{Kind: metadata.ClassValue, TypeName: "Class"}})
	argumentsSources := platformContainer(ArgumentsSourcesKind, argumentsSource, false)

	valueSource := platformKind(ValueSourceKind, false)
	valueSource.AddMember(arrayMember("ints", metadata.IntValue, "int"))
	valueSource.AddMember(arrayMember("strings", metadata.StringValue, "String"))
	valueSource.Annotate(argumentsSource, metadata.Values{
		"value": metadata.ClassRef("org.junit.jupiter.params.provider.ValueArgumentsProvider"),
	})

	cartesianSource := platformKind(CartesianArgumentsSourceKind, false)
	cartesianSource.AddMember(metadata.Member{Name: "value", Type: metadata.MemberType{Kind: metadata.ClassValue, TypeName: "Class"}})

	cartesianValues := platformKind(CartesianValuesKind, false)
	cartesianValues.AddMember(arrayMember("ints", metadata.IntValue, "int"))
	cartesianValues.AddMember(arrayMember("strings", metadata.StringValue, "String"))
	cartesianValues.Annotate(cartesianSource, metadata.Values{
		"value": metadata.ClassRef("org.junitpioneer.jupiter.cartesian.CartesianValueArgumentsProvider"),
	})

	tag := platformKind(TagKind, true)
	tag.AddMember(metadata.Member{Name: "value", Type: metadata.MemberType{Kind: metadata.StringValue, TypeName: "String"}})
	tags := platformContainer(TagsKind, tag, true)

	extendWith := platformKind(ExtendWithKind, true)
	extendWith.AddMember(arrayMember("value", metadata.ClassValue, "Class"))
	extensions := platformContainer(ExtensionsKind, extendWith, true)

	return []*metadata.Class{
		argumentsSource, argumentsSources, valueSource,
		cartesianSource, cartesianValues,
		tag, tags, extendWith, extensions,
	}
}

func platformKind(name string, inherited bool) *metadata.Class {
	kind := metadata.NewExternal(name, metadata.AnnotationCategory)
	kind.SetInherited(inherited)
	return kind
}

func platformContainer(name string, contained *metadata.Class, inherited bool) *metadata.Class {
	container := platformKind(name, inherited)
	container.AddMember(metadata.Member{
		Name: "value",
		Type: metadata.MemberType{Kind: metadata.AnnotationValue, Array: true, Annotation: contained},
	})
	contained.SetRepeatableContainer(container)
	return container
}

func arrayMember(name string, kind metadata.ValueKind, typeName string) metadata.Member {
	empty := metadata.Array()
	return metadata.Member{
		Name:    name,
		Type:    metadata.MemberType{Kind: kind, Array: true, TypeName: typeName},
		Default: &empty,
	}
}
