package errors

import "fmt"

// Common error wrapping patterns used throughout the codebase

// WrapMalformedContainer wraps a failure to read the contained instances of a
// container annotation
func WrapMalformedContainer(kindName, declarer string, cause error) *BaseError {
	message := fmt.Sprintf("failed to flatten container annotation @%s on %s", kindName, declarer)
	return Wrap(MalformedContainerErrorCode, message, cause).
		WithContext("kind", kindName).
		WithContext("declarer", declarer).
		WithSuggestion("A container kind must expose its repeated instances through an array-valued 'value' member")
}

// NotRepeatable reports a repeatable search for a kind without a container
func NotRepeatable(kindName string) *BaseError {
	return Newf(NotRepeatableErrorCode, "annotation kind %s is not repeatable", kindName).
		WithContext("kind", kindName).
		WithSuggestion("Declare a container kind with @Repeatable or search with repeated=false")
}

// WrapParseError wraps an error with a "failed to parse" message
func WrapParseError(item string, cause error) *BaseError {
	message := fmt.Sprintf("failed to parse %s", item)
	return Wrap(SyntaxErrorCode, message, cause)
}

// SyntaxAt creates a syntax error pinned to a source location
func SyntaxAt(loc SourceLocation, format string, args ...interface{}) *BaseError {
	return Newf(SyntaxErrorCode, format, args...).WithLocation(loc)
}

// Unresolved reports a name that could not be resolved against a model
func Unresolved(what, name string) *BaseError {
	return Newf(ResolutionErrorCode, "%s '%s' not found", what, name).
		WithContext("what", what).
		WithContext("name", name)
}

// Ambiguous reports a name that resolved to several candidates
func Ambiguous(what, name string, candidates []string) *BaseError {
	return Newf(ResolutionErrorCode, "%s '%s' is ambiguous", what, name).
		WithContext("candidates", candidates).
		WithSuggestion(fmt.Sprintf("Choose one of: %v", candidates))
}

// ValidateError creates a validation error for a field
func ValidateError(field, expected, actual string) *BaseError {
	return Newf(ValidationErrorCode, "invalid %s: expected %s, got %s", field, expected, actual).
		WithContext("field", field)
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// ConfigurationError creates a configuration error
func ConfigurationError(configType, message string) *BaseError {
	fullMessage := fmt.Sprintf("configuration error in '%s': %s", configType, message)
	return New(ConfigurationErrorCode, fullMessage).
		WithContext("config_type", configType)
}

// AddToMultiple appends err, allocating the collection on first use
func AddToMultiple(multiple **MultipleErrors, err AnnoscopeError) {
	if *multiple == nil {
		*multiple = &MultipleErrors{}
	}
	(*multiple).Add(err)
}
