package diagnostics

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/toyz/annoscope/internal/errors"
)

// ReportError writes err to the error output. Coded errors are printed with
// their location, context and suggestions; aggregated errors one by one.
func (d *System) ReportError(err error) {
	if err == nil || d.level < Error {
		return
	}

	var multiple *errors.MultipleErrors
	if stderrors.As(err, &multiple) && multiple.Count() > 0 {
		if multiple.Count() > 1 {
			d.Error("%d problems found", multiple.Count())
			for i, e := range multiple.Errors {
				fmt.Fprintf(d.errorOut, "%d. ", i+1)
				d.reportCoded(e)
			}
			return
		}
		err = multiple.Errors[0]
	}

	var coded errors.AnnoscopeError
	if stderrors.As(err, &coded) {
		d.Error("%s", headline(coded))
		d.reportDetails(coded)
		return
	}
	d.Error("%s", err.Error())
}

func (d *System) reportCoded(e errors.AnnoscopeError) {
	fmt.Fprintf(d.errorOut, "%s\n", headline(e))
	d.reportDetails(e)
}

func (d *System) reportDetails(e errors.AnnoscopeError) {
	if loc := e.Location(); !loc.IsEmpty() {
		fmt.Fprintf(d.errorOut, "   Location: %s\n", loc)
	}

	if d.level >= Verbose {
		context := e.Context()
		keys := make([]string, 0, len(context))
		for key := range context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(d.errorOut, "   %s: %v\n", formatContextKey(key), context[key])
		}
	}

	suggestions := e.Suggestions()
	if len(suggestions) > 0 {
		fmt.Fprintf(d.errorOut, "   Suggestions:\n")
		for i, s := range suggestions {
			fmt.Fprintf(d.errorOut, "     %d. %s\n", i+1, s)
		}
	}
}

func headline(e errors.AnnoscopeError) string {
	message := e.Error()
	if base, ok := e.(*errors.BaseError); ok {
		message = base.Message
		if base.Cause != nil {
			message += ": " + base.Cause.Error()
		}
	}
	return fmt.Sprintf("%s: %s", e.ErrorCode(), message)
}

// formatContextKey converts snake_case to Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}
