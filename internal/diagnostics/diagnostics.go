// Package diagnostics prints levelled, optionally coloured messages for CLI
// users and renders coded errors with their context and suggestions.
package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Level represents the level of diagnostic output
type Level int

const (
	Silent Level = iota
	Error
	Warn
	Info
	Verbose
	Debug
)

// System provides structured, user-friendly output
type System struct {
	level     Level
	useColors bool
	showTime  bool
	output    io.Writer
	errorOut  io.Writer
	indent    int
}

// New creates a diagnostic system writing to stdout and stderr
func New(level Level) *System {
	return NewTerminal(level, os.Stdout, os.Stderr)
}

// NewTerminal creates a diagnostic system for interactive streams; colours
// follow the environment and verbose output is timestamped
func NewTerminal(level Level, output, errorOut io.Writer) *System {
	d := NewWithWriters(level, output, errorOut)
	d.useColors = shouldUseColors()
	d.showTime = level >= Verbose
	return d
}

// NewWithWriters creates a diagnostic system writing to the given writers
// without colours or timestamps
func NewWithWriters(level Level, output, errorOut io.Writer) *System {
	return &System{level: level, output: output, errorOut: errorOut}
}

// Level returns the configured level
func (d *System) Level() Level { return d.level }

// Output returns the writer for regular output
func (d *System) Output() io.Writer { return d.output }

// Error outputs error messages (always shown unless silent)
func (d *System) Error(format string, args ...interface{}) {
	if d.level >= Error {
		d.writeMessage(d.errorOut, "ERROR", color.FgRed, format, args...)
	}
}

// Warn outputs warning messages
func (d *System) Warn(format string, args ...interface{}) {
	if d.level >= Warn {
		d.writeMessage(d.errorOut, "WARN", color.FgYellow, format, args...)
	}
}

// Info outputs informational messages
func (d *System) Info(format string, args ...interface{}) {
	if d.level >= Info {
		d.writeMessage(d.output, "INFO", color.FgBlue, format, args...)
	}
}

// Success outputs success messages with emphasis
func (d *System) Success(format string, args ...interface{}) {
	if d.level >= Info {
		d.writeMessage(d.output, "SUCCESS", color.FgGreen, format, args...)
	}
}

// Verbose outputs detailed messages (verbose mode only)
func (d *System) Verbose(format string, args ...interface{}) {
	if d.level >= Verbose {
		d.writeMessage(d.output, "VERBOSE", color.FgHiBlack, format, args...)
	}
}

// Debug outputs debug messages (highest verbosity)
func (d *System) Debug(format string, args ...interface{}) {
	if d.level >= Debug {
		d.writeMessage(d.output, "DEBUG", color.FgMagenta, format, args...)
	}
}

// Section creates a prominent section header
func (d *System) Section(title string) {
	if d.level >= Info {
		fmt.Fprintf(d.output, "%s\n", d.paint(color.FgCyan, title))
	}
}

// List outputs a bulleted list item
func (d *System) List(format string, args ...interface{}) {
	if d.level >= Info {
		fmt.Fprintf(d.output, "%s- %s\n", d.getIndent(), fmt.Sprintf(format, args...))
	}
}

// Indent increases the indentation level
func (d *System) Indent() {
	d.indent++
}

// Unindent decreases the indentation level
func (d *System) Unindent() {
	if d.indent > 0 {
		d.indent--
	}
}

func (d *System) writeMessage(writer io.Writer, level string, attr color.Attribute, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	var output strings.Builder
	output.WriteString(d.getIndent())
	if d.showTime {
		output.WriteString(time.Now().Format("15:04:05 "))
	}
	output.WriteString(d.paint(attr, "["+level+"]"))
	output.WriteString(" ")
	output.WriteString(message)
	output.WriteString("\n")

	fmt.Fprint(writer, output.String())
}

func (d *System) paint(attr color.Attribute, text string) string {
	if !d.useColors {
		return text
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(text)
}

func (d *System) getIndent() string {
	return strings.Repeat("  ", d.indent)
}

// shouldUseColors follows the NO_COLOR and FORCE_COLOR conventions, then
// the terminal type
func shouldUseColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb" && !color.NoColor
}
