// Package yamlmodel loads a metadata model from a declarative YAML file.
//
// A model file lists annotation kinds and types:
//
//	kinds:
//	  - name: com.acme.Tag
//	    inherited: true
//	    repeatable: com.acme.Tags
//	    members:
//	      - {name: value, type: string}
//	  - name: com.acme.Tags
//	    inherited: true
//	    members:
//	      - {name: value, type: "annotation:com.acme.Tag[]"}
//	types:
//	  - name: com.acme.BaseTest
//	    annotations:
//	      - {kind: Tag, value: base}
//	    methods:
//	      - name: runs
//	        parameters:
//	          - {type: int, name: n}
//
// References may use the binary name, the simple name or a qualified suffix.
package yamlmodel

import (
	"bytes"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/metadata"
)

// Loader builds a model from YAML
type Loader struct {
	logger *slog.Logger
}

// Option configures a Loader
type Option func(*Loader)

// WithLogger sets the debug logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a YAML model loader
func NewLoader(opts ...Option) *Loader {
	l := &Loader{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads and builds the model file at path
func (l *Loader) LoadFile(path string) (*metadata.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFileSystemError("read", path, err)
	}
	return l.Parse(path, data)
}

// Parse builds a model from YAML content; name is used in error locations
func (l *Loader) Parse(name string, data []byte) (*metadata.Model, error) {
	var doc document
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.WrapParseError(name, err).
			WithSuggestion("Check the YAML syntax and the kinds/types layout")
	}

	model, err := newBuilder(name, l.logger).build(&doc)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("loaded yaml model", "file", name, "kinds", len(doc.Kinds), "types", len(doc.Types))
	return model, nil
}
