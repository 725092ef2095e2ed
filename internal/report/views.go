// Package report converts search results into serialisable views and
// renders them as a table, YAML or JSON.
package report

import (
	"sort"

	"github.com/toyz/annoscope/internal/metadata"
)

// AnnotationView is the serialisable form of one annotation instance
type AnnotationView struct {
	Kind     string                 `json:"kind" yaml:"kind"`
	Declarer string                 `json:"declarer" yaml:"declarer"`
	Text     string                 `json:"text" yaml:"text"`
	Values   map[string]interface{} `json:"values,omitempty" yaml:"values,omitempty"`
	Location string                 `json:"location,omitempty" yaml:"location,omitempty"`
}

// KindView describes an annotation kind
type KindView struct {
	Name      string   `json:"name" yaml:"name"`
	Inherited bool     `json:"inherited" yaml:"inherited"`
	Container string   `json:"container,omitempty" yaml:"container,omitempty"`
	Members   []string `json:"members,omitempty" yaml:"members,omitempty"`
	External  bool     `json:"external,omitempty" yaml:"external,omitempty"`
}

// QueryResult is the outcome of a find or meta query
type QueryResult struct {
	Query       string           `json:"query" yaml:"query"`
	Selector    string           `json:"selector" yaml:"selector"`
	Kind        string           `json:"kind" yaml:"kind"`
	Annotations []AnnotationView `json:"annotations" yaml:"annotations"`
}

// PresenceResult is the outcome of a presence check
type PresenceResult struct {
	Selector   string `json:"selector" yaml:"selector"`
	Kind       string `json:"kind" yaml:"kind"`
	Repeatable bool   `json:"repeatable" yaml:"repeatable"`
	Present    bool   `json:"present" yaml:"present"`
}

// SourcesResult lists the argument sources of a method
type SourcesResult struct {
	Selector   string           `json:"selector" yaml:"selector"`
	Parameters []AnnotationView `json:"parameters" yaml:"parameters"`
	Method     []AnnotationView `json:"method" yaml:"method"`
}

// Annotation converts one instance
func Annotation(a *metadata.Annotation) AnnotationView {
	view := AnnotationView{
		Kind: a.Kind().Name(),
		Text: a.String(),
	}
	if a.Declarer() != nil {
		view.Declarer = a.Declarer().Name()
	}
	if values := a.Values(); len(values) > 0 {
		view.Values = make(map[string]interface{}, len(values))
		for name, v := range values {
			view.Values[name] = v.Interface()
		}
	}
	if loc := a.Location(); !loc.IsEmpty() {
		view.Location = loc.String()
	}
	return view
}

// Annotations converts instances preserving order; never nil
func Annotations(annotations []*metadata.Annotation) []AnnotationView {
	out := make([]AnnotationView, 0, len(annotations))
	for _, a := range annotations {
		out = append(out, Annotation(a))
	}
	return out
}

// Kinds converts kinds sorted by name
func Kinds(kinds []*metadata.Class) []KindView {
	out := make([]KindView, 0, len(kinds))
	for _, k := range kinds {
		view := KindView{Name: k.Name(), Inherited: k.Inherited(), External: k.External()}
		if c := k.RepeatableContainer(); c != nil {
			view.Container = c.Name()
		}
		for _, m := range k.Members() {
			view.Members = append(view.Members, m.Type.String()+" "+m.Name)
		}
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
