package yamlmodel

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// document is the top-level YAML layout
type document struct {
	Kinds []*kindSpec `yaml:"kinds"`
	Types []*typeSpec `yaml:"types"`
}

type kindSpec struct {
	Name        string            `yaml:"name"`
	Inherited   bool              `yaml:"inherited"`
	Repeatable  string            `yaml:"repeatable"`
	Members     []*memberSpec     `yaml:"members"`
	Annotations []*annotationSpec `yaml:"annotations"`

	line, column int
}

func (k *kindSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain kindSpec
	k.line, k.column = node.Line, node.Column
	return node.Decode((*plain)(k))
}

type memberSpec struct {
	Name    string     `yaml:"name"`
	Type    string     `yaml:"type"`
	Default *yaml.Node `yaml:"default"`
}

type typeSpec struct {
	Name        string            `yaml:"name"`
	Category    string            `yaml:"category"`
	Superclass  string            `yaml:"superclass"`
	Interfaces  []string          `yaml:"interfaces"`
	Enclosing   string            `yaml:"enclosing"`
	Annotations []*annotationSpec `yaml:"annotations"`
	Methods     []*methodSpec     `yaml:"methods"`

	line, column int
}

func (t *typeSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain typeSpec
	t.line, t.column = node.Line, node.Column
	return node.Decode((*plain)(t))
}

type methodSpec struct {
	Name        string            `yaml:"name"`
	Annotations []*annotationSpec `yaml:"annotations"`
	Parameters  []*paramSpec      `yaml:"parameters"`

	line, column int
}

func (m *methodSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain methodSpec
	m.line, m.column = node.Line, node.Column
	return node.Decode((*plain)(m))
}

type paramSpec struct {
	Name        string            `yaml:"name"`
	Type        string            `yaml:"type"`
	Annotations []*annotationSpec `yaml:"annotations"`

	line, column int
}

func (p *paramSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain paramSpec
	p.line, p.column = node.Line, node.Column
	return node.Decode((*plain)(p))
}

// annotationSpec is one annotation use: either a bare kind name or a mapping
// with a kind key and one key per member value
type annotationSpec struct {
	Kind   string
	Values []memberValue

	line, column int
}

type memberValue struct {
	name string
	node *yaml.Node
}

func (a *annotationSpec) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := parseAnnotation(node)
	if err != nil {
		return err
	}
	*a = *parsed
	return nil
}

func parseAnnotation(node *yaml.Node) (*annotationSpec, error) {
	node = resolveAlias(node)
	a := &annotationSpec{line: node.Line, column: node.Column}

	switch node.Kind {
	case yaml.ScalarNode:
		a.Kind = node.Value
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if key.Value == "kind" {
				a.Kind = value.Value
				continue
			}
			a.Values = append(a.Values, memberValue{name: key.Value, node: value})
		}
	default:
		return nil, fmt.Errorf("line %d: annotation must be a kind name or a mapping", node.Line)
	}

	if a.Kind == "" {
		return nil, fmt.Errorf("line %d: annotation has no kind", node.Line)
	}
	return a, nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}
