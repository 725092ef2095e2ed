package selector

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/annoscope/internal/errors"
)

// selectorAST is the parsed form of
// [Enclosing/]...Class[#method[(type, type...)]]
type selectorAST struct {
	Path   []*qualifiedName `parser:"@@ ( '/' @@ )*"`
	Method *methodAST       `parser:"( '#' @@ )?"`
}

type qualifiedName struct {
	Name string `parser:"@Ident ( @'.' @Ident )*"`
}

type methodAST struct {
	Name       string         `parser:"@Ident"`
	Parameters *parameterList `parser:"@@?"`
}

type parameterList struct {
	Open  bool       `parser:"@'('"`
	Types []*typeRef `parser:"( @@ ( ',' @@ )* )? ')'"`
}

type typeRef struct {
	Name string `parser:"@Ident ( @'.' @Ident )* ( @'[' @']' )* @Ellipsis?"`
}

var selectorParser = participle.MustBuild[selectorAST](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Ident", Pattern: `[a-zA-Z_$][a-zA-Z0-9_$]*`},
		{Name: "Ellipsis", Pattern: `\.\.\.`},
		{Name: "Punct", Pattern: `[./#(),\[\]]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Parse parses the textual selector form, e.g.
// com.acme.Outer/com.acme.Outer$Inner#runs(int, java.lang.String)
func Parse(text string) (Selector, error) {
	if strings.TrimSpace(text) == "" {
		return Selector{}, errors.New(errors.SyntaxErrorCode, "selector cannot be empty")
	}
	ast, err := selectorParser.ParseString("", text)
	if err != nil {
		return Selector{}, errors.WrapParseError("selector '"+text+"'", err).
			WithSuggestion("Selectors look like com.acme.Outer/com.acme.Outer$Inner#method(int, String)")
	}

	names := make([]string, len(ast.Path))
	for i, q := range ast.Path {
		names[i] = q.Name
	}
	s := Selector{
		enclosing: copyNames(names[:len(names)-1]),
		class:     names[len(names)-1],
	}
	if ast.Method != nil {
		s.method = ast.Method.Name
		if ast.Method.Parameters != nil {
			types := make([]string, len(ast.Method.Parameters.Types))
			for i, t := range ast.Method.Parameters.Types {
				types[i] = t.Name
			}
			s.parameterTypes = strings.Join(types, ", ")
			s.hasParameters = true
		}
	}
	return s, nil
}

// MustParse is Parse for selectors known to be valid
func MustParse(text string) Selector {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}
