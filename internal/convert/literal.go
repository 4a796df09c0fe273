package convert

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/roach88/rdfio/internal/rdf"
)

// Lit returns a simple string literal.
func Lit(lexical string) rdf.Literal {
	return rdf.NewLiteral(lexical)
}

// LangLit returns a language-tagged literal. The tag must be well-formed
// BCP 47; it is canonicalised and lowercased.
func LangLit(lexical, tag string) (rdf.Literal, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return rdf.Literal{}, fmt.Errorf("language tag %q: %w", tag, err)
	}
	return rdf.NewLangLiteral(lexical, t.String()), nil
}

// TypedLit returns a literal with an explicit datatype IRI. The lexical form
// is not checked against the datatype.
func TypedLit(lexical, datatype string) rdf.Literal {
	return rdf.NewTypedLiteral(lexical, datatype)
}
