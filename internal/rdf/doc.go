// Package rdf provides the RDF term and statement model shared by every other
// rdfio package.
//
// This package contains value types only. All other internal packages import
// rdf; rdf imports nothing internal.
//
// Key constraints:
//   - Term is sealed: only IRI, BlankNode and Literal implement it
//   - A Literal carries a datatype or a language tag, never both
//   - A simple literal has an empty Datatype (xsd:string is folded to empty)
//   - Statement.Context == nil means the default graph (a triple)
//   - Terms render to and parse from N-Triples term syntax (FormatTerm / ParseTerm)
package rdf
