// Package algebra is the query representation shared by the query document
// compiler, the store backends and the executor.
//
// Query and Predicate are sealed interfaces using the marker method pattern,
// so backends can switch exhaustively over the variants:
//
//	switch q := query.(type) {
//	case *Select:
//	case *Ask:
//	case *Construct:
//	case *Describe:
//	case *Modify:
//	}
//
// A graph pattern is a list of Patterns joined on shared variables. A
// Pattern whose G is the zero Node matches the default graph; a Pattern
// with G set matches named graphs only. Which graphs count as "default" and
// "named" is decided by a *Dataset: nil means every statement is visible to
// default-graph patterns and every context to named-graph patterns.
package algebra
