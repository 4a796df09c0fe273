// Package parse implements push-style parsers for every format in the
// format table.
//
// A parser reads its input once, calling the Handler for each statement in
// document order. It stops at the first syntax error, the first handler
// error, or when the context is cancelled, and returns that error.
//
// Parsers never buffer more than one statement's worth of pending output,
// except JSON-LD, whose expansion algorithm needs the whole document.
package parse
