package native

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/codec"
	"github.com/roach88/rdfio/internal/rdf"
)

// Keys are "<index>/" followed by the four encoded components in the
// index's order, each terminated by sep. Encoded terms are N-Triples text,
// which never contains a raw NUL; the default graph encodes as "".
const sep = 0x00

// metaIndexes records the index order the database was created with.
var metaIndexes = []byte("!indexes")

// index is one key permutation, e.g. "posc".
type index string

func parseIndexOrder(order string) []index {
	var out []index
	for _, name := range strings.Split(order, ",") {
		out = append(out, index(strings.TrimSpace(name)))
	}
	return out
}

func (ix index) prefix() []byte {
	return []byte(string(ix) + "/")
}

func component(rec codec.Record, letter byte) string {
	switch letter {
	case 's':
		return rec.S
	case 'p':
		return rec.P
	case 'o':
		return rec.O
	default:
		return rec.G
	}
}

// key encodes rec under ix.
func (ix index) key(rec codec.Record) []byte {
	var b bytes.Buffer
	b.Write(ix.prefix())
	for i := 0; i < len(ix); i++ {
		b.WriteString(component(rec, ix[i]))
		b.WriteByte(sep)
	}
	return b.Bytes()
}

// decode is the inverse of key.
func (ix index) decode(key []byte) (rdf.Statement, error) {
	rest := bytes.TrimPrefix(key, ix.prefix())
	parts := bytes.Split(bytes.TrimSuffix(rest, []byte{sep}), []byte{sep})
	if len(parts) != len(ix) {
		return rdf.Statement{}, fmt.Errorf("malformed key %q", key)
	}
	var rec codec.Record
	for i, part := range parts {
		switch ix[i] {
		case 's':
			rec.S = string(part)
		case 'p':
			rec.P = string(part)
		case 'o':
			rec.O = string(part)
		case 'c':
			rec.G = string(part)
		}
	}
	return codec.Decode(rec)
}

// bound returns the encoded constants of p by letter. The context is bound
// for GRAPH patterns with a constant graph, and for default-graph patterns
// restricted to exactly one graph.
func bound(p algebra.Pattern, ds *algebra.Dataset) map[byte]string {
	out := map[byte]string{}
	for letter, n := range map[byte]algebra.Node{'s': p.S, 'p': p.P, 'o': p.O} {
		if !n.IsVar() && n.Term != nil {
			out[letter] = rdf.FormatTerm(n.Term)
		}
	}
	switch {
	case !p.InDefaultGraph() && !p.G.IsVar():
		out['c'] = rdf.FormatTerm(p.G.Term)
	case p.InDefaultGraph() && ds != nil && len(ds.DefaultGraphs) == 1:
		if t := algebra.GraphTerm(ds.DefaultGraphs[0]); t != nil {
			out['c'] = rdf.FormatTerm(t)
		} else {
			out['c'] = ""
		}
	}
	return out
}

// choose picks the index with the longest prefix of bound letters and
// returns it with the key prefix to scan. Ties go to the earlier index.
func choose(indexes []index, b map[byte]string) (index, []byte) {
	best, bestLen := indexes[0], -1
	for _, ix := range indexes {
		n := 0
		for n < len(ix) {
			if _, ok := b[ix[n]]; !ok {
				break
			}
			n++
		}
		if n > bestLen {
			best, bestLen = ix, n
		}
	}
	var pre bytes.Buffer
	pre.Write(best.prefix())
	for i := 0; i < bestLen; i++ {
		pre.WriteString(b[best[i]])
		pre.WriteByte(sep)
	}
	return best, pre.Bytes()
}
