package parse

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/rdfio/internal/rdf"
)

// bnodeScope hands out blank node labels for one document. Document labels
// keep their spelling unless it clashes with a label generated earlier, and
// generated labels never clash with document labels.
type bnodeScope struct {
	labels    map[string]string // document label -> emitted label
	generated map[string]bool
	next      int
}

func newBNodeScope() *bnodeScope {
	return &bnodeScope{labels: map[string]string{}, generated: map[string]bool{}}
}

// named returns the blank node for a document label. Labels that are not
// valid N-Triples labels (TriX and RDF/JSON allow any text) are replaced by
// a generated one.
func (b *bnodeScope) named(label string) rdf.BlankNode {
	if got, ok := b.labels[label]; ok {
		return rdf.NewBlankNode(got)
	}
	out := label
	if b.generated[label] || rdf.ValidateBlankNodeLabel(label) != nil {
		out = b.fresh()
	}
	b.labels[label] = out
	return rdf.NewBlankNode(out)
}

// anon returns a new blank node that no document label maps to.
func (b *bnodeScope) anon() rdf.BlankNode {
	return rdf.NewBlankNode(b.fresh())
}

func (b *bnodeScope) fresh() string {
	for {
		b.next++
		label := "genid" + strconv.Itoa(b.next)
		if _, taken := b.labels[label]; taken || b.generated[label] {
			continue
		}
		b.generated[label] = true
		return label
	}
}

// resolveIRI resolves ref against base per RFC 3986. An empty base or an
// absolute ref returns ref unchanged.
func resolveIRI(base, ref string) string {
	if base == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if r.Scheme != "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	resolved := b.ResolveReference(r).String()
	// ResolveReference drops an empty fragment; "#" keeps it meaningful.
	if strings.HasSuffix(ref, "#") && !strings.HasSuffix(resolved, "#") {
		resolved += "#"
	}
	return resolved
}
