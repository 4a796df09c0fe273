package format

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFromExtension(t *testing.T) {
	f, err := Resolve("", "", "data.ttl")
	require.NoError(t, err)
	assert.Equal(t, Turtle, f.Name)

	f, err = Resolve("", "", "/var/lib/dumps/Export.NQ")
	require.NoError(t, err)
	assert.Equal(t, NQuads, f.Name)
}

func TestResolveUnknownExtensionIsNoFormat(t *testing.T) {
	_, err := Resolve("", "", "data.xyz")
	assert.ErrorIs(t, err, ErrNoFormatSupplied)

	_, err = Resolve("", "", "")
	assert.ErrorIs(t, err, ErrNoFormatSupplied)
}

func TestResolvePriority(t *testing.T) {
	f, err := Resolve("nquads", "text/turtle", "data.rdf")
	require.NoError(t, err)
	assert.Equal(t, NQuads, f.Name, "explicit name wins")

	f, err = Resolve("", "text/turtle; charset=utf-8", "data.rdf")
	require.NoError(t, err)
	assert.Equal(t, Turtle, f.Name, "media type beats extension")
}

func TestResolveUnsupported(t *testing.T) {
	_, err := Resolve("yaml", "", "data.ttl")
	require.Error(t, err)
	var ufe *UnsupportedFormatError
	require.True(t, errors.As(err, &ufe))
	assert.Equal(t, "yaml", ufe.Value)
	assert.Equal(t, "name", ufe.By)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Resolve("", "application/x-yaml", "")
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "media type", ufe.By)
	assert.Contains(t, err.Error(), "application/x-yaml")
}

func TestTableLookups(t *testing.T) {
	tests := []struct {
		lookup func(string) (Format, error)
		value  string
		want   string
	}{
		{ByName, "N-Triples", NTriples},
		{ByName, "ttl", Turtle},
		{ByName, "TRIX", TriX},
		{ByName, "json-ld", JSONLD},
		{ByMediaType, "application/rdf+xml", RDFXML},
		{ByMediaType, "text/n3", N3},
		{ByMediaType, "application/rdf+json", RDFJSON},
		{ByExtension, "x.owl", RDFXML},
		{ByExtension, ".trig", TriG},
		{ByExtension, "graph.trix", TriX},
		{ByExtension, "a.rj", RDFJSON},
		{ByExtension, "a.jsonld", JSONLD},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			f, err := tt.lookup(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Name)
		})
	}
}

func TestAllIsComplete(t *testing.T) {
	names := map[string]bool{}
	for _, f := range All() {
		require.NotEmpty(t, f.MediaTypes, f.Name)
		require.NotEmpty(t, f.Extensions, f.Name)
		names[f.Name] = true
	}
	for _, n := range []string{NTriples, NQuads, Turtle, TriG, TriX, RDFXML, N3, RDFJSON, JSONLD} {
		assert.True(t, names[n], n)
	}
}
