package parse

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/rdf"
)

const xmlNS = "http://www.w3.org/XML/1998/namespace"

// Attributes with syntactic meaning; everything else in the rdf namespace
// (and every other namespaced attribute) is a property attribute.
var rdfSyntaxAttrs = map[string]bool{
	"about": true, "ID": true, "nodeID": true, "resource": true,
	"datatype": true, "parseType": true, "bagID": true, "aboutEach": true, "aboutEachPrefix": true,
}

func parseRDFXML(ctx context.Context, r io.Reader, opts Options, h Handler) error {
	p := &rdfxmlParser{
		ctx:    ctx,
		dec:    xml.NewDecoder(r),
		h:      h,
		bnodes: newBNodeScope(),
	}
	return p.run(xmlScope{base: opts.BaseIRI})
}

type xmlScope struct {
	base string
	lang string
}

func (s xmlScope) with(attrs []xml.Attr) xmlScope {
	for _, a := range attrs {
		if a.Name.Space != xmlNS {
			continue
		}
		switch a.Name.Local {
		case "base":
			s.base = resolveIRI(s.base, a.Value)
		case "lang":
			s.lang = a.Value
		}
	}
	return s
}

// rdfxmlParser walks the XML token stream, emitting statements as soon as
// each property element is complete.
type rdfxmlParser struct {
	ctx    context.Context
	dec    *xml.Decoder
	h      Handler
	bnodes *bnodeScope
}

func (p *rdfxmlParser) errorf(msg string, args ...any) error {
	line, col := p.dec.InputPos()
	return syntaxErrorf(format.RDFXML, line, col, msg, args...)
}

func (p *rdfxmlParser) token() (xml.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, p.errorf("unexpected end of document")
		}
		var se *xml.SyntaxError
		if errors.As(err, &se) {
			return nil, wrapSyntax(format.RDFXML, se.Line, 0, err)
		}
		return nil, err
	}
	return tok, nil
}

func (p *rdfxmlParser) emit(s rdf.Term, pred rdf.IRI, o rdf.Term) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	return p.h(rdf.NewTriple(s, pred, o))
}

func (p *rdfxmlParser) run(sc xmlScope) error {
	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var se *xml.SyntaxError
			if errors.As(err, &se) {
				return wrapSyntax(format.RDFXML, se.Line, 0, err)
			}
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if isRDF(start.Name, "RDF") {
			if err := p.nodeElementList(sc.with(start.Attr)); err != nil {
				return err
			}
			continue
		}
		if _, err := p.nodeElement(start, sc); err != nil {
			return err
		}
	}
}

func (p *rdfxmlParser) nodeElementList(sc xmlScope) error {
	for {
		tok, err := p.token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, err := p.nodeElement(t, sc); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return p.errorf("unexpected text between node elements")
			}
		}
	}
}

func (p *rdfxmlParser) nodeElement(start xml.StartElement, sc xmlScope) (rdf.Term, error) {
	sc = sc.with(start.Attr)

	var subj rdf.Term
	switch {
	case rdfAttr(start.Attr, "about") != nil:
		subj = rdf.NewIRI(resolveIRI(sc.base, rdfAttr(start.Attr, "about").Value))
	case rdfAttr(start.Attr, "ID") != nil:
		subj = rdf.NewIRI(resolveIRI(sc.base, "#"+rdfAttr(start.Attr, "ID").Value))
	case rdfAttr(start.Attr, "nodeID") != nil:
		subj = p.bnodes.named(rdfAttr(start.Attr, "nodeID").Value)
	default:
		subj = p.bnodes.anon()
	}

	if !isRDF(start.Name, "Description") {
		if err := p.emit(subj, rdf.NewIRI(rdf.RDFType), rdf.NewIRI(start.Name.Space+start.Name.Local)); err != nil {
			return nil, err
		}
	}
	if err := p.propertyAttrs(subj, start.Attr, sc); err != nil {
		return nil, err
	}
	if err := p.propertyElements(subj, sc); err != nil {
		return nil, err
	}
	return subj, nil
}

func (p *rdfxmlParser) propertyAttrs(subj rdf.Term, attrs []xml.Attr, sc xmlScope) error {
	for _, a := range attrs {
		if !isPropertyAttr(a) {
			continue
		}
		pred := rdf.NewIRI(a.Name.Space + a.Name.Local)
		var obj rdf.Term
		if pred.Value == rdf.RDFType {
			obj = rdf.NewIRI(resolveIRI(sc.base, a.Value))
		} else {
			obj = p.textLiteral(a.Value, "", sc)
		}
		if err := p.emit(subj, pred, obj); err != nil {
			return err
		}
	}
	return nil
}

func (p *rdfxmlParser) propertyElements(subj rdf.Term, sc xmlScope) error {
	li := 0
	for {
		tok, err := p.token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.propertyElement(subj, t, sc, &li); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return p.errorf("unexpected text in node element")
			}
		}
	}
}

func (p *rdfxmlParser) propertyElement(subj rdf.Term, start xml.StartElement, sc xmlScope, li *int) error {
	sc = sc.with(start.Attr)
	pred := rdf.NewIRI(start.Name.Space + start.Name.Local)
	if isRDF(start.Name, "li") {
		*li++
		pred = rdf.NewIRI(rdf.RDF + "_" + strconv.Itoa(*li))
	}

	obj, err := p.propertyObject(subj, pred, start, sc)
	if err != nil {
		return err
	}
	if obj == nil {
		return nil
	}
	if err := p.emit(subj, pred, obj); err != nil {
		return err
	}
	if id := rdfAttr(start.Attr, "ID"); id != nil {
		return p.reify(rdf.NewIRI(resolveIRI(sc.base, "#"+id.Value)), subj, pred, obj)
	}
	return nil
}

// propertyObject consumes the property element and returns its object. A nil
// term means the statement was already emitted (parseType="Resource").
func (p *rdfxmlParser) propertyObject(subj rdf.Term, pred rdf.IRI, start xml.StartElement, sc xmlScope) (rdf.Term, error) {
	if pt := rdfAttr(start.Attr, "parseType"); pt != nil {
		switch pt.Value {
		case "Resource":
			node := p.bnodes.anon()
			if err := p.emit(subj, pred, node); err != nil {
				return nil, err
			}
			return nil, p.propertyElements(node, sc)
		case "Collection":
			return p.collection(sc)
		default:
			xmlText, err := p.innerXML()
			if err != nil {
				return nil, err
			}
			return rdf.NewTypedLiteral(xmlText, rdf.RDFXMLLiteral), nil
		}
	}

	var ref rdf.Term
	if res := rdfAttr(start.Attr, "resource"); res != nil {
		ref = rdf.NewIRI(resolveIRI(sc.base, res.Value))
	} else if id := rdfAttr(start.Attr, "nodeID"); id != nil {
		ref = p.bnodes.named(id.Value)
	}
	if ref != nil || hasPropertyAttrs(start.Attr) {
		if ref == nil {
			ref = p.bnodes.anon()
		}
		if err := p.skipEmpty(); err != nil {
			return nil, err
		}
		if err := p.propertyAttrs(ref, start.Attr, sc); err != nil {
			return nil, err
		}
		return ref, nil
	}

	var text strings.Builder
	var node rdf.Term
	for {
		tok, err := p.token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if node != nil {
				return nil, p.errorf("property element has more than one node element")
			}
			if node, err = p.nodeElement(t, sc); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if node != nil {
				if strings.TrimSpace(text.String()) != "" {
					return nil, p.errorf("property element mixes text and a node element")
				}
				return node, nil
			}
			dt := ""
			if a := rdfAttr(start.Attr, "datatype"); a != nil {
				dt = resolveIRI(sc.base, a.Value)
			}
			return p.textLiteral(text.String(), dt, sc), nil
		}
	}
}

func (p *rdfxmlParser) textLiteral(text, datatype string, sc xmlScope) rdf.Literal {
	switch {
	case datatype != "":
		return rdf.NewTypedLiteral(text, datatype)
	case sc.lang != "":
		return rdf.NewLangLiteral(text, sc.lang)
	default:
		return rdf.NewLiteral(text)
	}
}

func (p *rdfxmlParser) collection(sc xmlScope) (rdf.Term, error) {
	var items []rdf.Term
	for {
		tok, err := p.token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			item, err := p.nodeElement(t, sc)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, p.errorf("unexpected text in collection")
			}
		case xml.EndElement:
			if len(items) == 0 {
				return rdf.NewIRI(rdf.RDFNil), nil
			}
			nodes := make([]rdf.Term, len(items))
			for i := range items {
				nodes[i] = p.bnodes.anon()
			}
			for i, item := range items {
				if err := p.emit(nodes[i], rdf.NewIRI(rdf.RDFFirst), item); err != nil {
					return nil, err
				}
				var rest rdf.Term = rdf.NewIRI(rdf.RDFNil)
				if i+1 < len(nodes) {
					rest = nodes[i+1]
				}
				if err := p.emit(nodes[i], rdf.NewIRI(rdf.RDFRest), rest); err != nil {
					return nil, err
				}
			}
			return nodes[0], nil
		}
	}
}

func (p *rdfxmlParser) reify(stmt rdf.IRI, subj rdf.Term, pred rdf.IRI, obj rdf.Term) error {
	quads := [][2]rdf.Term{
		{rdf.NewIRI(rdf.RDFType), rdf.NewIRI(rdf.RDFStatement)},
		{rdf.NewIRI(rdf.RDFSubject), subj},
		{rdf.NewIRI(rdf.RDFPredicate), pred},
		{rdf.NewIRI(rdf.RDFObject), obj},
	}
	for _, q := range quads {
		if err := p.emit(stmt, q[0].(rdf.IRI), q[1]); err != nil {
			return err
		}
	}
	return nil
}

// innerXML re-serializes the element content up to the matching end tag.
func (p *rdfxmlParser) innerXML() (string, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	depth := 0
	for {
		tok, err := p.token()
		if err != nil {
			return "", err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				if err := enc.Flush(); err != nil {
					return "", err
				}
				return buf.String(), nil
			}
			depth--
		}
		if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
			return "", err
		}
	}
}

func (p *rdfxmlParser) skipEmpty() error {
	for {
		tok, err := p.token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			return p.errorf("element <%s> must be empty", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return p.errorf("unexpected text in empty property element")
			}
		}
	}
}

func isRDF(n xml.Name, local string) bool {
	return n.Space == rdf.RDF && n.Local == local
}

func rdfAttr(attrs []xml.Attr, local string) *xml.Attr {
	for i := range attrs {
		if attrs[i].Name.Space == rdf.RDF && attrs[i].Name.Local == local {
			return &attrs[i]
		}
	}
	return nil
}

func isPropertyAttr(a xml.Attr) bool {
	switch {
	case a.Name.Space == "" || a.Name.Space == "xmlns" || a.Name.Space == xmlNS:
		return false
	case a.Name.Space == rdf.RDF:
		return !rdfSyntaxAttrs[a.Name.Local]
	default:
		return true
	}
}

func hasPropertyAttrs(attrs []xml.Attr) bool {
	for _, a := range attrs {
		if isPropertyAttr(a) {
			return true
		}
	}
	return false
}
