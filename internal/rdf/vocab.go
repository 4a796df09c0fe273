package rdf

// Namespace IRIs.
const (
	XSD = "http://www.w3.org/2001/XMLSchema#"
	RDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

// XSD datatype IRIs understood by the converter and parsers.
const (
	XSDString        = XSD + "string"
	XSDBoolean       = XSD + "boolean"
	XSDByte          = XSD + "byte"
	XSDShort         = XSD + "short"
	XSDInt           = XSD + "int"
	XSDLong          = XSD + "long"
	XSDInteger       = XSD + "integer"
	XSDDecimal       = XSD + "decimal"
	XSDFloat         = XSD + "float"
	XSDDouble        = XSD + "double"
	XSDUnsignedByte  = XSD + "unsignedByte"
	XSDUnsignedShort = XSD + "unsignedShort"
	XSDUnsignedInt   = XSD + "unsignedInt"
	XSDUnsignedLong  = XSD + "unsignedLong"
	XSDDateTime      = XSD + "dateTime"
	XSDDate          = XSD + "date"
	XSDBase64Binary  = XSD + "base64Binary"
	XSDAnyURI        = XSD + "anyURI"
)

// RDF vocabulary IRIs.
const (
	RDFType        = RDF + "type"
	RDFFirst       = RDF + "first"
	RDFRest        = RDF + "rest"
	RDFNil         = RDF + "nil"
	RDFLangString  = RDF + "langString"
	RDFXMLLiteral  = RDF + "XMLLiteral"
	RDFSubject     = RDF + "subject"
	RDFPredicate   = RDF + "predicate"
	RDFObject      = RDF + "object"
	RDFStatement   = RDF + "Statement"
	RDFLi          = RDF + "li"
	RDFDescription = RDF + "Description"
)
