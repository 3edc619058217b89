// Package vocab holds the Atom/OData wire vocabulary: namespaces, element and
// attribute names, reserved link relations and the helpers that recognise
// them.
package vocab

const (
	AtomNamespace     = "http://www.w3.org/2005/Atom"
	MetadataNamespace = "http://docs.oasis-open.org/odata/ns/metadata"
	DataNamespace     = "http://docs.oasis-open.org/odata/ns/data"
	SchemeNamespace   = "http://docs.oasis-open.org/odata/ns/scheme"
	XMLNamespace      = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace    = "http://www.w3.org/2000/xmlns/"

	// IANARelationPrefix may prefix any registered link relation.
	IANARelationPrefix = "http://www.iana.org/assignments/relation/"

	MetadataPrefix = "m"
	DataPrefix     = "d"
)

// Atom elements.
const (
	ElemFeed     = "feed"
	ElemEntry    = "entry"
	ElemID       = "id"
	ElemContent  = "content"
	ElemLink     = "link"
	ElemCategory = "category"
	ElemTitle    = "title"
	ElemUpdated  = "updated"
	ElemAuthor   = "author"
	ElemName     = "name"
)

// Metadata namespace elements.
const (
	ElemProperties = "properties"
	ElemElement    = "element"
	ElemInline     = "inline"
	ElemRef        = "ref"
	ElemCount      = "count"
	ElemAction     = "action"
	ElemFunction   = "function"
	ElemAnnotation = "annotation"
)

// Attributes. Unqualified unless noted.
const (
	AttrType     = "type" // also m:type
	AttrNull     = "null" // m:null
	AttrETag     = "etag" // m:etag
	AttrSrc      = "src"
	AttrRel      = "rel"
	AttrHref     = "href"
	AttrTitle    = "title"
	AttrLength   = "length"
	AttrHrefLang = "hreflang"
	AttrTerm     = "term"
	AttrScheme   = "scheme"
	AttrTarget   = "target"
	AttrMetadata = "metadata"
	AttrID       = "id"
	AttrBase     = "base" // xml:base
)

// Shorthand value attributes, legal on an empty annotation element.
const (
	AttrString  = "string"
	AttrInt     = "int"
	AttrBool    = "bool"
	AttrFloat   = "float"
	AttrDecimal = "decimal"
)

// ShorthandAttrs lists the shorthand value attributes with the primitive type
// each one denotes.
var ShorthandAttrs = []struct {
	Name string
	Type string
}{
	{AttrString, "Edm.String"},
	{AttrInt, "Edm.Int32"},
	{AttrBool, "Edm.Boolean"},
	{AttrFloat, "Edm.Single"},
	{AttrDecimal, "Edm.Decimal"},
}

// ShorthandAttrFor returns the shorthand attribute for a primitive type, if
// one exists.
func ShorthandAttrFor(typeName string) (string, bool) {
	for _, s := range ShorthandAttrs {
		if s.Type == typeName {
			return s.Name, true
		}
	}
	return "", false
}

// Content and media types.
const (
	ContentTypeXML       = "application/xml"
	MediaTypeAtom        = "application/atom+xml"
	MediaTypeAtomEntry   = "application/atom+xml;type=entry"
	MediaTypeAtomFeed    = "application/atom+xml;type=feed"
	MediaTypeParamType   = "type"
	MediaTypeValueEntry  = "entry"
	MediaTypeValueFeed   = "feed"
	TransientIDPrefix    = "odata:transient:"
	NullAttributeTrue    = "true"
	CollectionTypePrefix = "Collection("
)
