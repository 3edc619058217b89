package ir

// Entry is one resource instance.
//
// ID and Transient are exclusive: a transient entry has no id.
type Entry struct {
	ID        string
	Transient bool
	ETag      string
	TypeName  string

	EditLink string
	// ReadLink is written only when it differs from EditLink; readers
	// default it to EditLink.
	ReadLink string

	// MediaResource is set for media link entries.
	MediaResource *StreamRef

	Properties       []Property
	NavigationLinks  []*NavigationLink
	AssociationLinks []AssociationLink
	StreamProperties []StreamProperty
	Operations       []Operation
	Annotations      []InstanceAnnotation

	// Links holds uninterpreted links, kept only when metadata reading is
	// enabled.
	Links []Link
}

// NavigationLink is a named relationship from an entry to an entry or a
// feed.
type NavigationLink struct {
	Name string
	// IsCollection is nil when neither the payload nor a model says.
	IsCollection   *bool
	URL            string
	AssociationURL string

	Expansion  Expansion
	Entry      *Entry
	Feed       *Feed
	References []string
}

// Feed is an ordered collection of entries with collection metadata.
type Feed struct {
	ID           string
	Count        *int64
	NextPageLink string
	DeltaLink    string
	Entries      []*Entry
	Annotations  []InstanceAnnotation
	Links        []Link
}

// StreamRef locates a binary stream.
type StreamRef struct {
	ReadLink    string
	EditLink    string
	ContentType string
	ETag        string
}

type StreamProperty struct {
	Name   string
	Stream StreamRef
}

type AssociationLink struct {
	Name string
	URL  string
}

// Operation is an action or function advertised by an entry.
type Operation struct {
	Kind     OperationKind
	Metadata string
	Title    string
	Target   string
}

// InstanceAnnotation is an out-of-band term/value pair. Target is empty or
// "." when the annotation applies to its enclosing element.
type InstanceAnnotation struct {
	Term   string
	Target string
	Value  *Value
}

// Link is an atom:link the codec does not interpret.
type Link struct {
	Rel      string
	Href     string
	Type     string
	Title    string
	HrefLang string
	Length   *int64
}

// Property returns the value of the named structural property, or nil.
func (e *Entry) Property(name string) *Value {
	return FindProperty(e.Properties, name)
}

// NavigationLink returns the named navigation link, or nil.
func (e *Entry) NavigationLink(name string) *NavigationLink {
	for _, l := range e.NavigationLinks {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// PropertiesValue views the entry's properties as an untyped complex value.
func (e *Entry) PropertiesValue() *Value {
	return &Value{Kind: ComplexKind, TypeName: e.TypeName, Properties: e.Properties}
}

func BoolPtr(b bool) *bool {
	return &b
}

func Int64Ptr(i int64) *int64 {
	return &i
}
