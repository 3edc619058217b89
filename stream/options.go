package stream

import (
	"log/slog"

	"github.com/signadot/odata-atom/annotations"
	"github.com/signadot/odata-atom/schema"
	"github.com/signadot/odata-atom/uri"

	"github.com/google/uuid"
)

// DefaultMaxNestingDepth bounds how deeply complex, collection and expanded
// values may nest.
const DefaultMaxNestingDepth = 100

// Option configures a Reader or Writer.
type Option func(*settings)

type settings struct {
	metadata   bool
	response   bool
	compat     bool
	maxDepth   int
	baseURI    string
	resolver   schema.Resolver
	model      *schema.Model
	entityType string
	urls       uri.Resolver
	filter     annotations.Filter
	log        *slog.Logger

	indent      bool
	transientID func() string
}

func newSettings(opts []Option) *settings {
	s := &settings{
		response:    true,
		maxDepth:    DefaultMaxNestingDepth,
		filter:      annotations.All,
		log:         slog.New(slog.DiscardHandler),
		transientID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = schema.NewResolver(s.model)
	}
	return s
}

// WithMetadataReading keeps links the codec does not interpret.
func WithMetadataReading(v bool) Option {
	return func(s *settings) { s.metadata = v }
}

// WithResponse says whether the payload is a response. Response-only
// elements (self, next and delta links, media and stream links, association
// links) are ignored in requests. Defaults to true.
func WithResponse(v bool) Option {
	return func(s *settings) { s.response = v }
}

// WithServerCompatibility lets a repeated self, edit or edit-media link win
// over the earlier one and ignores a repeated type category instead of
// failing.
func WithServerCompatibility(v bool) Option {
	return func(s *settings) { s.compat = v }
}

func WithMaxNestingDepth(n int) Option {
	return func(s *settings) { s.maxDepth = n }
}

// WithBaseURI sets the base URI in effect outside any xml:base.
func WithBaseURI(base string) Option {
	return func(s *settings) { s.baseURI = base }
}

// WithModel validates payloads against m. Unless WithResolver is also
// given, types are resolved by schema.NewResolver(m).
func WithModel(m *schema.Model) Option {
	return func(s *settings) { s.model = m }
}

func WithResolver(r schema.Resolver) Option {
	return func(s *settings) { s.resolver = r }
}

// WithEntityType names the entity type expected for top level entries.
func WithEntityType(name string) Option {
	return func(s *settings) { s.entityType = name }
}

func WithURLResolver(r uri.Resolver) Option {
	return func(s *settings) { s.urls = r }
}

// WithAnnotationFilter selects the instance annotations a reader keeps.
// Defaults to annotations.All.
func WithAnnotationFilter(f annotations.Filter) Option {
	return func(s *settings) {
		if f == nil {
			f = annotations.All
		}
		s.filter = f
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIndent makes a Writer indent its output.
func WithIndent(v bool) Option {
	return func(s *settings) { s.indent = v }
}

// WithTransientIDs sets how a Writer makes up ids for transient entries.
// The generated value follows the odata:transient: prefix.
func WithTransientIDs(gen func() string) Option {
	return func(s *settings) {
		if gen != nil {
			s.transientID = gen
		}
	}
}
