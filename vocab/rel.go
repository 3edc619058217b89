package vocab

import (
	"mime"
	"strings"
)

// Reserved relation tokens.
const (
	RelSelf      = "self"
	RelEdit      = "edit"
	RelEditMedia = "edit-media"
	RelNext      = "next"
	RelDelta     = "http://docs.oasis-open.org/odata/ns/delta"

	RelNavigationPrefix  = "http://docs.oasis-open.org/odata/ns/related/"
	RelAssociationPrefix = "http://docs.oasis-open.org/odata/ns/relatedlinks/"
	RelStreamEditPrefix  = "http://docs.oasis-open.org/odata/ns/edit-media/"
	RelStreamReadPrefix  = "http://docs.oasis-open.org/odata/ns/mediaresource/"
	RelIANASelf          = IANARelationPrefix + RelSelf
	RelIANAEdit          = IANARelationPrefix + RelEdit
	RelIANAEditMedia     = IANARelationPrefix + RelEditMedia
	RelIANANext          = IANARelationPrefix + RelNext
)

// IsRelation reports whether rel denotes the registered relation token,
// either bare or prefixed with IANARelationPrefix.
func IsRelation(rel, token string) bool {
	if rel == token {
		return true
	}
	return strings.HasPrefix(rel, IANARelationPrefix) && rel[len(IANARelationPrefix):] == token
}

// RelationName returns the name following prefix in rel, if rel starts with
// prefix and the name is not empty.
func RelationName(rel, prefix string) (string, bool) {
	if !strings.HasPrefix(rel, prefix) {
		return "", false
	}
	name := rel[len(prefix):]
	if name == "" {
		return "", false
	}
	return name, true
}

// LinkCardinality classifies the type attribute of a navigation link. isAtom
// reports whether the media type is application/atom+xml at all; when it is
// and a type parameter says entry or feed, collection is set accordingly.
// Both the exact short forms and any parameterised spelling are accepted;
// the parameter value is matched case-insensitively.
func LinkCardinality(mediaType string) (collection *bool, isAtom bool) {
	switch mediaType {
	case MediaTypeAtomEntry:
		return boolp(false), true
	case MediaTypeAtomFeed:
		return boolp(true), true
	case "":
		return nil, false
	}
	mt, params, err := mime.ParseMediaType(mediaType)
	if err != nil || mt != MediaTypeAtom {
		return nil, false
	}
	for k, v := range params {
		if !strings.EqualFold(k, MediaTypeParamType) {
			continue
		}
		switch {
		case strings.EqualFold(v, MediaTypeValueEntry):
			return boolp(false), true
		case strings.EqualFold(v, MediaTypeValueFeed):
			return boolp(true), true
		}
	}
	return nil, true
}

// LinkType returns the navigation link type attribute for a cardinality.
func LinkType(collection *bool) string {
	switch {
	case collection == nil:
		return MediaTypeAtom
	case *collection:
		return MediaTypeAtomFeed
	default:
		return MediaTypeAtomEntry
	}
}

// IsTransientID reports whether an atom:id marks a transient entry.
func IsTransientID(id string) bool {
	return len(id) >= len(TransientIDPrefix) && strings.EqualFold(id[:len(TransientIDPrefix)], TransientIDPrefix)
}

func boolp(b bool) *bool {
	return &b
}
