// Package uri resolves relative references found in payloads.
package uri

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrNoBase   = errors.New("relative reference without a base URI")
	ErrBadURI   = errors.New("malformed URI")
	ErrRelative = errors.New("base URI is not absolute")
)

// Resolver lets callers override how references are resolved. Returning
// ok == false falls back to the standard resolution.
type Resolver interface {
	Resolve(base, ref string) (resolved string, ok bool)
}

type ResolverFunc func(base, ref string) (string, bool)

func (f ResolverFunc) Resolve(base, ref string) (string, bool) {
	return f(base, ref)
}

// Absolute resolves ref against base and fails if the result would not be
// an absolute URI.
func Absolute(base, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrBadURI, ref, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if base == "" {
		return "", fmt.Errorf("%w: %q", ErrNoBase, ref)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrBadURI, base, err)
	}
	if !b.IsAbs() {
		return "", fmt.Errorf("%w: %q", ErrRelative, base)
	}
	return b.ResolveReference(u).String(), nil
}

// Resolve resolves ref against base, consulting r first. When absolute is
// false a reference that cannot be made absolute is returned unchanged.
func Resolve(r Resolver, base, ref string, absolute bool) (string, error) {
	if r != nil {
		if res, ok := r.Resolve(base, ref); ok {
			return res, nil
		}
	}
	res, err := Absolute(base, ref)
	if err == nil {
		return res, nil
	}
	if !absolute && (errors.Is(err, ErrNoBase) || errors.Is(err, ErrRelative)) {
		return ref, nil
	}
	return "", err
}
