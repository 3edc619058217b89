package encode

import (
	"bytes"

	"github.com/signadot/odata-atom/ir"
)

func MustString(v *ir.Value) string {
	buf := bytes.NewBuffer(nil)
	if err := Encode(v, buf); err != nil {
		panic(err)
	}
	return buf.String()
}

func EntryString(e *ir.Entry, opts ...EncodeOption) string {
	buf := bytes.NewBuffer(nil)
	if err := EncodeEntry(e, buf, opts...); err != nil {
		panic(err)
	}
	return buf.String()
}

func FeedString(f *ir.Feed, opts ...EncodeOption) string {
	buf := bytes.NewBuffer(nil)
	if err := EncodeFeed(f, buf, opts...); err != nil {
		panic(err)
	}
	return buf.String()
}
