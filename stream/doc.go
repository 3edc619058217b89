// Package stream reads and writes OData Atom entries and feeds in a single
// forward pass.
//
// A Reader walks the document with a token.Cursor. Entries are read whole;
// the members of a top level feed are handed out one at a time by a
// FeedReader, so a feed is never held in memory unless the caller collects
// it.
//
// # Example: Reading a feed
//
//	fr, err := stream.NewReader(r, stream.WithModel(m)).ReadFeed()
//	if err != nil {
//	    return err
//	}
//	for e, err := range fr.Entries() {
//	    if err != nil {
//	        return err
//	    }
//	    use(e)
//	}
//	count := fr.Feed().Count // complete once Entries is exhausted
//
// A Writer emits elements in wire order as it is driven with StartFeed,
// StartEntry, StartNavigationLink and End, or all at once with WriteEntry and
// WriteFeed.
//
// # Example: Writing an entry with an expanded feed
//
//	w := stream.NewWriter(out)
//	w.StartEntry(order)
//	w.StartNavigationLink(&ir.NavigationLink{Name: "Items", Expansion: ir.ExpandedFeed})
//	w.StartFeed(&ir.Feed{})
//	w.WriteEntry(item)
//	w.End() // feed
//	w.End() // navigation link
//	w.End() // entry
//	return w.Close()
//
// Errors are *Error values that match the sentinel of their kind with
// errors.Is.
package stream
