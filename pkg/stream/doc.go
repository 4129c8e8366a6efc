// Package stream decodes one JSON document pushed to it as an ordered
// sequence of byte chunks.
//
// A Decoder never pulls input: the transport calls Feed for every chunk it
// receives, then Close once the body has ended, or Abort when the body cannot
// be completed. Chunks may split the document anywhere, including inside a
// string escape or a number. The body is never concatenated into one buffer;
// only the value currently being scanned is held.
//
// Internally a byte scanner turns the input into structural events
// (BeginObject, Key, Scalar, EndArray, ...) tagged with their nesting depth,
// and a builder assembles them into a value tree:
//
//	dec := stream.NewDecoder()
//	for chunk := range chunks {
//	    if err := dec.Feed(chunk); err != nil {
//	        return err
//	    }
//	}
//	root, err := dec.Close()
//
// The tree uses the same types as encoding/json with UseNumber:
// map[string]any, []any, string, json.Number, bool and nil. DecodeBytes
// decodes a fully buffered body through encoding/json and yields an
// identical tree for identical bytes.
//
// No value is ever returned before the whole document has been read: the
// result is one root value or one error.
package stream
