// Package document converts between portable design-token JSON documents and
// the [ir.Graph] representation.
//
// # Format
//
// A document is a nested JSON object. Keys starting with "$" are metadata;
// every other key names a group or a token. A node with a "$value" key is a
// token, anything else is a group:
//
//	{
//	  "Brand": {
//	    "$type": "color",
//	    "primary": {
//	      "$value": {"colorSpace": "srgb", "components": [1, 0, 0]}
//	    },
//	    "accent": {"$value": "{Brand.primary}"}
//	  }
//	}
//
// "$type" is inherited from the nearest ancestor that declares it. A string
// value wrapped in braces is a reference; its dot-separated segments are
// kept exactly as written. The first path segment is the collection.
//
// # Reading
//
// [Read] only fails when the document is not a JSON object
// (MALFORMED_DOCUMENT). Bad tokens are reported to the [diag.Sink] and
// dropped, so one broken entry never aborts a read.
//
// # Writing
//
// [Write] emits exactly one context per token (the first one recorded),
// rebuilds groups from token paths, and resolves references back to display
// names. Output is deterministic for a given graph.
package document
