// Package compiler turns CUE query definitions into QRE expressions.
//
// A query file declares a combinator tree under the top-level "query"
// field:
//
//	query: {
//		kind: "both"
//		op:   "div"
//		left: {kind: "iter", op: "add", init: {kind: "const", value: 0.0}, body: {kind: "item"}}
//		right: {kind: "iter", op: "add", init: {kind: "const", value: 0.0}, body: {kind: "item", extract: "one"}}
//	}
//
// Node kinds map 1:1 onto the algebra: const (Eps), item (Sat),
// choice (Choice), seq (Split), iter (Iter), map (App), both (Combine).
// Item nodes can constrain the accepted item by series and value
// bounds, and extract either the item's value or the constant 1 (for
// counting).
//
// The compiler uses the CUE Go API directly (not a CLI subprocess) and
// reports schema violations as *CompileError with the offending field
// and source position.
package compiler
