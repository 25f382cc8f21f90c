// Package qre implements quantified regular expressions (QREs): a
// combinator algebra for evaluating quantitative queries over a data
// stream incrementally, without rescanning history.
//
// A query is built once from a fixed vocabulary of combinators
// (Bot/Eps/Sat/Choice/Split/Iter/App/Combine) and then driven item by
// item through a Solver. The engine generalizes Brzozowski's regular
// expression derivatives from boolean matching to typed aggregation:
//
//   - Epsilon computes the multiset of values an expression yields if
//     the stream were to end at the current position.
//   - Deriv computes the residual expressions ("what remains to be
//     matched") after consuming one item. The result is a set because
//     the algebra is nondeterministic: Choice, Split and Iter can all
//     branch.
//
// The Solver holds the working set of live residuals. Advance replaces
// the whole working set with the union of per-residual derivatives;
// Value collapses the working set's epsilon image and succeeds only if
// exactly one value remains. Anything else - no acceptance yet, or
// branches that disagree - is the single Undefined outcome.
//
// EVALUATION MODEL:
//
// Expression trees are immutable after construction. Derivatives build
// new trees and may alias unconsumed subtrees (the Right of a Split,
// the Body of an Iter) across branches; this is safe because all
// caller-supplied predicates, extractors and combinators are assumed
// pure, total and deterministic. The engine never revalidates this
// assumption, and a panic in a caller-supplied function propagates
// uncaught.
//
// The core is single-threaded and domain-agnostic: it is generic over
// the item type D and the value type C, and all arithmetic lives in the
// caller's combinators.
package qre
