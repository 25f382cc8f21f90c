package qre

// Epsilon returns the multiset of values e yields if the stream were to
// end at the current position. Duplicates are preserved - the Solver's
// ambiguity check counts raw results, never deduplicated values - and
// the order of results is an implementation detail (depth-first,
// left to right), not a semantic one.
//
// Epsilon is pure and total: it never mutates e, and its recursion
// depth equals the depth of the expression tree.
func Epsilon[D, C any](e Expr[D, C]) []C {
	switch x := e.(type) {
	case *Bot[D, C]:
		return nil

	case *Eps[D, C]:
		return []C{x.Value}

	case *Sat[D, C]:
		// Sat needs exactly one item; zero input never accepts.
		return nil

	case *Choice[D, C]:
		var out []C
		for _, alt := range x.Alts {
			out = append(out, Epsilon[D, C](alt)...)
		}
		return out

	case *Split[D, C]:
		return pairwise(Epsilon[D, C](x.Left), Epsilon[D, C](x.Right), x.Op)

	case *Iter[D, C]:
		// The loop may stop before any round of Body runs.
		return Epsilon[D, C](x.Init)

	case *App[D, C]:
		inner := Epsilon[D, C](x.Inner)
		if len(inner) == 0 {
			return nil
		}
		out := make([]C, 0, len(inner))
		for _, v := range inner {
			out = append(out, x.Op.Apply(v))
		}
		return out

	case *Combine[D, C]:
		return pairwise(Epsilon[D, C](x.Left), Epsilon[D, C](x.Right), x.Op)

	default:
		panic("qre: unknown expression variant")
	}
}

// pairwise computes the full product {op(a, b) : a in left, b in right}.
// Both Split and Combine join their sides' epsilon images this way.
func pairwise[C any](left, right []C, op func(C, C) C) []C {
	if len(left) == 0 || len(right) == 0 {
		return nil
	}
	out := make([]C, 0, len(left)*len(right))
	for _, a := range left {
		for _, b := range right {
			out = append(out, op(a, b))
		}
	}
	return out
}
