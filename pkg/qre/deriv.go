package qre

// Deriv returns the residual expressions of e after consuming item: the
// nondeterministic set of "what remains to be matched". It never
// mutates e; residuals may alias unconsumed subtrees of e (the Right of
// a Split, the Body of an Iter), which is safe because combinators are
// pure.
//
// Deriv is deterministic: identical (expression, item) pairs yield sets
// with identical membership.
func Deriv[D, C any](e Expr[D, C], item D) []Expr[D, C] {
	switch x := e.(type) {
	case *Bot[D, C]:
		// Absorbing: a failed branch stays failed.
		return []Expr[D, C]{x}

	case *Eps[D, C]:
		// Already accepted with nothing pending; any further item
		// invalidates this branch.
		return []Expr[D, C]{NewBot[D, C]()}

	case *Sat[D, C]:
		if x.Pred(item) {
			return []Expr[D, C]{NewEps[D](x.Extract(item))}
		}
		return []Expr[D, C]{NewBot[D, C]()}

	case *Choice[D, C]:
		var out []Expr[D, C]
		for _, alt := range x.Alts {
			out = append(out, Deriv[D, C](alt, item)...)
		}
		return out

	case *Split[D, C]:
		var out []Expr[D, C]
		// (a) Left already finished with value a; Right consumes the
		// item and its value is eventually joined onto a. The snapshot
		// a is bound into the transform as an explicit partial
		// application, and the advanced Right is shared across all
		// snapshots.
		if left := Epsilon[D, C](x.Left); len(left) > 0 {
			rightStep := choiceOf(Deriv[D, C](x.Right, item))
			for _, a := range left {
				out = append(out, &App[D, C]{
					Inner: rightStep,
					Op:    bind1[C]{bound: a, op: x.Op},
				})
			}
		}
		// (b) Left is still consuming the item.
		out = append(out, &Split[D, C]{
			Left:  choiceOf(Deriv[D, C](x.Left, item)),
			Right: x.Right,
			Op:    x.Op,
		})
		return out

	case *Iter[D, C]:
		var out []Expr[D, C]
		// (a) One more round of Body begins; its value is eventually
		// folded onto the accumulated b.
		if init := Epsilon[D, C](x.Init); len(init) > 0 {
			bodyStep := choiceOf(Deriv[D, C](x.Body, item))
			for _, b := range init {
				out = append(out, &Iter[D, C]{
					Init: &App[D, C]{
						Inner: bodyStep,
						Op:    bind1[C]{bound: b, op: x.Op},
					},
					Body: x.Body,
					Op:   x.Op,
				})
			}
		}
		// (b) Init itself is still being consumed.
		out = append(out, &Iter[D, C]{
			Init: choiceOf(Deriv[D, C](x.Init, item)),
			Body: x.Body,
			Op:   x.Op,
		})
		return out

	case *App[D, C]:
		return []Expr[D, C]{&App[D, C]{
			Inner: choiceOf(Deriv[D, C](x.Inner, item)),
			Op:    x.Op,
		}}

	case *Combine[D, C]:
		// Both sides advance in lockstep on the same item.
		return []Expr[D, C]{&Combine[D, C]{
			Left:  choiceOf(Deriv[D, C](x.Left, item)),
			Right: choiceOf(Deriv[D, C](x.Right, item)),
			Op:    x.Op,
		}}

	default:
		panic("qre: unknown expression variant")
	}
}
