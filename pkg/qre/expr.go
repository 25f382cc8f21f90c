package qre

// Expr is a sealed interface representing a QRE combinator tree.
// Only Bot, Eps, Sat, Choice, Split, Iter, App, and Combine implement it.
//
// Trees are immutable after construction. Deriv returns new trees that
// may share unconsumed subtrees with their input; because combinators
// are pure, shared subtrees are never mutated.
type Expr[D, C any] interface {
	isExpr() // Sealed - only the eight variants implement it
}

// Bot is the always-failing query. It accepts nothing and absorbs every
// item.
type Bot[D, C any] struct{}

func (*Bot[D, C]) isExpr() {}

// Eps accepts immediately with a fixed value, consuming nothing.
// Deriving Eps on any item yields Bot: once a branch has accepted with
// nothing pending, any further item invalidates it.
type Eps[D, C any] struct {
	Value C
}

func (*Eps[D, C]) isExpr() {}

// Sat accepts exactly one item satisfying Pred, yielding Extract(item).
// It cannot accept on zero input.
type Sat[D, C any] struct {
	Pred    func(D) bool
	Extract func(D) C
}

func (*Sat[D, C]) isExpr() {}

// Choice is the nondeterministic union of its alternatives.
type Choice[D, C any] struct {
	Alts []Expr[D, C]
}

func (*Choice[D, C]) isExpr() {}

// Split is sequential composition: Left consumes a prefix of the
// stream, Right the rest, and their values are joined by Op.
type Split[D, C any] struct {
	Left  Expr[D, C]
	Right Expr[D, C]
	Op    func(C, C) C
}

func (*Split[D, C]) isExpr() {}

// Iter is the generalized loop: zero or more rounds of Body, each
// round's value folded onto the accumulated value (seeded by Init)
// via Op.
type Iter[D, C any] struct {
	Init Expr[D, C]
	Body Expr[D, C]
	Op   func(C, C) C
}

func (*Iter[D, C]) isExpr() {}

// App post-processes Inner's value through a unary transform.
type App[D, C any] struct {
	Inner Expr[D, C]
	Op    Transform[C]
}

func (*App[D, C]) isExpr() {}

// Combine is parallel composition: Left and Right consume the same
// items in lockstep, and their values are joined by Op.
type Combine[D, C any] struct {
	Left  Expr[D, C]
	Right Expr[D, C]
	Op    func(C, C) C
}

func (*Combine[D, C]) isExpr() {}

// Transform is a unary value transform carried by App nodes.
//
// Modeling the transform as an interface rather than a raw func allows
// partial applications of binary combinators (see bind1) to be explicit
// values instead of closures over loop variables.
type Transform[C any] interface {
	Apply(C) C
}

// TransformFunc adapts a plain function to a Transform.
type TransformFunc[C any] func(C) C

// Apply implements Transform.
func (f TransformFunc[C]) Apply(v C) C { return f(v) }

// bind1 is the partial application of a binary combinator to a snapshot
// value. Deriv uses it when Split or Iter finishes its left/init part
// with value bound and the remainder must eventually be joined onto it.
type bind1[C any] struct {
	bound C
	op    func(C, C) C
}

// Apply implements Transform.
func (b bind1[C]) Apply(v C) C { return b.op(b.bound, v) }

// NewBot creates the always-failing query.
func NewBot[D, C any]() Expr[D, C] {
	return &Bot[D, C]{}
}

// NewEps creates a query that accepts immediately with value.
// The item type D must be supplied explicitly: NewEps[Item](0.0).
func NewEps[D, C any](value C) Expr[D, C] {
	return &Eps[D, C]{Value: value}
}

// NewSat creates a query accepting a single item for which pred holds,
// yielding extract(item).
func NewSat[D, C any](pred func(D) bool, extract func(D) C) Expr[D, C] {
	return &Sat[D, C]{Pred: pred, Extract: extract}
}

// NewChoice creates the nondeterministic union of alts.
func NewChoice[D, C any](alts ...Expr[D, C]) Expr[D, C] {
	return &Choice[D, C]{Alts: alts}
}

// NewSplit creates the sequential composition of left then right,
// joining their values with op.
func NewSplit[D, C any](left, right Expr[D, C], op func(C, C) C) Expr[D, C] {
	return &Split[D, C]{Left: left, Right: right, Op: op}
}

// NewIter creates a loop running body zero or more times, folding each
// round's value onto init's value with op.
func NewIter[D, C any](init, body Expr[D, C], op func(C, C) C) Expr[D, C] {
	return &Iter[D, C]{Init: init, Body: body, Op: op}
}

// NewApp post-processes inner's value with transform.
func NewApp[D, C any](inner Expr[D, C], transform Transform[C]) Expr[D, C] {
	return &App[D, C]{Inner: inner, Op: transform}
}

// NewMap is NewApp with a plain function.
func NewMap[D, C any](inner Expr[D, C], f func(C) C) Expr[D, C] {
	return &App[D, C]{Inner: inner, Op: TransformFunc[C](f)}
}

// NewCombine creates the parallel composition of left and right,
// joining their values with op. Both sides consume every item.
func NewCombine[D, C any](left, right Expr[D, C], op func(C, C) C) Expr[D, C] {
	return &Combine[D, C]{Left: left, Right: right, Op: op}
}

// choiceOf wraps an already-built residual slice without copying.
// Deriv uses it to avoid the variadic copy of NewChoice on hot paths.
func choiceOf[D, C any](alts []Expr[D, C]) Expr[D, C] {
	return &Choice[D, C]{Alts: alts}
}
