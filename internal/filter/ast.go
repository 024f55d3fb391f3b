package filter

import "github.com/rpattn/filterql/internal/domain"

// Node is one node of the compiled expression tree. The tree is a small
// intermediate representation with two renderers: EvalNode walks it in
// memory, and the repository layer lowers it to a native query. A go
// type-switch reduces a Node to its concrete kind.
type Node interface {
	isNode()
}

// Constant is a fixed boolean outcome. Incomplete conditions compile to
// Constant(true); unknown fields compile to Constant(false).
type Constant struct {
	Value bool
}

// FieldRef names the field an operation reads, with its comparison type so
// renderers know which conversion to apply.
type FieldRef struct {
	Name string
	Type domain.FilterFieldType
}

// Literal is a concrete operand: string, float64, bool, or time.Time.
// Date presets and relative windows are resolved to instant literals at
// compile time, so renderers never see symbolic tags.
type Literal struct {
	Value any
}

// CompareOp enumerates ordering/equality comparisons.
type CompareOp string

const (
	CmpEq CompareOp = "="
	CmpNe CompareOp = "<>"
	CmpGt CompareOp = ">"
	CmpGe CompareOp = ">="
	CmpLt CompareOp = "<"
	CmpLe CompareOp = "<="
)

// Compare tests a field against a literal under the field's comparison
// type.
type Compare struct {
	Op    CompareOp
	Field FieldRef
	Value Literal
}

// StringMatchOp enumerates translatable string primitives. Terms are
// lowered with an invariant case fold at compile time; renderers fold the
// field side the same way and never use comparer-mode overloads.
type StringMatchOp string

const (
	MatchExact    StringMatchOp = "EXACT"
	MatchContains StringMatchOp = "CONTAINS"
	MatchPrefix   StringMatchOp = "PREFIX"
	MatchSuffix   StringMatchOp = "SUFFIX"
)

// StringMatch tests a field's folded text form against a pre-folded term.
type StringMatch struct {
	Op     StringMatchOp
	Field  FieldRef
	Term   string
	Negate bool
}

// Between is inclusive on both bounds.
type Between struct {
	Field FieldRef
	Low   Literal
	High  Literal
}

// SetMembership tests a field's folded text form against pre-folded
// candidates.
type SetMembership struct {
	Field  FieldRef
	Values []string
	Negate bool
}

// HasValue guards nullable fields: it holds when the field is present with
// a usable, non-blank value. Every field operation is conjoined with it so
// negated operators fail closed on missing values in both renderers.
type HasValue struct {
	Field FieldRef
}

// Not inverts its child.
type Not struct {
	Child Node
}

// And holds when every child holds; with no children it holds vacuously.
type And struct {
	Children []Node
}

// Or holds when any child holds; with no children it holds vacuously.
type Or struct {
	Children []Node
}

func (Constant) isNode()      {}
func (Compare) isNode()       {}
func (StringMatch) isNode()   {}
func (Between) isNode()       {}
func (SetMembership) isNode() {}
func (HasValue) isNode()      {}
func (Not) isNode()           {}
func (And) isNode()           {}
func (Or) isNode()            {}
