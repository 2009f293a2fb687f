// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package mir implements the post-typecheck lowering stage from spec
// §4.5/§3: CST plus the checker's resolved types becomes a MIR consisting
// of a closed MirExpr sum, MirFunction/MirStructDef/MirSumTypeDef
// declarations, and a primitive MirType lattice. Method-dot-syntax,
// auto-derive bodies, and pattern matching are all fully desugared here so
// pkg/codegen never needs to see surface syntax. Grounded structurally on
// the staged CST/HIR/MIR/AIR lowering pipeline in the teacher's
// pkg/ir/{hir,mir}/lower.go (read for shape, not reused: that code lowers
// finite-field constraint systems, not a general-purpose language).
package mir

// MirType is the closed set of representations codegen needs to know
// about (spec §3's primitive MirType list).
type MirType interface{ isMirType() }

type (
	TyInt    struct{}
	TyFloat  struct{}
	TyBool   struct{}
	TyString struct{}
	TyPtr    struct{ Elem MirType }
	TyUnit   struct{}
	TyTuple  struct{ Items []MirType }
	TyFnPtr  struct {
		Params []MirType
		Ret    MirType
	}
	TyStruct struct{ Name string }
)

func (TyInt) isMirType()    {}
func (TyFloat) isMirType()  {}
func (TyBool) isMirType()   {}
func (TyString) isMirType() {}
func (TyPtr) isMirType()    {}
func (TyUnit) isMirType()   {}
func (TyTuple) isMirType()  {}
func (TyFnPtr) isMirType()  {}
func (TyStruct) isMirType() {}

// MirExpr is the closed sum of lowered expression forms (spec §3).
type MirExpr interface{ isMirExpr() }

type (
	// Var references a local, parameter, or global function by name.
	Var struct{ Name string }

	// Lit is a literal constant of one of the primitive kinds.
	Lit struct {
		Kind LitKind
		Text string // raw literal text; codegen parses per Kind
	}

	// Call is an (already-desugared) direct or indirect call: every
	// method call has already become a plain Call by the time MIR exists.
	Call struct {
		Callee MirExpr
		Args   []MirExpr
	}

	// FieldAccess reads a struct field (never a method — those are Calls).
	FieldAccess struct {
		Base  MirExpr
		Field string
	}

	// Match is a compiled pattern match: a scrutinee plus an ordered list
	// of (test, bindings, body) arms, the decision-tree/chained-equality
	// output of pattern compilation (spec §4.5).
	Match struct {
		Scrutinee MirExpr
		Arms      []MatchArm
	}

	// ForIn covers every surface for-in shape: Kind distinguishes the
	// iterable's runtime representation so codegen emits the right
	// intrinsic driver loop; Filter is non-nil only for the `when` guard
	// variant (spec §4.5's "standard 4-block" vs "5-block with filter").
	ForIn struct {
		Kind    ForInKind
		Binder  string
		Iter    MirExpr
		Filter  MirExpr // nil when absent
		Body    MirExpr
		ElemTy  MirType
	}

	Tuple      struct{ Items []MirExpr }
	List       struct{ Items []MirExpr }
	Block      struct{ Stmts []MirStmt }
	Closure    struct {
		FnName string // the lifted function's symbol
		Env    []MirExpr // captured values; nil means env=null (bare fn ptr)
	}
	StringConcat struct{ Parts []MirExpr } // chained mesh_string_concat lowering
	Spawn        struct{ Body MirExpr }
	Receive      struct{ Arms []MatchArm }
)

func (Var) isMirExpr()          {}
func (Lit) isMirExpr()          {}
func (Call) isMirExpr()         {}
func (FieldAccess) isMirExpr()  {}
func (Match) isMirExpr()        {}
func (ForIn) isMirExpr()        {}
func (Tuple) isMirExpr()        {}
func (List) isMirExpr()         {}
func (Block) isMirExpr()        {}
func (Closure) isMirExpr()      {}
func (StringConcat) isMirExpr() {}
func (Spawn) isMirExpr()        {}
func (Receive) isMirExpr()      {}

// LitKind distinguishes a Lit's underlying primitive.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitString
)

// ForInKind distinguishes the iterable shape a for-in lowers over.
type ForInKind uint8

const (
	ForInRange ForInKind = iota
	ForInList
	ForInMap
	ForInSet
)

// MatchArm is one compiled arm: Test is nil for an irrefutable
// binding/wildcard arm (always taken), otherwise an expression that must
// evaluate truthy for this arm to fire.
type MatchArm struct {
	Test     MirExpr
	Bindings []Binding
	Body     MirExpr
}

// Binding projects part of the scrutinee into a name, e.g. a constructor
// pattern's field `Some(x)` binds x to the scrutinee's payload slot
// PayloadIndex. PayloadIndex is -1 for a plain (non-constructor) bind
// pattern, where the whole scrutinee is bound.
type Binding struct {
	Name         string
	PayloadIndex int
}

// MirStmt is one statement inside a Block.
type MirStmt interface{ isMirStmt() }

type (
	LetStmt    struct {
		Name string
		Ty   MirType
		Expr MirExpr
	}
	ExprStmt   struct{ Expr MirExpr }
	ReturnStmt struct{ Expr MirExpr }
)

func (LetStmt) isMirStmt()    {}
func (ExprStmt) isMirStmt()   {}
func (ReturnStmt) isMirStmt() {}

// MirFunction is a top-level (or derive-synthesized, or trait-impl) lowered
// function. Name is already mangled for trait impls (Trait__Method__Type).
type MirFunction struct {
	Name    string
	Params  []MirParam
	Ret     MirType
	Body    MirExpr
	EnvSize int // > 0 marks this as a closure body expecting an env pointer param 0
}

// MirParam is one lowered parameter.
type MirParam struct {
	Name string
	Ty   MirType
}

// MirStructDef is a lowered struct declaration plus any synthesized
// auto-derive functions.
type MirStructDef struct {
	Name    string
	Fields  []MirParam // reuses {Name, Ty} shape for field declarations
	Derives []string
}

// MirSumTypeDef is a lowered sum type: each variant's payload arity/types
// plus its integer tag, used by both pattern compilation and the codegen
// struct-of-tag-plus-union layout (spec §3).
type MirSumTypeDef struct {
	Name     string
	Variants []MirVariant
	Derives  []string
}

// MirVariant is one tagged alternative of a sum type.
type MirVariant struct {
	Name    string
	Tag     int
	Payload []MirType
}

// Module is the full lowered output of one source module: every function
// (user-written, trait-impl, or derive-synthesized), plus its type
// declarations, ready for pkg/codegen.
type Module struct {
	Functions []MirFunction
	Structs   []MirStructDef
	SumTypes  []MirSumTypeDef
}
