// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package cst implements the lossless concrete syntax tree described by
// spec §3/§4.2: every node carries a syntactic Kind and a Span; because a
// node's Span always spans exactly from its first token to its last,
// re-serializing any subtree by slicing the original source buffer at
// Span reproduces the original bytes byte-for-byte, including whitespace
// and comments, without the tree needing to store trivia explicitly.
package cst

// Kind is the closed set of CST node kinds.
type Kind uint8

const (
	Error Kind = iota
	SourceFile

	// Items.
	FnDef
	ParamList
	Param
	StructDef
	FieldDef
	SumTypeDef
	VariantDef
	InterfaceDef
	MethodSig
	ImplDef
	ImportDecl
	FromImportDecl
	ModulePath
	DerivingClause
	NameList

	// Statements.
	Block
	LetStmt
	ExprStmt
	ReturnStmt

	// Expressions.
	IdentExpr
	IntLiteral
	FloatLiteral
	BoolLiteral
	StringLiteral
	StringInterpSegment
	BinaryExpr
	UnaryExpr
	CallExpr
	ArgList
	FieldAccessExpr
	TupleExpr
	ListExpr
	MapExpr
	IfExpr
	CaseExpr
	MatchArm
	ForInExpr
	SpawnExpr
	ReceiveExpr

	// Patterns.
	WildcardPattern
	LiteralPattern
	BindPattern
	ConstructorPattern

	// Types.
	TypeRef
	FnType
)

// names gives Kind a readable String() for diagnostics and debugging without
// a 1:1 generated table; order must track the const block above.
var names = [...]string{
	"Error", "SourceFile", "FnDef", "ParamList", "Param", "StructDef",
	"FieldDef", "SumTypeDef", "VariantDef", "InterfaceDef", "MethodSig",
	"ImplDef", "ImportDecl", "FromImportDecl", "ModulePath", "DerivingClause",
	"NameList", "Block", "LetStmt", "ExprStmt", "ReturnStmt", "IdentExpr",
	"IntLiteral", "FloatLiteral", "BoolLiteral", "StringLiteral",
	"StringInterpSegment", "BinaryExpr", "UnaryExpr", "CallExpr", "ArgList",
	"FieldAccessExpr", "TupleExpr", "ListExpr", "MapExpr", "IfExpr",
	"CaseExpr", "MatchArm", "ForInExpr", "SpawnExpr", "ReceiveExpr",
	"WildcardPattern", "LiteralPattern", "BindPattern", "ConstructorPattern",
	"TypeRef", "FnType",
}

func (k Kind) String() string {
	if int(k) < len(names) {
		return names[k]
	}

	return "Unknown"
}
