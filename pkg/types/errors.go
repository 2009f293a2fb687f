// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package types

import (
	"fmt"

	"github.com/mesh-lang/mesh/pkg/source"
)

// Code is one entry in the closed E0001...E0035+ diagnostic taxonomy (spec
// §7). Checker errors all implement CodedError so pkg/diag can render a
// stable code alongside the message without a type switch per call site.
type Code string

const (
	ECycleImport       Code = "E0001"
	ESelfImport        Code = "E0002"
	EUnboundName       Code = "E0003"
	ETypeMismatch      Code = "E0004"
	EOccursCheck       Code = "E0005"
	EArityMismatch     Code = "E0006"
	EUnreachableArm    Code = "E0008"
	EDuplicateField    Code = "E0009"
	ENoSuchField       Code = "E0010"
	EImportNotFound    Code = "E0011"
	ENonExhaustiveCase Code = "E0012"
	EDuplicateBinding  Code = "E0013"
	EInvalidPattern    Code = "E0014"
	EUnterminatedStr   Code = "E0015"
	EInvalidEscape     Code = "E0016"
	EParseError        Code = "E0017"
	ENoSuchMethod      Code = "E0018"
	EAmbiguousMethod   Code = "E0019"
	EUnsupportedDerive Code = "E0020"
	EGenericDerive     Code = "E0021"
	ENotCallable       Code = "E0022"
	ENotIterable       Code = "E0023"
	EReceiveTimeout    Code = "E0024"
	EImportPrivate     Code = "E0035"
)

// CodedError is implemented by every checker-produced error so a renderer
// can print "E00NN: message" uniformly regardless of concrete type.
type CodedError interface {
	error
	Code() Code
	At() source.Span
}

// CheckError is the general-purpose checker diagnostic used for cases not
// already covered by a dedicated error type (TypeMismatchError,
// MethodResolutionError, ImportError, DeriveError each implement
// CodedError directly).
type CheckError struct {
	code Code
	span source.Span
	msg  string
}

func newCheckError(code Code, span source.Span, format string, args ...any) *CheckError {
	return &CheckError{code: code, span: span, msg: fmt.Sprintf(format, args...)}
}

func (e *CheckError) Error() string   { return fmt.Sprintf("%s: %s", e.code, e.msg) }
func (e *CheckError) Code() Code      { return e.code }
func (e *CheckError) At() source.Span { return e.span }

func (e *TypeMismatchError) Code() Code      { return ETypeMismatch }
func (e *TypeMismatchError) At() source.Span { return source.Span{} }

func (e *MethodResolutionError) Code() Code {
	if e.Kind == AmbiguousMethod {
		return EAmbiguousMethod
	}

	return ENoSuchMethod
}
func (e *MethodResolutionError) At() source.Span { return source.Span{} }

func (e *ImportError) Code() Code {
	if e.Kind == ImportPrivateItem {
		return EImportPrivate
	}

	return EImportNotFound
}
func (e *ImportError) At() source.Span { return e.Span }

func (e *DeriveError) Code() Code {
	if e.Kind == GenericDerive {
		return EGenericDerive
	}

	return EUnsupportedDerive
}
func (e *DeriveError) At() source.Span { return source.Span{} }
