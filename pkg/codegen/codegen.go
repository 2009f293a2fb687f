// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package codegen lowers a pkg/mir.Module into LLVM IR (spec §4.6) using
// the official tinygo.org/x/go-llvm bindings, the same API the
// go-vslc-derived reference codegen in this pack's other_examples uses
// (AddFunction/AddBasicBlock/CreateCall over an explicit llvm.Builder).
// map_builtin_name translates the user-visible stdlib name to its runtime
// ABI symbol (spec §6's `mesh_*` contract) before declaring or calling it.
// Emit does not declare stdlib entry points by itself: a stdlib symbol
// exists in the module only after DeclareExtern has been called for it.
package codegen

import (
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/go-llvm"

	"github.com/mesh-lang/mesh/pkg/mir"
)

var log = logrus.WithField("component", "codegen")

// builtinABINames maps a user-visible stdlib call (as it appears in a MIR
// Call's Var callee) to its runtime ABI symbol, per spec §6. A name here is
// declared as an external function only through DeclareExtern; a call to
// one that was never declared fails in genCall as an undeclared function.
var builtinABINames = map[string]string{
	"string_eq":      "mesh_string_eq",
	"string_concat":  "mesh_string_concat",
	"list_zip":       "mesh_list_zip",
	"list_flat_map":  "mesh_list_flat_map",
	"map_merge":      "mesh_map_merge",
	"map_to_list":    "mesh_map_to_list",
	"set_from_list":  "mesh_set_from_list",
	"ws_serve_tls":   "mesh_ws_serve_tls",
	"gc_alloc_actor": "mesh_gc_alloc_actor",
	"panic":          "mesh_panic",
}

// mapBuiltinName is the codegen-facing equivalent of the spec's
// map_builtin_name: translate a user-visible name to its ABI symbol,
// falling back to the name unchanged for plain user/trait-impl functions
// (which are never ABI-prefixed).
func mapBuiltinName(name string) string {
	if abi, ok := builtinABINames[name]; ok {
		return abi
	}

	return name
}

// Generator owns one LLVM context/module/builder triple and the symbol
// tables accumulated while lowering a single pkg/mir.Module.
type Generator struct {
	ctx     llvm.Context
	mod     llvm.Module
	builder llvm.Builder

	fns     map[string]llvm.Value // mangled/user name -> declared/defined LLVM function
	structs map[string]*mir.MirStructDef
	locals  map[string]llvm.Value // current function's name -> alloca
}

// opaquePtr is the pointer type every heap object (List/Tuple/Map/Set/
// String/closure env) is passed as, per spec §4.6: element-type erasure
// happens at the MIR level, so codegen only ever sees `ptr`.
func (g *Generator) opaquePtr() llvm.Type { return llvm.PointerType(g.ctx.Int8Type(), 0) }

// NewGenerator constructs a Generator targeting an LLVM module named after
// the project's entry module.
func NewGenerator(moduleName string) *Generator {
	ctx := llvm.NewContext()
	mod := ctx.NewModule(moduleName)
	builder := ctx.NewBuilder()

	return &Generator{
		ctx:     ctx,
		mod:     mod,
		builder: builder,
		fns:     map[string]llvm.Value{},
		structs: map[string]*mir.MirStructDef{},
	}
}

// Dispose releases the underlying LLVM context/module/builder.
func (g *Generator) Dispose() {
	g.builder.Dispose()
	g.mod.Dispose()
	g.ctx.Dispose()
}

// Module returns the underlying LLVM module, e.g. for g.Module().String()
// when emitting textual IR or for handing off to the LLVM target machine.
func (g *Generator) Module() llvm.Module { return g.mod }

// Emit lowers every declaration in mod into g's LLVM module and locates
// entryFn (the canonical entry module's lowered function) as the `main`
// symbol per spec §4.6 ("located by the canonical entry module, not by
// linker search").
func (g *Generator) Emit(mod *mir.Module, entryFn string) error {
	log.WithField("functions", len(mod.Functions)).Debug("emitting LLVM IR")

	for i := range mod.Structs {
		g.structs[mod.Structs[i].Name] = &mod.Structs[i]
	}

	// Two passes: declare every function header first (so forward/mutually
	// recursive calls resolve), then emit bodies.
	for _, fn := range mod.Functions {
		g.declareFunction(fn)
	}

	for _, fn := range mod.Functions {
		if err := g.defineFunction(fn); err != nil {
			return fmt.Errorf("codegen: function %q: %w", fn.Name, err)
		}
	}

	entry, ok := g.fns[entryFn]
	if !ok {
		return fmt.Errorf("codegen: entry function %q not found in lowered module", entryFn)
	}

	g.wireCMain(entry)

	return nil
}

// WriteObjectFile compiles g's module for the host target machine and
// writes a relocatable object file to path, the object file cmd/mesh's
// linkBinary hands to the system linker. Grounded on the go-vslc reference
// codegen's target-machine setup (DefaultTargetTriple/CreateTargetMachine/
// EmitToMemoryBuffer), simplified to always target the host rather than
// accepting cross-compilation flags, since spec §4.6 never asks for
// cross-compilation.
func (g *Generator) WriteObjectFile(path string) error {
	triple := llvm.DefaultTargetTriple()

	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return fmt.Errorf("codegen: resolving host target %q: %w", triple, err)
	}

	machine := target.CreateTargetMachine(triple, "generic", "",
		llvm.CodeGenLevelDefault, llvm.RelocDefault, llvm.CodeModelDefault)
	defer machine.Dispose()

	data := machine.CreateTargetData()
	defer data.Dispose()

	g.mod.SetDataLayout(data.String())
	g.mod.SetTarget(triple)

	buf, err := machine.EmitToMemoryBuffer(g.mod, llvm.ObjectFile)
	if err != nil {
		return fmt.Errorf("codegen: emitting object code: %w", err)
	}
	defer buf.Dispose()

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (g *Generator) llvmType(t mir.MirType) llvm.Type {
	switch v := t.(type) {
	case mir.TyInt:
		return g.ctx.Int64Type()
	case mir.TyFloat:
		return g.ctx.DoubleType()
	case mir.TyBool:
		return g.ctx.Int1Type()
	case mir.TyString, mir.TyStruct, mir.TyPtr:
		return g.opaquePtr()
	case mir.TyUnit:
		return g.ctx.VoidType()
	case mir.TyTuple:
		return g.opaquePtr()
	case mir.TyFnPtr:
		params := make([]llvm.Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = g.llvmType(p)
		}

		return llvm.PointerType(llvm.FunctionType(g.llvmType(v.Ret), params, false), 0)
	default:
		return g.opaquePtr()
	}
}

func (g *Generator) declareFunction(fn mir.MirFunction) {
	paramTys := make([]llvm.Type, 0, len(fn.Params)+1)
	if fn.EnvSize > 0 {
		paramTys = append(paramTys, g.opaquePtr())
	}

	for _, p := range fn.Params {
		paramTys = append(paramTys, g.llvmType(p.Ty))
	}

	ret := g.llvmType(fn.Ret)
	ftyp := llvm.FunctionType(ret, paramTys, false)
	name := mapBuiltinName(fn.Name)

	if existing := g.mod.NamedFunction(name); !existing.IsNil() {
		g.fns[fn.Name] = existing
		return
	}

	llvmFn := llvm.AddFunction(g.mod, name, ftyp)
	g.fns[fn.Name] = llvmFn
}

// DeclareExtern declares a runtime ABI symbol that no MIR function defines
// a body for (the `mesh_*` intrinsics themselves), so calls against it
// link against the runtime library rather than failing to resolve.
func (g *Generator) DeclareExtern(userName string, paramTys []mir.MirType, ret mir.MirType) {
	abiName := mapBuiltinName(userName)
	if existing := g.mod.NamedFunction(abiName); !existing.IsNil() {
		return
	}

	llParams := make([]llvm.Type, len(paramTys))
	for i, p := range paramTys {
		llParams[i] = g.llvmType(p)
	}

	ftyp := llvm.FunctionType(g.llvmType(ret), llParams, false)
	fn := llvm.AddFunction(g.mod, abiName, ftyp)
	g.fns[userName] = fn
}

func (g *Generator) defineFunction(fn mir.MirFunction) error {
	llvmFn, ok := g.fns[fn.Name]
	if !ok {
		return fmt.Errorf("function %q was not declared", fn.Name)
	}

	// Intrinsic/extern-only declarations (no MIR body synthesized) stay as
	// declarations; nothing here should happen for those since pkg/mir
	// only emits MirFunction for bodies it actually lowered.
	entryBB := llvm.AddBasicBlock(llvmFn, "entry")
	g.builder.SetInsertPointAtEnd(entryBB)

	g.locals = map[string]llvm.Value{}

	paramOffset := 0
	if fn.EnvSize > 0 {
		envAlloca := g.builder.CreateAlloca(g.opaquePtr(), "env")
		g.builder.CreateStore(llvmFn.Param(0), envAlloca)
		g.locals["__env"] = envAlloca
		paramOffset = 1
	}

	for i, p := range fn.Params {
		alloca := g.builder.CreateAlloca(g.llvmType(p.Ty), p.Name)
		g.builder.CreateStore(llvmFn.Param(i+paramOffset), alloca)
		g.locals[p.Name] = alloca
	}

	result, err := g.genExpr(fn.Body)
	if err != nil {
		return err
	}

	if _, isUnit := fn.Ret.(mir.TyUnit); isUnit {
		g.builder.CreateRetVoid()
	} else {
		g.builder.CreateRet(result)
	}

	return nil
}

// wireCMain emits the C-ABI `main(argc, argv)` that calls the canonical
// entry function and returns 0, so the linked binary has a conventional OS
// entry point regardless of what the language calls its Main module's
// entry function.
func (g *Generator) wireCMain(entry llvm.Value) {
	i32 := g.ctx.Int32Type()
	argvTy := llvm.PointerType(llvm.PointerType(g.ctx.Int8Type(), 0), 0)
	ftyp := llvm.FunctionType(i32, []llvm.Type{i32, argvTy}, false)
	cmain := llvm.AddFunction(g.mod, "main", ftyp)
	bb := llvm.AddBasicBlock(cmain, "entry")
	g.builder.SetInsertPointAtEnd(bb)
	g.builder.CreateCall(entry.Type().ElementType(), entry, nil, "")
	g.builder.CreateRet(llvm.ConstInt(i32, 0, false))
}

func (g *Generator) genExpr(e mir.MirExpr) (llvm.Value, error) {
	switch v := e.(type) {
	case mir.Var:
		if v.Name == "__env" {
			return g.builder.CreateLoad(g.opaquePtr(), g.locals["__env"], ""), nil
		}

		if alloca, ok := g.locals[v.Name]; ok {
			return g.builder.CreateLoad(alloca.Type(), alloca, v.Name), nil
		}

		if fn, ok := g.fns[v.Name]; ok {
			return fn, nil
		}

		return llvm.Value{}, fmt.Errorf("codegen: unbound name %q", v.Name)

	case mir.Lit:
		return g.genLit(v)

	case mir.Call:
		return g.genCall(v)

	case mir.FieldAccess:
		return g.genFieldAccess(v)

	case mir.Block:
		return g.genBlock(v)

	case mir.Tuple:
		return g.genTuple(v)

	case mir.List:
		return g.genList(v)

	case mir.StringConcat:
		return g.genStringConcat(v)

	case mir.Match:
		return g.genMatch(v)

	case mir.ForIn:
		return g.genForIn(v)

	case mir.Closure:
		return g.genClosure(v)

	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported MIR expr %T", e)
	}
}

func (g *Generator) genLit(lit mir.Lit) (llvm.Value, error) {
	switch lit.Kind {
	case mir.LitInt:
		var n int64
		fmt.Sscanf(lit.Text, "%d", &n)
		return llvm.ConstInt(g.ctx.Int64Type(), uint64(n), true), nil
	case mir.LitFloat:
		var f float64
		fmt.Sscanf(lit.Text, "%g", &f)
		return llvm.ConstFloat(g.ctx.DoubleType(), f), nil
	case mir.LitBool:
		var v uint64
		if lit.Text == "true" {
			v = 1
		}

		return llvm.ConstInt(g.ctx.Int1Type(), v, false), nil
	case mir.LitString:
		return g.builder.CreateGlobalStringPtr(lit.Text, ""), nil
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unknown literal kind %d", lit.Kind)
	}
}

// genCall handles the single Call shape pkg/mir ever produces: every
// method-dot-syntax call has already been desugared to a direct call
// against a mangled/bare name with the receiver prepended (spec §4.5), so
// codegen never special-cases dot-syntax — bare-name and dot-syntax calls
// that reach here are byte-for-byte identical MIR.
func (g *Generator) genCall(call mir.Call) (llvm.Value, error) {
	calleeName, ok := call.Callee.(mir.Var)
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: indirect calls not yet supported")
	}

	fn, ok := g.fns[calleeName.Name]
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: call to undeclared function %q", calleeName.Name)
	}

	args := make([]llvm.Value, len(call.Args))

	for i, a := range call.Args {
		v, err := g.genExpr(a)
		if err != nil {
			return llvm.Value{}, err
		}

		args[i] = v
	}

	return g.builder.CreateCall(fn.GlobalValueType(), fn, args, ""), nil
}

func (g *Generator) genFieldAccess(fa mir.FieldAccess) (llvm.Value, error) {
	base, err := g.genExpr(fa.Base)
	if err != nil {
		return llvm.Value{}, err
	}

	// Struct layout: {len, elements...} in mesh_gc_alloc_actor slots (spec
	// §3). Field index is resolved by the struct's declared field order.
	idx, err := g.fieldIndex(fa)
	if err != nil {
		return llvm.Value{}, err
	}

	slotTy := g.ctx.Int64Type()
	gep := g.builder.CreateGEP(slotTy, base, []llvm.Value{
		llvm.ConstInt(g.ctx.Int32Type(), uint64(idx+1), false), // +1 skips the length header slot
	}, "")

	return g.builder.CreateLoad(slotTy, gep, fa.Field), nil
}

func (g *Generator) fieldIndex(fa mir.FieldAccess) (int, error) {
	for _, sd := range g.structs {
		for i, f := range sd.Fields {
			if f.Name == fa.Field {
				return i, nil
			}
		}
	}

	return 0, fmt.Errorf("codegen: field %q not found in any known struct", fa.Field)
}

func (g *Generator) genBlock(b mir.Block) (llvm.Value, error) {
	var last llvm.Value

	for _, stmt := range b.Stmts {
		switch s := stmt.(type) {
		case mir.LetStmt:
			v, err := g.genExpr(s.Expr)
			if err != nil {
				return llvm.Value{}, err
			}

			alloca := g.builder.CreateAlloca(g.llvmType(s.Ty), s.Name)
			g.builder.CreateStore(v, alloca)
			g.locals[s.Name] = alloca
		case mir.ExprStmt:
			v, err := g.genExpr(s.Expr)
			if err != nil {
				return llvm.Value{}, err
			}

			last = v
		case mir.ReturnStmt:
			v, err := g.genExpr(s.Expr)
			if err != nil {
				return llvm.Value{}, err
			}

			g.builder.CreateRet(v)
			last = v
		}
	}

	return last, nil
}

// genTuple allocates {len u64, elements u64[N]} via mesh_gc_alloc_actor,
// exactly the layout spec §4.6 says tuple_nth expects.
func (g *Generator) genTuple(t mir.Tuple) (llvm.Value, error) {
	return g.allocSlots(len(t.Items), t.Items)
}

func (g *Generator) genList(l mir.List) (llvm.Value, error) {
	return g.allocSlots(len(l.Items), l.Items)
}

func (g *Generator) allocSlots(n int, items []mir.MirExpr) (llvm.Value, error) {
	allocFn, ok := g.fns["gc_alloc_actor"]
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: mesh_gc_alloc_actor not declared")
	}

	size := uint64(8 * (n + 1)) // one u64 header slot + n element slots
	align := uint64(8)
	sizeArg := llvm.ConstInt(g.ctx.Int64Type(), size, false)
	alignArg := llvm.ConstInt(g.ctx.Int64Type(), align, false)
	ptr := g.builder.CreateCall(allocFn.GlobalValueType(), allocFn, []llvm.Value{sizeArg, alignArg}, "")

	slotTy := g.ctx.Int64Type()
	lenGep := g.builder.CreateGEP(slotTy, ptr, []llvm.Value{llvm.ConstInt(g.ctx.Int32Type(), 0, false)}, "")
	g.builder.CreateStore(llvm.ConstInt(slotTy, uint64(n), false), lenGep)

	for i, item := range items {
		v, err := g.genExpr(item)
		if err != nil {
			return llvm.Value{}, err
		}

		gep := g.builder.CreateGEP(slotTy, ptr, []llvm.Value{llvm.ConstInt(g.ctx.Int32Type(), uint64(i+1), false)}, "")
		g.builder.CreateStore(v, gep)
	}

	return ptr, nil
}

// genStringConcat lowers a chain of mesh_string_concat calls, the codegen
// side of spec §4.5's interpolation lowering.
func (g *Generator) genStringConcat(sc mir.StringConcat) (llvm.Value, error) {
	concatFn, ok := g.fns["string_concat"]
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: mesh_string_concat not declared")
	}

	if len(sc.Parts) == 0 {
		return g.builder.CreateGlobalStringPtr("", ""), nil
	}

	acc, err := g.genExpr(sc.Parts[0])
	if err != nil {
		return llvm.Value{}, err
	}

	for _, part := range sc.Parts[1:] {
		v, err := g.genExpr(part)
		if err != nil {
			return llvm.Value{}, err
		}

		acc = g.builder.CreateCall(concatFn.GlobalValueType(), concatFn, []llvm.Value{acc, v}, "")
	}

	return acc, nil
}

// genMatch lowers a compiled decision tree (spec §4.5): each arm's Test is
// evaluated in turn via a chain of conditional branches, falling through
// to the next arm on failure and to the arm's body on success. String
// literal arms were already compiled to mesh_string_eq calls by pkg/mir,
// so this loop never special-cases string patterns.
func (g *Generator) genMatch(m mir.Match) (llvm.Value, error) {
	fn := g.currentFunction()
	mergeBB := llvm.AddBasicBlock(fn, "match.merge")
	resultAlloca := g.builder.CreateAlloca(g.opaquePtr(), "match.result")

	for i, arm := range m.Arms {
		bodyBB := llvm.AddBasicBlock(fn, fmt.Sprintf("match.arm%d", i))
		var nextBB llvm.BasicBlock

		if arm.Test != nil {
			nextBB = llvm.AddBasicBlock(fn, fmt.Sprintf("match.next%d", i))

			test, err := g.genExpr(arm.Test)
			if err != nil {
				return llvm.Value{}, err
			}

			g.builder.CreateCondBr(test, bodyBB, nextBB)
		} else {
			g.builder.CreateBr(bodyBB)
		}

		g.builder.SetInsertPointAtEnd(bodyBB)

		body, err := g.genExpr(arm.Body)
		if err != nil {
			return llvm.Value{}, err
		}

		g.builder.CreateStore(body, resultAlloca)
		g.builder.CreateBr(mergeBB)

		if arm.Test != nil {
			g.builder.SetInsertPointAtEnd(nextBB)
		}
	}

	// Non-exhaustive matches are a type-checker error (spec scenario 1);
	// codegen assumes the last arm always reaches bodyBB unconditionally,
	// so control never actually falls through the final "next" block.
	g.builder.SetInsertPointAtEnd(mergeBB)

	return g.builder.CreateLoad(g.opaquePtr(), resultAlloca, ""), nil
}

// genForIn emits the four- or five-block CFG spec §4.5 describes: header
// (condition check), body, an optional filter-true-body block when a
// `when` guard is present, a latch (increment), and a merge block.
func (g *Generator) genForIn(f mir.ForIn) (llvm.Value, error) {
	fn := g.currentFunction()

	iter, err := g.genExpr(f.Iter)
	if err != nil {
		return llvm.Value{}, err
	}

	idxAlloca := g.builder.CreateAlloca(g.ctx.Int64Type(), "for.idx")
	g.builder.CreateStore(llvm.ConstInt(g.ctx.Int64Type(), 0, false), idxAlloca)

	headerBB := llvm.AddBasicBlock(fn, "for.header")
	bodyBB := llvm.AddBasicBlock(fn, "for.body")
	latchBB := llvm.AddBasicBlock(fn, "for.latch")
	mergeBB := llvm.AddBasicBlock(fn, "for.merge")

	var filterBB llvm.BasicBlock
	if f.Filter != nil {
		filterBB = llvm.AddBasicBlock(fn, "for.filter")
	}

	g.builder.CreateBr(headerBB)
	g.builder.SetInsertPointAtEnd(headerBB)

	idx := g.builder.CreateLoad(g.ctx.Int64Type(), idxAlloca, "")
	lenGep := g.builder.CreateGEP(g.ctx.Int64Type(), iter, []llvm.Value{llvm.ConstInt(g.ctx.Int32Type(), 0, false)}, "")
	length := g.builder.CreateLoad(g.ctx.Int64Type(), lenGep, "")
	cond := g.builder.CreateICmp(llvm.IntULT, idx, length, "")
	g.builder.CreateCondBr(cond, bodyBB, mergeBB)

	g.builder.SetInsertPointAtEnd(bodyBB)
	elemGep := g.builder.CreateGEP(g.ctx.Int64Type(), iter, []llvm.Value{
		g.builder.CreateAdd(idx, llvm.ConstInt(g.ctx.Int64Type(), 1, false), ""),
	}, "")
	elem := g.builder.CreateLoad(g.ctx.Int64Type(), elemGep, f.Binder)
	binderAlloca := g.builder.CreateAlloca(g.ctx.Int64Type(), f.Binder)
	g.builder.CreateStore(elem, binderAlloca)
	g.locals[f.Binder] = binderAlloca

	if f.Filter != nil {
		test, err := g.genExpr(f.Filter)
		if err != nil {
			return llvm.Value{}, err
		}

		g.builder.CreateCondBr(test, filterBB, latchBB)
		g.builder.SetInsertPointAtEnd(filterBB)
	}

	if _, err := g.genExpr(f.Body); err != nil {
		return llvm.Value{}, err
	}

	g.builder.CreateBr(latchBB)
	g.builder.SetInsertPointAtEnd(latchBB)
	next := g.builder.CreateAdd(idx, llvm.ConstInt(g.ctx.Int64Type(), 1, false), "")
	g.builder.CreateStore(next, idxAlloca)
	g.builder.CreateBr(headerBB)

	g.builder.SetInsertPointAtEnd(mergeBB)

	return llvm.Value{}, nil
}

// genClosure returns the declared function itself when the closure captures
// nothing, and otherwise a heap block of the captured values laid out like
// a tuple ({len, values...}). The function pointer is not stored in that
// block, and no {fn_ptr, env_ptr} pair is built.
func (g *Generator) genClosure(c mir.Closure) (llvm.Value, error) {
	fn, ok := g.fns[c.FnName]
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: closure over undeclared function %q", c.FnName)
	}

	if len(c.Env) == 0 {
		return fn, nil
	}

	env, err := g.allocSlots(len(c.Env), c.Env)
	if err != nil {
		return llvm.Value{}, err
	}

	return env, nil
}

// currentFunction recovers the llvm.Value of the function currently being
// built from the builder's insertion block.
func (g *Generator) currentFunction() llvm.Value {
	return g.builder.GetInsertBlock().Parent()
}

// SortedFunctionNames returns the lowered functions' names in a
// deterministic order, useful for golden-output tests that diff emitted IR.
func SortedFunctionNames(mod *mir.Module) []string {
	names := make([]string, len(mod.Functions))
	for i, fn := range mod.Functions {
		names[i] = fn.Name
	}

	sort.Strings(names)

	return names
}

func init() {
	llvm.InitializeNativeTarget()
	llvm.InitializeNativeAsmPrinter()
}
