package validate

import "github.com/vertexdlt/sablec/wasm"

// FuncValidator validates one function body against its declared
// signature and the enclosing module's context.
type FuncValidator struct {
	ctx     *Context
	funcIdx int
	locals  []wasm.ValueType
	results []wasm.ValueType

	stack      *Stack
	labels     []Label
	blockStack []string
}

func newFuncValidator(ctx *Context, funcIdx int, locals []wasm.ValueType, results []wasm.ValueType) *FuncValidator {
	return &FuncValidator{
		ctx:     ctx,
		funcIdx: funcIdx,
		locals:  locals,
		results: results,
		stack:   NewStack(),
	}
}

func (fv *FuncValidator) site() Site {
	return Site{FuncIdx: fv.funcIdx, BlockStack: append([]string(nil), fv.blockStack...)}
}

// ValidateFunction checks ft's declared signature against a function's
// flattened local types and instruction sequence body, returning the
// first validation error encountered.
func ValidateFunction(ctx *Context, funcIdx int, ft wasm.FunctionType, locals []wasm.ValueType, body []wasm.Instruction) error {
	fv := newFuncValidator(ctx, funcIdx, locals, ft.Results)
	if err := fv.validateSequence(body); err != nil {
		return err
	}
	return fv.stack.Finish(elemsFromTypes(ft.Results))
}

func (fv *FuncValidator) validateSequence(body []wasm.Instruction) error {
	for i := range body {
		if err := fv.validateInstruction(&body[i]); err != nil {
			return err
		}
	}
	return nil
}

func withTypeErrSite(err error, site Site) error {
	if err == nil {
		return nil
	}
	if te, ok := err.(*TypeError); ok {
		te.Site = site
		return te
	}
	return err
}

func (fv *FuncValidator) apply(ensures, promises []Elem) error {
	return withTypeErrSite(fv.stack.Apply(ensures, promises), fv.site())
}

func (fv *FuncValidator) malformed(kind MalformedErrorKind) error {
	return &MalformedError{Kind: kind, Site: fv.site()}
}

func (fv *FuncValidator) validateInstruction(inst *wasm.Instruction) error {
	op := inst.Op

	switch {
	case op == wasm.OpUnreachable:
		fv.stack.SetEpsilon()
		return nil

	case op == wasm.OpNop:
		return nil

	case op == wasm.OpBlock || op == wasm.OpLoop:
		return fv.validateBlockOrLoop(inst, op == wasm.OpLoop)

	case op == wasm.OpIf:
		return fv.validateIf(inst)

	case op == wasm.OpBr:
		return fv.validateBr(inst.Label)

	case op == wasm.OpBrIf:
		return fv.validateBrIf(inst.Label)

	case op == wasm.OpBrTable:
		return fv.validateBrTable(inst)

	case op == wasm.OpReturn:
		if err := fv.apply(elemsFromTypes(fv.results), nil); err != nil {
			return err
		}
		fv.stack.SetEpsilon()
		return nil

	case op == wasm.OpCall:
		ft, ok := fv.ctx.FuncType(inst.Func)
		if !ok {
			return fv.malformed(FuncIndexOutOfBound)
		}
		return fv.apply(elemsFromTypes(ft.Params), elemsFromTypes(ft.Results))

	case op == wasm.OpCallIndirect:
		if !fv.ctx.HasTable() {
			return fv.malformed(TableIndexOutOfBound)
		}
		ft, ok := fv.ctx.TypeAt(inst.Type)
		if !ok {
			return fv.malformed(TypeIndexOutOfBound)
		}
		ensures := append(elemsFromTypes(ft.Params), Concrete(wasm.I32))
		return fv.apply(ensures, elemsFromTypes(ft.Results))

	case op == wasm.OpDrop:
		v := fv.stack.Fresh()
		return fv.apply([]Elem{v}, nil)

	case op == wasm.OpSelect:
		v := fv.stack.Fresh()
		return fv.apply([]Elem{v, v, Concrete(wasm.I32)}, []Elem{v})

	case op == wasm.OpLocalGet || op == wasm.OpLocalSet || op == wasm.OpLocalTee:
		return fv.validateLocal(inst)

	case op == wasm.OpGlobalGet || op == wasm.OpGlobalSet:
		return fv.validateGlobal(inst)

	case op == wasm.OpMemorySize:
		if !fv.ctx.HasMemory() {
			return fv.malformed(MemIndexOutOfBound)
		}
		return fv.apply(nil, []Elem{Concrete(wasm.I32)})

	case op == wasm.OpMemoryGrow:
		if !fv.ctx.HasMemory() {
			return fv.malformed(MemIndexOutOfBound)
		}
		return fv.apply([]Elem{Concrete(wasm.I32)}, []Elem{Concrete(wasm.I32)})

	case op == wasm.OpI32Const:
		return fv.apply(nil, []Elem{Concrete(wasm.I32)})
	case op == wasm.OpI64Const:
		return fv.apply(nil, []Elem{Concrete(wasm.I64)})
	case op == wasm.OpF32Const:
		return fv.apply(nil, []Elem{Concrete(wasm.F32)})
	case op == wasm.OpF64Const:
		return fv.apply(nil, []Elem{Concrete(wasm.F64)})

	case op == wasm.OpI32Eqz:
		return fv.apply([]Elem{Concrete(wasm.I32)}, []Elem{Concrete(wasm.I32)})
	case op == wasm.OpI64Eqz:
		return fv.apply([]Elem{Concrete(wasm.I64)}, []Elem{Concrete(wasm.I32)})

	case op.IsComparison():
		t := op.OperandType()
		return fv.apply([]Elem{Concrete(t), Concrete(t)}, []Elem{Concrete(wasm.I32)})

	case op.IsUnary():
		t := op.OperandType()
		return fv.apply([]Elem{Concrete(t)}, []Elem{Concrete(t)})

	case op.IsBinary():
		t := op.OperandType()
		return fv.apply([]Elem{Concrete(t), Concrete(t)}, []Elem{Concrete(t)})

	case op.IsConversion():
		src, dst := conversionTypes(op)
		return fv.apply([]Elem{Concrete(src)}, []Elem{Concrete(dst)})

	case op == wasm.OpI32Extend8S || op == wasm.OpI32Extend16S || op == wasm.OpI64Extend8S || op == wasm.OpI64Extend16S || op == wasm.OpI64Extend32S:
		t := extendOperandType(op)
		return fv.apply([]Elem{Concrete(t)}, []Elem{Concrete(t)})

	case op == wasm.OpExtensionFC:
		if inst.SatOp > wasm.SatI64TruncF64U {
			return fv.malformed(MalformedValueType)
		}
		src, dst := satTruncTypes(inst.SatOp)
		return fv.apply([]Elem{Concrete(src)}, []Elem{Concrete(dst)})

	case op == wasm.OpExtensionSIMD:
		return fv.validateSimd(inst)

	case op >= wasm.OpI32Load && op <= wasm.OpI64Store32:
		return fv.validateMemOp(inst)
	}

	return fv.malformed(MalformedValueType)
}

func (fv *FuncValidator) validateLocal(inst *wasm.Instruction) error {
	idx := int(inst.Local)
	if idx < 0 || idx >= len(fv.locals) {
		return fv.malformed(LocalIndexOutOfBound)
	}
	t := Concrete(fv.locals[idx])
	switch inst.Op {
	case wasm.OpLocalGet:
		return fv.apply(nil, []Elem{t})
	case wasm.OpLocalSet:
		return fv.apply([]Elem{t}, nil)
	default: // OpLocalTee
		return fv.apply([]Elem{t}, []Elem{t})
	}
}

func (fv *FuncValidator) validateGlobal(inst *wasm.Instruction) error {
	gt, ok := fv.ctx.GlobalType(inst.Global)
	if !ok {
		return fv.malformed(GlobalIndexOutOfBound)
	}
	t := Concrete(gt.ValueType)
	if inst.Op == wasm.OpGlobalGet {
		return fv.apply(nil, []Elem{t})
	}
	if gt.Mutability != wasm.Var {
		return fv.malformed(GlobalMustBeMut)
	}
	return fv.apply([]Elem{t}, nil)
}

func (fv *FuncValidator) validateMemOp(inst *wasm.Instruction) error {
	if !fv.ctx.HasMemory() {
		return fv.malformed(MemIndexOutOfBound)
	}
	width, _, isLoad := wasm.LoadStoreWidth(inst.Op)
	if (uint32(1) << inst.Mem.Align) > width {
		return fv.malformed(InvalidAlign)
	}
	vt := wasm.ValueTypeOf(inst.Op)
	if isLoad {
		return fv.apply([]Elem{Concrete(wasm.I32)}, []Elem{Concrete(vt)})
	}
	return fv.apply([]Elem{Concrete(wasm.I32), Concrete(vt)}, nil)
}

// validateSimd dispatches a SIMD sub-opcode to the ensures/promises its
// actual shape calls for (wasm.SimdShapeOf), rather than approximating
// every sub-opcode as v128 x v128 -> v128: a splat promises v128 from a
// scalar ensure, a test op promises i32 from a v128 ensure, and so on.
func (fv *FuncValidator) validateSimd(inst *wasm.Instruction) error {
	v128 := Concrete(wasm.V128)
	i32 := Concrete(wasm.I32)

	switch wasm.SimdShapeOf(inst.SimdOp) {
	case wasm.SimdShapeMemoryLoad:
		if !fv.ctx.HasMemory() {
			return fv.malformed(MemIndexOutOfBound)
		}
		return fv.apply([]Elem{i32}, []Elem{v128})
	case wasm.SimdShapeMemoryStore:
		if !fv.ctx.HasMemory() {
			return fv.malformed(MemIndexOutOfBound)
		}
		return fv.apply([]Elem{i32, v128}, nil)
	case wasm.SimdShapeMemoryLoadLane:
		if !fv.ctx.HasMemory() {
			return fv.malformed(MemIndexOutOfBound)
		}
		return fv.apply([]Elem{i32, v128}, []Elem{v128})
	case wasm.SimdShapeMemoryStoreLane:
		if !fv.ctx.HasMemory() {
			return fv.malformed(MemIndexOutOfBound)
		}
		return fv.apply([]Elem{i32, v128}, nil)
	case wasm.SimdShapeConst:
		return fv.apply(nil, []Elem{v128})
	case wasm.SimdShapeSplat:
		return fv.apply([]Elem{Concrete(wasm.SimdScalarType(inst.SimdOp))}, []Elem{v128})
	case wasm.SimdShapeExtractLane:
		return fv.apply([]Elem{v128}, []Elem{Concrete(wasm.SimdScalarType(inst.SimdOp))})
	case wasm.SimdShapeReplaceLane:
		return fv.apply([]Elem{v128, Concrete(wasm.SimdScalarType(inst.SimdOp))}, []Elem{v128})
	case wasm.SimdShapeShuffle:
		return fv.apply([]Elem{v128, v128}, []Elem{v128})
	case wasm.SimdShapeUnary:
		return fv.apply([]Elem{v128}, []Elem{v128})
	case wasm.SimdShapeTest:
		return fv.apply([]Elem{v128}, []Elem{i32})
	case wasm.SimdShapeShift:
		return fv.apply([]Elem{v128, i32}, []Elem{v128})
	default: // SimdShapeBinary, including bitselect's folded-in ternary shape
		return fv.apply([]Elem{v128, v128}, []Elem{v128})
	}
}

func (fv *FuncValidator) validateBlockOrLoop(inst *wasm.Instruction, isLoop bool) error {
	ft, ok := wasm.BlockSignature(inst.BlockType, fv.ctx.mod.Types)
	if !ok {
		return fv.malformed(TypeIndexOutOfBound)
	}
	if err := fv.apply(elemsFromTypes(ft.Params), nil); err != nil {
		return err
	}

	labelResults := ft.Results
	if isLoop {
		labelResults = ft.Params
	}

	mnemonic := "block"
	if isLoop {
		mnemonic = "loop"
	}
	fv.blockStack = append(fv.blockStack, mnemonic)
	fv.labels = append(fv.labels, Label{Results: labelResults, IsLoop: isLoop})

	child := newFuncValidator(fv.ctx, fv.funcIdx, fv.locals, fv.results)
	child.blockStack = fv.blockStack
	child.labels = fv.labels
	child.stack.items = append(child.stack.items, elemsFromTypes(ft.Params)...)
	if err := child.validateSequence(inst.Then); err != nil {
		return err
	}
	if err := child.stack.Finish(elemsFromTypes(ft.Results)); err != nil {
		return withTypeErrSite(err, child.site())
	}

	fv.labels = fv.labels[:len(fv.labels)-1]
	fv.blockStack = fv.blockStack[:len(fv.blockStack)-1]

	return fv.apply(nil, elemsFromTypes(ft.Results))
}

func (fv *FuncValidator) validateIf(inst *wasm.Instruction) error {
	ft, ok := wasm.BlockSignature(inst.BlockType, fv.ctx.mod.Types)
	if !ok {
		return fv.malformed(TypeIndexOutOfBound)
	}
	ensures := append(elemsFromTypes(ft.Params), Concrete(wasm.I32))
	if err := fv.apply(ensures, nil); err != nil {
		return err
	}
	if !inst.HasElse && !ft.Equal(wasm.FunctionType{Params: ft.Params, Results: ft.Params}) {
		return fv.malformed(MalformedFunctionType)
	}

	fv.blockStack = append(fv.blockStack, "if")
	fv.labels = append(fv.labels, Label{Results: ft.Results})

	validateArm := func(arm []wasm.Instruction) error {
		child := newFuncValidator(fv.ctx, fv.funcIdx, fv.locals, fv.results)
		child.blockStack = fv.blockStack
		child.labels = fv.labels
		child.stack.items = append(child.stack.items, elemsFromTypes(ft.Params)...)
		if err := child.validateSequence(arm); err != nil {
			return err
		}
		return withTypeErrSite(child.stack.Finish(elemsFromTypes(ft.Results)), child.site())
	}

	if err := validateArm(inst.Then); err != nil {
		return err
	}
	if inst.HasElse {
		if err := validateArm(inst.Else); err != nil {
			return err
		}
	}

	fv.labels = fv.labels[:len(fv.labels)-1]
	fv.blockStack = fv.blockStack[:len(fv.blockStack)-1]

	return fv.apply(nil, elemsFromTypes(ft.Results))
}

func (fv *FuncValidator) label(idx wasm.LabelIdx) (Label, bool) {
	i := len(fv.labels) - 1 - int(idx)
	if i < 0 || i >= len(fv.labels) {
		return Label{}, false
	}
	return fv.labels[i], true
}

func (fv *FuncValidator) validateBr(idx wasm.LabelIdx) error {
	lbl, ok := fv.label(idx)
	if !ok {
		return fv.malformed(LabelIndexOutOfBound)
	}
	if err := fv.apply(elemsFromTypes(lbl.Results), nil); err != nil {
		return err
	}
	fv.stack.SetEpsilon()
	return nil
}

func (fv *FuncValidator) validateBrIf(idx wasm.LabelIdx) error {
	lbl, ok := fv.label(idx)
	if !ok {
		return fv.malformed(LabelIndexOutOfBound)
	}
	ensures := append(elemsFromTypes(lbl.Results), Concrete(wasm.I32))
	return fv.apply(ensures, elemsFromTypes(lbl.Results))
}

func (fv *FuncValidator) validateBrTable(inst *wasm.Instruction) error {
	def, ok := fv.label(inst.TableDefault)
	if !ok {
		return fv.malformed(LabelIndexOutOfBound)
	}
	for _, l := range inst.TableTargets {
		tgt, ok := fv.label(l)
		if !ok {
			return fv.malformed(LabelIndexOutOfBound)
		}
		// Every target label must carry the default's exact result types.
		if !sameTypes(tgt.Results, def.Results) {
			return fv.malformed(InvalidBranchTable)
		}
	}
	ensures := append(elemsFromTypes(def.Results), Concrete(wasm.I32))
	if err := fv.apply(ensures, nil); err != nil {
		return err
	}
	fv.stack.SetEpsilon()
	return nil
}

func sameTypes(a, b []wasm.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
